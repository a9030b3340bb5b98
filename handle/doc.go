// Package handle manages the transient resource handles created when an
// asset is put on screen.
//
// A Manager keeps an ownership table from rendering slot to handle. Every
// supersession and teardown path goes through the same release step, so each
// handle is released exactly once and no slot ever holds more than one.
//
// Loads are two-phase. [Manager.Reserve] claims a slot and returns a Ticket;
// the asset is resolved without holding any lock; [Manager.Acquire] installs
// the result only if no later Reserve or release has touched the slot since.
// A late result is rejected with ErrStale instead of leaking a handle.
package handle
