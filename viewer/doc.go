// Package viewer composes the format readers, the view engine and the handle
// manager into the two on-screen components: a Player for media containers
// and a Gallery for image archives, including archives nested in a media
// container.
package viewer
