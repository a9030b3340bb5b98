// Package view holds the navigation state layered over one image archive
// index: the directory filter, the paginated grid, the chapter-sequenced
// reading mode and the wrapping lightbox cursor.
//
// State is a plain owned value with no I/O. Each opened archive gets its own
// State, so an outer media container and any nested archives never share
// navigation state.
package view
