// Package yuftype holds the types shared by the container readers: the
// ByteSource abstraction, bounded range reads over it, and the sentinel
// errors re-exported by the public packages.
package yuftype
