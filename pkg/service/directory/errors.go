package directory

import "errors"

var (
	// ErrDirectoryUnavailable is returned when no usable snapshot can be
	// built. A stale snapshot is never served in its place.
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// ErrMirrorEmpty is returned by RepositoryProvider before the first
	// successful mirror refresh
	ErrMirrorEmpty = errors.New("directory mirror has not been populated")
)
