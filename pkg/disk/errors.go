// file: pkg/disk/errors.go

package disk

import "github.com/pkg/errors"

var (
	ErrEmptyImage  = errors.New("image has no sectors")
	ErrBadSize     = errors.New("image size is not a multiple of the sector size")
	ErrOutOfRange  = errors.New("sector out of range")
	ErrShortBuffer = errors.New("buffer smaller than a sector")
	ErrNoGeometry  = errors.New("image has no CHS geometry")
)
