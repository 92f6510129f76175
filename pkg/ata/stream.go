// file: pkg/ata/stream.go

package ata

import (
	"io"

	"github.com/pkg/errors"
)

// SectorReader is anything that can fill a buffer from a run of sectors.
// *Reader satisfies it.
type SectorReader interface {
	ReadSectors(lba uint64, count uint8, dst []byte) error
}

// MaxSectorsPerRead is the largest count a single command transfers.
const MaxSectorsPerRead = 255

// Stream exposes a range of sectors as an io.Reader, issuing reads of
// at most MaxSectorsPerRead sectors as the caller consumes data.
type Stream struct {
	r         SectorReader
	lba       uint64 // next sector to fetch
	remaining uint64 // sectors not yet fetched
	buf       []byte
	pos       int
}

// NewStream returns a Stream over sectors sectors starting at lba.
func NewStream(r SectorReader, lba, sectors uint64) *Stream {
	return &Stream{r: r, lba: lba, remaining: sectors}
}

// Read implements io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	if s.pos == len(s.buf) {
		if s.remaining == 0 {
			return 0, io.EOF
		}
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.buf[s.pos:])
	s.pos += n
	return n, nil
}

func (s *Stream) fill() error {
	n := s.remaining
	if n > MaxSectorsPerRead {
		n = MaxSectorsPerRead
	}
	if cap(s.buf) < int(n)*SectorSize {
		s.buf = make([]byte, int(n)*SectorSize)
	}
	s.buf = s.buf[:int(n)*SectorSize]
	s.pos = 0

	if err := s.r.ReadSectors(s.lba, uint8(n), s.buf); err != nil {
		s.buf = s.buf[:0]
		return errors.Wrapf(err, "reading sectors %d-%d", s.lba, s.lba+n-1)
	}
	s.lba += n
	s.remaining -= n
	return nil
}
