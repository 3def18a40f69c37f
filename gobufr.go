// Package gobufr reads WMO FM 94 BUFR messages.
//
// BUFR is specified in the WMO Manual on Codes, Volume I.2:
// https://library.wmo.int/idurl/4/35625
//
// Read and ReadFile frame and split every message of a stream. Element values
// are decoded with the decode package from a Decoder returned by NewDecoder.
package gobufr

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sdifrance/gobufr/bitcursor"
	"github.com/sdifrance/gobufr/bufrio"
	"github.com/sdifrance/gobufr/decode"
	"github.com/sdifrance/gobufr/message"
)

// Bulletin is a framed message with its sections.
type Bulletin struct {
	*bufrio.Message
	Sections *message.Message
}

// Read returns every message found in data. It stops at the first message
// that fails framing or section splitting, even when valid messages follow;
// use a bufrio.Scanner directly to skip corrupt messages and keep going.
func Read(data []byte, opts ...bufrio.Option) ([]*Bulletin, error) {
	s, err := bufrio.NewScanner(data, opts...)
	if err != nil {
		return nil, err
	}
	return readAll(s)
}

// ReadFile returns every message of the file at path. Like Read, it stops at
// the first corrupt message.
func ReadFile(path string, opts ...bufrio.Option) ([]*Bulletin, error) {
	s, err := bufrio.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return readAll(s)
}

func readAll(s *bufrio.Scanner) ([]*Bulletin, error) {
	var out []*Bulletin
	for {
		m, err := s.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "error reading BUFR message #%d", len(out))
		}
		sec, err := m.Sections()
		if err != nil {
			return nil, errors.Wrapf(err, "error splitting BUFR message @ byte offset %d", m.Offset)
		}
		out = append(out, &Bulletin{Message: m, Sections: sec})
	}
}

// NewDecoder returns a decoder positioned at the start of the data section of
// m. For compressed messages it reads the given subset.
func NewDecoder(m *message.Message, subset int, opts ...decode.Option) *decode.Decoder {
	if m.DataDescription().Compressed() {
		opts = append(opts, decode.WithCompression(decode.Compression{
			Subset: subset,
			Count:  m.DataDescription().Subsets(),
		}))
	}
	return decode.NewDecoder(bitcursor.New(m.Data()), opts...)
}
