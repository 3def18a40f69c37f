// Package testutil builds BUFR fixtures for tests.
package testutil

import (
	"time"

	"github.com/sdifrance/gobufr/tableb"
)

// Fixture describes a message to build.
type Fixture struct {
	Edition     int
	Centre      int
	SubCentre   int
	Category    int
	Time        time.Time
	Optional    []byte
	Subsets     int
	Observed    bool
	Compressed  bool
	Descriptors []tableb.Descriptor
	Data        []byte
}

// Build encodes f as a complete message from "BUFR" to "7777".
func Build(f Fixture) []byte {
	if f.Edition == 0 {
		f.Edition = 4
	}
	var sec1 []byte
	if f.Edition >= 4 {
		sec1 = []byte{
			0, 0, 22, 0,
			byte(f.Centre >> 8), byte(f.Centre),
			byte(f.SubCentre >> 8), byte(f.SubCentre),
			0, 0, byte(f.Category), 0, 0, 30, 0,
			byte(f.Time.Year() >> 8), byte(f.Time.Year()),
			byte(f.Time.Month()), byte(f.Time.Day()),
			byte(f.Time.Hour()), byte(f.Time.Minute()), byte(f.Time.Second()),
		}
	} else {
		sec1 = []byte{
			0, 0, 18, 0,
			byte(f.SubCentre), byte(f.Centre),
			0, 0, byte(f.Category), 0, 13, 0,
			byte(f.Time.Year() % 100), byte(f.Time.Month()), byte(f.Time.Day()),
			byte(f.Time.Hour()), byte(f.Time.Minute()), 0,
		}
	}
	flagIdx := 9
	if f.Edition < 4 {
		flagIdx = 7
	}

	var sec2 []byte
	if f.Optional != nil {
		sec1[flagIdx] = 0x80
		sec2 = withLength(append([]byte{0, 0, 0, 0}, f.Optional...))
	}

	var flags byte
	if f.Observed {
		flags |= 0x80
	}
	if f.Compressed {
		flags |= 0x40
	}
	sec3 := []byte{0, 0, 0, 0, byte(f.Subsets >> 8), byte(f.Subsets), flags}
	for _, d := range f.Descriptors {
		sec3 = append(sec3, byte(d.F()<<6|d.X()), byte(d.Y()))
	}
	if len(sec3)%2 != 0 {
		sec3 = append(sec3, 0)
	}
	sec3 = withLength(sec3)

	sec4 := withLength(append([]byte{0, 0, 0, 0}, f.Data...))

	msg := []byte{'B', 'U', 'F', 'R', 0, 0, 0, byte(f.Edition)}
	msg = append(msg, sec1...)
	msg = append(msg, sec2...)
	msg = append(msg, sec3...)
	msg = append(msg, sec4...)
	msg = append(msg, '7', '7', '7', '7')
	n := len(msg)
	msg[4], msg[5], msg[6] = byte(n>>16), byte(n>>8), byte(n)
	return msg
}

func withLength(sec []byte) []byte {
	n := len(sec)
	sec[0], sec[1], sec[2] = byte(n>>16), byte(n>>8), byte(n)
	return sec
}
