package message

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	"github.com/sdifrance/gobufr/bitcursor"
)

/*
Note on endianness:

Octets are numbered 1, 2, 3, etc., starting at the beginning of each section.
Bit positions within octets are referred to as bit 1 to bit 8, where bit 1 is
the most significant and bit 8 is the least significant bit.
*/

func parse4ByteUint(byte0, byte1, byte2, byte3 byte) uint32 {
	return binary.BigEndian.Uint32([]byte{byte0, byte1, byte2, byte3})
}

func parse3ByteUint(byte0, byte1, byte2 byte) uint32 {
	return parse4ByteUint(0, byte0, byte1, byte2)
}

func parse2ByteUint(byte0, byte1 byte) uint32 {
	return parse3ByteUint(0, byte0, byte1)
}

// DateTime decodes the reference time of section 1. Edition 3 holds year of
// century, month, day, hour and minute in one octet each; years above 50 are
// in the 1900s. Edition 4 holds a two octet year followed by month, day, hour,
// minute and second.
func DateTime(octets []byte, edition int) (time.Time, error) {
	var o int
	var yy uint64
	switch edition {
	case 3:
		if len(octets) < 5 {
			return time.Time{}, errors.Wrapf(ErrTruncated, "edition 3 date needs 5 octets, got %d", len(octets))
		}
		o, yy = bitcursor.Octets2Num(octets, 0, 1)
		if yy > 50 {
			yy += 1900
		} else {
			yy += 2000
		}
	case 4:
		if len(octets) < 7 {
			return time.Time{}, errors.Wrapf(ErrTruncated, "edition 4 date needs 7 octets, got %d", len(octets))
		}
		o, yy = bitcursor.Octets2Num(octets, 0, 2)
	default:
		return time.Time{}, errors.Errorf("no date layout for edition %d", edition)
	}
	mo, dy, hr, mi := int(octets[o]), int(octets[o+1]), int(octets[o+2]), int(octets[o+3])
	sc := 0
	if edition == 4 {
		sc = int(octets[o+4])
	}
	if mo < 1 || mo > 12 || dy < 1 || dy > 31 || hr > 23 || mi > 59 || sc > 59 {
		return time.Time{}, errors.Errorf("invalid date %04d-%02d-%02d %02d:%02d:%02d", yy, mo, dy, hr, mi, sc)
	}
	return time.Date(int(yy), time.Month(mo), dy, hr, mi, sc, 0, time.UTC), nil
}
