// Package bitcursor reads unsigned integers of arbitrary bit width from a BUFR
// message buffer.
//
// Bits are numbered as in WMO FM 94: bit 1 of an octet is the most significant
// bit, so every read composes MSB-first and multi-octet values are big-endian.
package bitcursor

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// ErrOutOfRange is returned when a read or skip would pass the end of the
// buffer.
var ErrOutOfRange = errors.New("bit range exhausted")

// MaxBits is the widest value ReadBits can return.
const MaxBits = 64

// Cursor is a read position over a fixed byte buffer. The buffer is never
// modified. A Cursor is meant to be used by one sequential decode pass.
type Cursor struct {
	buf []byte
	p   int // absolute bit offset, 0 <= p <= 8*len(buf)
}

// New returns a cursor positioned at the first bit of b.
func New(b []byte) *Cursor { return &Cursor{buf: b} }

// Pos returns the absolute bit position.
func (c *Cursor) Pos() int { return c.p }

// ByteCount returns the octet that holds the current bit.
func (c *Cursor) ByteCount() int { return c.p / 8 }

// Len returns the size of the buffer in bits.
func (c *Cursor) Len() int { return len(c.buf) * 8 }

// Remaining returns the number of unread bits.
func (c *Cursor) Remaining() int { return c.Len() - c.p }

// CurrentOctet returns the octet holding the current bit, or false at the end
// of the buffer.
func (c *Cursor) CurrentOctet() (byte, bool) {
	if c.p/8 >= len(c.buf) {
		return 0, false
	}
	return c.buf[c.p/8], true
}

func (c *Cursor) check(n int) error {
	if n < 0 {
		return errors.Errorf("negative bit count %d", n)
	}
	if c.p+n > c.Len() {
		return errors.Wrapf(ErrOutOfRange, "need %d bits at bit %d, buffer holds %d", n, c.p, c.Len())
	}
	return nil
}

// ReadBits returns the next n bits as an unsigned integer and advances the
// position by n. n must be in [0, 64]; reading 0 bits returns 0.
func (c *Cursor) ReadBits(n int) (uint64, error) {
	if n > MaxBits {
		return 0, errors.Errorf("cannot read %d bits into a uint64", n)
	}
	if err := c.check(n); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	// Fast path: octet-aligned reads of whole octet widths.
	if c.p%8 == 0 {
		off := c.p / 8
		switch n {
		case 8:
			c.p += n
			return uint64(c.buf[off]), nil
		case 16:
			c.p += n
			return uint64(binary.BigEndian.Uint16(c.buf[off:])), nil
		case 32:
			c.p += n
			return uint64(binary.BigEndian.Uint32(c.buf[off:])), nil
		case 64:
			c.p += n
			return binary.BigEndian.Uint64(c.buf[off:]), nil
		}
	}
	var v uint64
	for n > 0 {
		avail := 8 - c.p%8
		take := avail
		if n < take {
			take = n
		}
		b := c.buf[c.p/8] >> (avail - take)
		v = v<<take | uint64(b&(1<<take-1))
		c.p += take
		n -= take
	}
	return v, nil
}

// ReadWide reads n bits of any width and returns them right-aligned in
// (n+7)/8 big-endian octets. Character elements are usually wider than 64 bits.
func (c *Cursor) ReadWide(n int) ([]byte, error) {
	if err := c.check(n); err != nil {
		return nil, err
	}
	out := make([]byte, (n+7)/8)
	// A leading partial octet keeps the value right-aligned.
	i := 0
	if head := n % 8; head != 0 {
		v, _ := c.ReadBits(head)
		out[0] = byte(v)
		i = 1
	}
	for ; i < len(out); i++ {
		v, _ := c.ReadBits(8)
		out[i] = byte(v)
	}
	return out, nil
}

// SkipBits advances the position by n bits.
func (c *Cursor) SkipBits(n int) error {
	if err := c.check(n); err != nil {
		return err
	}
	c.p += n
	return nil
}

// ReadAs reads n bits and converts them to T. The caller picks a T wide enough
// for n.
func ReadAs[T constraints.Unsigned](c *Cursor, n int) (T, error) {
	v, err := c.ReadBits(n)
	if err != nil {
		return 0, err
	}
	return T(v), nil
}

// Octets2Num composes count octets of data starting at offset, high octet
// first. It returns the offset after the composed octets and the value.
func Octets2Num(data []byte, offset, count int) (int, uint64) {
	var v uint64
	for _, b := range data[offset : offset+count] {
		v = v<<8 | uint64(b)
	}
	return offset + count, v
}

// BitString renders n as a string of '0' and '1', one octet wide, or two octets
// wide when n does not fit in one.
func BitString(n uint64) string {
	width := 8
	if n>>8 != 0 {
		width = 16
	}
	var sb strings.Builder
	for i := width - 1; i >= 0; i-- {
		if n&(1<<uint(i)) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
