package decode

import (
	"bytes"
	"fmt"
	"math"
)

// Raw is an unsigned bit pattern read from section 4 together with the width
// it was read at. Patterns up to 64 bits are held in a uint64; wider ones, which
// only occur for character elements, are held as big-endian octets.
type Raw struct {
	width int
	v     uint64
	wide  []byte
}

// NewRaw returns a pattern of the given width, width <= 64.
func NewRaw(width int, v uint64) Raw { return Raw{width: width, v: v} }

// NewWideRaw returns a pattern of the given width from right-aligned
// big-endian octets.
func NewWideRaw(width int, octets []byte) Raw {
	if width <= 64 {
		var v uint64
		for _, b := range octets {
			v = v<<8 | uint64(b)
		}
		return Raw{width: width, v: v}
	}
	return Raw{width: width, wide: octets}
}

// allOnes is the missing-value pattern (1<<width)-1.
func allOnes(width int) Raw {
	if width <= 64 {
		if width == 64 {
			return Raw{width: width, v: math.MaxUint64}
		}
		return Raw{width: width, v: 1<<uint(width) - 1}
	}
	b := make([]byte, (width+7)/8)
	for i := range b {
		b[i] = 0xFF
	}
	if head := width % 8; head != 0 {
		b[0] = 1<<uint(head) - 1
	}
	return Raw{width: width, wide: b}
}

// Width is the number of bits the pattern was read at.
func (r Raw) Width() int { return r.width }

// Uint64 returns the pattern, truncated to its low 64 bits when wider.
func (r Raw) Uint64() uint64 {
	if r.wide == nil {
		return r.v
	}
	var v uint64
	for _, b := range r.wide {
		v = v<<8 | uint64(b)
	}
	return v
}

// Bytes returns the pattern as (width+7)/8 big-endian octets.
func (r Raw) Bytes() []byte {
	if r.wide != nil {
		return r.wide
	}
	n := (r.width + 7) / 8
	out := make([]byte, n)
	v := r.v
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

// Equal compares the numeric value of two patterns regardless of width.
func (r Raw) Equal(o Raw) bool {
	if r.wide == nil && o.wide == nil {
		return r.v == o.v
	}
	return bytes.Equal(bytes.TrimLeft(r.Bytes(), "\x00"), bytes.TrimLeft(o.Bytes(), "\x00"))
}

// IsAllOnes is true when the value equals (1<<width)-1.
func (r Raw) IsAllOnes(width int) bool { return r.Equal(allOnes(width)) }

func (r Raw) String() string {
	if r.wide == nil {
		return fmt.Sprintf("%d", r.v)
	}
	return fmt.Sprintf("0x%X", r.wide)
}

// add returns r+o at r's width; carries out of the top octet are dropped.
func (r Raw) add(o Raw) Raw {
	if r.wide == nil && o.wide == nil && r.width <= 64 {
		return Raw{width: r.width, v: r.v + o.v}
	}
	a := r.Bytes()
	b := o.Bytes()
	sum := make([]byte, len(a))
	carry := 0
	for i := 1; i <= len(a); i++ {
		s := int(a[len(a)-i]) + carry
		if i <= len(b) {
			s += int(b[len(b)-i])
		}
		sum[len(sum)-i] = byte(s)
		carry = s >> 8
	}
	return NewWideRaw(r.width, sum)
}
