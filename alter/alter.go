// Package alter holds the state of the BUFR data description operators that
// change width, scale and reference value of the elements that follow them.
//
// A State is a value. Operators return a new State and never modify the
// receiver, so a decoder holding a State cannot observe a later change made by
// the descriptor walker.
package alter

import (
	"fmt"
	"strings"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/sdifrance/gobufr/tableb"
)

// State is the set of active alteration operators. The zero value has no
// operator active.
type State struct {
	wnum   int
	wchr   int
	scale  int
	refmul int64
	refval *orderedmap.OrderedMap[tableb.Descriptor, int64]
	assoc  []int
	ieee   int
}

// WNum is the width delta added to numeric elements (operator 2 01 YYY).
func (s State) WNum() int { return s.wnum }

// WChr is the width in bits that replaces the width of character elements
// (operator 2 08 YYY), 0 when not set.
func (s State) WChr() int { return s.wchr }

// Scale is the delta added to the element scale (operator 2 02 YYY).
func (s State) Scale() int { return s.scale }

// RefMul multiplies the Table B reference value when no explicit override
// exists for a descriptor.
func (s State) RefMul() int64 {
	if s.refmul == 0 {
		return 1
	}
	return s.refmul
}

// RefVal returns the explicit reference value set for d (operator 2 03 YYY).
func (s State) RefVal(d tableb.Descriptor) (int64, bool) {
	if s.refval == nil {
		return 0, false
	}
	return s.refval.Get(d)
}

// Assoc returns the width of the current associated field, 0 if none.
func (s State) Assoc() int {
	if len(s.assoc) == 0 {
		return 0
	}
	return s.assoc[len(s.assoc)-1]
}

// IEEE is 32 or 64 when numeric elements are IEEE floating point, else 0.
func (s State) IEEE() int { return s.ieee }

// WithWidthDelta sets the numeric width delta.
func (s State) WithWidthDelta(n int) State {
	s.wnum = n
	return s
}

// WithCharWidth sets the character width override in bits, 0 cancels it.
func (s State) WithCharWidth(bits int) State {
	s.wchr = bits
	return s
}

// WithScaleDelta sets the scale delta.
func (s State) WithScaleDelta(n int) State {
	s.scale = n
	return s
}

// WithRefMultiplier sets the reference value multiplier.
func (s State) WithRefMultiplier(m int64) State {
	s.refmul = m
	return s
}

// WithIncreasedPrecision applies operator 2 07 YYY: scale and reference value
// grow by 10^y and the width by (10*y+2)/3 bits. y = 0 cancels it.
func (s State) WithIncreasedPrecision(y int) State {
	if y == 0 {
		s.scale, s.refmul, s.wnum = 0, 1, 0
		return s
	}
	s.scale = y
	s.wnum = (10*y + 2) / 3
	s.refmul = 1
	for i := 0; i < y; i++ {
		s.refmul *= 10
	}
	return s
}

// WithRefVal records an explicit reference value for d.
func (s State) WithRefVal(d tableb.Descriptor, v int64) State {
	if s.refval == nil {
		s.refval = orderedmap.NewOrderedMap[tableb.Descriptor, int64]()
	} else {
		s.refval = s.refval.Copy()
	}
	s.refval.Set(d, v)
	return s
}

// WithoutRefVals drops every explicit reference value.
func (s State) WithoutRefVals() State {
	s.refval = nil
	return s
}

// WithIEEE sets the IEEE floating point size, 0 switches it off. The decoder
// rejects sizes other than 32 and 64.
func (s State) WithIEEE(bits int) State {
	s.ieee = bits
	return s
}

// PushAssoc makes an associated field of the given width current.
func (s State) PushAssoc(width int) State {
	assoc := make([]int, len(s.assoc), len(s.assoc)+1)
	copy(assoc, s.assoc)
	s.assoc = append(assoc, width)
	return s
}

// PopAssoc returns to the previous associated field width.
func (s State) PopAssoc() State {
	if len(s.assoc) > 0 {
		s.assoc = s.assoc[:len(s.assoc)-1:len(s.assoc)-1]
	}
	return s
}

// String describes the active operators.
func (s State) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "wnum:%d wchr:%d scale:%d refmul:%d assoc:%d ieee:%d", s.wnum, s.wchr, s.scale, s.RefMul(), s.Assoc(), s.ieee)
	if s.refval != nil && s.refval.Len() > 0 {
		sb.WriteString(" refval:{")
		first := true
		for d, v := range s.refval.AllFromFront() {
			if !first {
				sb.WriteByte(' ')
			}
			first = false
			fmt.Fprintf(&sb, "%s:%d", d, v)
		}
		sb.WriteByte('}')
	}
	return sb.String()
}
