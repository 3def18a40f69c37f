package decode

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/sdifrance/gobufr/alter"
	"github.com/sdifrance/gobufr/tableb"
)

// Bit patterns that mark an IEEE element as missing.
const (
	ieee32Missing = 0x7f7fffff
	ieee64Missing = 0x7fefffffffffffff
)

func effectiveRefVal(e *tableb.Element, st *alter.State) int64 {
	if v, ok := st.RefVal(e.Descr); ok {
		return v
	}
	return e.RefVal * st.RefMul()
}

// Interpret converts the raw pattern of element e into a value.
//
// A pattern of all ones is missing, except for the delayed replication and
// repetition factors. Numeric elements are (raw + reference) / 10^scale; the
// result is real for real elements and for positive scales, and integer
// otherwise. Character elements drop every octet below 0x20. Code and flag
// entries are returned unchanged.
func Interpret(e *tableb.Element, st *alter.State, raw Raw) (Value, error) {
	if e == nil || st == nil {
		return Value{}, ErrWidthUnresolvable
	}
	width := Width(e, st)
	scale := e.Scale + st.Scale()

	if raw.IsAllOnes(width) && !e.Descr.IsReplicationCount() {
		return Missing(), nil
	}

	switch e.Typ {
	case tableb.TypeInteger, tableb.TypeReal:
		if st.IEEE() != 0 {
			return interpretIEEE(st.IEEE(), raw)
		}
		if raw.Width() > 64 {
			return Value{}, errors.Errorf("element %s: numeric width %d exceeds 64 bits", e.Descr, raw.Width())
		}
		if raw.Uint64() > math.MaxInt64 {
			return Value{}, errors.Errorf("element %s: raw value %d overflows int64", e.Descr, raw.Uint64())
		}
		n := int64(raw.Uint64()) + effectiveRefVal(e, st)
		if e.Typ == tableb.TypeReal || scale > 0 {
			return Real(float64(n) / math.Pow10(scale)), nil
		}
		for ; scale < 0; scale++ {
			n *= 10
		}
		return Integer(n), nil
	case tableb.TypeString:
		return String(octetsToString(raw.Bytes())), nil
	case tableb.TypeCodeFlag:
		return CodeFlag(raw.Uint64()), nil
	}
	return Value{}, errors.Errorf("element %s: unknown type %v", e.Descr, e.Typ)
}

func interpretIEEE(size int, raw Raw) (Value, error) {
	switch size {
	case 32:
		bits := uint32(raw.Uint64())
		if bits == ieee32Missing {
			return Missing(), nil
		}
		return Real(float64(math.Float32frombits(bits))), nil
	case 64:
		bits := raw.Uint64()
		if bits == ieee64Missing {
			return Missing(), nil
		}
		return Real(math.Float64frombits(bits)), nil
	}
	return Value{}, errors.Wrapf(ErrInvalidIEEESize, "%d", size)
}

// octetsToString keeps every octet from 0x20 upwards, most significant first.
func octetsToString(octets []byte) string {
	var sb strings.Builder
	sb.Grow(len(octets))
	for _, b := range octets {
		if b >= 0x20 {
			sb.WriteByte(b)
		}
	}
	return sb.String()
}
