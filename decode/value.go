package decode

import (
	"strconv"
)

// Kind tells which field of a Value is set.
type Kind int

const (
	// KindMissing marks the BUFR "missing value".
	KindMissing Kind = iota
	KindInteger
	KindReal
	KindString
	KindCodeFlag
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindCodeFlag:
		return "code/flag"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is one decoded element value.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	c    uint64
}

// Missing returns the missing value.
func Missing() Value { return Value{} }

// Integer returns an integer value.
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }

// Real returns a real value.
func Real(f float64) Value { return Value{kind: KindReal, f: f} }

// String returns a character value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// CodeFlag returns a code or flag table entry.
func CodeFlag(c uint64) Value { return Value{kind: KindCodeFlag, c: c} }

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsMissing is true for the missing value.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Int returns the integer value.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInteger }

// Float returns the real value.
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindReal }

// Str returns the character value.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Code returns the code or flag table entry.
func (v Value) Code() (uint64, bool) { return v.c, v.kind == KindCodeFlag }

// Interface returns the value as int64, float64, string, uint64, or nil when
// missing.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindReal:
		return v.f
	case KindString:
		return v.s
	case KindCodeFlag:
		return v.c
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindCodeFlag:
		return strconv.FormatUint(v.c, 10)
	}
	return "None"
}
