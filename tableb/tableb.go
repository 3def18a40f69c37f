// Package tableb describes BUFR Table B element descriptors as consumed by the
// value decoder.
//
// Loading Table B from disk is left to the caller; Map is an in-memory table
// that satisfies Table.
package tableb

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnknownDescriptor is returned by a Table lookup miss.
var ErrUnknownDescriptor = errors.New("unknown descriptor")

// Descriptor is a six digit descriptor code F*100000 + X*1000 + Y.
type Descriptor int

// FXY builds a descriptor from its parts.
func FXY(f, x, y int) Descriptor {
	return Descriptor(f*100000 + x*1000 + y)
}

// F returns the descriptor class (0 element, 1 replication, 2 operator, 3 sequence).
func (d Descriptor) F() int { return int(d) / 100000 }

// X returns the two digit group.
func (d Descriptor) X() int { return int(d) / 1000 % 100 }

// Y returns the three digit entry.
func (d Descriptor) Y() int { return int(d) % 1000 }

// String returns the FXXYYY form.
func (d Descriptor) String() string { return fmt.Sprintf("%06d", int(d)) }

// IsReplicationCount is true for the delayed replication and repetition
// factors 0 31 000 - 0 31 019, whose all-ones value is a count, not "missing".
func (d Descriptor) IsReplicationCount() bool {
	return d >= 31000 && d < 31020
}

// Type selects the decode rule for an element.
type Type int

const (
	// TypeCodeFlag is a code table or flag table entry, returned unscaled.
	TypeCodeFlag Type = iota
	// TypeInteger is a signed scaled integer.
	TypeInteger
	// TypeReal is a signed scaled real.
	TypeReal
	// TypeString is a CCITT IA5 character field.
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeCodeFlag:
		return "code/flag"
	case TypeInteger:
		return "long"
	case TypeReal:
		return "double"
	case TypeString:
		return "string"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Numeric is true for the types affected by width, scale and IEEE operators.
func (t Type) Numeric() bool { return t == TypeInteger || t == TypeReal }

// Element is a Table B entry.
type Element struct {
	Descr  Descriptor
	Name   string
	Unit   string
	Scale  int
	RefVal int64
	Width  int
	Typ    Type
}

// Table resolves element descriptors.
type Table interface {
	Lookup(d Descriptor) (*Element, error)
}

// Map is a Table backed by a Go map.
type Map map[Descriptor]*Element

// NewMap indexes elems by descriptor; a later entry replaces an earlier one.
func NewMap(elems ...Element) Map {
	m := make(Map, len(elems))
	for i := range elems {
		e := elems[i]
		m[e.Descr] = &e
	}
	return m
}

// Lookup implements Table.
func (m Map) Lookup(d Descriptor) (*Element, error) {
	e, ok := m[d]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownDescriptor, "table B entry %s", d)
	}
	return e, nil
}
