// Package decode extracts element values from the data section of a BUFR
// message.
//
// Decoding an element takes two steps. A Decoder pulls the raw bit pattern
// from the cursor, taking compression into account (RawFor, RawFixed), and
// Interpret turns the pattern into a typed Value using the Table B entry and
// the active alteration operators.
package decode

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sdifrance/gobufr/alter"
	"github.com/sdifrance/gobufr/bitcursor"
	"github.com/sdifrance/gobufr/tableb"
	"github.com/sirupsen/logrus"
)

var (
	// ErrWidthUnresolvable is returned when neither a fixed width nor an
	// element with its alteration state is supplied.
	ErrWidthUnresolvable = errors.New("can't determine width")
	// ErrInvalidIEEESize is returned when the IEEE operator is active with a
	// size other than 32 or 64.
	ErrInvalidIEEESize = errors.New("invalid IEEE size")
)

// Compression identifies the subset being decoded from a compressed message.
type Compression struct {
	// Subset is the zero based index of the subset being decoded.
	Subset int
	// Count is the number of subsets in the message.
	Count int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the sink for decode traces.
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Decoder) { d.log = l }
}

// WithCompression makes the decoder read compressed data for the given
// subset.
func WithCompression(c Compression) Option {
	return func(d *Decoder) {
		d.comp = &c
	}
}

// Decoder reads element values from one cursor.
type Decoder struct {
	cur  *bitcursor.Cursor
	comp *Compression
	log  logrus.FieldLogger
}

// NewDecoder returns a decoder reading from c. Without WithCompression the
// data is read as uncompressed.
func NewDecoder(c *bitcursor.Cursor, opts ...Option) *Decoder {
	d := &Decoder{cur: c}
	for _, o := range opts {
		o(d)
	}
	if d.log == nil {
		d.log = discardLogger()
	}
	return d
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Cursor returns the cursor the decoder reads from.
func (d *Decoder) Cursor() *bitcursor.Cursor { return d.cur }

// SetSubset selects the subset read by the compressed path. Subsets are
// expected to be visited in increasing order, one element at a time.
func (d *Decoder) SetSubset(i int) {
	if d.comp != nil {
		d.comp.Subset = i
	}
}

// Compressed reports whether the decoder reads compressed data.
func (d *Decoder) Compressed() bool { return d.comp != nil }

// Width returns the width an element occupies in uncompressed data under the
// given alteration state.
func Width(e *tableb.Element, st *alter.State) int {
	switch e.Typ {
	case tableb.TypeString:
		if st.WChr() != 0 {
			return st.WChr()
		}
		return e.Width
	case tableb.TypeInteger, tableb.TypeReal:
		if st.IEEE() != 0 {
			return st.IEEE()
		}
		return e.Width + st.WNum()
	case tableb.TypeCodeFlag:
		return e.Width
	}
	return e.Width
}

// RawFixed reads a field of fixed width, such as the section 4 fields that do
// not come from Table B.
func (d *Decoder) RawFixed(width int) (Raw, error) {
	if width < 0 {
		return Raw{}, errors.Wrapf(ErrWidthUnresolvable, "fixed width %d", width)
	}
	d.traceOctets(logrus.Fields{"fixed": width})
	return d.read(width, tableb.TypeInteger)
}

// RawFor reads the raw pattern of element e. e and st must both be set.
func (d *Decoder) RawFor(e *tableb.Element, st *alter.State) (Raw, error) {
	if e == nil || st == nil {
		return Raw{}, ErrWidthUnresolvable
	}
	w := Width(e, st)
	if w < 0 {
		return Raw{}, errors.Wrapf(ErrWidthUnresolvable, "element %s width %d%+d", e.Descr, e.Width, st.WNum())
	}
	d.traceOctets(logrus.Fields{
		"descriptor": e.Descr.String(),
		"width":      e.Width,
		"wnum":       st.WNum(),
		"assoc":      st.Assoc(),
	})
	raw, err := d.read(w, e.Typ)
	if err != nil {
		return Raw{}, errors.Wrapf(err, "element %s", e.Descr)
	}
	return raw, nil
}

// Decode reads and interprets element e.
func (d *Decoder) Decode(e *tableb.Element, st *alter.State) (Value, error) {
	raw, err := d.RawFor(e, st)
	if err != nil {
		return Value{}, err
	}
	return d.Interpret(e, st, raw)
}

// Interpret is the package level Interpret with decode traces.
func (d *Decoder) Interpret(e *tableb.Element, st *alter.State, raw Raw) (Value, error) {
	if e == nil || st == nil {
		return Value{}, ErrWidthUnresolvable
	}
	d.log.WithFields(logrus.Fields{
		"descriptor": e.Descr.String(),
		"type":       e.Typ.String(),
		"width":      Width(e, st),
		"ref":        effectiveRefVal(e, st),
		"scale":      e.Scale,
		"scaleDelta": st.Scale(),
	}).Debug("EVAL")
	v, err := Interpret(e, st, raw)
	if err != nil {
		return Value{}, err
	}
	d.log.WithFields(logrus.Fields{
		"descriptor": e.Descr.String(),
		"raw":        raw.String(),
	}).Debugf("DECODE -> %s", v)
	return v, nil
}

func (d *Decoder) traceOctets(f logrus.Fields) {
	f["bc"] = d.cur.ByteCount()
	f["bit"] = d.cur.Pos()
	if b, ok := d.cur.CurrentOctet(); ok {
		f["octet"] = bitcursor.BitString(uint64(b))
	}
	d.log.WithFields(f).Debug("OCTETS")
}

func (d *Decoder) read(width int, typ tableb.Type) (Raw, error) {
	if d.comp != nil {
		return d.readCompressed(width, typ)
	}
	return readRaw(d.cur, width)
}

func readRaw(c *bitcursor.Cursor, width int) (Raw, error) {
	if width <= bitcursor.MaxBits {
		v, err := c.ReadBits(width)
		if err != nil {
			return Raw{}, err
		}
		return NewRaw(width, v), nil
	}
	b, err := c.ReadWide(width)
	if err != nil {
		return Raw{}, err
	}
	return NewWideRaw(width, b), nil
}

// readCompressed reads one element of compressed data: the reference value
// common to all subsets, the 6 bit increment width, then the increments of
// every subset. Only the increment of the current subset is decoded; the
// cursor always ends after the increment block.
func (d *Decoder) readCompressed(width int, typ tableb.Type) (Raw, error) {
	minVal, err := readRaw(d.cur, width)
	if err != nil {
		return Raw{}, err
	}
	cw, err := bitcursor.ReadAs[uint8](d.cur, 6)
	if err != nil {
		return Raw{}, err
	}
	cwidth := int(cw)
	if typ == tableb.TypeString {
		// Character increments are counted in octets.
		cwidth *= 8
	}
	if minVal.IsAllOnes(width) {
		return allOnes(width), nil
	}
	if cwidth == 0 {
		return minVal, nil
	}
	d.log.WithFields(logrus.Fields{
		"width":   width,
		"subset":  d.comp.Subset,
		"subsets": d.comp.Count,
		"cwidth":  cwidth,
	}).Debug("CSET")
	if d.comp.Subset < 0 || d.comp.Subset >= d.comp.Count {
		return Raw{}, errors.Errorf("subset %d out of range [0, %d)", d.comp.Subset, d.comp.Count)
	}
	if err := d.cur.SkipBits(cwidth * d.comp.Subset); err != nil {
		return Raw{}, err
	}
	delta, err := readRaw(d.cur, cwidth)
	if err != nil {
		return Raw{}, err
	}
	var v Raw
	if delta.IsAllOnes(cwidth) {
		v = allOnes(width)
	} else {
		v = minVal.add(delta)
	}
	if err := d.cur.SkipBits(cwidth * (d.comp.Count - d.comp.Subset - 1)); err != nil {
		return Raw{}, err
	}
	return v, nil
}
