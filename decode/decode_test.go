package decode

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/sdifrance/gobufr/alter"
	"github.com/sdifrance/gobufr/bitcursor"
	"github.com/sdifrance/gobufr/tableb"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// bitWriter packs MSB-first fields for building section 4 fixtures.
type bitWriter struct {
	buf []byte
	n   int
}

func (w *bitWriter) put(width int, v uint64) *bitWriter {
	for i := width - 1; i >= 0; i-- {
		if w.n%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v&(1<<uint(i)) != 0 {
			w.buf[len(w.buf)-1] |= 0x80 >> uint(w.n%8)
		}
		w.n++
	}
	return w
}

func (w *bitWriter) bytes() []byte { return append(w.buf, 0, 0, 0, 0) }

var (
	temperature = &tableb.Element{Descr: 12001, Name: "TEMPERATURE/DRY-BULB TEMPERATURE", Unit: "K", Scale: 1, Width: 12, Typ: tableb.TypeReal}
	stationNum  = &tableb.Element{Descr: 1002, Name: "STATION NUMBER", Unit: "NUMERIC", Width: 10, Typ: tableb.TypeInteger}
	cloudType   = &tableb.Element{Descr: 20012, Name: "CLOUD TYPE", Unit: "CODE TABLE", Width: 6, Typ: tableb.TypeCodeFlag}
	stationName = &tableb.Element{Descr: 1015, Name: "STATION OR SITE NAME", Unit: "CCITT IA5", Width: 24, Typ: tableb.TypeString}
)

func TestWidth(t *testing.T) {
	st := alter.State{}.WithWidthDelta(3).WithCharWidth(40)
	require.Equal(t, 15, Width(temperature, &st))
	require.Equal(t, 13, Width(stationNum, &st))
	require.Equal(t, 6, Width(cloudType, &st))
	require.Equal(t, 40, Width(stationName, &st))

	ieee := st.WithIEEE(64)
	require.Equal(t, 64, Width(temperature, &ieee))
	require.Equal(t, 6, Width(cloudType, &ieee))

	var zero alter.State
	require.Equal(t, 24, Width(stationName, &zero))
}

func TestRawPlain(t *testing.T) {
	w := (&bitWriter{}).put(12, 2735).put(10, 1023).put(24, 0x414243)
	d := NewDecoder(bitcursor.New(w.bytes()))
	var st alter.State

	raw, err := d.RawFor(temperature, &st)
	require.NoError(t, err)
	require.Equal(t, uint64(2735), raw.Uint64())
	require.Equal(t, 12, d.Cursor().Pos())

	raw, err = d.RawFor(stationNum, &st)
	require.NoError(t, err)
	require.True(t, raw.IsAllOnes(10))

	raw, err = d.RawFor(stationName, &st)
	require.NoError(t, err)
	require.Equal(t, []byte{0x41, 0x42, 0x43}, raw.Bytes())
	require.Equal(t, 46, d.Cursor().Pos())
}

func TestRawFixed(t *testing.T) {
	d := NewDecoder(bitcursor.New([]byte{0xAB, 0xCD}))
	raw, err := d.RawFixed(4)
	require.NoError(t, err)
	require.Equal(t, uint64(0xA), raw.Uint64())
}

func TestRawWidthUnresolvable(t *testing.T) {
	d := NewDecoder(bitcursor.New([]byte{0}))
	var st alter.State
	_, err := d.RawFor(nil, &st)
	require.True(t, errors.Is(err, ErrWidthUnresolvable))
	_, err = d.RawFor(temperature, nil)
	require.True(t, errors.Is(err, ErrWidthUnresolvable))
}

func TestRawOutOfRange(t *testing.T) {
	d := NewDecoder(bitcursor.New([]byte{0xFF}))
	var st alter.State
	_, err := d.RawFor(temperature, &st)
	require.True(t, errors.Is(err, bitcursor.ErrOutOfRange))
}

func TestRawWideString(t *testing.T) {
	name := []byte("HOHENPEISSENBERG    ")
	w := &bitWriter{}
	for _, b := range name {
		w.put(8, uint64(b))
	}
	e := &tableb.Element{Descr: 1015, Width: 160, Typ: tableb.TypeString}
	var st alter.State
	v, err := NewDecoder(bitcursor.New(w.bytes())).Decode(e, &st)
	require.NoError(t, err)
	s, ok := v.Str()
	require.True(t, ok)
	require.Equal(t, string(name), s)
}

func TestCompressedDeltas(t *testing.T) {
	// Reference 2700 with 4 bit increments 0, 5, 15 (missing) and 9.
	fixture := func() []byte {
		return (&bitWriter{}).
			put(12, 2700).put(6, 4).
			put(4, 0).put(4, 5).put(4, 15).put(4, 9).
			put(10, 77). // next element
			bytes()
	}
	want := []struct {
		missing bool
		raw     uint64
	}{
		{false, 2700}, {false, 2705}, {true, 0}, {false, 2709},
	}
	var st alter.State
	for i, w := range want {
		d := NewDecoder(bitcursor.New(fixture()), WithCompression(Compression{Subset: i, Count: 4}))
		raw, err := d.RawFor(temperature, &st)
		require.NoError(t, err)
		if w.missing {
			require.Truef(t, raw.IsAllOnes(12), "subset %d", i)
		} else {
			require.Equalf(t, w.raw, raw.Uint64(), "subset %d", i)
		}
		require.Equalf(t, 12+6+4*4, d.Cursor().Pos(), "subset %d cursor", i)

		next, err := d.RawFixed(10)
		require.NoError(t, err)
		require.Equal(t, uint64(77), next.Uint64())
	}
}

func TestCompressedSequentialSubsets(t *testing.T) {
	// Two elements, three subsets, visited element by element per subset.
	data := (&bitWriter{}).
		put(12, 100).put(6, 2).put(2, 0).put(2, 1).put(2, 2).
		put(10, 500).put(6, 0).
		bytes()
	var st alter.State
	for subset := 0; subset < 3; subset++ {
		d := NewDecoder(bitcursor.New(data), WithCompression(Compression{Count: 3}))
		d.SetSubset(subset)
		require.True(t, d.Compressed())
		v, err := d.Decode(temperature, &st)
		require.NoError(t, err)
		f, ok := v.Float()
		require.True(t, ok)
		require.InDelta(t, float64(100+subset)/10, f, 1e-9)

		v, err = d.Decode(stationNum, &st)
		require.NoError(t, err)
		n, ok := v.Int()
		require.True(t, ok)
		require.Equal(t, int64(500), n)
	}
}

func TestCompressedZeroVariance(t *testing.T) {
	var st alter.State
	for _, count := range []int{1, 2, 17} {
		data := (&bitWriter{}).put(12, 2731).put(6, 0).bytes()
		for subset := 0; subset < count; subset++ {
			d := NewDecoder(bitcursor.New(data), WithCompression(Compression{Subset: subset, Count: count}))
			raw, err := d.RawFor(temperature, &st)
			require.NoError(t, err)
			require.Equal(t, uint64(2731), raw.Uint64())
			require.Equal(t, 12+6, d.Cursor().Pos())
		}
	}
}

func TestCompressedAllMissing(t *testing.T) {
	var st alter.State
	// The increment width is non-zero but no increments follow.
	data := (&bitWriter{}).put(12, 4095).put(6, 7).bytes()
	for subset := 0; subset < 5; subset++ {
		d := NewDecoder(bitcursor.New(data), WithCompression(Compression{Subset: subset, Count: 5}))
		v, err := d.Decode(temperature, &st)
		require.NoError(t, err)
		require.True(t, v.IsMissing())
		require.Equal(t, 12+6, d.Cursor().Pos())
	}
}

func TestCompressedString(t *testing.T) {
	// Character reference is zero; increments are 3 octets each.
	w := (&bitWriter{}).put(24, 0).put(6, 3)
	for _, s := range []string{"ABC", "XYZ"} {
		for _, b := range []byte(s) {
			w.put(8, uint64(b))
		}
	}
	data := w.bytes()
	var st alter.State
	for i, want := range []string{"ABC", "XYZ"} {
		d := NewDecoder(bitcursor.New(data), WithCompression(Compression{Subset: i, Count: 2}))
		v, err := d.Decode(stationName, &st)
		require.NoError(t, err)
		s, _ := v.Str()
		require.Equal(t, want, s)
		require.Equal(t, 24+6+2*24, d.Cursor().Pos())
	}
}

func TestCompressedBadSubset(t *testing.T) {
	data := (&bitWriter{}).put(12, 1).put(6, 2).put(2, 1).bytes()
	var st alter.State
	d := NewDecoder(bitcursor.New(data), WithCompression(Compression{Subset: 1, Count: 1}))
	_, err := d.RawFor(temperature, &st)
	require.Error(t, err)
}

func TestDecoderLogsTraces(t *testing.T) {
	var out bytes.Buffer
	l := logrus.New()
	l.SetOutput(&out)
	l.SetLevel(logrus.DebugLevel)

	var st alter.State
	d := NewDecoder(bitcursor.New([]byte{0xAA, 0xB0}), WithLogger(l))
	_, err := d.Decode(temperature, &st)
	require.NoError(t, err)
	require.Contains(t, out.String(), "OCTETS")
	require.Contains(t, out.String(), "descriptor=012001")
	require.Contains(t, out.String(), "DECODE")
}
