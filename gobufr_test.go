package gobufr

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sdifrance/gobufr/alter"
	"github.com/sdifrance/gobufr/bufrio"
	"github.com/sdifrance/gobufr/internal/testutil"
	"github.com/sdifrance/gobufr/tableb"
	"github.com/stretchr/testify/require"
)

var table = tableb.NewMap(
	tableb.Element{Descr: 1002, Name: "STATION NUMBER", Unit: "NUMERIC", Width: 10, Typ: tableb.TypeInteger},
	tableb.Element{Descr: 12101, Name: "TEMPERATURE/AIR TEMPERATURE", Unit: "K", Scale: 2, Width: 16, Typ: tableb.TypeReal},
)

func TestReadAndDecodeCompressed(t *testing.T) {
	// 001002: reference 384, increment width 0.
	// 012101: reference 27315, 4 bit increments 0, 10 and missing.
	data := []byte{
		0x60, 0x00,                   // 0110000000 000000
		0x6A, 0xB3, 0x10, 0x2B, 0xC0, // 0110101010110011 000100 0000 1010 1111
	}
	msg := testutil.Build(testutil.Fixture{
		Centre:      78,
		Time:        time.Date(2016, 10, 28, 12, 0, 0, 0, time.UTC),
		Subsets:     3,
		Observed:    true,
		Compressed:  true,
		Descriptors: []tableb.Descriptor{1002, 12101},
		Data:        data,
	})
	stream := append([]byte("\r\r\nISMD01 EDZW 281200\r\r\n"), msg...)

	bulletins, err := Read(stream)
	require.NoError(t, err)
	require.Len(t, bulletins, 1)
	b := bulletins[0]
	require.Equal(t, "ISMD01 EDZW 281200", b.Header)
	require.True(t, b.Sections.DataDescription().Compressed())

	var st alter.State
	wantTemp := []float64{273.15, 273.25}
	for subset := 0; subset < 3; subset++ {
		d := NewDecoder(b.Sections, subset)
		for _, descr := range b.Sections.DataDescription().Descriptors() {
			e, err := table.Lookup(descr)
			require.NoError(t, err)
			v, err := d.Decode(e, &st)
			require.NoError(t, err)
			switch descr {
			case 1002:
				n, ok := v.Int()
				require.True(t, ok)
				require.Equal(t, int64(384), n)
			case 12101:
				if subset == 2 {
					require.True(t, v.IsMissing())
					continue
				}
				f, ok := v.Float()
				require.True(t, ok)
				require.InDelta(t, wantTemp[subset], f, 1e-9)
			}
		}
	}
}

func TestReadCorrupt(t *testing.T) {
	msg := testutil.Build(testutil.Fixture{Time: time.Date(2016, 10, 28, 12, 0, 0, 0, time.UTC), Subsets: 1})
	msg[len(msg)-1] = 'X'
	_, err := Read(msg)
	require.True(t, errors.Is(err, bufrio.ErrCorruptMessage))

	// A valid message after a corrupt one is not returned.
	good := testutil.Build(testutil.Fixture{Time: time.Date(2016, 10, 28, 12, 0, 0, 0, time.UTC), Subsets: 1})
	bulletins, err := Read(append(append([]byte{}, msg...), good...))
	require.True(t, errors.Is(err, bufrio.ErrCorruptMessage))
	require.Nil(t, bulletins)

	_, err = Read(nil)
	require.True(t, errors.Is(err, bufrio.ErrNoInput))
}
