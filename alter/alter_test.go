package alter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroState(t *testing.T) {
	var s State
	require.Equal(t, 0, s.WNum())
	require.Equal(t, 0, s.WChr())
	require.Equal(t, 0, s.Scale())
	require.Equal(t, int64(1), s.RefMul())
	require.Equal(t, 0, s.Assoc())
	require.Equal(t, 0, s.IEEE())
	_, ok := s.RefVal(12001)
	require.False(t, ok)
}

func TestOperatorsDoNotAlias(t *testing.T) {
	base := State{}.WithRefVal(12001, -1000)
	changed := base.WithRefVal(12001, 5).WithRefVal(12003, 7).WithWidthDelta(3)

	v, ok := base.RefVal(12001)
	require.True(t, ok)
	require.Equal(t, int64(-1000), v)
	_, ok = base.RefVal(12003)
	require.False(t, ok)
	require.Equal(t, 0, base.WNum())

	v, _ = changed.RefVal(12001)
	require.Equal(t, int64(5), v)
	require.Equal(t, 3, changed.WNum())

	cleared := changed.WithoutRefVals()
	_, ok = cleared.RefVal(12003)
	require.False(t, ok)
	_, ok = changed.RefVal(12003)
	require.True(t, ok)
}

func TestAssocStack(t *testing.T) {
	s := State{}.PushAssoc(2)
	inner := s.PushAssoc(7)
	require.Equal(t, 2, s.Assoc())
	require.Equal(t, 7, inner.Assoc())
	require.Equal(t, 2, inner.PopAssoc().Assoc())
	require.Equal(t, 0, State{}.PopAssoc().Assoc())

	// Pushing on a popped state must not clobber the original stack.
	other := inner.PopAssoc().PushAssoc(9)
	require.Equal(t, 7, inner.Assoc())
	require.Equal(t, 9, other.Assoc())
}

func TestIncreasedPrecision(t *testing.T) {
	s := State{}.WithIncreasedPrecision(2)
	require.Equal(t, 2, s.Scale())
	require.Equal(t, int64(100), s.RefMul())
	require.Equal(t, 7, s.WNum())

	s = s.WithIncreasedPrecision(0)
	require.Equal(t, 0, s.Scale())
	require.Equal(t, int64(1), s.RefMul())
	require.Equal(t, 0, s.WNum())
}

func TestString(t *testing.T) {
	s := State{}.WithScaleDelta(-1).WithRefVal(12001, 3).WithRefVal(1001, 4)
	require.Equal(t, "wnum:0 wchr:0 scale:-1 refmul:1 assoc:0 ieee:0 refval:{012001:3 001001:4}", s.String())
}
