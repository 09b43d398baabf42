package xtree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRect(t *testing.T, low, high []float32) Rect {
	t.Helper()
	r, err := NewRect(low, high)
	require.NoError(t, err)
	return r
}

func TestNewRect(t *testing.T) {
	testCases := []struct {
		name    string
		low     []float32
		high    []float32
		wantErr bool
	}{
		{name: "box", low: []float32{0, 1}, high: []float32{2, 3}},
		{name: "point", low: []float32{1, 1}, high: []float32{1, 1}},
		{name: "inverted", low: []float32{0, 4}, high: []float32{2, 3}, wantErr: true},
		{name: "length mismatch", low: []float32{0}, high: []float32{1, 2}, wantErr: true},
		{name: "empty", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewRect(tc.low, tc.high)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedRect))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tc.low), r.Dim())
		})
	}
}

func TestNewRect_CopiesBounds(t *testing.T) {
	low, high := []float32{0, 0}, []float32{1, 1}
	r := mustRect(t, low, high)
	low[0], high[0] = -5, 5
	assert.Equal(t, float32(0), r.Low[0])
	assert.Equal(t, float32(1), r.High[0])
}

func TestRect_Union(t *testing.T) {
	a := mustRect(t, []float32{0, 0}, []float32{1, 1})
	b := mustRect(t, []float32{2, -1}, []float32{3, 0.5})
	u := a.Union(b)
	assert.Equal(t, []float32{0, -1}, u.Low)
	assert.Equal(t, []float32{3, 1}, u.High)
	assert.True(t, u.Contains(a))
	assert.True(t, u.Contains(b))

	var zero Rect
	assert.True(t, zero.Union(a).Equal(a))
	assert.True(t, a.Union(zero).Equal(a))
	// operands are left untouched
	assert.Equal(t, []float32{0, 0}, a.Low)
}

func TestRect_AreaMarginOverlap(t *testing.T) {
	a := mustRect(t, []float32{0, 0}, []float32{4, 2})
	b := mustRect(t, []float32{3, 1}, []float32{5, 5})
	c := mustRect(t, []float32{10, 10}, []float32{11, 11})

	assert.Equal(t, 8.0, a.Area())
	assert.Equal(t, 6.0, a.Margin())
	assert.Equal(t, 1.0, a.OverlapArea(b))
	assert.Equal(t, 1.0, b.OverlapArea(a))
	assert.Equal(t, 0.0, a.OverlapArea(c))
	assert.Equal(t, 0.0, Point(1, 1).Area())
	assert.True(t, Point(1, 1).IsPoint())
	assert.False(t, a.IsPoint())
}

func TestRect_MinDist(t *testing.T) {
	box := mustRect(t, []float32{0, 0}, []float32{2, 2})
	testCases := []struct {
		name  string
		point Rect
		want  float64
	}{
		{name: "inside", point: Point(1, 1), want: 0},
		{name: "on face", point: Point(2, 1), want: 0},
		{name: "left", point: Point(-3, 1), want: 9},
		{name: "corner", point: Point(5, 6), want: 9 + 16},
		{name: "one axis inside", point: Point(1, -2), want: 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, box.MinDist(tc.point))
		})
	}
	assert.Equal(t, 2.0, Point(0, 0).MinDist(Point(1, 1)))
}

func TestRect_MinDistIsLowerBound(t *testing.T) {
	box := mustRect(t, []float32{-1, 2, 0}, []float32{1, 3, 5})
	q := Point(4, -1, 2)
	corners := [][]float32{
		{-1, 2, 0}, {1, 3, 5}, {1, 2, 0}, {-1, 3, 5}, {0, 2.5, 2},
	}
	for _, c := range corners {
		assert.LessOrEqual(t, box.MinDist(q), Point(c...).MinDist(q))
	}
}

func TestRect_DimensionMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { Point(1, 2).Union(Point(1, 2, 3)) })
	assert.Panics(t, func() { Point(1, 2).MinDist(Point(1)) })
}

func TestRect_String(t *testing.T) {
	r := mustRect(t, []float32{1, 0}, []float32{1, 2.5})
	assert.Equal(t, "[1, 0..2.5]", r.String())
}
