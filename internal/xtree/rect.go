package xtree

import (
	"fmt"
	"math"
	"strings"
)

// Rect is an axis-aligned hyperrectangle. A point is a Rect whose Low and
// High bounds are equal on every axis.
//
// Rect values are treated as immutable: every operation returns a new Rect
// and never writes to the receiver's bound slices. Binary operations panic
// when the operands have different dimensions.
type Rect struct {
	Low  []float32
	High []float32
}

// NewRect copies the provided bounds into a new Rect. It returns
// ErrMalformedRect when the bounds differ in length, are empty, hold NaN, or
// when some low[i] > high[i].
func NewRect(low, high []float32) (Rect, error) {
	r := Rect{
		Low:  append([]float32(nil), low...),
		High: append([]float32(nil), high...),
	}
	if err := r.validate(); err != nil {
		return Rect{}, err
	}
	return r, nil
}

// Point returns a degenerate Rect located at coords.
func Point(coords ...float32) Rect {
	low := append([]float32(nil), coords...)
	high := append([]float32(nil), coords...)
	return Rect{Low: low, High: high}
}

func (r Rect) validate() error {
	if len(r.Low) != len(r.High) {
		return fmt.Errorf("%w: %d low bounds vs %d high bounds", ErrMalformedRect, len(r.Low), len(r.High))
	}
	if len(r.Low) == 0 {
		return fmt.Errorf("%w: empty bounds", ErrMalformedRect)
	}
	for i := range r.Low {
		lo, hi := float64(r.Low[i]), float64(r.High[i])
		if math.IsNaN(lo) || math.IsNaN(hi) {
			return fmt.Errorf("%w: NaN bound on axis %d", ErrMalformedRect, i)
		}
		if lo > hi {
			return fmt.Errorf("%w: low %v > high %v on axis %d", ErrMalformedRect, lo, hi, i)
		}
	}
	return nil
}

// Dim returns the number of axes.
func (r Rect) Dim() int { return len(r.Low) }

// IsPoint reports whether r has zero extent on every axis.
func (r Rect) IsPoint() bool {
	for i := range r.Low {
		if r.Low[i] != r.High[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of r.
func (r Rect) Clone() Rect {
	return Rect{
		Low:  append([]float32(nil), r.Low...),
		High: append([]float32(nil), r.High...),
	}
}

// Equal reports whether both rectangles have identical bounds.
func (r Rect) Equal(o Rect) bool {
	if len(r.Low) != len(o.Low) || len(r.High) != len(o.High) {
		return false
	}
	for i := range r.Low {
		if r.Low[i] != o.Low[i] || r.High[i] != o.High[i] {
			return false
		}
	}
	return true
}

// Union returns the smallest rectangle enclosing r and o. A zero Rect acts as
// the identity element.
func (r Rect) Union(o Rect) Rect {
	if r.Dim() == 0 {
		return o.Clone()
	}
	if o.Dim() == 0 {
		return r.Clone()
	}
	mustSameDim(r, o)
	u := Rect{Low: make([]float32, len(r.Low)), High: make([]float32, len(r.High))}
	for i := range r.Low {
		u.Low[i] = min(r.Low[i], o.Low[i])
		u.High[i] = max(r.High[i], o.High[i])
	}
	return u
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	mustSameDim(r, o)
	for i := range r.Low {
		if o.Low[i] < r.Low[i] || o.High[i] > r.High[i] {
			return false
		}
	}
	return true
}

// Area returns the volume of r: the product of its extents. It is zero for
// any rectangle that is flat on at least one axis.
func (r Rect) Area() float64 {
	area := 1.0
	for i := range r.Low {
		area *= float64(r.High[i]) - float64(r.Low[i])
	}
	return area
}

// Margin returns the sum of r's extents over all axes.
func (r Rect) Margin() float64 {
	var margin float64
	for i := range r.Low {
		margin += float64(r.High[i]) - float64(r.Low[i])
	}
	return margin
}

// OverlapArea returns the volume of the intersection of r and o, zero when
// they are disjoint on any axis.
func (r Rect) OverlapArea(o Rect) float64 {
	mustSameDim(r, o)
	overlap := 1.0
	for i := range r.Low {
		lo := max(float64(r.Low[i]), float64(o.Low[i]))
		hi := min(float64(r.High[i]), float64(o.High[i]))
		if hi <= lo {
			return 0
		}
		overlap *= hi - lo
	}
	return overlap
}

// MinDist returns the squared Euclidean distance between p and the closest
// point of r. For a point p it never exceeds the distance from p to any
// point inside r, which makes it a valid pruning bound.
func (r Rect) MinDist(p Rect) float64 {
	mustSameDim(r, p)
	var dist float64
	for i := range r.Low {
		var d float64
		switch {
		case p.High[i] < r.Low[i]:
			d = float64(r.Low[i]) - float64(p.High[i])
		case p.Low[i] > r.High[i]:
			d = float64(p.Low[i]) - float64(r.High[i])
		default:
			continue
		}
		dist += d * d
	}
	return dist
}

func (r Rect) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := range r.Low {
		if i > 0 {
			sb.WriteString(", ")
		}
		if r.Low[i] == r.High[i] {
			fmt.Fprintf(&sb, "%g", r.Low[i])
			continue
		}
		fmt.Fprintf(&sb, "%g..%g", r.Low[i], r.High[i])
	}
	sb.WriteByte(']')
	return sb.String()
}

func mustSameDim(a, b Rect) {
	if len(a.Low) != len(b.Low) {
		panic(fmt.Sprintf("xtree: rect dimension mismatch %d vs %d", len(a.Low), len(b.Low)))
	}
}
