package xtree

import (
	"math"
	"sort"
)

// splitPolicy partitions overflowing nodes. It follows the R*-tree topological
// split (axis by margin, distribution by overlap then area) and adds the
// X-tree supernode rule: a split whose overlap ratio exceeds the threshold is
// abandoned while the node is still within the supernode ceiling.
type splitPolicy struct {
	minEntries       int
	maxEntries       int
	maxSupernode     int
	overlapThreshold float64
}

func newSplitPolicy(cfg Config) splitPolicy {
	return splitPolicy{
		minEntries:       cfg.MinEntries,
		maxEntries:       cfg.MaxEntries,
		maxSupernode:     cfg.MaxSupernode,
		overlapThreshold: cfg.OverlapThreshold,
	}
}

// distribution is one candidate split: sorted[:at] and sorted[at:].
type distribution struct {
	sorted  []entry
	at      int
	overlap float64
	area    float64
}

// split returns the two groups for entries, or ok=false when the node should
// be kept as a supernode. bounds is the current MBR of entries.
func (p splitPolicy) split(entries []entry, bounds Rect) (left, right []entry, ok bool) {
	n := len(entries)
	if n < 2*p.minEntries {
		return nil, nil, false
	}
	axis := p.chooseAxis(entries)
	best := p.chooseDistribution(entries, axis)

	if n <= p.maxSupernode && p.overlapRatio(best, bounds) > p.overlapThreshold {
		return nil, nil, false
	}
	left = append([]entry(nil), best.sorted[:best.at]...)
	right = append([]entry(nil), best.sorted[best.at:]...)
	return left, right, true
}

func (p splitPolicy) overlapRatio(d distribution, bounds Rect) float64 {
	area := bounds.Area()
	if area <= 0 {
		return 0
	}
	return d.overlap / area
}

// chooseAxis returns the axis whose candidate distributions have the
// smallest summed margin.
func (p splitPolicy) chooseAxis(entries []entry) int {
	bestAxis, bestMargin := 0, math.Inf(1)
	for axis := 0; axis < entries[0].rect.Dim(); axis++ {
		var margin float64
		for _, sorted := range sortedByAxis(entries, axis) {
			prefix, suffix := groupBounds(sorted)
			for at := p.minEntries; at <= len(sorted)-p.minEntries; at++ {
				margin += prefix[at].Margin() + suffix[at].Margin()
			}
		}
		if margin < bestMargin {
			bestAxis, bestMargin = axis, margin
		}
	}
	return bestAxis
}

// chooseDistribution picks, along axis, the distribution with the least
// overlap between the two groups, then the least total area.
func (p splitPolicy) chooseDistribution(entries []entry, axis int) distribution {
	best := distribution{overlap: math.Inf(1), area: math.Inf(1)}
	for _, sorted := range sortedByAxis(entries, axis) {
		prefix, suffix := groupBounds(sorted)
		for at := p.minEntries; at <= len(sorted)-p.minEntries; at++ {
			overlap := prefix[at].OverlapArea(suffix[at])
			area := prefix[at].Area() + suffix[at].Area()
			if overlap < best.overlap || (overlap == best.overlap && area < best.area) {
				best = distribution{sorted: sorted, at: at, overlap: overlap, area: area}
			}
		}
	}
	return best
}

// sortedByAxis returns two copies of entries, sorted by lower bound and by
// upper bound on axis. Sorting is stable so equal keys keep node order.
func sortedByAxis(entries []entry, axis int) [2][]entry {
	byLow := append([]entry(nil), entries...)
	sort.SliceStable(byLow, func(i, j int) bool {
		a, b := byLow[i].rect, byLow[j].rect
		if a.Low[axis] != b.Low[axis] {
			return a.Low[axis] < b.Low[axis]
		}
		return a.High[axis] < b.High[axis]
	})
	byHigh := append([]entry(nil), entries...)
	sort.SliceStable(byHigh, func(i, j int) bool {
		a, b := byHigh[i].rect, byHigh[j].rect
		if a.High[axis] != b.High[axis] {
			return a.High[axis] < b.High[axis]
		}
		return a.Low[axis] < b.Low[axis]
	})
	return [2][]entry{byLow, byHigh}
}

// groupBounds returns prefix[i] = MBR(sorted[:i]) and suffix[i] = MBR(sorted[i:]).
func groupBounds(sorted []entry) (prefix, suffix []Rect) {
	n := len(sorted)
	prefix = make([]Rect, n+1)
	suffix = make([]Rect, n+1)
	for i := 1; i <= n; i++ {
		prefix[i] = prefix[i-1].Union(sorted[i-1].rect)
	}
	for i := n - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1].Union(sorted[i].rect)
	}
	return prefix, suffix
}
