package xtree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue_MinOrder(t *testing.T) {
	q := newMinQueue[string](4)
	q.push("c", 3)
	q.push("a", 1)
	q.push("b1", 2)
	q.push("b2", 2)
	q.push("d", 4)

	var got []string
	for q.Len() > 0 {
		item, ok := q.pop()
		require.True(t, ok)
		got = append(got, item.value)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c", "d"}, got)

	_, ok := q.pop()
	assert.False(t, ok)
}

func TestBoundedQueue(t *testing.T) {
	b := newBoundedQueue[int](3)
	assert.Equal(t, math.Inf(1), b.worst())
	for i, d := range []float64{9, 1, 7, 3, 8, 2} {
		b.offer(i, d)
	}
	assert.True(t, b.full())
	assert.Equal(t, 3.0, b.worst())
	assert.False(t, b.offer(99, 3), "equal to worst is not retained")

	items := b.drain()
	require.Len(t, items, 3)
	assert.Equal(t, []int{1, 5, 3}, []int{items[0].value, items[1].value, items[2].value})
	assert.Equal(t, 0, b.Len())
}

func TestBoundedQueue_TiesKeepEarliest(t *testing.T) {
	b := newBoundedQueue[string](2)
	b.offer("first", 1)
	b.offer("second", 1)
	b.offer("third", 0.5)

	items := b.drain()
	require.Len(t, items, 2)
	assert.Equal(t, "third", items[0].value)
	assert.Equal(t, "first", items[1].value)
}
