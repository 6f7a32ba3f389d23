package algo_test

import (
	"container/heap"
	"testing"

	"git.fiblab.net/sim/roadnet/network/algo"
	"github.com/stretchr/testify/assert"
)

func TestPriorityQueue(t *testing.T) {
	pq := make(algo.PriorityQueue, 0)
	pq.Push(&algo.Item{Value: 4, Priority: 40.5})
	pq.Push(&algo.Item{Value: 2, Priority: 12})
	pq.Push(&algo.Item{Value: 7, Priority: 3.25})
	pq.Push(&algo.Item{Value: 3, Priority: 30})

	// 建堆
	heap.Init(&pq)

	item := heap.Pop(&pq).(*algo.Item)
	assert.Equal(t, 7, item.Value)
	assert.Equal(t, 3.25, item.Priority)
	assert.Equal(t, -1, item.Index)
	item = heap.Pop(&pq).(*algo.Item)
	assert.Equal(t, 2, item.Value)
	assert.Equal(t, 2, pq.Len())
}

func TestPriorityQueueDecreaseKey(t *testing.T) {
	pq := make(algo.PriorityQueue, 0)
	items := []*algo.Item{
		{Value: 0, Priority: 8},
		{Value: 1, Priority: 5},
		{Value: 2, Priority: 9},
		{Value: 3, Priority: 6},
	}
	for _, item := range items {
		heap.Push(&pq, item)
	}

	// 松弛：节点2的距离变为1
	items[2].Priority = 1
	heap.Fix(&pq, items[2].Index)

	order := make([]int, 0)
	for pq.Len() > 0 {
		order = append(order, heap.Pop(&pq).(*algo.Item).Value)
	}
	assert.Equal(t, []int{2, 1, 3, 0}, order)
}

func TestPriorityQueueTieBreak(t *testing.T) {
	pq := make(algo.PriorityQueue, 0)
	for _, v := range []int{5, 1, 3, 0} {
		heap.Push(&pq, &algo.Item{Value: v, Priority: 2})
	}
	order := make([]int, 0)
	for pq.Len() > 0 {
		order = append(order, heap.Pop(&pq).(*algo.Item).Value)
	}
	// 同优先级按下标出堆
	assert.Equal(t, []int{0, 1, 3, 5}, order)
}
