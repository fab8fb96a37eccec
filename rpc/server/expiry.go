package server

import (
	"container/heap"
)

// expiryItem is a key scheduled for deletion at deadline (unix nanos)
type expiryItem struct {
	key      string
	deadline int64
	index    int // maintained by the heap
}

// expiryHeap is a min heap of deadlines with O(1) access by key.
// It is not safe for concurrent use.
type expiryHeap struct {
	items []*expiryItem
	byKey map[string]*expiryItem
}

func newExpiryHeap() *expiryHeap {
	return &expiryHeap{
		items: make([]*expiryItem, 0),
		byKey: make(map[string]*expiryItem),
	}
}

// heap.Interface

func (h *expiryHeap) Len() int { return len(h.items) }

func (h *expiryHeap) Less(i, j int) bool {
	return h.items[i].deadline < h.items[j].deadline
}

func (h *expiryHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *expiryHeap) Push(x interface{}) {
	item := x.(*expiryItem)
	item.index = len(h.items)
	h.items = append(h.items, item)
	h.byKey[item.key] = item
}

func (h *expiryHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	h.items = old[:n-1]
	delete(h.byKey, item.key)
	return item
}

// schedule sets or moves the deadline of key
func (h *expiryHeap) schedule(key string, deadline int64) {
	if item, ok := h.byKey[key]; ok {
		item.deadline = deadline
		heap.Fix(h, item.index)
		return
	}
	heap.Push(h, &expiryItem{key: key, deadline: deadline})
}

// unschedule removes key, returns false if it had no deadline
func (h *expiryHeap) unschedule(key string) bool {
	item, ok := h.byKey[key]
	if !ok {
		return false
	}
	heap.Remove(h, item.index)
	return true
}

// deadline returns the deadline of key
func (h *expiryHeap) deadline(key string) (int64, bool) {
	item, ok := h.byKey[key]
	if !ok {
		return 0, false
	}
	return item.deadline, true
}

// popExpired removes and returns all keys with a deadline <= now
func (h *expiryHeap) popExpired(now int64) []string {
	var keys []string
	for len(h.items) > 0 && h.items[0].deadline <= now {
		keys = append(keys, heap.Pop(h).(*expiryItem).key)
	}
	return keys
}
