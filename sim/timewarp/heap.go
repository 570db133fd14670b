package timewarp

import "container/heap"

// msgHeap orders messages by (timestamp, seq, negative-before-positive).
// The third key matters only when a message and its anti-message are
// simultaneously present in the same heap with identical timestamp and
// seq (possible right after a reinsertion following rollback): processing
// the anti-message first lets it annihilate its twin before the twin is
// ever popped for dispatch.
type msgHeap []message

func (h msgHeap) Len() int { return len(h) }

func (h msgHeap) Less(i, j int) bool {
	if h[i].timestamp != h[j].timestamp {
		return h[i].timestamp < h[j].timestamp
	}
	if h[i].seq != h[j].seq {
		return h[i].seq < h[j].seq
	}
	return h[i].negative && !h[j].negative
}

func (h msgHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *msgHeap) Push(x any) { *h = append(*h, x.(message)) }

func (h *msgHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (h *msgHeap) peekTimestamp() (float64, bool) {
	if len(*h) == 0 {
		return 0, false
	}
	return (*h)[0].timestamp, true
}

var _ = heap.Interface(&msgHeap{})
