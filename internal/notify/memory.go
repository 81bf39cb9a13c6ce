package notify

import (
	"context"
	"sync"
)

// MemoryNotifier fans QR bind events out to waiters in the same process.
type MemoryNotifier struct {
	mu      sync.Mutex
	waiters map[string]map[chan struct{}]struct{}
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{waiters: make(map[string]map[chan struct{}]struct{})}
}

func (n *MemoryNotifier) Publish(_ context.Context, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.waiters[code] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Subscribe registers a waiter for code. The returned channel has a buffer of
// one so a publish that lands before the receiver is ready is not lost.
func (n *MemoryNotifier) Subscribe(_ context.Context, code string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	set, ok := n.waiters[code]
	if !ok {
		set = make(map[chan struct{}]struct{})
		n.waiters[code] = set
	}
	set[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.waiters[code], ch)
			if len(n.waiters[code]) == 0 {
				delete(n.waiters, code)
			}
		})
	}
	return ch, cancel, nil
}
