package repository

import (
	"context"
	"sync"

	"taskify/internal/model"
)

type hub struct {
	mu   sync.Mutex
	subs map[chan []model.Task]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan []model.Task]struct{})}
}

func (h *hub) active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs) > 0
}

func (h *hub) subscribe(ctx context.Context, initial []model.Task) <-chan []model.Task {
	ch := make(chan []model.Task, 1)
	ch <- initial

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

func (h *hub) broadcast(tasks []model.Task) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		snapshot := make([]model.Task, len(tasks))
		copy(snapshot, tasks)
		ch <- snapshot
	}
}
