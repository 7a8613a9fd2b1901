package client

import (
	"context"
	"sync"
	"time"

	"github.com/existflow/sitetask/internal/logger"
)

// SeenCache remembers which approval notifications were already shown
type SeenCache interface {
	Unseen(ctx context.Context, ids []string) ([]string, error)
	MarkSeen(ctx context.Context, ids []string, at time.Time) error
}

// Watcher polls for recently approved tasks and reports the ones the user
// has not seen yet
type Watcher struct {
	client       *Client
	seen         SeenCache
	pollInterval time.Duration
	debounceTime time.Duration

	mu         sync.Mutex
	pending    bool
	reported   map[string]bool
	onApproved func([]Task)
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewWatcher creates a watcher. Call Start to begin polling.
func NewWatcher(client *Client, seen SeenCache, pollInterval time.Duration) *Watcher {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &Watcher{
		client:       client,
		seen:         seen,
		pollInterval: pollInterval,
		debounceTime: time.Second,
		reported:     make(map[string]bool),
		stopCh:       make(chan struct{}),
	}
}

// SetOnApproved sets the callback for newly seen approvals
func (w *Watcher) SetOnApproved(callback func([]Task)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onApproved = callback
}

// Start begins background polling
func (w *Watcher) Start() {
	go w.pollLoop()
}

func (w *Watcher) pollLoop() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.poll()
	for {
		select {
		case <-ticker.C:
			w.poll()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) poll() {
	if !w.client.IsLoggedIn() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.pollInterval)
	defer cancel()

	fresh, err := w.Check(ctx)
	if err != nil {
		logger.Warn("Approval check failed", logger.Err(err))
		return
	}
	if len(fresh) == 0 {
		return
	}

	w.mu.Lock()
	callback := w.onApproved
	w.mu.Unlock()

	if callback != nil {
		callback(fresh)
	}
}

// Check returns recently approved tasks that are neither marked seen nor
// already reported by this watcher
func (w *Watcher) Check(ctx context.Context) ([]Task, error) {
	list, err := w.client.ListTasks(ctx, ListOptions{RecentlyApprovedOnly: true})
	if err != nil {
		return nil, err
	}

	unseen, err := w.seen.Unseen(ctx, list.IDs())
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(unseen))
	for _, id := range unseen {
		want[id] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var fresh []Task
	for _, t := range list.Tasks {
		if want[t.ID] && !w.reported[t.ID] {
			w.reported[t.ID] = true
			fresh = append(fresh, t)
		}
	}
	return fresh, nil
}

// Acknowledge marks tasks seen so they are never reported again
func (w *Watcher) Acknowledge(ctx context.Context, ids []string) error {
	return w.seen.MarkSeen(ctx, ids, time.Now())
}

// Trigger asks for an early check, debounced
func (w *Watcher) Trigger() {
	w.mu.Lock()
	if !w.pending {
		w.pending = true
		go w.debouncedPoll()
	}
	w.mu.Unlock()
}

func (w *Watcher) debouncedPoll() {
	timer := time.NewTimer(w.debounceTime)
	defer timer.Stop()

	select {
	case <-timer.C:
		w.mu.Lock()
		w.pending = false
		w.mu.Unlock()
		w.poll()
	case <-w.stopCh:
		return
	}
}

// Stop stops polling. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}
