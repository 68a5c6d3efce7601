// Package feed turns the availability table into a live, filtered
// stream: every change to the collection re-emits the open, future
// slot set to all subscribers until they cancel.
package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cetiassist/asesoria_backend/internal/metrics"
	"github.com/cetiassist/asesoria_backend/internal/model"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Lister provides the snapshot query the watcher re-runs on changes.
// Satisfied by repository.AvailabilityRepository.
type Lister interface {
	ListOpenFrom(ctx context.Context, from time.Time, professorID, subject string) ([]*model.Availability, error)
}

// Notifier blocks until the availability collection changes. The pgx
// implementation listens on a Postgres channel; tests feed synthetic
// events.
type Notifier interface {
	WaitForChange(ctx context.Context) error
}

// Subscription is a cancellable handle on the live feed. C carries the
// latest filtered snapshot; slow consumers only ever skip intermediate
// snapshots, never block the watcher.
type Subscription struct {
	C <-chan []*model.Availability

	ch          chan []*model.Availability
	professorID string
	subject     string
	cancelOnce  sync.Once
	unregister  func(*Subscription)
}

// Cancel stops delivery immediately. Calling it twice, or on a
// subscription that never received anything, is a no-op.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(func() {
		s.unregister(s)
	})
}

type Watcher struct {
	lister          Lister
	notifier        Notifier
	refreshInterval time.Duration
	metrics         metrics.Recorder
	logger          *zap.Logger

	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}

	changes chan struct{}

	// now is swappable in tests.
	now func() time.Time
}

func NewWatcher(
	lister Lister,
	notifier Notifier,
	refreshInterval time.Duration,
	recorder metrics.Recorder,
	logger *zap.Logger,
) *Watcher {
	return &Watcher{
		lister:          lister,
		notifier:        notifier,
		refreshInterval: refreshInterval,
		metrics:         recorder,
		logger:          logger,
		subscribers:     make(map[*Subscription]struct{}),
		changes:         make(chan struct{}, 1),
		now:             time.Now,
	}
}

// Subscribe registers a new consumer and delivers the current snapshot
// right away. professorID and subject scope the stream; empty means
// unfiltered.
func (w *Watcher) Subscribe(ctx context.Context, professorID, subject string) (*Subscription, error) {
	snapshot, err := w.lister.ListOpenFrom(ctx, w.now(), professorID, subject)
	if err != nil {
		return nil, fmt.Errorf("initial feed snapshot: %w", err)
	}

	sub := &Subscription{
		ch:          make(chan []*model.Availability, 1),
		professorID: professorID,
		subject:     subject,
		unregister:  w.remove,
	}
	sub.C = sub.ch
	sub.ch <- snapshot

	w.mu.Lock()
	w.subscribers[sub] = struct{}{}
	count := len(w.subscribers)
	w.mu.Unlock()

	w.metrics.SetFeedSubscribers(count)
	return sub, nil
}

func (w *Watcher) remove(sub *Subscription) {
	w.mu.Lock()
	delete(w.subscribers, sub)
	count := len(w.subscribers)
	close(sub.ch)
	w.mu.Unlock()

	w.metrics.SetFeedSubscribers(count)
}

// Run drives the watcher until ctx is cancelled: change notifications
// and a periodic refresh tick (so slots crossing "now" fall out of the
// feed) both trigger a requery and fan-out.
func (w *Watcher) Run(ctx context.Context) {
	go w.notifyLoop(ctx)

	ticker := time.NewTicker(w.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.changes:
			w.broadcast(ctx)
		case <-ticker.C:
			w.broadcast(ctx)
		case <-ctx.Done():
			w.logger.Info("Feed watcher stopped")
			return
		}
	}
}

// notifyLoop waits for store notifications and coalesces them into the
// changes channel. Connection loss is retried with exponential backoff;
// the feed keeps serving the last snapshot meanwhile.
func (w *Watcher) notifyLoop(ctx context.Context) {
	backoff := retry.WithCappedDuration(30*time.Second, retry.NewExponential(time.Second))

	for ctx.Err() == nil {
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			if err := w.notifier.WaitForChange(ctx); err != nil {
				if ctx.Err() != nil {
					return err
				}
				w.logger.Warn("Feed notification stream interrupted, resubscribing", zap.Error(err))
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			return
		}

		select {
		case w.changes <- struct{}{}:
		default:
			// A refresh is already pending.
		}
	}
}

// broadcast requeries once and fans the result out to every subscriber
// through its own filter.
func (w *Watcher) broadcast(ctx context.Context) {
	w.mu.RLock()
	idle := len(w.subscribers) == 0
	w.mu.RUnlock()
	if idle {
		return
	}

	snapshot, err := w.lister.ListOpenFrom(ctx, w.now(), "", "")
	if err != nil {
		w.logger.Error("Feed requery failed", zap.Error(err))
		return
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	for sub := range w.subscribers {
		deliver(sub, filterSnapshot(snapshot, sub.professorID, sub.subject))
	}
}

// deliver replaces any undelivered snapshot with the newer one.
func deliver(sub *Subscription, snapshot []*model.Availability) {
	for {
		select {
		case sub.ch <- snapshot:
			return
		default:
			select {
			case <-sub.ch:
			default:
			}
		}
	}
}

func filterSnapshot(snapshot []*model.Availability, professorID, subject string) []*model.Availability {
	if professorID == "" && subject == "" {
		return snapshot
	}

	filtered := make([]*model.Availability, 0, len(snapshot))
	for _, a := range snapshot {
		if professorID != "" && a.ProfessorID != professorID {
			continue
		}
		if subject != "" && a.SubjectLower != lower(subject) {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
