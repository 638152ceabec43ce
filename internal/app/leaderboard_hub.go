package app

import (
	"context"
	"sync"

	"gamified-learning/internal/domain"
	"go.uber.org/zap"
)

const defaultHubSize = 10

// LeaderboardHub pushes top-N snapshots to live subscribers after progress changes.
type LeaderboardHub struct {
	board *LeaderboardService
	size  int
	log   *zap.Logger

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardHub(board *LeaderboardService, size int, log *zap.Logger) *LeaderboardHub {
	if size <= 0 {
		size = defaultHubSize
	}
	return &LeaderboardHub{
		board:       board,
		size:        size,
		log:         log,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe returns a channel primed with the current snapshot.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *LeaderboardHub) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := h.board.Top(ctx, h.size)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel, nil
}

// Publish recomputes the snapshot and fans it out.
func (h *LeaderboardHub) Publish(ctx context.Context) error {
	h.mu.Lock()
	idle := len(h.subscribers) == 0
	h.mu.Unlock()
	if idle {
		return nil
	}

	lb, err := h.board.Top(ctx, h.size)
	if err != nil {
		return err
	}
	h.broadcast(lb)
	return nil
}

func (h *LeaderboardHub) broadcast(lb domain.Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- lb:
		default:
			// slow subscriber: drop its oldest snapshot
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	h.log.Debug("leaderboard broadcast", zap.Int("subscribers", len(h.subscribers)), zap.Int("entries", len(lb.Entries)))
}

// Subscribers reports the number of live subscribers.
func (h *LeaderboardHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
