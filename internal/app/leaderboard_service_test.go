package app_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"gamified-learning/internal/app"
	"gamified-learning/internal/domain"
)

func TestLeaderboardPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	names := []string{"ann", "ben", "cat", "dan", "eve"}
	ids := make(map[string]string, len(names))
	for i, name := range names {
		u := f.user(t, name)
		ids[name] = u.ID
		f.setPoints(t, u.ID, (i+1)*10)
	}

	entries, p, err := f.board.Page(ctx, 2, 2)
	if err != nil {
		t.Fatalf("page failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Username != "cat" || entries[0].Rank != 3 || entries[1].Rank != 4 {
		t.Fatalf("unexpected page %+v", entries)
	}
	if p.TotalUsers != 5 || p.TotalPages != 3 || !p.HasNextPage || !p.HasPrevPage || p.CurrentPage != 2 {
		t.Fatalf("unexpected pagination %+v", p)
	}

	var verr *domain.ValidationError
	if _, _, err := f.board.Page(ctx, 0, 10); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for page 0, got %v", err)
	}
	if _, _, err := f.board.Page(ctx, 1, 101); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for limit 101, got %v", err)
	}
	if _, _, err := f.board.Page(ctx, math.MaxInt, 2); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for overflowing page, got %v", err)
	}
	if _, _, err := f.board.Page(ctx, math.MaxInt/app.MaxPageLimit, app.MaxPageLimit); err != nil {
		t.Fatalf("expected largest addressable page to be empty, got %v", err)
	}

	standing, err := f.board.UserContext(ctx, ids["ann"])
	if err != nil {
		t.Fatalf("user context failed: %v", err)
	}
	// ann is last with 10 points: window starts two above her
	if standing.Rank != 5 || len(standing.Nearby) != 3 || standing.Nearby[0].Username != "cat" {
		t.Fatalf("unexpected standing %+v", standing)
	}

	standing, _ = f.board.UserContext(ctx, ids["cat"])
	if standing.Rank != 3 || len(standing.Nearby) != 5 {
		t.Fatalf("expected full window around rank 3, got %+v", standing)
	}
}

func TestRankSharesTies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.user(t, "ann")
	b := f.user(t, "ben")
	f.setPoints(t, a.ID, 100)
	f.setPoints(t, b.ID, 100)
	f.user(t, "cat")

	for _, id := range []string{a.ID, b.ID} {
		u, _ := f.users.GetByID(ctx, id)
		rank, err := f.board.Rank(ctx, u)
		if err != nil || rank != 1 {
			t.Fatalf("expected shared rank 1, got %d (%v)", rank, err)
		}
	}
	top, err := f.board.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}
	leaders := map[string]bool{top.Entries[0].UserID: true, top.Entries[1].UserID: true}
	if !leaders[a.ID] || !leaders[b.ID] || top.Entries[2].Rank != 3 {
		t.Fatalf("unexpected ordering %+v", top.Entries)
	}
}

func TestProgressExpandsBadges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "ann")
	c := f.challenge(t)
	if _, err := f.submissions.Submit(ctx, u.ID, c.ID, doubleSolution, ""); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	view, err := f.board.Progress(ctx, u.ID)
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if view.Rank != 1 || view.Points != 225 || len(view.CompletedChallenges) != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
	if len(view.Badges) != 3 || view.Badges[0].ID != "first_challenge" || view.Badges[0].Name == "" {
		t.Fatalf("unexpected badges %+v", view.Badges)
	}

	if _, err := f.board.Progress(ctx, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestHubDeliversLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "ann")

	if err := f.hub.Publish(ctx); err != nil {
		t.Fatalf("publish without subscribers: %v", err)
	}

	ch, cancel, err := f.hub.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()
	if f.hub.Subscribers() != 1 {
		t.Fatalf("expected one subscriber")
	}

	// never read while publishing: older snapshots get dropped
	for i := 1; i <= 20; i++ {
		f.setPoints(t, u.ID, i)
		if err := f.hub.Publish(ctx); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	var last int
	received := 0
drain:
	for {
		select {
		case lb := <-ch:
			received++
			last = lb.Entries[0].Points
		default:
			break drain
		}
	}
	if last != 20 {
		t.Fatalf("expected the latest snapshot last, got points %d", last)
	}
	if received > 8 {
		t.Fatalf("expected buffered snapshots to be bounded, got %d", received)
	}

	cancel()
	if f.hub.Subscribers() != 0 {
		t.Fatalf("expected subscriber removed")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
}
