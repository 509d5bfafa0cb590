package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

func TestMemoryStoreAppendList(t *testing.T) {
	store := NewMemoryStore(0, logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	c := &domain.Cycle{Transcript: "base forward", Command: domain.BaseForward, Flushed: true}
	if err := store.Append(ctx, c); err != nil {
		t.Fatalf("append: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected an ID to be assigned")
	}
	if c.StartedAt.IsZero() {
		t.Fatal("expected a start time to be assigned")
	}

	got, err := store.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Command != domain.BaseForward || got.Transcript != "base forward" {
		t.Errorf("unexpected cycle %+v", got)
	}

	// Mutating the caller's copy must not reach the journal.
	c.Transcript = "changed"
	list, _ := store.List(ctx)
	if len(list) != 1 || list[0].Transcript != "base forward" {
		t.Errorf("journal was mutated through caller pointer: %+v", list)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore(0, logger.New(logger.LevelOff, nil))

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreDropsOldest(t *testing.T) {
	store := NewMemoryStore(2, logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Append(ctx, &domain.Cycle{ID: id}); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	list, _ := store.List(ctx)
	if len(list) != 2 {
		t.Fatalf("expected 2 cycles, got %d", len(list))
	}
	if list[0].ID != "b" || list[1].ID != "c" {
		t.Errorf("expected [b c], got [%s %s]", list[0].ID, list[1].ID)
	}
}

func TestMemoryStoreSummarize(t *testing.T) {
	store := NewMemoryStore(0, logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	cycles := []*domain.Cycle{
		{Command: domain.ArmOut},
		{Command: domain.ArmOut},
		{Command: domain.HeadTool},
		{Command: domain.NoMatch},
		{Command: domain.NoMatch, Err: "transcribing: model missing"},
	}
	for _, c := range cycles {
		_ = store.Append(ctx, c)
	}

	sum := store.Summarize(ctx)
	if sum.Cycles != 5 || sum.Matched != 3 || sum.Unmatched != 1 || sum.Failed != 1 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if sum.ByCommand[domain.ArmOut] != 2 || sum.ByCommand[domain.HeadTool] != 1 {
		t.Errorf("unexpected per-command counts %v", sum.ByCommand)
	}
}
