package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type recordingDestroyer struct {
	mu        sync.Mutex
	destroyed []string
	failFor   map[string]bool
}

func (r *recordingDestroyer) Destroy(_ context.Context, publicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[publicID] {
		return errors.New("provider rejected request")
	}
	r.destroyed = append(r.destroyed, publicID)
	return nil
}

func (r *recordingDestroyer) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.destroyed...)
	sort.Strings(out)
	return out
}

func TestDispatcher_DrainsOnStop(t *testing.T) {
	media := &recordingDestroyer{}
	d := NewDispatcher(3, media, zerolog.Nop())
	d.Start(context.Background())

	want := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("covers/img%02d", i)
		want = append(want, id)
		d.Schedule(id)
	}
	d.Stop()

	got := media.ids()
	if len(got) != len(want) {
		t.Fatalf("expected %d removals, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("removal %d: want %q got %q", i, want[i], got[i])
		}
	}
}

// ctxCheckingDestroyer fails removals whose context is already done.
type ctxCheckingDestroyer struct {
	recordingDestroyer
	cancelled int
}

func (c *ctxCheckingDestroyer) Destroy(ctx context.Context, publicID string) error {
	if ctx.Err() != nil {
		c.mu.Lock()
		c.cancelled++
		c.mu.Unlock()
		return ctx.Err()
	}
	return c.recordingDestroyer.Destroy(ctx, publicID)
}

func TestDispatcher_DrainsAfterContextCancelled(t *testing.T) {
	media := &ctxCheckingDestroyer{}
	d := NewDispatcher(2, media, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Schedule("covers/a")
	d.Schedule("covers/b")
	d.Schedule("covers/c")
	cancel()
	// requests still finishing during shutdown can schedule more work
	d.Schedule("covers/d")
	d.Stop()

	got := media.ids()
	want := []string{"covers/a", "covers/b", "covers/c", "covers/d"}
	if len(got) != len(want) {
		t.Fatalf("expected %d removals after shutdown, got %v (cancelled %d)", len(want), got, media.cancelled)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("removal %d: want %q got %q", i, want[i], got[i])
		}
	}
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	media := &recordingDestroyer{failFor: map[string]bool{"bad": true}}
	d := NewDispatcher(1, media, zerolog.Nop())
	d.Start(context.Background())

	d.Schedule("bad")
	d.Schedule("good")
	d.Stop()

	if got := media.ids(); len(got) != 1 || got[0] != "good" {
		t.Errorf("expected only the good removal, got %v", got)
	}
}

func TestDispatcher_ScheduleNeverBlocks(t *testing.T) {
	d := NewDispatcher(1, &recordingDestroyer{}, zerolog.Nop())

	// not started: the single queue fills and the rest are dropped
	for i := 0; i < channelBuffer+10; i++ {
		d.Schedule(fmt.Sprintf("img%d", i))
	}
	if n := len(d.workers[0]); n != channelBuffer {
		t.Errorf("expected a full queue of %d, got %d", channelBuffer, n)
	}
}

func TestDispatcher_ScheduleAfterStop(t *testing.T) {
	media := &recordingDestroyer{}
	d := NewDispatcher(2, media, zerolog.Nop())
	d.Start(context.Background())
	d.Stop()
	d.Stop()

	d.Schedule("late")
	if got := media.ids(); len(got) != 0 {
		t.Errorf("nothing must run after stop, got %v", got)
	}
}

func TestDispatcher_EmptyIDIgnored(t *testing.T) {
	d := NewDispatcher(1, &recordingDestroyer{}, zerolog.Nop())
	d.Schedule("")
	if n := len(d.workers[0]); n != 0 {
		t.Errorf("empty id must not be queued, got %d", n)
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(8, &recordingDestroyer{}, zerolog.Nop())
	first := d.shardIndex("covers/dune")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("covers/dune"); got != first {
			t.Fatalf("shard changed: %d then %d", first, got)
		}
	}
	if first < 0 || first >= 8 {
		t.Errorf("shard out of range: %d", first)
	}
}
