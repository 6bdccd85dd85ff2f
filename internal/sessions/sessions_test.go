package sessions

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/strrl/chatdash/internal/db"
	"github.com/strrl/chatdash/pkg/models"
)

func withMessage(id, name string, unread int) models.SessionSummary {
	return models.SessionSummary{
		ID:            id,
		Participant:   models.Participant{Name: name},
		LatestMessage: &models.LatestMessage{Text: "hi", Timestamp: "2024-03-01T10:00:00Z"},
		UnreadCount:   unread,
	}
}

func noMessages(id, name string) models.SessionSummary {
	return models.SessionSummary{ID: id, Participant: models.Participant{Name: name}}
}

func TestStatusBreakdown(t *testing.T) {
	got := StatusBreakdown([]models.SessionSummary{
		noMessages("1", "a"),
		withMessage("2", "b", 3),
		withMessage("3", "c", 0),
		withMessage("4", "d", 0),
		noMessages("5", "e"),
	})

	want := models.ProportionRecord{OnHold: 2, InProgress: 1, Completed: 2}
	if got != want {
		t.Errorf("StatusBreakdown() = %+v, want %+v", got, want)
	}

	if empty := StatusBreakdown(nil); empty.Total() != 0 {
		t.Errorf("StatusBreakdown(nil) total = %v, want 0", empty.Total())
	}
}

func TestUnreadByParticipant(t *testing.T) {
	sessions := []models.SessionSummary{
		withMessage("1", "Alice", 2),
		withMessage("2", "Bob", 5),
		withMessage("3", "Alice", 4),
		withMessage("4", "Carol", 0),
		withMessage("5", "", 1),
		withMessage("6", "Dan", 6),
	}

	got := UnreadByParticipant(sessions, 0)

	wantTitles := []string{"Alice", "Dan", "Bob", "Unknown"}
	if len(got) != len(wantTitles) {
		t.Fatalf("got %d entries, want %d: %+v", len(got), len(wantTitles), got)
	}
	for i, title := range wantTitles {
		if got[i].Title != title {
			t.Errorf("entry %d title = %q, want %q", i, got[i].Title, title)
		}
	}
	if got[0].Count != 6 {
		t.Errorf("Alice count = %v, want 6", got[0].Count)
	}
	if got[0].Tooltip != "Alice: 6 unread in 2 chats" {
		t.Errorf("Alice tooltip = %q", got[0].Tooltip)
	}
	if got[2].Tooltip != "Bob: 5 unread in 1 chat" {
		t.Errorf("Bob tooltip = %q", got[2].Tooltip)
	}

	limited := UnreadByParticipant(sessions, 2)
	if len(limited) != 2 || limited[1].Title != "Dan" {
		t.Errorf("limited = %+v", limited)
	}
}

func TestGenerateSampleAndWriteJSONL(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sample := GenerateSample(25, now, rand.New(rand.NewSource(7)))

	if len(sample) != 25 {
		t.Fatalf("got %d sessions, want 25", len(sample))
	}

	ids := map[string]bool{}
	for _, s := range sample {
		if s.ID == "" || ids[s.ID] {
			t.Fatalf("bad or duplicate id %q", s.ID)
		}
		ids[s.ID] = true
		if s.LatestMessage == nil && s.UnreadCount != 0 {
			t.Errorf("session %s has unread messages but no latest message", s.ID)
		}
		if s.LatestMessage != nil {
			ts, err := time.Parse(time.RFC3339, s.LatestMessage.Timestamp)
			if err != nil || !ts.Before(now) {
				t.Errorf("session %s timestamp %q is not before now", s.ID, s.LatestMessage.Timestamp)
			}
		}
	}

	var buf bytes.Buffer
	if err := WriteJSONL(&buf, sample); err != nil {
		t.Fatalf("WriteJSONL() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 25 {
		t.Errorf("got %d lines, want 25", len(lines))
	}
	if !strings.Contains(lines[0], `"id":"`+sample[0].ID+`"`) {
		t.Errorf("first line %q does not carry the first id", lines[0])
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	got, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.jsonl"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() = %v, want empty", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "it's.jsonl")
	data := strings.Join([]string{
		`{"id":"a","participant":{"name":"Alice"},"latestMessage":{"text":"hello","timestamp":"2024-03-01T15:45:00Z"},"unreadCount":2}`,
		`{"id":"b","participant":{},"latestMessage":null,"unreadCount":-3}`,
		`{"id":"c","participant":{"name":"Carol"},"latestMessage":{"text":"yo","timestamp":"garbage"}}`,
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got, err := Load(ctx, path)
	if err != nil {
		// Skip when DuckDB or its json extension is unavailable (CI environment)
		t.Skipf("Skipping test, DuckDB unavailable: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d sessions, want 3", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Errorf("order = %s %s %s, want a b c", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].LatestMessage == nil || got[0].LatestMessage.Text != "hello" || got[0].UnreadCount != 2 {
		t.Errorf("first session = %+v", got[0])
	}
	if got[1].Participant.Name != "" || got[1].LatestMessage != nil || got[1].UnreadCount != 0 {
		t.Errorf("second session = %+v", got[1])
	}
	if got[2].LatestMessage == nil || got[2].LatestMessage.Timestamp != "garbage" {
		t.Errorf("third session = %+v", got[2])
	}
}

func TestLoad_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	if err := os.WriteFile(path, []byte(`{"id":"a"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		_, _ = Load(ctx, path)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Load did not return after cancellation")
	}
}

func TestAwaitResult_ClosedAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := make(chan loadResult)
	close(ch)

	if _, err := awaitResult(ctx, ch); !errors.Is(err, context.Canceled) {
		t.Errorf("awaitResult() error = %v, want context.Canceled", err)
	}
}

func TestAwaitResult_ClosedWithoutCancel(t *testing.T) {
	ch := make(chan loadResult)
	close(ch)

	if _, err := awaitResult(context.Background(), ch); err == nil {
		t.Error("awaitResult() on a closed channel should fail")
	}
}

func TestExecuteSummariesQuery_CountsUnreadableRows(t *testing.T) {
	database, err := db.GetDB()
	if err != nil {
		t.Skipf("Skipping test, DuckDB unavailable: %v", err)
	}

	// "maybe" cannot be scanned into the has_message bool
	query := `
		SELECT 'a' AS id, NULL AS name, 'maybe' AS has_message, NULL AS text, NULL AS ts, 1 AS unread
		UNION ALL
		SELECT 'b', 'Bob', 'true', 'hi', '2024-03-01T15:45:00Z', 2
	`

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := awaitResult(ctx, executeSummariesQueryAsync(ctx, database, query, slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if len(result.Sessions) != 1 || result.Sessions[0].ID != "b" {
		t.Errorf("Sessions = %+v, want only b", result.Sessions)
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.jsonl")

	var loads atomic.Int32
	load := func(ctx context.Context, p string) ([]models.SessionSummary, error) {
		n := loads.Add(1)
		if p != path {
			t.Errorf("load path = %q, want %q", p, path)
		}
		return []models.SessionSummary{withMessage("x", "X", int(n))}, nil
	}

	w, err := WatchWith(context.Background(), path, WatchOptions{Load: load, Debounce: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("WatchWith() error = %v", err)
	}
	defer w.Close()

	// unrelated files in the same directory are ignored
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(`{"id":"x"}`+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case u := <-w.Updates():
		if u.Err != nil {
			t.Fatalf("update error = %v", u.Err)
		}
		if len(u.Sessions) != 1 {
			t.Fatalf("update sessions = %v", u.Sessions)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no update after file change")
	}

	time.Sleep(300 * time.Millisecond)
	if n := loads.Load(); n != 1 {
		t.Errorf("loads = %d, want 1 for one burst of writes", n)
	}
}

func TestWatch_CloseStopsUpdates(t *testing.T) {
	w, err := Watch(context.Background(), filepath.Join(t.TempDir(), "s.jsonl"), nil)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	_ = w.Close()

	select {
	case _, ok := <-w.Updates():
		if ok {
			t.Error("expected closed updates channel")
		}
	case <-time.After(time.Second):
		t.Fatal("updates channel not closed")
	}
}
