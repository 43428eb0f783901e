package session_test

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice/session"
	"github.com/chatman-media/farang-marketplace-voice/internal/entity"
	"github.com/sirupsen/logrus"
)

func newTestStore(idle time.Duration) *session.Store {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return session.NewStore("th-TH", idle, log)
}

func TestStore_GetOrCreateDefaults(t *testing.T) {
	t.Parallel()

	store := newTestStore(0)

	sess := store.GetOrCreate("sess-1", "", "")
	if sess.ID != "sess-1" {
		t.Errorf("ID = %q, want %q", sess.ID, "sess-1")
	}
	if sess.UserID != entity.AnonymousUserID {
		t.Errorf("UserID = %q, want anonymous sentinel", sess.UserID)
	}
	if sess.Language != "th-TH" {
		t.Errorf("Language = %q, want service default", sess.Language)
	}
	if sess.Context != entity.ContextGeneral {
		t.Errorf("Context = %q, want %q", sess.Context, entity.ContextGeneral)
	}
}

func TestStore_GetOrCreateConcurrent(t *testing.T) {
	t.Parallel()

	store := newTestStore(0)

	var wg sync.WaitGroup
	created := make([]time.Time, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess := store.GetOrCreate("shared", "user-1", "en-US")
			created[i] = sess.CreatedAt
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(created); i++ {
		if !created[i].Equal(created[0]) {
			t.Fatal("concurrent GetOrCreate produced more than one session")
		}
	}
	if stats := store.Stats(); stats.TotalSessions != 1 {
		t.Fatalf("TotalSessions = %d, want 1", stats.TotalSessions)
	}
}

func TestStore_AppendOrderAndSerialization(t *testing.T) {
	t.Parallel()

	store := newTestStore(0)
	store.GetOrCreate("sess-1", "user-1", "en-US")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Append("sess-1", entity.VoiceCommand{
				ID:        fmt.Sprintf("cmd-%02d", i),
				SessionID: "sess-1",
			})
		}(i)
	}
	wg.Wait()

	sess, ok := store.Get("sess-1")
	if !ok {
		t.Fatal("session disappeared")
	}
	if len(sess.Commands) != 50 {
		t.Fatalf("command log has %d entries, want 50 (lost updates)", len(sess.Commands))
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	store := newTestStore(0)
	store.GetOrCreate("sess-1", "user-1", "en-US")
	store.Append("sess-1", entity.VoiceCommand{ID: "cmd-1"})

	sess, _ := store.Get("sess-1")
	sess.Commands[0].ID = "mutated"
	sess.Flow.CurrentFlow = "mutated"

	fresh, _ := store.Get("sess-1")
	if fresh.Commands[0].ID != "cmd-1" {
		t.Error("snapshot mutation leaked into the store")
	}
	if fresh.Flow.CurrentFlow != "" {
		t.Error("flow mutation leaked into the store")
	}
}

func TestStore_ExpireIdle(t *testing.T) {
	t.Parallel()

	store := newTestStore(time.Hour)
	store.GetOrCreate("old", "user-1", "en-US")
	time.Sleep(30 * time.Millisecond)
	store.GetOrCreate("fresh", "user-2", "en-US")

	removed := store.ExpireIdle(20 * time.Millisecond)
	if removed != 1 {
		t.Fatalf("ExpireIdle removed %d sessions, want 1", removed)
	}
	if _, ok := store.Get("old"); ok {
		t.Error("idle session still present after sweep")
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Error("recently active session was removed")
	}
}

func TestStore_Stats(t *testing.T) {
	t.Parallel()

	store := newTestStore(time.Hour)
	store.GetOrCreate("a", "user-1", "en-US")
	store.GetOrCreate("b", "user-2", "th-TH")
	store.Append("a", entity.VoiceCommand{ID: "cmd-1"})
	store.Append("a", entity.VoiceCommand{ID: "cmd-2"})
	store.Append("b", entity.VoiceCommand{ID: "cmd-3"})

	stats := store.Stats()
	if stats.TotalSessions != 2 {
		t.Errorf("TotalSessions = %d, want 2", stats.TotalSessions)
	}
	if stats.ActiveSessions != 2 {
		t.Errorf("ActiveSessions = %d, want 2", stats.ActiveSessions)
	}
	if stats.TotalCommands != 3 {
		t.Errorf("TotalCommands = %d, want 3", stats.TotalCommands)
	}
}

func TestStore_UpdateUnknownSession(t *testing.T) {
	t.Parallel()

	store := newTestStore(0)
	if store.Update("ghost", func(*entity.VoiceSession) {}) {
		t.Error("Update on unknown session reported success")
	}
}
