package conversation

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/0xcro3dile/campuschat-go/internal/domain/entities"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "key-1", nil)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := store.GetOrCreate(ctx, "key-1", nil)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first != second {
		t.Errorf("same key must resolve to the same session: %d vs %d", first, second)
	}

	n, err := store.CountSessions(ctx, "key-1")
	if err != nil {
		t.Fatalf("counting sessions: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly one session row, got %d", n)
	}
}

func TestGetOrCreate_ConcurrentFirstRequests(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	const callers = 8
	ids := make([]int64, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = store.GetOrCreate(ctx, "race-key", nil)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("caller %d got session %d, want %d", i, ids[i], ids[0])
		}
	}

	n, err := store.CountSessions(ctx, "race-key")
	if err != nil {
		t.Fatalf("counting sessions: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly one session row, got %d", n)
	}
}

func TestGetOrCreate_AttachesUserOnce(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// Anonymous first.
	if _, err := store.GetOrCreate(ctx, "key-1", nil); err != nil {
		t.Fatalf("anonymous call: %v", err)
	}
	sess, err := store.BySessionKey(ctx, "key-1")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	if sess.UserID != nil {
		t.Fatal("fresh anonymous session should have no user")
	}

	// Login attaches the user.
	uid := int64(7)
	if _, err := store.GetOrCreate(ctx, "key-1", &uid); err != nil {
		t.Fatalf("attach call: %v", err)
	}
	sess, _ = store.BySessionKey(ctx, "key-1")
	if sess.UserID == nil || *sess.UserID != 7 {
		t.Fatalf("user should be attached, got %v", sess.UserID)
	}

	// A later anonymous call must not clear it.
	if _, err := store.GetOrCreate(ctx, "key-1", nil); err != nil {
		t.Fatalf("post-logout call: %v", err)
	}
	sess, _ = store.BySessionKey(ctx, "key-1")
	if sess.UserID == nil || *sess.UserID != 7 {
		t.Error("attached user must never be cleared")
	}

	// A different user must not replace it either.
	other := int64(9)
	if _, err := store.GetOrCreate(ctx, "key-1", &other); err != nil {
		t.Fatalf("second attach call: %v", err)
	}
	sess, _ = store.BySessionKey(ctx, "key-1")
	if sess.UserID == nil || *sess.UserID != 7 {
		t.Error("attached user must never be replaced")
	}
}

func TestGetOrCreate_NewSessionWithUser(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	uid := int64(3)
	if _, err := store.GetOrCreate(ctx, "key-1", &uid); err != nil {
		t.Fatalf("create call: %v", err)
	}
	sess, err := store.BySessionKey(ctx, "key-1")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	if sess.UserID == nil || *sess.UserID != 3 {
		t.Errorf("user should be set at creation, got %v", sess.UserID)
	}
	if sess.Channel != "web" {
		t.Errorf("expected web channel, got %q", sess.Channel)
	}
}

func TestAppend_PreservesOrder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sessionID, err := store.GetOrCreate(ctx, "key-1", nil)
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}

	turns := []entities.Message{
		{SessionID: sessionID, Sender: entities.SenderUser, Text: "when is tuition due?"},
		{SessionID: sessionID, Sender: entities.SenderBot, Text: "on the first day of term", Metadata: []byte(`{"text":"on the first day of term"}`)},
		{SessionID: sessionID, Sender: entities.SenderBot, Text: "anything else?"},
	}
	for _, m := range turns {
		if err := store.Append(ctx, m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	history, err := store.History(ctx, sessionID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(history))
	}
	for i, m := range history {
		if m.Text != turns[i].Text {
			t.Errorf("turn %d out of order: %q", i, m.Text)
		}
	}
	if history[0].Sender != entities.SenderUser || history[1].Sender != entities.SenderBot {
		t.Error("senders not preserved")
	}
	if string(history[1].Metadata) != `{"text":"on the first day of term"}` {
		t.Errorf("metadata not stored verbatim: %s", history[1].Metadata)
	}
}
