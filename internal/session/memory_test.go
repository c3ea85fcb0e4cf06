package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestCreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("incomplete session: %#v", created)
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != created.ID || len(got.Messages) != 0 || len(got.Files) != 0 {
		t.Fatalf("unexpected session state: %#v", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendMessageOrderAndNotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.AppendMessage(ctx, "missing", "q", "r"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	created, _ := store.Create(ctx)
	for i := 0; i < 3; i++ {
		if err := store.AppendMessage(ctx, created.ID, fmt.Sprintf("q%d", i), fmt.Sprintf("r%d", i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, _ := store.Get(ctx, created.ID)
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got.Messages))
	}
	for i, msg := range got.Messages {
		if msg.Query != fmt.Sprintf("q%d", i) || msg.Response != fmt.Sprintf("r%d", i) {
			t.Fatalf("message %d out of order: %#v", i, msg)
		}
	}
}

func TestAppendFileCreatesMissingSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	fileID, err := store.AppendFile(ctx, "fresh-id", "report.pdf", "application/pdf", []byte("data"), true)
	if err != nil {
		t.Fatalf("append file with createMissing: %v", err)
	}
	if fileID == "" {
		t.Fatalf("expected generated file id")
	}

	got, err := store.Get(ctx, "fresh-id")
	if err != nil {
		t.Fatalf("session should have been created: %v", err)
	}
	if len(got.Files) != 1 {
		t.Fatalf("expected exactly one file, got %d", len(got.Files))
	}

	// Second upload appends to the now-existing session, no duplicate.
	if _, err := store.AppendFile(ctx, "fresh-id", "scan.png", "image/png", []byte("img"), true); err != nil {
		t.Fatalf("second append: %v", err)
	}
	got, _ = store.Get(ctx, "fresh-id")
	if len(got.Files) != 2 {
		t.Fatalf("expected two files, got %d", len(got.Files))
	}
	if got.Files[0].Name != "report.pdf" || got.Files[1].Name != "scan.png" {
		t.Fatalf("file order lost: %#v", got.Files)
	}
}

func TestAppendFileFailsClosedWithoutCreateFlag(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.AppendFile(context.Background(), "missing", "a.txt", "text/plain", nil, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFilesOmitsContent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, _ := store.Create(ctx)
	payload := []byte("0123456789")
	if _, err := store.AppendFile(ctx, created.ID, "notes.txt", "text/plain", payload, false); err != nil {
		t.Fatalf("append file: %v", err)
	}

	infos, err := store.ListFiles(ctx, created.ID)
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 file, got %d", len(infos))
	}
	info := infos[0]
	if info.Name != "notes.txt" || info.MediaType != "text/plain" || info.Size != len(payload) {
		t.Fatalf("unexpected metadata: %#v", info)
	}

	if _, err := store.ListFiles(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsNotIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, _ := store.Create(ctx)
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete should fail, got %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("session should be gone, got %v", err)
	}
}

func TestConcurrentAppendsAreNotTorn(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	created, _ := store.Create(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.AppendMessage(ctx, created.ID, fmt.Sprintf("q%d", n), fmt.Sprintf("r%d", n))
		}(i)
	}
	wg.Wait()

	got, _ := store.Get(ctx, created.ID)
	if len(got.Messages) != 20 {
		t.Fatalf("expected 20 messages, got %d", len(got.Messages))
	}
	for _, msg := range got.Messages {
		if msg.Query == "" || msg.Response == "" || msg.Timestamp.IsZero() {
			t.Fatalf("torn message observed: %#v", msg)
		}
	}
}
