package pathstore_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dgallion1/docchunk/internal/pathstore"
	"github.com/dgallion1/docchunk/internal/pathstore/pathstoretest"
)

func newStore(t *testing.T) (*pathstore.Store, *pathstoretest.Server) {
	t.Helper()
	srv := pathstoretest.NewServer()
	t.Cleanup(srv.Close)
	return pathstore.NewStore(pathstore.NewClient(srv.URL, "test-key")), srv
}

func TestStore_ChunksRoundTripInOrder(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	// Write out of order; listing must come back sorted by index.
	for _, i := range []int{2, 0, 11, 1} {
		rec := pathstore.ChunkRecord{DocID: "doc-1", Index: i, Text: "chunk", Chars: 5, Tokens: 2}
		if err := store.PutChunk(ctx, "u1", rec); err != nil {
			t.Fatalf("put chunk %d: %v", i, err)
		}
	}

	got, err := store.ListChunks(ctx, "u1", "doc-1")
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	want := []int{0, 1, 2, 11}
	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Index != w {
			t.Errorf("chunk[%d]: expected index %d, got %d", i, w, got[i].Index)
		}
		if got[i].DocID != "doc-1" || got[i].Text != "chunk" {
			t.Errorf("chunk[%d]: unexpected record %+v", i, got[i])
		}
	}
}

func TestStore_ListChunksUnknownDocument(t *testing.T) {
	store, _ := newStore(t)
	got, err := store.ListChunks(context.Background(), "u1", "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no chunks, got %d", len(got))
	}
}

func TestStore_FindByHash(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	id, err := store.FindByHash(ctx, "u1", "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "" {
		t.Errorf("expected no match, got %q", id)
	}

	if err := store.PutHashIndex(ctx, "u1", "abc", "doc-7", "a.txt"); err != nil {
		t.Fatalf("put hash index: %v", err)
	}
	id, err = store.FindByHash(ctx, "u1", "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "doc-7" {
		t.Errorf("expected doc-7, got %q", id)
	}

	// Hash index is per user.
	if id, _ := store.FindByHash(ctx, "u2", "abc"); id != "" {
		t.Errorf("expected no match for another user, got %q", id)
	}
}

func TestStore_DeleteDocument(t *testing.T) {
	store, srv := newStore(t)
	ctx := context.Background()

	meta := pathstore.DocumentMeta{
		DocID:       "doc-1",
		UserID:      "u1",
		Filename:    "a.txt",
		ContentHash: "h1",
		TotalChunks: 1,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.PutDocumentMeta(ctx, meta); err != nil {
		t.Fatal(err)
	}
	if err := store.PutChunk(ctx, "u1", pathstore.ChunkRecord{DocID: "doc-1", Index: 0, Text: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := store.PutHashIndex(ctx, "u1", "h1", "doc-1", "a.txt"); err != nil {
		t.Fatal(err)
	}

	found, err := store.DeleteDocument(ctx, "u1", "doc-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !found {
		t.Error("expected document to be found")
	}
	if keys := srv.Keys(); len(keys) != 0 {
		t.Errorf("expected store to be empty, got %v", keys)
	}

	found, err = store.DeleteDocument(ctx, "u1", "doc-1")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if found {
		t.Error("expected second delete to report not found")
	}
}

func TestStore_GetDocumentMeta(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	if meta, err := store.GetDocumentMeta(ctx, "u1", "nope"); err != nil || meta != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", meta, err)
	}

	want := pathstore.DocumentMeta{DocID: "d", UserID: "u1", Title: "T", TotalChunks: 3, MaxChunkSize: 100}
	if err := store.PutDocumentMeta(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetDocumentMeta(ctx, "u1", "d")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "T" || got.TotalChunks != 3 || got.MaxChunkSize != 100 {
		t.Errorf("unexpected meta %+v", got)
	}
}

func TestStore_LinkChunks(t *testing.T) {
	store, srv := newStore(t)
	if err := store.LinkChunks(context.Background(), "u1", "d", 0, 1); err != nil {
		t.Fatal(err)
	}
	links := srv.Links()
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	want := [2]string{
		"docchunk/users/u1/documents/d/chunks/000000",
		"docchunk/users/u1/documents/d/chunks/000001",
	}
	if links[0] != want {
		t.Errorf("expected %v, got %v", want, links[0])
	}
}

func TestStore_PutChunkSurfacesRetryable(t *testing.T) {
	store, srv := newStore(t)
	srv.FailNextPuts(1, http.StatusServiceUnavailable)

	err := store.PutChunk(context.Background(), "u1", pathstore.ChunkRecord{DocID: "d"})
	var retryErr *pathstore.RetryableError
	if !errors.As(err, &retryErr) {
		t.Fatalf("expected *RetryableError, got %v", err)
	}
}
