package pipeline

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/pathstore"
	"github.com/dgallion1/docchunk/internal/pathstore/pathstoretest"
)

const threeParagraphs = "Alpha paragraph one.\n\nBeta paragraph two.\n\nGamma paragraph three."

var smallChunks = chunker.Config{MaxChunkSize: 40, OverlapSize: 0, MinChunkSize: 0}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker(t *testing.T, maxStore int) (*Worker, *pathstore.Store, *pathstoretest.Server) {
	t.Helper()
	srv := pathstoretest.NewServer()
	t.Cleanup(srv.Close)
	store := pathstore.NewStore(pathstore.NewClient(srv.URL, "test-key"))
	w := NewWorker(store, discardLogger(), NewStats(0), parser.Options{}, maxStore)
	w.backoff = noBackoff
	return w, store, srv
}

func TestWorker_ProcessStoresChunks(t *testing.T) {
	w, store, srv := newTestWorker(t, 4)
	job := NewJob("u1", "doc-1", "notes.txt", "", []byte(threeParagraphs), smallChunks)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.TotalChunks != 3 || snap.Progress.ChunksStored != 3 {
		t.Fatalf("expected 3/3 chunks, got %+v", snap.Progress)
	}
	if job.FileData() != nil {
		t.Error("expected file data to be released after parsing")
	}

	chunks, err := store.ListChunks(context.Background(), "u1", "doc-1")
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	want := []string{"Alpha paragraph one.", "Beta paragraph two.", "Gamma paragraph three."}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d stored chunks, got %d", len(want), len(chunks))
	}
	for i, c := range chunks {
		if c.Text != want[i] {
			t.Errorf("chunk[%d]: expected %q, got %q", i, want[i], c.Text)
		}
		if c.Index != i || c.DocID != "doc-1" {
			t.Errorf("chunk[%d]: unexpected identity %+v", i, c)
		}
		if c.Chars != len(want[i]) {
			t.Errorf("chunk[%d]: expected %d chars, got %d", i, len(want[i]), c.Chars)
		}
		if c.Tokens != chunker.EstimateTokens(want[i]) {
			t.Errorf("chunk[%d]: unexpected token estimate %d", i, c.Tokens)
		}
		if c.ContentHash != ContentHashHex([]byte(want[i])) {
			t.Errorf("chunk[%d]: unexpected content hash", i)
		}
	}

	meta, err := store.GetDocumentMeta(context.Background(), "u1", "doc-1")
	if err != nil || meta == nil {
		t.Fatalf("expected document meta, got %v, %v", meta, err)
	}
	if meta.Title != "notes" || meta.TotalChunks != 3 || meta.MaxChunkSize != 40 {
		t.Errorf("unexpected meta %+v", meta)
	}
	if meta.ContentHash != snap.ContentHash {
		t.Errorf("expected meta hash %q, got %q", snap.ContentHash, meta.ContentHash)
	}

	if links := srv.Links(); len(links) != 2 {
		t.Errorf("expected 2 chunk links, got %d", len(links))
	}

	stats := w.stats.Snapshot()
	if stats.Documents != 1 || stats.Chunks != 3 {
		t.Errorf("expected stats for 1 document / 3 chunks, got %+v", stats)
	}
	if stats.StoreLatency.Count != 3 {
		t.Errorf("expected 3 store latency samples, got %d", stats.StoreLatency.Count)
	}
}

func TestWorker_OverlapReachesStore(t *testing.T) {
	w, store, _ := newTestWorker(t, 1)
	cfg := chunker.Config{MaxChunkSize: 40, OverlapSize: 10, MinChunkSize: 0}
	job := NewJob("u1", "doc-ov", "notes.txt", "", []byte(threeParagraphs), cfg)

	w.Process(context.Background(), job)

	chunks, err := store.ListChunks(context.Background(), "u1", "doc-ov")
	if err != nil {
		t.Fatal(err)
	}
	want, err := chunker.Chunk(threeParagraphs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, c := range chunks {
		if c.Text != want[i] {
			t.Errorf("chunk[%d]: expected %q, got %q", i, want[i], c.Text)
		}
	}
	if chunks[1].Text == "Beta paragraph two." {
		t.Error("expected overlap from the first chunk to be carried into the second")
	}
}

func TestWorker_DuplicateSkipped(t *testing.T) {
	w, _, _ := newTestWorker(t, 2)

	first := NewJob("u1", "doc-a", "a.txt", "", []byte(threeParagraphs), smallChunks)
	w.Process(context.Background(), first)
	if got := first.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("expected first job completed, got %q", got)
	}

	// Same text with different line endings normalizes to the same hash.
	crlf := strings.ReplaceAll(threeParagraphs, "\n", "\r\n")
	second := NewJob("u1", "doc-b", "b.txt", "", []byte(crlf), smallChunks)
	w.Process(context.Background(), second)

	snap := second.Snapshot()
	if snap.Status != StatusDupSkipped {
		t.Fatalf("expected duplicate_skipped, got %q", snap.Status)
	}
	if snap.DuplicateOf != "doc-a" {
		t.Errorf("expected duplicate of doc-a, got %q", snap.DuplicateOf)
	}

	forced := NewJob("u1", "doc-c", "c.txt", "", []byte(threeParagraphs), smallChunks)
	forced.Force = true
	w.Process(context.Background(), forced)
	if got := forced.Snapshot().Status; got != StatusCompleted {
		t.Errorf("expected forced job completed, got %q", got)
	}
}

func TestWorker_RetriesTransientStoreErrors(t *testing.T) {
	w, _, srv := newTestWorker(t, 1)
	srv.FailNextPuts(2, http.StatusServiceUnavailable)

	job := NewJob("u1", "doc-r", "notes.txt", "", []byte(threeParagraphs), smallChunks)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed after retries, got %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.ChunksStored != 3 {
		t.Errorf("expected 3 chunks stored, got %d", snap.Progress.ChunksStored)
	}
	// 3 chunks + 2 failed attempts + meta + hash index.
	if got := srv.Puts(); got != 7 {
		t.Errorf("expected 7 write attempts, got %d", got)
	}
}

func TestWorker_PermanentStoreErrorIsPartial(t *testing.T) {
	w, _, srv := newTestWorker(t, 1)
	srv.FailNextPuts(1, http.StatusBadRequest)

	job := NewJob("u1", "doc-p", "notes.txt", "", []byte(threeParagraphs), smallChunks)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial, got %q", snap.Status)
	}
	if snap.Progress.ChunksStored != 2 {
		t.Errorf("expected 2 chunks stored, got %d", snap.Progress.ChunksStored)
	}
	if len(snap.Progress.Errors) != 1 || !strings.HasPrefix(snap.Progress.Errors[0], "chunk 0:") {
		t.Errorf("expected one error for chunk 0, got %v", snap.Progress.Errors)
	}
	if len(srv.Links()) != 0 {
		t.Error("expected no links when a chunk is missing")
	}
}

func TestWorker_AllStoresFail(t *testing.T) {
	w, _, srv := newTestWorker(t, 2)
	srv.FailNextPuts(1000, http.StatusForbidden)

	job := NewJob("u1", "doc-f", "notes.txt", "", []byte(threeParagraphs), smallChunks)
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusFailed {
		t.Errorf("expected failed, got %q", got)
	}
}

func TestWorker_UnsupportedFormat(t *testing.T) {
	w, _, _ := newTestWorker(t, 1)
	job := NewJob("u1", "", "blob.bin", "", []byte{0x00, 0x01, 0x02, 0xff, 0xfe}, smallChunks)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "parsing" {
		t.Errorf("expected failed in parsing, got %q/%q", snap.Status, snap.Phase)
	}
}

func TestWorker_BlankDocument(t *testing.T) {
	w, _, srv := newTestWorker(t, 1)
	job := NewJob("u1", "", "blank.txt", "", []byte("  \n\n\t\n"), smallChunks)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "chunking" {
		t.Errorf("expected failed in chunking, got %q/%q", snap.Status, snap.Phase)
	}
	if len(srv.Keys()) != 0 {
		t.Errorf("expected nothing stored, got %v", srv.Keys())
	}
}

func TestWorker_TitleOverride(t *testing.T) {
	w, store, _ := newTestWorker(t, 1)
	job := NewJob("u1", "doc-t", "notes.txt", "Quarterly Notes", []byte(threeParagraphs), smallChunks)
	w.Process(context.Background(), job)

	meta, err := store.GetDocumentMeta(context.Background(), "u1", "doc-t")
	if err != nil || meta == nil {
		t.Fatalf("expected meta, got %v, %v", meta, err)
	}
	if meta.Title != "Quarterly Notes" {
		t.Errorf("expected overridden title, got %q", meta.Title)
	}
}
