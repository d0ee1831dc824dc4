package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/pathstore"
	"golang.org/x/sync/errgroup"
)

// sniffLen is how much of a file is handed to content-type detection.
const sniffLen = 3072

// Worker processes a single document job.
type Worker struct {
	store      *pathstore.Store
	log        *slog.Logger
	stats      *Stats
	parserOpts parser.Options

	maxConcurrentStore int
	backoff            func(attempt int) time.Duration
}

func NewWorker(store *pathstore.Store, log *slog.Logger, stats *Stats, parserOpts parser.Options, maxStore int) *Worker {
	if maxStore <= 0 {
		maxStore = 1
	}
	return &Worker{
		store:              store,
		log:                log,
		stats:              stats,
		parserOpts:         parserOpts,
		maxConcurrentStore: maxStore,
		backoff:            Backoff,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "user_id", job.UserID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	data := job.FileData()
	p, err := parser.ForFile(job.Filename, data[:min(len(data), sniffLen)], w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	tree, err := p.Parse(bytes.NewReader(data), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	// The raw bytes are no longer needed; release them before chunking.
	job.SetFileData(nil)

	title := job.Title
	if title == "" {
		title = tree.Title
	}

	// Hash the normalized text so re-encoded copies of a document still match.
	text := tree.PlainText()
	job.SetContentHash(ContentHashHex([]byte(chunker.Normalize(text))))
	hash := job.Snapshot().ContentHash

	// Phase 1.5: Dedup check
	if !job.Force {
		existing, err := w.store.FindByHash(ctx, job.UserID, hash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if existing != "" {
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.MarkDuplicate(existing)
			return
		}
	}

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	start := time.Now()
	chunks, err := chunker.Chunk(text, job.ChunkConfig)
	w.stats.Chunking.Record(time.Since(start))
	if err != nil {
		log.Error("chunking failed", "error", err)
		job.AddError(fmt.Sprintf("chunk: %s", err))
		job.SetStatus(StatusFailed, "chunking")
		return
	}
	job.SetTotalChunks(len(chunks))

	if len(chunks) == 0 {
		log.Warn("no chunks produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "chunking")
		return
	}

	records := make([]pathstore.ChunkRecord, len(chunks))
	totalChars := 0
	for i, c := range chunks {
		chars := utf8.RuneCountInString(c)
		totalChars += chars
		records[i] = pathstore.ChunkRecord{
			DocID:       job.DocID,
			Index:       i,
			Text:        c,
			Chars:       chars,
			Tokens:      chunker.EstimateTokens(c),
			ContentHash: ContentHashHex([]byte(c)),
		}
	}
	w.stats.RecordDocument(len(chunks), totalChars)
	log.Info("chunked document", "chunks", len(chunks), "chars", totalChars, "config", job.ChunkConfig)

	// Phase 3: Store chunks with bounded concurrency.
	job.SetStatus(StatusStoring, "storing")
	stored := w.storeChunks(ctx, job, records, log)
	log.Info("storage complete", "stored", stored, "total", len(records))

	if stored == len(records) {
		w.linkChunks(ctx, job, len(records), log)
	}

	if stored > 0 {
		meta := pathstore.DocumentMeta{
			DocID:        job.DocID,
			UserID:       job.UserID,
			Filename:     job.Filename,
			Title:        title,
			ContentHash:  hash,
			TotalChunks:  len(records),
			ChunksStored: stored,
			MaxChunkSize: job.ChunkConfig.MaxChunkSize,
			OverlapSize:  job.ChunkConfig.OverlapSize,
			MinChunkSize: job.ChunkConfig.MinChunkSize,
			CreatedAt:    job.CreatedAt.UTC(),
		}
		if err := retry(ctx, w.backoff, func(ctx context.Context) error {
			return w.store.PutDocumentMeta(ctx, meta)
		}); err != nil {
			log.Error("meta write failed", "error", err)
			job.AddError(fmt.Sprintf("meta: %s", err))
		}

		// Write hash index for dedup.
		if err := w.store.PutHashIndex(ctx, job.UserID, hash, job.DocID, job.Filename); err != nil {
			log.Error("hash index write failed", "error", err)
		}
	}

	switch {
	case stored == 0:
		job.SetStatus(StatusFailed, "storing")
	case stored < len(records) || len(job.Snapshot().Progress.Errors) > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

// storeChunks writes every record, retrying transient failures, and returns
// how many were stored. Failures are recorded on the job.
func (w *Worker) storeChunks(ctx context.Context, job *Job, records []pathstore.ChunkRecord, log *slog.Logger) int {
	var g errgroup.Group
	g.SetLimit(w.maxConcurrentStore)

	for _, rec := range records {
		g.Go(func() error {
			start := time.Now()
			err := retry(ctx, w.backoff, func(ctx context.Context) error {
				return w.store.PutChunk(ctx, job.UserID, rec)
			})
			w.stats.Store.Record(time.Since(start))
			if err != nil {
				log.Error("store failed", "chunk", rec.Index, "error", err)
				job.AddError(fmt.Sprintf("chunk %d: %s", rec.Index, err))
				return err
			}
			job.IncrChunksStored()
			return nil
		})
	}
	// Per-chunk errors are already on the job.
	_ = g.Wait()

	return job.Snapshot().Progress.ChunksStored
}

// linkChunks records reading order between consecutive chunks. Failures are
// logged only; the chunks themselves are intact.
func (w *Worker) linkChunks(ctx context.Context, job *Job, n int, log *slog.Logger) {
	for i := 1; i < n; i++ {
		if err := w.store.LinkChunks(ctx, job.UserID, job.DocID, i-1, i); err != nil {
			log.Warn("chunk link failed", "from", i-1, "to", i, "error", err)
			return
		}
	}
}
