package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ChunkRecord is one persisted fragment of a document.
type ChunkRecord struct {
	DocID       string `json:"doc_id"`
	Index       int    `json:"index"`
	Text        string `json:"text"`
	Chars       int    `json:"chars"`
	Tokens      int    `json:"tokens"`
	ContentHash string `json:"content_hash"`
}

// DocumentMeta summarizes a stored document.
type DocumentMeta struct {
	DocID        string    `json:"doc_id"`
	UserID       string    `json:"user_id"`
	Filename     string    `json:"filename"`
	Title        string    `json:"title"`
	ContentHash  string    `json:"content_hash"`
	TotalChunks  int       `json:"total_chunks"`
	ChunksStored int       `json:"chunks_stored"`
	MaxChunkSize int       `json:"max_chunk_size"`
	OverlapSize  int       `json:"overlap_size"`
	MinChunkSize int       `json:"min_chunk_size"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store lays chunk records out in pathstore:
//
//	docchunk/users/{user}/documents/{doc}/meta
//	docchunk/users/{user}/documents/{doc}/chunks/{index}
//	docchunk/users/{user}/by_hash/{hash}/{doc}
type Store struct {
	client *Client
}

func NewStore(client *Client) *Store {
	return &Store{client: client}
}

const source = "docchunk"

func documentKey(userID, docID string) string {
	return fmt.Sprintf("docchunk/users/%s/documents/%s", userID, docID)
}

// chunkKey zero-pads the index so prefix scans return chunks in order.
func chunkKey(userID, docID string, index int) string {
	return fmt.Sprintf("%s/chunks/%06d", documentKey(userID, docID), index)
}

func hashKey(userID, hash string) string {
	return fmt.Sprintf("docchunk/users/%s/by_hash/%s", userID, hash)
}

// PutChunk writes one chunk, replacing any previous value at its index.
func (s *Store) PutChunk(ctx context.Context, userID string, rec ChunkRecord) error {
	return s.client.PutNode(ctx, chunkKey(userID, rec.DocID, rec.Index), NodeRequest{
		Value:     rec,
		MergeMode: "replace",
		Source:    source + ":" + rec.DocID,
	})
}

// LinkChunks records that chunk to follows chunk from in reading order.
func (s *Store) LinkChunks(ctx context.Context, userID, docID string, from, to int) error {
	return s.client.PutLink(ctx, LinkRequest{
		From:    chunkKey(userID, docID, from),
		To:      chunkKey(userID, docID, to),
		Weight:  1,
		Summary: "next",
	})
}

// PutDocumentMeta writes the document summary.
func (s *Store) PutDocumentMeta(ctx context.Context, meta DocumentMeta) error {
	return s.client.PutNode(ctx, documentKey(meta.UserID, meta.DocID)+"/meta", NodeRequest{
		Value:     meta,
		MergeMode: "replace",
		Source:    source + ":" + meta.DocID,
	})
}

// GetDocumentMeta returns nil, nil when the document is unknown.
func (s *Store) GetDocumentMeta(ctx context.Context, userID, docID string) (*DocumentMeta, error) {
	node, err := s.client.GetNode(ctx, documentKey(userID, docID)+"/meta")
	if err != nil || node == nil {
		return nil, err
	}
	var meta DocumentMeta
	if err := json.Unmarshal(node.Value, &meta); err != nil {
		return nil, fmt.Errorf("decode document meta: %w", err)
	}
	return &meta, nil
}

// PutHashIndex registers docID under its content hash for dedup.
func (s *Store) PutHashIndex(ctx context.Context, userID, hash, docID, filename string) error {
	return s.client.PutNode(ctx, hashKey(userID, hash)+"/"+docID, NodeRequest{
		Value:  map[string]any{"filename": filename},
		Source: source + ":" + docID,
	})
}

// FindByHash returns the ID of a document already stored with this content
// hash, or "" if none.
func (s *Store) FindByHash(ctx context.Context, userID, hash string) (string, error) {
	children, err := s.client.ListChildren(ctx, hashKey(userID, hash), 1)
	if err != nil {
		return "", err
	}
	if len(children) == 0 {
		return "", nil
	}
	return lastSegment(children[0].Key), nil
}

// ListChunks returns the stored chunks of a document in index order.
func (s *Store) ListChunks(ctx context.Context, userID, docID string) ([]ChunkRecord, error) {
	children, err := s.client.ListChildren(ctx, documentKey(userID, docID)+"/chunks", 0)
	if err != nil {
		return nil, err
	}
	records := make([]ChunkRecord, 0, len(children))
	for _, c := range children {
		var rec ChunkRecord
		if err := json.Unmarshal(c.Value, &rec); err != nil {
			return nil, fmt.Errorf("decode chunk %s: %w", c.Key, err)
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Index < records[j].Index })
	return records, nil
}

// DeleteDocument removes a document, its chunks and its hash index entry.
// It reports false when the document does not exist.
func (s *Store) DeleteDocument(ctx context.Context, userID, docID string) (bool, error) {
	meta, err := s.GetDocumentMeta(ctx, userID, docID)
	if err != nil {
		return false, err
	}
	if meta == nil {
		return false, nil
	}
	if meta.ContentHash != "" {
		if err := s.client.DeleteNode(ctx, hashKey(userID, meta.ContentHash)+"/"+docID, false); err != nil {
			return false, fmt.Errorf("delete hash index: %w", err)
		}
	}
	if err := s.client.DeleteNode(ctx, documentKey(userID, docID), true); err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	return true, nil
}

// lastSegment returns the final component of a key path, which the server may
// report with either '/' or '.' separators.
func lastSegment(key string) string {
	if i := strings.LastIndexAny(key, "/."); i >= 0 {
		return key[i+1:]
	}
	return key
}
