package policy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// IndexEntry pairs one clause with its embedding vector. Every entry carries
// the clause metadata in full; an entry without a clause_id is invalid.
type IndexEntry struct {
	Clause Clause
	Vector []float32
}

// Index is an in-memory nearest-neighbor index over clause embeddings. It is
// immutable after construction and safe for concurrent reads.
type Index struct {
	entries []IndexEntry
}

// NewIndex creates an index from pre-embedded entries
func NewIndex(entries []IndexEntry) *Index {
	return &Index{entries: entries}
}

// Len returns the number of indexed clauses
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entries returns the indexed entries in insertion order
func (ix *Index) Entries() []IndexEntry {
	return ix.entries
}

// Search returns the k clauses whose embeddings are nearest to the query
// vector by cosine similarity, most similar first.
func (ix *Index) Search(query []float32, k int) []Clause {
	if len(query) == 0 || k <= 0 || len(ix.entries) == 0 {
		return nil
	}

	type scored struct {
		clause Clause
		score  float64
	}

	results := make([]scored, 0, len(ix.entries))
	for _, entry := range ix.entries {
		results = append(results, scored{
			clause: entry.Clause,
			score:  cosineSimilarity(query, entry.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if k > len(results) {
		k = len(results)
	}

	clauses := make([]Clause, 0, k)
	for _, r := range results[:k] {
		clauses = append(clauses, r.clause)
	}

	return clauses
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// encodeVector serializes an embedding vector as little-endian float32 bytes
// for storage in the persisted index.
func encodeVector(vec []float32) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(vec)*4))
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("failed to encode embedding vector: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeVector deserializes an embedding vector stored by encodeVector
func decodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob: %d bytes", len(data))
	}

	vec := make([]float32, len(data)/4)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("failed to decode embedding vector: %w", err)
	}
	return vec, nil
}
