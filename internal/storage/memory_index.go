// Package storage provides the request-scoped vector index over document chunks.
package storage

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	"fund-review-rag/internal/models"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3" // Import sqlite3 driver
)

func init() {
	sqlite_vec.Auto()
}

// MemoryVectorIndex holds one document's chunks and their embeddings in an
// in-memory SQLite database with the sqlite-vec extension. It is built once
// per request and must be closed when the request ends; nothing persists.
type MemoryVectorIndex struct {
	db              *sql.DB
	embeddingLength int
	count           int
}

// NewMemoryVectorIndex creates an empty in-memory vector index.
func NewMemoryVectorIndex() (*MemoryVectorIndex, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// A :memory: database exists per connection; the pool must stay at one.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ix := &MemoryVectorIndex{db: db}
	if err := ix.initDB(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}
	return ix, nil
}

// initDB creates the chunk metadata table. The vec_chunks virtual table is
// created on first insert, when the embedding dimension is known.
func (ix *MemoryVectorIndex) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS chunks (
		seq INTEGER PRIMARY KEY,
		content TEXT NOT NULL
	);
	`
	if _, err := ix.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create chunks table: %w", err)
	}
	return nil
}

// Close releases the in-memory database.
func (ix *MemoryVectorIndex) Close() error {
	return ix.db.Close()
}

// Len returns the number of indexed chunks.
func (ix *MemoryVectorIndex) Len() int {
	return ix.count
}

// serializeFloat32Vector converts a float32 slice to the byte format expected by sqlite-vec
func serializeFloat32Vector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(v))
	}
	return buf
}

// Add stores a chunk and its embedding, keyed by the chunk's ordinal.
func (ix *MemoryVectorIndex) Add(chunk models.Chunk, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("empty embedding for chunk %d", chunk.Ordinal)
	}
	if err := ix.ensureVecTableExists(len(embedding)); err != nil {
		return err
	}

	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO chunks (seq, content) VALUES (?, ?)`, chunk.Ordinal, chunk.Text); err != nil {
		return fmt.Errorf("failed to insert chunk metadata: %w", err)
	}

	embeddingBytes := serializeFloat32Vector(embedding)
	if _, err := tx.Exec(`INSERT INTO vec_chunks (seq, embedding) VALUES (?, ?)`, chunk.Ordinal, embeddingBytes); err != nil {
		return fmt.Errorf("failed to insert chunk vector: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	ix.count++
	return nil
}

// ensureVecTableExists creates the vec_chunks table sized to the first
// embedding. Later embeddings must match that dimension.
func (ix *MemoryVectorIndex) ensureVecTableExists(embeddingLen int) error {
	if ix.embeddingLength != 0 {
		if ix.embeddingLength != embeddingLen {
			return fmt.Errorf("embedding length mismatch: index has %d, got %d", ix.embeddingLength, embeddingLen)
		}
		return nil
	}

	vecQuery := fmt.Sprintf(`
		CREATE VIRTUAL TABLE vec_chunks USING vec0(
			seq INTEGER PRIMARY KEY,
			embedding FLOAT[%d]
		)
	`, embeddingLen)
	if _, err := ix.db.Exec(vecQuery); err != nil {
		return fmt.Errorf("failed to create vec_chunks table: %w", err)
	}

	ix.embeddingLength = embeddingLen
	return nil
}

// Search performs KNN vector search and returns the topK nearest chunks.
// Equal-distance ties break on chunk ordinal, so results are stable under
// re-run for identical inputs.
func (ix *MemoryVectorIndex) Search(embedding []float32, topK int) ([]models.Chunk, error) {
	if ix.count == 0 {
		return []models.Chunk{}, nil
	}
	if topK > ix.count {
		topK = ix.count
	}

	embeddingBytes := serializeFloat32Vector(embedding)

	// sqlite-vec requires the k parameter as part of the MATCH expression
	query := `
		SELECT c.seq, c.content
		FROM vec_chunks v
		JOIN chunks c ON c.seq = v.seq
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance, c.seq
	`

	rows, err := ix.db.Query(query, embeddingBytes, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to perform vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		if err := rows.Scan(&chunk.Ordinal, &chunk.Text); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		results = append(results, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}
