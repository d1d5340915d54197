package database

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
)

// EmbeddedDocument is a document together with its decoded embedding vector.
type EmbeddedDocument struct {
	Document
	Embedding []float32
}

// InsertDocument inserts a document. Returns the ID on success, 0 if the
// URL is already stored.
func (db *DB) InsertDocument(title string, content, url, source *string, queryID *int64) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO documents (title, content, url, source, query_id)
		VALUES (?, ?, ?, ?, ?)`,
		title, content, url, source, queryID,
	)
	if err != nil {
		// Duplicate URL constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// GetDocumentByID returns a single document by ID.
func (db *DB) GetDocumentByID(id int64) (*Document, error) {
	row := db.conn.QueryRow(
		`SELECT id, title, content, url, source, query_id, created_at
		FROM documents WHERE id = ?`, id,
	)
	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// SearchDocumentsByKeyword returns up to limit documents whose content
// contains the query text as a literal substring.
func (db *DB) SearchDocumentsByKeyword(queryText string, limit int) ([]Document, error) {
	rows, err := db.conn.Query(
		`SELECT id, title, content, url, source, query_id, created_at
		FROM documents WHERE content LIKE '%' || ? || '%' LIMIT ?`,
		queryText, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// GetEmbeddedDocuments returns all documents that have a stored embedding.
func (db *DB) GetEmbeddedDocuments() ([]EmbeddedDocument, error) {
	rows, err := db.conn.Query(
		`SELECT id, title, content, url, source, query_id, created_at, embedding
		FROM documents WHERE embedding IS NOT NULL`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []EmbeddedDocument
	for rows.Next() {
		var d EmbeddedDocument
		var blob []byte
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.URL, &d.Source,
			&d.QueryID, &d.CreatedAt, &blob); err != nil {
			return nil, err
		}
		vec, err := decodeFloat32s(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for document %d: %w", d.ID, err)
		}
		d.Embedding = vec
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetDocumentsMissingEmbedding returns documents with content but no
// stored embedding.
func (db *DB) GetDocumentsMissingEmbedding() ([]Document, error) {
	rows, err := db.conn.Query(
		`SELECT id, title, content, url, source, query_id, created_at
		FROM documents
		WHERE embedding IS NULL AND content IS NOT NULL AND content != ''`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// UpdateDocumentEmbedding stores the embedding vector for a document.
func (db *DB) UpdateDocumentEmbedding(id int64, embedding []float32) error {
	_, err := db.conn.Exec(
		`UPDATE documents SET embedding = ? WHERE id = ?`,
		encodeFloat32s(embedding), id,
	)
	return err
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM documents", &s.Documents},
		{"SELECT COUNT(*) FROM documents WHERE embedding IS NOT NULL", &s.EmbeddedDocuments},
		{"SELECT COUNT(*) FROM queries", &s.Queries},
		{"SELECT COUNT(*) FROM insights", &s.Insights},
		{"SELECT COUNT(*) FROM feedback_logs", &s.FeedbackEntries},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.URL, &d.Source,
			&d.QueryID, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func scanDocument(row *sql.Row) (*Document, error) {
	var d Document
	if err := row.Scan(&d.ID, &d.Title, &d.Content, &d.URL, &d.Source,
		&d.QueryID, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// encodeFloat32s serializes a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s deserializes little-endian bytes into a float32 slice.
func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
