package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Collection names used by the handlers.
const (
	CollectionDishes       = "dishes"
	CollectionTables       = "tables"
	CollectionReservations = "reservations"
	CollectionOrders       = "orders"
	CollectionInfo         = "restaurant_info"
)

// Store is the document store contract handlers depend on. Filters are flat
// equality matches against top-level document fields; the store is assumed
// eventually consistent and not transactional.
type Store interface {
	Find(ctx context.Context, collection string, filter map[string]any) ([]map[string]any, error)
	Insert(ctx context.Context, collection string, doc map[string]any) (map[string]any, error)
	Update(ctx context.Context, collection, id string, patch map[string]any) (bool, error)
	Delete(ctx context.Context, collection, id string) (bool, error)
}

// Documents is the SQLite-backed Store implementation.
type Documents struct {
	db *DB
}

// NewDocuments creates a document store using the given database.
func NewDocuments(db *DB) *Documents {
	return &Documents{db: db}
}

// Find returns all documents in the collection matching the filter.
// A nil or empty filter returns the whole collection.
func (s *Documents) Find(ctx context.Context, collection string, filter map[string]any) ([]map[string]any, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE collection = ? ORDER BY created_at, id`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []map[string]any
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			continue
		}

		var doc map[string]any
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			s.db.log.Warn().Str("collection", collection).Str("id", id).Err(err).Msg("skipping malformed document")
			continue
		}
		doc["id"] = id

		if matchesFilter(doc, filter) {
			docs = append(docs, doc)
		}
	}
	return docs, rows.Err()
}

// Insert stores a new document and returns it with its assigned id.
func (s *Documents) Insert(ctx context.Context, collection string, doc map[string]any) (map[string]any, error) {
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}

	stored := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "id" {
			continue
		}
		stored[k] = v
	}

	body, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}

	now := time.Now().UTC().Format(time.DateTime)
	_, err = s.db.sql.ExecContext(ctx,
		`INSERT INTO documents (id, collection, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, collection, string(body), now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", collection, err)
	}

	stored["id"] = id
	return stored, nil
}

// Update applies a patch to the document's top-level fields.
// Returns false if the document does not exist.
func (s *Documents) Update(ctx context.Context, collection, id string, patch map[string]any) (bool, error) {
	var body string
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&body)
	if err != nil {
		return false, nil
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return false, fmt.Errorf("unmarshaling document %s/%s: %w", collection, id, err)
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		doc[k] = v
	}

	updated, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("marshaling document: %w", err)
	}

	_, err = s.db.sql.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(updated), time.Now().UTC().Format(time.DateTime), collection, id)
	if err != nil {
		return false, fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}
	return true, nil
}

// Delete removes a document. Returns false if it did not exist.
func (s *Documents) Delete(ctx context.Context, collection, id string) (bool, error) {
	res, err := s.db.sql.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return false, fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// matchesFilter reports whether doc satisfies every filter entry.
// Values are compared by their string form so JSON number decoding
// (float64) does not break int filters.
func matchesFilter(doc, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
