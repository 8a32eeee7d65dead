package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/weavebridge/internal/queryir"
)

// BatchInsert implements engine.Store.
//
// Objects without an id get a random UUID. An object whose id is not a UUID
// or whose values cannot be encoded is reported as failed; the rest of the
// batch is still written. Writing an existing id replaces the object.
func (s *Store) BatchInsert(ctx context.Context, class string, objects []queryir.Object) ([]queryir.InsertResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("batch insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO objects
		(class, id, properties, vector, additional, creation_time_unix, last_update_time_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(class, id) DO UPDATE SET
			properties = excluded.properties,
			vector = excluded.vector,
			additional = excluded.additional,
			last_update_time_unix = excluded.last_update_time_unix
	`)
	if err != nil {
		return nil, fmt.Errorf("batch insert: %w", err)
	}
	defer stmt.Close()

	now := s.now().UnixMilli()
	results := make([]queryir.InsertResult, len(objects))
	for i, o := range objects {
		id, err := objectID(o.ID)
		if err != nil {
			results[i] = queryir.InsertResult{ID: o.ID, Status: queryir.InsertFailed, Errors: []string{err.Error()}}
			continue
		}
		results[i] = queryir.InsertResult{ID: id, Status: queryir.InsertSuccess}

		row, err := encodeObject(o)
		if err != nil {
			results[i].Status = queryir.InsertFailed
			results[i].Errors = []string{err.Error()}
			continue
		}

		created := o.CreationTimeUnix
		if created == 0 {
			created = now
		}
		updated := o.LastUpdateTimeUnix
		if updated == 0 {
			updated = now
		}

		if _, err := stmt.ExecContext(ctx, class, id, row.properties, row.vector, row.additional, created, updated); err != nil {
			return nil, fmt.Errorf("batch insert object %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("batch insert: %w", err)
	}
	return results, nil
}

// objectID validates id, generating one when empty. IDs are stored in
// canonical lowercase form.
func objectID(id string) (string, error) {
	if id == "" {
		return uuid.NewString(), nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("id %q is not a valid UUID", id)
	}
	return parsed.String(), nil
}

// BatchDelete implements engine.Store. A nil where deletes every object of
// class.
func (s *Store) BatchDelete(ctx context.Context, class string, where queryir.Filter) (queryir.DeleteResult, error) {
	objects, err := s.scanClass(ctx, class)
	if err != nil {
		return queryir.DeleteResult{}, fmt.Errorf("batch delete: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return queryir.DeleteResult{}, fmt.Errorf("batch delete: %w", err)
	}
	defer tx.Rollback()

	matches := 0
	for _, o := range objects {
		if !queryir.Evaluate(where, document(o)) {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM objects WHERE class = ? AND id = ?`, class, o.ID); err != nil {
			return queryir.DeleteResult{}, fmt.Errorf("batch delete %s: %w", o.ID, err)
		}
		matches++
	}

	if err := tx.Commit(); err != nil {
		return queryir.DeleteResult{}, fmt.Errorf("batch delete: %w", err)
	}
	return queryir.DeleteResult{Matches: matches}, nil
}
