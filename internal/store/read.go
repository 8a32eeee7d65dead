package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/weavebridge/internal/queryir"
)

const selectObject = `
	SELECT id, class, properties, vector, additional, creation_time_unix, last_update_time_unix
	FROM objects`

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// FetchByKey implements engine.Store.
func (s *Store) FetchByKey(ctx context.Context, class, id string, withVector bool) (*queryir.Object, error) {
	key := id
	if parsed, err := uuid.Parse(id); err == nil {
		key = parsed.String()
	}

	row := s.db.QueryRowContext(ctx, selectObject+` WHERE class = ? AND id = ?`, class, key)
	obj, err := scanObject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %w", class, id, err)
	}
	if !withVector {
		obj.Vector = nil
	}
	return &obj, nil
}

// Search implements engine.Store.
func (s *Store) Search(ctx context.Context, q queryir.GetQuery) ([]map[string]any, error) {
	objects, err := s.matching(ctx, q.Class, q.Where)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", q.Class, err)
	}

	hits := page(rank(objects, q.Directive), q.Offset, q.Limit)
	rows := make([]map[string]any, len(hits))
	for i, h := range hits {
		rows[i] = project(q.Selection, h, q.Directive, i == 0)
	}
	return rows, nil
}

// Aggregate implements engine.Store. Without GroupBy it returns one row;
// with GroupBy one row per distinct value, in order of first appearance.
// Objects lacking the grouped property are left out of every group.
func (s *Store) Aggregate(ctx context.Context, q queryir.AggregateQuery) ([]map[string]any, error) {
	objects, err := s.matching(ctx, q.Class, q.Where)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", q.Class, err)
	}

	if len(q.GroupBy) == 0 {
		return []map[string]any{aggregateRow(q.Selection, nil, "", len(objects))}, nil
	}

	var order []string
	counts := map[string]int{}
	for _, o := range objects {
		v, ok := document(o).Lookup(q.GroupBy)
		if !ok || v == nil {
			continue
		}
		values, isList := v.([]any)
		if !isList {
			values = []any{v}
		}
		for _, elem := range values {
			key := fmt.Sprint(elem)
			if _, seen := counts[key]; !seen {
				order = append(order, key)
			}
			counts[key]++
		}
	}

	rows := make([]map[string]any, len(order))
	for i, key := range order {
		rows[i] = aggregateRow(q.Selection, q.GroupBy, key, counts[key])
	}
	return rows, nil
}

// aggregateRow builds one aggregate row for the meta and groupedBy
// selections.
func aggregateRow(sel queryir.Selection, path []string, value string, count int) map[string]any {
	row := make(map[string]any, len(sel))
	for _, f := range sel {
		switch f.Name {
		case "meta":
			row[f.Key()] = projectValue(map[string]any{"count": count}, f.Sub)
		case "groupedBy":
			if path == nil {
				row[f.Key()] = nil
				continue
			}
			row[f.Key()] = projectValue(map[string]any{"path": path, "value": value}, f.Sub)
		default:
			row[f.Key()] = nil
		}
	}
	return row
}

// matching returns the objects of class satisfying where, in insertion
// order.
func (s *Store) matching(ctx context.Context, class string, where queryir.Filter) ([]queryir.Object, error) {
	objects, err := s.scanClass(ctx, class)
	if err != nil {
		return nil, err
	}
	out := objects[:0]
	for _, o := range objects {
		if queryir.Evaluate(where, document(o)) {
			out = append(out, o)
		}
	}
	return out, nil
}

// scanClass returns every object of class ordered by seq.
func (s *Store) scanClass(ctx context.Context, class string) ([]queryir.Object, error) {
	rows, err := s.db.QueryContext(ctx, selectObject+` WHERE class = ? ORDER BY seq ASC`, class)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	objects := []queryir.Object{}
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate objects: %w", err)
	}
	return objects, nil
}

func scanObject(r scanner) (queryir.Object, error) {
	var (
		obj        queryir.Object
		props      string
		vector     sql.NullString
		additional sql.NullString
	)
	if err := r.Scan(&obj.ID, &obj.Class, &props, &vector, &additional, &obj.CreationTimeUnix, &obj.LastUpdateTimeUnix); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return queryir.Object{}, err
		}
		return queryir.Object{}, fmt.Errorf("scan object: %w", err)
	}

	var err error
	if obj.Properties, err = unmarshalProperties(props); err != nil {
		return queryir.Object{}, err
	}
	if obj.Vector, err = unmarshalVector(vector); err != nil {
		return queryir.Object{}, err
	}
	if obj.Additional, err = unmarshalAdditional(additional); err != nil {
		return queryir.Object{}, err
	}
	return obj, nil
}

// document is the view of an object that filters evaluate against: its
// properties plus its id, unless a property shadows it.
func document(o queryir.Object) queryir.Document {
	doc := make(queryir.Document, len(o.Properties)+1)
	for k, v := range o.Properties {
		doc[k] = v
	}
	if _, ok := doc["id"]; !ok {
		doc["id"] = o.ID
	}
	return doc
}
