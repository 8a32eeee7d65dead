package ir

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// Aggregate aliases recognised in Query.Aggregates.
const (
	AggregateCount         = "aggregate_count"
	AggregateGroupByVector = "aggregate_group_by_vector"
)

// Query is the per-table part of a query request.
//
// Limit and Offset are applied only when present and positive. Aggregates is
// keyed by alias; the aggregate bodies are kept raw because only the alias
// selects the behaviour.
type Query struct {
	Fields     map[string]Field
	Where      Expression
	Limit      *int
	Offset     *int
	Aggregates map[string]json.RawMessage
}

// WantsAggregate reports whether alias was requested.
func (q Query) WantsAggregate(alias string) bool {
	_, ok := q.Aggregates[alias]
	return ok
}

// UnmarshalJSON decodes the tagged-union members of a query.
func (q *Query) UnmarshalJSON(data []byte) error {
	var w struct {
		Fields     map[string]json.RawMessage `json:"fields"`
		Where      json.RawMessage            `json:"where"`
		Limit      *int                       `json:"limit"`
		Offset     *int                       `json:"offset"`
		Aggregates map[string]json.RawMessage `json:"aggregates"`
	}
	if err := unmarshalNumbers(data, &w); err != nil {
		return err
	}

	*q = Query{Limit: w.Limit, Offset: w.Offset, Aggregates: w.Aggregates}

	if w.Fields != nil {
		q.Fields = make(map[string]Field, len(w.Fields))
		for alias, raw := range w.Fields {
			f, err := DecodeField(raw)
			if err != nil {
				return err
			}
			q.Fields[alias] = f
		}
	}

	where, err := DecodeExpression(w.Where)
	if err != nil {
		return err
	}
	q.Where = where
	return nil
}

// Target identifies the table a request addresses.
type Target struct {
	Type string   `json:"type"`
	Name []string `json:"name"`
}

// Table returns the single table name, or an INVALID_TARGET error when the
// target is not a table.
func (t Target) Table() (string, error) {
	if t.Type != "table" {
		return "", NewError(ErrCodeInvalidTarget, t.Type, "target must be a table")
	}
	return tableName(t.Name)
}

func tableName(name []string) (string, error) {
	if len(name) == 0 || name[0] == "" {
		return "", NewError(ErrCodeInvalidTarget, "", "target table name is empty")
	}
	return name[0], nil
}

// QueryRequest is a complete query against one table.
//
// When Foreach is non-empty the query is executed once per entry with the
// entry's key/value pairs ANDed into the filter.
type QueryRequest struct {
	Target  Target                   `json:"target"`
	Query   Query                    `json:"query"`
	Foreach []map[string]ScalarValue `json:"foreach,omitempty"`
}

// UnmarshalJSON decodes a query request, keeping numbers exact.
func (r *QueryRequest) UnmarshalJSON(data []byte) error {
	type plain QueryRequest
	var p plain
	if err := unmarshalNumbers(data, &p); err != nil {
		return err
	}
	*r = QueryRequest(p)
	return nil
}

// Row is one reconstructed result row, keyed by requested alias.
type Row map[string]any

// QueryResponse is the canonical query result.
type QueryResponse struct {
	Rows       []Row          `json:"rows"`
	Aggregates map[string]any `json:"aggregates,omitempty"`
}

// Mutation operation types.
const (
	MutationInsert = "insert"
	MutationUpdate = "update"
	MutationDelete = "delete"
)

// MutationOperation is one entry of a mutation request.
type MutationOperation struct {
	Type  string
	Table []string
	Rows  []map[string]any
	Where Expression
}

// TableName returns the operation's table or an INVALID_TARGET error.
func (op MutationOperation) TableName() (string, error) {
	return tableName(op.Table)
}

// UnmarshalJSON decodes a mutation operation.
func (op *MutationOperation) UnmarshalJSON(data []byte) error {
	var w struct {
		Type  string           `json:"type"`
		Table json.RawMessage  `json:"table"`
		Rows  []map[string]any `json:"rows"`
		Where json.RawMessage  `json:"where"`
	}
	if err := unmarshalNumbers(data, &w); err != nil {
		return err
	}

	*op = MutationOperation{Type: w.Type, Rows: w.Rows}

	if !isNullJSON(w.Table) {
		var single string
		if err := json.Unmarshal(w.Table, &single); err == nil {
			op.Table = []string{single}
		} else if err := json.Unmarshal(w.Table, &op.Table); err != nil {
			return err
		}
	}

	where, err := DecodeExpression(w.Where)
	if err != nil {
		return err
	}
	op.Where = where
	return nil
}

// MutationRequest is an ordered list of mutation operations.
type MutationRequest struct {
	Operations []MutationOperation `json:"operations"`
}

// OperationResult reports the outcome of one mutation operation.
type OperationResult struct {
	AffectedRows int `json:"affected_rows"`
}

// MutationResponse holds one result per operation, in request order.
type MutationResponse struct {
	OperationResults []OperationResult `json:"operation_results"`
}

// DecodeQueryRequest reads a query request from r.
func DecodeQueryRequest(r io.Reader) (*QueryRequest, error) {
	var req QueryRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeMutationRequest reads a mutation request from r.
func DecodeMutationRequest(r io.Reader) (*MutationRequest, error) {
	var req MutationRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func decodeBody(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return WrapError(ErrCodeInvalidRequest, err, "read request body")
	}
	if err := unmarshalNumbers(data, v); err != nil {
		return WrapError(ErrCodeInvalidRequest, err, "decode request body")
	}
	return nil
}

// unmarshalNumbers decodes JSON keeping numbers as json.Number, so int
// literals survive without float rounding.
func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func isNullJSON(data []byte) bool {
	s := strings.TrimSpace(string(data))
	return s == "" || s == "null"
}
