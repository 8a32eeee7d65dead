package ir

import "encoding/json"

// Field is a node of the requested field-selection tree.
//
// This is a sealed interface - only types in this package implement it.
type Field interface {
	fieldNode() // Marker method - seals interface to this package
}

// ColumnField selects a scalar column (or a built-in property).
type ColumnField struct {
	Column     string
	ColumnType string
}

func (ColumnField) fieldNode() {}

// ObjectField selects a nested object column with its own sub-selection.
type ObjectField struct {
	Column string
	Query  Query
}

func (ObjectField) fieldNode() {}

// RelationshipField selects a cross-reference by relationship name.
type RelationshipField struct {
	Relationship string
	Query        Query
}

func (RelationshipField) fieldNode() {}

// ArrayField wraps the selection applied to each element of an array column.
type ArrayField struct {
	Field Field
}

func (ArrayField) fieldNode() {}

// UnknownField records a field whose wire tag is not recognised.
type UnknownField struct {
	Type string
}

func (UnknownField) fieldNode() {}

// DecodeField decodes one wire field.
func DecodeField(data []byte) (Field, error) {
	var w struct {
		Type         string          `json:"type"`
		Column       string          `json:"column"`
		ColumnType   string          `json:"column_type"`
		Relationship string          `json:"relationship"`
		Query        json.RawMessage `json:"query"`
		Field        json.RawMessage `json:"field"`
	}
	if err := unmarshalNumbers(data, &w); err != nil {
		return nil, err
	}

	switch w.Type {
	case "column":
		return ColumnField{Column: w.Column, ColumnType: w.ColumnType}, nil

	case "object", "relationship":
		var q Query
		if !isNullJSON(w.Query) {
			if err := q.UnmarshalJSON(w.Query); err != nil {
				return nil, err
			}
		}
		if w.Type == "object" {
			return ObjectField{Column: w.Column, Query: q}, nil
		}
		return RelationshipField{Relationship: w.Relationship, Query: q}, nil

	case "array":
		inner, err := DecodeField(w.Field)
		if err != nil {
			return nil, err
		}
		return ArrayField{Field: inner}, nil

	default:
		return UnknownField{Type: w.Type}, nil
	}
}
