package store

import (
	"database/sql"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/roach88/weavebridge/internal/queryir"
)

// codec encodes JSON columns. Map keys are sorted so stored TEXT is stable;
// numbers decode as json.Number so large integers survive a round trip.
var codec = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// marshalProperties converts a property map to JSON TEXT.
func marshalProperties(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	data, err := codec.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return string(data), nil
}

// marshalVector converts a vector to JSON TEXT, or NULL when it is empty.
func marshalVector(v []float32) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	data, err := codec.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal vector: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// marshalAdditional converts additional values to JSON TEXT, or NULL when
// there are none.
func marshalAdditional(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	data, err := codec.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal additional: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalProperties parses JSON TEXT to a property map.
func unmarshalProperties(data string) (map[string]any, error) {
	props := map[string]any{}
	if data == "" || data == "{}" {
		return props, nil
	}
	if err := codec.UnmarshalFromString(data, &props); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}
	return props, nil
}

// unmarshalVector parses a nullable JSON array column.
func unmarshalVector(data sql.NullString) ([]float32, error) {
	if !data.Valid || data.String == "" {
		return nil, nil
	}
	var v []float32
	if err := codec.UnmarshalFromString(data.String, &v); err != nil {
		return nil, fmt.Errorf("unmarshal vector: %w", err)
	}
	return v, nil
}

// unmarshalAdditional parses a nullable JSON object column.
func unmarshalAdditional(data sql.NullString) (map[string]any, error) {
	if !data.Valid || data.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := codec.UnmarshalFromString(data.String, &m); err != nil {
		return nil, fmt.Errorf("unmarshal additional: %w", err)
	}
	return m, nil
}

// encodedObject holds the JSON columns of one object.
type encodedObject struct {
	properties string
	vector     sql.NullString
	additional sql.NullString
}

func encodeObject(o queryir.Object) (encodedObject, error) {
	var row encodedObject
	var err error
	if row.properties, err = marshalProperties(o.Properties); err != nil {
		return encodedObject{}, err
	}
	if row.vector, err = marshalVector(o.Vector); err != nil {
		return encodedObject{}, err
	}
	if row.additional, err = marshalAdditional(o.Additional); err != nil {
		return encodedObject{}, err
	}
	return row, nil
}
