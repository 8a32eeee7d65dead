package compiler

import (
	"encoding/json"
	"time"

	"github.com/spf13/cast"

	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/queryir"
)

// EncodeScalar places a literal into the store-native value slot for its
// declared scalar type.
//
//	text                                   → valueText
//	int                                    → valueInt (int64)
//	boolean                                → valueBoolean
//	number                                 → valueNumber (float64)
//	date                                   → valueDate (RFC 3339 string, UTC)
//	uuid, geoCoordinates, phoneNumber, blob → valueText
//
// The last row is deliberately lossy: the store filters those types as text,
// so structured values (geo points, phone objects) are compared by their JSON
// text. Any other type tag fails with UNKNOWN_SCALAR_TYPE; a value that
// cannot be coerced into its slot fails with UNSUPPORTED_EXPRESSION.
//
// Dates are parsed once here and re-rendered as RFC 3339 in UTC, so a
// date-only value such as "2024-01-01" becomes "2024-01-01T00:00:00Z".
func EncodeScalar(t ir.ScalarType, v any) (queryir.TypedValue, error) {
	switch t {
	case ir.ScalarText, ir.ScalarUUID, ir.ScalarGeoCoordinates, ir.ScalarPhoneNumber, ir.ScalarBlob:
		s, err := textOf(v)
		if err != nil {
			return queryir.TypedValue{}, coercionError(t, v, err)
		}
		return queryir.Text(s), nil

	case ir.ScalarInt:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return queryir.TypedValue{}, coercionError(t, v, err)
		}
		return queryir.Int(n), nil

	case ir.ScalarBoolean:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return queryir.TypedValue{}, coercionError(t, v, err)
		}
		return queryir.Boolean(b), nil

	case ir.ScalarNumber:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return queryir.TypedValue{}, coercionError(t, v, err)
		}
		return queryir.Number(f), nil

	case ir.ScalarDate:
		ts, err := cast.ToTimeE(v)
		if err != nil {
			return queryir.TypedValue{}, coercionError(t, v, err)
		}
		return queryir.Date(ts.UTC().Format(time.RFC3339Nano)), nil

	default:
		return queryir.TypedValue{}, ir.NewError(ir.ErrCodeUnknownScalarType, string(t), "unknown scalar type")
	}
}

// textOf renders v as text; values with no natural string form are encoded
// as JSON.
func textOf(v any) (string, error) {
	if s, err := cast.ToStringE(v); err == nil {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func coercionError(t ir.ScalarType, v any, err error) error {
	return &ir.Error{
		Code:      ir.ErrCodeUnsupportedExpression,
		Message:   "value does not fit its declared scalar type",
		Construct: string(t),
		Err:       err,
	}
}
