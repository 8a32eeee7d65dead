package ir

// ScalarType is the declared type tag of a literal value.
type ScalarType string

const (
	ScalarText           ScalarType = "text"
	ScalarInt            ScalarType = "int"
	ScalarBoolean        ScalarType = "boolean"
	ScalarNumber         ScalarType = "number"
	ScalarDate           ScalarType = "date"
	ScalarUUID           ScalarType = "uuid"
	ScalarGeoCoordinates ScalarType = "geoCoordinates"
	ScalarPhoneNumber    ScalarType = "phoneNumber"
	ScalarBlob           ScalarType = "blob"
)

// ScalarValue is a literal value tagged with its scalar type, as carried by
// foreach entries.
type ScalarValue struct {
	Value     any        `json:"value"`
	ValueType ScalarType `json:"value_type"`
}
