package weaviate

import (
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cast"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/roach88/weavebridge/internal/queryir"
)

// toModel converts an object for the batch API.
func toModel(o queryir.Object) *models.Object {
	m := &models.Object{
		Class:              o.Class,
		Properties:         o.Properties,
		CreationTimeUnix:   o.CreationTimeUnix,
		LastUpdateTimeUnix: o.LastUpdateTimeUnix,
	}
	if o.ID != "" {
		m.ID = strfmt.UUID(o.ID)
	}
	if len(o.Vector) > 0 {
		m.Vector = models.C11yVector(o.Vector)
	}
	if len(o.Additional) > 0 {
		m.Additional = models.AdditionalProperties(o.Additional)
	}
	return m
}

// fromModel converts an object returned by the object API.
func fromModel(m *models.Object) queryir.Object {
	o := queryir.Object{
		Class:              m.Class,
		ID:                 m.ID.String(),
		CreationTimeUnix:   m.CreationTimeUnix,
		LastUpdateTimeUnix: m.LastUpdateTimeUnix,
		Properties:         cast.ToStringMap(m.Properties),
	}
	if len(m.Vector) > 0 {
		o.Vector = []float32(m.Vector)
	}
	if len(m.Additional) > 0 {
		o.Additional = map[string]any(m.Additional)
	}
	return o
}

// insertResults converts a batch response into one result per object.
// Objects without a reported status are treated as failed.
func insertResults(resp []models.ObjectsGetResponse) []queryir.InsertResult {
	out := make([]queryir.InsertResult, len(resp))
	for i, r := range resp {
		res := queryir.InsertResult{ID: r.ID.String(), Status: queryir.InsertFailed}
		if r.Result != nil {
			if r.Result.Status != nil && *r.Result.Status == string(queryir.InsertSuccess) {
				res.Status = queryir.InsertSuccess
			}
			if r.Result.Errors != nil {
				for _, e := range r.Result.Errors.Error {
					if e != nil {
						res.Errors = append(res.Errors, e.Message)
					}
				}
			}
		}
		if len(res.Errors) > 0 {
			res.Status = queryir.InsertFailed
		}
		out[i] = res
	}
	return out
}

// graphQLError folds the errors of a GraphQL response into one error.
func graphQLError(resp *models.GraphQLResponse) error {
	if resp == nil {
		return nil
	}
	var result *multierror.Error
	for _, e := range resp.Errors {
		if e != nil {
			result = multierror.Append(result, fmt.Errorf("%s", e.Message))
		}
	}
	return result.ErrorOrNil()
}

// rowsOf extracts data.<root>.<class> as a list of rows.
func rowsOf(resp *models.GraphQLResponse, root, class string) ([]map[string]any, error) {
	if resp == nil || resp.Data == nil {
		return nil, fmt.Errorf("empty %s response", root)
	}
	section, ok := resp.Data[root].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s response has no %s section", root, root)
	}
	raw, ok := section[class]
	if !ok || raw == nil {
		return []map[string]any{}, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s.%s is %T, not a list", root, class, raw)
	}

	rows := make([]map[string]any, len(items))
	for i, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s.%s[%d] is %T, not an object", root, class, i, item)
		}
		rows[i] = row
	}
	return rows, nil
}
