package config

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/hashicorp/go-multierror"

	"github.com/roach88/weavebridge/internal/ir"
)

const schemaSource = `// Weaviate connection configuration.
#Config: {
	// Connection scheme. Defaults to http.
	scheme: "http" | "https"

	// Host including port, without scheme.
	host: string & !="" & !~"://"

	// Weaviate API key.
	apiKey: string & !=""

	// OpenAI key, forwarded to the store as X-Azure-Api-Key.
	openApiKey: string & !=""

	// Environment name for log output.
	digsEnv?: string
}
`

// Schema returns the CUE schema every Config must satisfy.
func Schema() string {
	return schemaSource
}

// Validate checks c against the CUE schema and reports every violation
// at once as a CONFIGURATION_ERROR.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return ir.WrapError(ir.ErrCodeConfiguration, err, "compile config schema")
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	unified := def.Unify(ctx.Encode(c))
	err := unified.Validate(cue.Concrete(true), cue.All())
	if err == nil {
		return nil
	}

	var result *multierror.Error
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		path := strings.Join(e.Path(), ".")
		if path == "" {
			result = multierror.Append(result, fmt.Errorf(format, args...))
			continue
		}
		result = multierror.Append(result, fmt.Errorf("%s: %s", path, fmt.Sprintf(format, args...)))
	}
	if result == nil {
		return ir.WrapError(ir.ErrCodeConfiguration, err, "invalid configuration")
	}
	result.ErrorFormat = listFormat
	return ir.WrapError(ir.ErrCodeConfiguration, result.ErrorOrNil(), "invalid configuration")
}

// ConfigSchemaResponse is the data-connector config schema document served
// at /config-schema.
func ConfigSchemaResponse() map[string]any {
	str := func(desc string, nullable bool) map[string]any {
		return map[string]any{"description": desc, "type": "string", "nullable": nullable}
	}
	return map[string]any{
		"config_schema": map[string]any{
			"type":     "object",
			"nullable": false,
			"properties": map[string]any{
				"scheme":     str("Weaviate connection scheme, defaults to http", true),
				"host":       str("Weaviate host, including port", false),
				"apiKey":     str("Weaviate api key", false),
				"openApiKey": str("OpenAI api key", false),
				"digsEnv":    str("Environment name", false),
			},
		},
		"other_schemas": map[string]any{},
	}
}

func listFormat(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
