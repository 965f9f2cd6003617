// SPDX-License-Identifier: Apache-2.0

package rosetta

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	"cuelang.org/go/encoding/jsonschema"
)

// SchemaConformance reports whether document, a JSON text, satisfies the
// JSON Schema in schema. An error means the check could not be made.
func SchemaConformance(schema map[string]any, document string) (bool, error) {
	ctx := cuecontext.New()

	schemaVal := ctx.Encode(schema)
	if err := schemaVal.Err(); err != nil {
		return false, fmt.Errorf("encode schema: %w", err)
	}
	file, err := jsonschema.Extract(schemaVal, &jsonschema.Config{})
	if err != nil {
		return false, fmt.Errorf("extract schema: %w", err)
	}
	compiled := ctx.BuildFile(file)
	if err := compiled.Err(); err != nil {
		return false, fmt.Errorf("build schema: %w", err)
	}

	expr, err := cuejson.Extract("document", []byte(document))
	if err != nil {
		return false, fmt.Errorf("parse document: %w", err)
	}
	data := ctx.BuildExpr(expr)
	if err := data.Err(); err != nil {
		return false, fmt.Errorf("build document: %w", err)
	}

	return compiled.Unify(data).Validate(cue.Concrete(true)) == nil, nil
}
