package collector

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema only pins the envelope. Per-record problems are left to
// coercion so one bad row never fails the whole load.
const payloadSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array",
	"items": {"type": "object"}
}`

var compiledPayloadSchema = mustCompileSchema(payloadSchema)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile payload schema: %v", err))
	}
	return schema
}

// validatePayload checks that body is a JSON array of objects.
func validatePayload(body []byte) error {
	result, err := compiledPayloadSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ParseError{Detail: "invalid JSON", Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return &ParseError{Detail: "unexpected payload shape: " + strings.Join(msgs, "; ")}
	}
	return nil
}
