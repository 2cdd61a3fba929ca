package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidatePayload checks payload against the schema in text and returns one
// message per violation. The error is set only when the check could not run.
func ValidatePayload(text string, payload any) ([]string, error) {
	schemaLoader := gojsonschema.NewStringLoader(text)
	dataLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to validate payload: %w", err)
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}

	return violations, nil
}
