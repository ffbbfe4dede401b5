package padsubmit

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrorMode determines how a response not matching
// the expected contract is handled.
type ErrorMode uint8

const (
	// StrictErrorMode treats a non conforming response as a transport failure.
	StrictErrorMode ErrorMode = iota
	// WarnErrorMode logs the violation and goes on.
	WarnErrorMode
	// IgnoreErrorMode skips the validation.
	IgnoreErrorMode
)

// ParseErrorMode accepts "strict", "warn" or "ignore".
func ParseErrorMode(s string) (ErrorMode, error) {
	switch strings.ToLower(s) {
	case "", "strict":
		return StrictErrorMode, nil
	case "warn":
		return WarnErrorMode, nil
	case "ignore":
		return IgnoreErrorMode, nil
	default:
		return 0, fmt.Errorf("unknown schema mode %q", s)
	}
}

const responseSchemaURL = "digitpad://response.schema.json"

// the payload returned by the classification service
const responseSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["success"],
	"properties": {
		"success": {"type": "boolean"},
		"digit": {"type": "integer", "minimum": 0, "maximum": 9},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"probabilities": {
			"type": "array",
			"minItems": 10,
			"maxItems": 10,
			"items": {"type": "number", "minimum": 0, "maximum": 1}
		},
		"error": {"type": "string"}
	},
	"if": {"properties": {"success": {"const": true}}},
	"then": {"required": ["digit", "confidence", "probabilities"]},
	"else": {"required": ["error"]}
}`

var compiledSchema = jsonschema.MustCompileString(responseSchemaURL, responseSchema)

// ValidateResponse checks a decoded JSON payload against
// the response contract.
func ValidateResponse(payload interface{}) error {
	return compiledSchema.Validate(payload)
}

// checkResponse applies `mode` to the validation of `payload`.
func checkResponse(mode ErrorMode, payload interface{}, log *slog.Logger) error {
	if mode == IgnoreErrorMode {
		return nil
	}
	err := ValidateResponse(payload)
	if err == nil {
		return nil
	}
	if mode == WarnErrorMode {
		log.Warn("response does not match the expected contract", "err", err)
		return nil
	}
	return fmt.Errorf("malformed response: %w", err)
}
