// Package tokenizer estimates how many model tokens a copy or export payload consumes.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

const (
	// DefaultModel is used when no model is requested.
	DefaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"
)

var errMissingEncoding = errors.New("tokenizer encoding is not initialized")

// encodingCounter counts with a tiktoken byte-pair encoding.
type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter encodingCounter) Name() string {
	return counter.name
}

func (counter encodingCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errMissingEncoding
	}
	return len(counter.encoding.EncodeOrdinary(input)), nil
}

// NewCounter returns a tiktoken Counter for model and the name of the model or encoding actually used.
// Models tiktoken does not know fall back to the cl100k_base encoding.
func NewCounter(model string) (Counter, string, error) {
	normalizedModel := strings.ToLower(strings.TrimSpace(model))
	if normalizedModel == "" {
		normalizedModel = DefaultModel
	}
	if encoding, err := tiktoken.EncodingForModel(normalizedModel); err == nil && encoding != nil {
		return encodingCounter{encoding: encoding, name: normalizedModel}, normalizedModel, nil
	}
	fallback, fallbackErr := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackErr != nil {
		return nil, "", fmt.Errorf("initialize fallback tokenizer: %w", fallbackErr)
	}
	return encodingCounter{encoding: fallback, name: defaultEncodingName}, defaultEncodingName, nil
}
