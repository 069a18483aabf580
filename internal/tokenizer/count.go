package tokenizer

import (
	"errors"
	"strings"
)

var errNilCounter = errors.New("nil tokenizer counter")

// Count estimates the tokens of an assembled payload. Line endings are normalized first so the estimate
// does not depend on the platform that produced the files.
func Count(counter Counter, payload string) (int, error) {
	if counter == nil {
		return 0, errNilCounter
	}
	if payload == "" {
		return 0, nil
	}
	return counter.CountString(strings.ReplaceAll(payload, "\r\n", "\n"))
}
