package utils_test

import (
	"testing"

	"github.com/temirov/gitree/internal/utils"
)

func TestFormatFileSize(t *testing.T) {
	testCases := []struct {
		name     string
		bytes    int64
		expected string
	}{
		{name: "negative", bytes: -1, expected: "0b"},
		{name: "zero", bytes: 0, expected: "0b"},
		{name: "bytes", bytes: 512, expected: "512b"},
		{name: "one kilobyte", bytes: 1024, expected: "1kb"},
		{name: "fractional kilobyte", bytes: 1536, expected: "1.5kb"},
		{name: "ten megabytes", bytes: 10 * 1024 * 1024, expected: "10mb"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result := utils.FormatFileSize(testCase.bytes)
			if result != testCase.expected {
				t.Fatalf("expected %s, got %s", testCase.expected, result)
			}
		})
	}
}

func TestMegabytesToBytes(t *testing.T) {
	testCases := []struct {
		name      string
		megabytes float64
		expected  int64
	}{
		{name: "disabled", megabytes: 0, expected: 0},
		{name: "negative", megabytes: -2, expected: 0},
		{name: "one megabyte", megabytes: 1, expected: 1048576},
		{name: "half megabyte", megabytes: 0.5, expected: 524288},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if result := utils.MegabytesToBytes(testCase.megabytes); result != testCase.expected {
				t.Fatalf("expected %d, got %d", testCase.expected, result)
			}
		})
	}
}
