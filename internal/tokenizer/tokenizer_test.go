package tokenizer

import "testing"

type runeCounter struct{}

func (runeCounter) Name() string { return "runes" }

func (runeCounter) CountString(input string) (int, error) { return len([]rune(input)), nil }

func TestCount(testingInstance *testing.T) {
	testCases := []struct {
		name     string
		payload  string
		expected int
	}{
		{name: "empty payload", payload: "", expected: 0},
		{name: "plain text", payload: "hello", expected: 5},
		{name: "crlf normalized", payload: "a\r\nb", expected: 3},
		{name: "multibyte runes", payload: "├── a", expected: 5},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.name, func(testingInstance *testing.T) {
			actual, err := Count(runeCounter{}, testCase.payload)
			if err != nil {
				testingInstance.Fatalf("Count error: %v", err)
			}
			if actual != testCase.expected {
				testingInstance.Fatalf("Count(%q) = %d, expected %d", testCase.payload, actual, testCase.expected)
			}
		})
	}
}

func TestCountRequiresCounter(testingInstance *testing.T) {
	if _, err := Count(nil, "text"); err == nil {
		testingInstance.Fatalf("expected error for nil counter")
	}
}

func TestEncodingCounterRequiresEncoding(testingInstance *testing.T) {
	if _, err := (encodingCounter{name: "empty"}).CountString("text"); err == nil {
		testingInstance.Fatalf("expected error for missing encoding")
	}
}
