package selection_test

import (
	"path/filepath"
	"testing"

	"github.com/temirov/gitree/internal/selection"
	"github.com/temirov/gitree/internal/types"
)

func TestFilterApplierRuleOrder(testingHandle *testing.T) {
	rootDirectory := filepath.Join(string(filepath.Separator), "project")
	includedFile := filepath.Join(rootDirectory, "nested", ".secret")
	excludedDirectory := filepath.Join(rootDirectory, "vendor")

	baseOptions := unlimitedOptions(".")
	baseOptions.Budgets.MaxItems = types.Limit{Value: 2}
	baseOptions.Budgets.MaxEntries = types.Limit{Value: 10}

	fileCandidate := func(name string) selection.Candidate {
		return selection.Candidate{Path: filepath.Join(rootDirectory, name), Name: name}
	}
	testCases := []struct {
		name           string
		configure      func(options *types.SelectionOptions)
		candidate      selection.Candidate
		counters       selection.Counters
		directoryGiven bool
		expected       selection.Verdict
	}{
		{
			name:           "plain file accepted",
			candidate:      fileCandidate("main.go"),
			directoryGiven: true,
			expected:       selection.VerdictAccept,
		},
		{
			name:           "no files rejects before budgets",
			configure:      func(options *types.SelectionOptions) { options.NoFiles = true },
			candidate:      fileCandidate("main.go"),
			counters:       selection.Counters{ItemsInDirectory: 2},
			directoryGiven: true,
			expected:       selection.VerdictReject,
		},
		{
			name:      "file outside given directories rejects before budgets",
			candidate: fileCandidate("main.go"),
			counters:  selection.Counters{ItemsInDirectory: 2},
			expected:  selection.VerdictReject,
		},
		{
			name:           "item budget precedes entry budget",
			candidate:      fileCandidate("main.go"),
			counters:       selection.Counters{ItemsInDirectory: 2, TotalEntries: 10},
			directoryGiven: true,
			expected:       selection.VerdictItemBudget,
		},
		{
			name:           "entry budget",
			candidate:      fileCandidate("main.go"),
			counters:       selection.Counters{ItemsInDirectory: 1, TotalEntries: 10},
			directoryGiven: true,
			expected:       selection.VerdictEntryBudget,
		},
		{
			name:           "budget precedes hidden policy",
			candidate:      fileCandidate(".env"),
			counters:       selection.Counters{ItemsInDirectory: 2},
			directoryGiven: true,
			expected:       selection.VerdictItemBudget,
		},
		{
			name:           "hidden file rejected",
			candidate:      fileCandidate(".env"),
			directoryGiven: true,
			expected:       selection.VerdictReject,
		},
		{
			name:           "hidden include path accepted",
			candidate:      selection.Candidate{Path: includedFile, Name: ".secret", Depth: 1},
			directoryGiven: false,
			expected:       selection.VerdictAccept,
		},
		{
			name:           "directory leading to include path accepted",
			candidate:      selection.Candidate{Path: filepath.Join(rootDirectory, "nested"), Name: "nested", IsDirectory: true},
			directoryGiven: false,
			expected:       selection.VerdictAccept,
		},
		{
			name:           "excluded directory rejected",
			candidate:      selection.Candidate{Path: excludedDirectory, Name: "vendor", IsDirectory: true},
			directoryGiven: true,
			expected:       selection.VerdictReject,
		},
		{
			name:           "excluded directory kept below exclude depth",
			configure:      func(options *types.SelectionOptions) { options.Budgets.ExcludeDepth = types.Limit{Value: 0} },
			candidate:      selection.Candidate{Path: excludedDirectory, Name: "vendor", IsDirectory: true, Depth: 1},
			directoryGiven: true,
			expected:       selection.VerdictAccept,
		},
		{
			name:           "extension mismatch rejected",
			configure:      func(options *types.SelectionOptions) { options.FileExtensions = []string{".md"} },
			candidate:      fileCandidate("main.go"),
			directoryGiven: true,
			expected:       selection.VerdictReject,
		},
		{
			name:           "extension filter keeps directories",
			configure:      func(options *types.SelectionOptions) { options.FileExtensions = []string{"md"} },
			candidate:      selection.Candidate{Path: filepath.Join(rootDirectory, "docs"), Name: "docs", IsDirectory: true},
			directoryGiven: true,
			expected:       selection.VerdictAccept,
		},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			options := baseOptions
			if testCase.configure != nil {
				testCase.configure(&options)
			}
			applier := selection.NewFilterApplier(options, []string{includedFile}, []string{excludedDirectory}, nil)
			if actual := applier.Evaluate(testCase.candidate, testCase.counters, testCase.directoryGiven); actual != testCase.expected {
				testingHandle.Fatalf("Evaluate = %d, expected %d", actual, testCase.expected)
			}
		})
	}
}
