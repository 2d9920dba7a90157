package split

import (
	"fmt"
	"strings"
)

// Unit describes one output artifact: a contiguous page range and the
// name its file gets. Start/End are 0-based, End exclusive.
type Unit struct {
	Name  string
	Start int
	End   int
}

// OutputPlan maps every page of a document to exactly one output unit.
type OutputPlan struct {
	TotalPages int
	ChunkSize  int
	Units      []Unit
}

// Plan partitions totalPages into ceil(totalPages/chunkSize) units and
// assigns names to units in input order. It fails before any file is
// written when the name count does not match the unit count.
//
// Duplicate names are allowed; a later unit silently overwrites an
// earlier unit's output file.
func Plan(totalPages, chunkSize int, names []string) (*OutputPlan, error) {
	if totalPages <= 0 {
		return nil, &ValidationError{Message: "document has no pages"}
	}
	if chunkSize <= 0 {
		return nil, &ValidationError{Message: "pages per file must be at least 1"}
	}

	expected := (totalPages + chunkSize - 1) / chunkSize
	if len(names) != expected {
		return nil, &NameCountMismatchError{Expected: expected, Actual: len(names)}
	}
	for i, n := range names {
		if n == "" {
			return nil, &ValidationError{Message: fmt.Sprintf("empty name at position %d", i+1)}
		}
	}

	units := make([]Unit, 0, expected)
	for i := 0; i < expected; i++ {
		end := (i + 1) * chunkSize
		if end > totalPages {
			end = totalPages
		}
		units = append(units, Unit{Name: names[i], Start: i * chunkSize, End: end})
	}
	return &OutputPlan{TotalPages: totalPages, ChunkSize: chunkSize, Units: units}, nil
}

// ParseNames turns free-text collaborator input into an ordered name
// list: one name per line, surrounding whitespace trimmed, blank lines
// discarded.
func ParseNames(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		if n := strings.TrimSpace(line); n != "" {
			names = append(names, n)
		}
	}
	return names
}
