package split

import (
	"errors"
	"testing"
)

func TestPlanUnitCount(t *testing.T) {
	cases := []struct {
		totalPages int
		chunkSize  int
		want       int
	}{
		{1, 1, 1},
		{5, 1, 5},
		{5, 2, 3},
		{6, 2, 3},
		{6, 3, 2},
		{7, 3, 3},
		{10, 100, 1},
	}
	for _, c := range cases {
		names := make([]string, c.want)
		for i := range names {
			names[i] = "n"
		}
		p, err := Plan(c.totalPages, c.chunkSize, names)
		if err != nil {
			t.Fatalf("Plan(%d, %d): %v", c.totalPages, c.chunkSize, err)
		}
		if len(p.Units) != c.want {
			t.Errorf("Plan(%d, %d): got %d units, want %d", c.totalPages, c.chunkSize, len(p.Units), c.want)
		}
	}
}

func TestPlanRanges(t *testing.T) {
	p, err := Plan(5, 2, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	want := []Unit{
		{Name: "a", Start: 0, End: 2},
		{Name: "b", Start: 2, End: 4},
		{Name: "c", Start: 4, End: 5},
	}
	for i, u := range p.Units {
		if u != want[i] {
			t.Errorf("unit %d = %+v, want %+v", i, u, want[i])
		}
	}
}

func TestPlanNameCountMismatch(t *testing.T) {
	_, err := Plan(5, 2, []string{"a", "b"})
	var mismatch *NameCountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected NameCountMismatchError, got %v", err)
	}
	if mismatch.Expected != 3 || mismatch.Actual != 2 {
		t.Errorf("got expected=%d actual=%d, want 3/2", mismatch.Expected, mismatch.Actual)
	}
}

func TestPlanRejectsBadInput(t *testing.T) {
	var verr *ValidationError
	if _, err := Plan(0, 1, nil); !errors.As(err, &verr) {
		t.Errorf("zero pages: got %v", err)
	}
	if _, err := Plan(3, 0, nil); !errors.As(err, &verr) {
		t.Errorf("zero chunk size: got %v", err)
	}
	if _, err := Plan(2, 1, []string{"a", ""}); !errors.As(err, &verr) {
		t.Errorf("empty name: got %v", err)
	}
}

func TestPlanAllowsDuplicateNames(t *testing.T) {
	p, err := Plan(4, 2, []string{"same", "same"})
	if err != nil {
		t.Fatalf("duplicate names should be accepted: %v", err)
	}
	if p.Units[0].Name != "same" || p.Units[1].Name != "same" {
		t.Errorf("names not assigned in order: %+v", p.Units)
	}
}

func TestParseNames(t *testing.T) {
	got := ParseNames("0047-one\n\n  0058-two  \r\n0068-three\n   \n")
	want := []string{"0047-one", "0058-two", "0068-three"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("name %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseNamesEmpty(t *testing.T) {
	if got := ParseNames("\n  \n\t\n"); got != nil {
		t.Errorf("expected nil for blank input, got %v", got)
	}
}
