package report

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLookupSeverityUnknownDefaultsToError(t *testing.T) {
	got := LookupSeverity("SCH-999")
	if got != Error {
		t.Errorf("unknown id: got %s, want %s", got, Error)
	}
}

func TestLookupSeverityKnownIDs(t *testing.T) {
	cases := map[string]Severity{
		"PKG-004": Fatal,
		"PKG-010": Warning,
		"PKG-012": Usage,
		"PKG-023": Info,
		"RSC-001": Error,
	}
	for id, want := range cases {
		if got := LookupSeverity(id); got != want {
			t.Errorf("%s: got %s, want %s", id, got, want)
		}
	}
}

func TestFilterDropsUsageAndInfoByDefault(t *testing.T) {
	r := NewReport(0)
	r.Add("RSC-001", "missing resource")
	r.Add("PKG-012", "non-ascii filename")
	r.Add("PKG-023", "encryption.xml present")

	got := r.Filter(false, false)
	want := []Diagnostic{
		{ID: "RSC-001", Severity: Error, Message: "missing resource"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Filter(false, false) mismatch (-want +got):\n%s", diff)
	}

	got = r.Filter(true, true)
	if len(got) != 3 {
		t.Errorf("Filter(true, true): got %d messages, want 3", len(got))
	}
}
