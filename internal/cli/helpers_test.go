package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []int
		wantErr bool
	}{
		{"separate args", []string{"1", "2"}, []int{1, 2}, false},
		{"comma list", []string{"3,4, 5"}, []int{3, 4, 5}, false},
		{"trailing comma", []string{"6,"}, []int{6}, false},
		{"none", nil, nil, false},
		{"not a number", []string{"x"}, nil, true},
		{"zero", []string{"0"}, nil, true},
		{"negative", []string{"-2"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseIDs(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseIDs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseID_RejectsLists(t *testing.T) {
	if _, err := parseID("1,2"); err == nil {
		t.Error("expected error for a list where one id is expected")
	}
	id, err := parseID("42")
	if err != nil || id != 42 {
		t.Errorf("parseID(42) = %d, %v", id, err)
	}
}

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"X-Tenant=acme", "empty=", "q=a=b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"X-Tenant": "acme", "empty": "", "q": "a=b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parsePairs mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parsePairs([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestParseVariables_KeepsJSONTypes(t *testing.T) {
	got, err := parseVariables([]string{"limit=10", "flag=true", "name=ACME", `filter={"a":1}`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{
		"limit":  float64(10),
		"flag":   true,
		"name":   "ACME",
		"filter": map[string]any{"a": float64(1)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseVariables mismatch (-want +got):\n%s", diff)
	}
}

func TestReadYAMLFile_Case(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.yaml")
	content := "question: Total revenue in 2025?\nexpected_keywords: revenue\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	in := domain.CaseInput{IsActive: true}
	if err := readYAMLFile(path, &in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.CaseInput{Question: "Total revenue in 2025?", ExpectedKeywords: "revenue", IsActive: true}
	if diff := cmp.Diff(want, in); diff != "" {
		t.Errorf("case mismatch (-want +got):\n%s", diff)
	}
}

func TestReadYAMLFile_TemplateWithTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tpl.json")
	content := `{"code":"search","name":"Search","base_url":"https://api.example.com","method":"post","endpoint":"/v1/search","updated_at":"2026-03-01T10:30:00"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tpl, err := loadTemplateFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Method != "POST" {
		t.Errorf("expected normalized method POST, got %q", tpl.Method)
	}
	if tpl.UpdatedAt == nil || tpl.UpdatedAt.Hour() != 10 {
		t.Errorf("expected updated_at to be parsed, got %v", tpl.UpdatedAt)
	}
}

func TestReadYAMLFile_Missing(t *testing.T) {
	var in domain.CaseInput
	if err := readYAMLFile(filepath.Join(t.TempDir(), "nope.yaml"), &in); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestCaseFilterFromFlags(t *testing.T) {
	got := caseFilterFromFlags("rev", []string{"sales"}, []string{" p0", "P1"}, "Active")
	want := domain.CaseFilter{
		Search:     "rev",
		Modules:    []string{"sales"},
		Priorities: []domain.Priority{domain.PriorityP0, domain.PriorityP1},
		Status:     domain.StatusActive,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate kept = %q", got)
	}
	if got := truncate("a  b\nc", 10); got != "a b c" {
		t.Errorf("expected whitespace collapsed, got %q", got)
	}
	if got := truncate("àèìòùàèìòù", 5); got != "àèìò…" {
		t.Errorf("expected rune-safe cut, got %q", got)
	}
}
