package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

var outputCases = []domain.TestCase{
	{ID: 1, Question: "Total revenue in 2025?", Module: "sales", Priority: domain.PriorityP0, IsActive: true},
	{ID: 2, Question: "Headcount by office", Module: "hr"},
}

func TestPrintResult_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := printResult(&buf, formatTable, outputCases, func() *grid { return caseGrid(outputCases) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "Question", "Total revenue in 2025?", "sales", "P0", "yes", "no"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintResult_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := printResult(&buf, "", nil, func() *grid { return caseGrid(nil) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "Nothing to show" {
		t.Errorf("expected empty notice, got %q", got)
	}
}

func TestPrintResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printResult(&buf, "JSON", outputCases, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []domain.TestCase
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if len(got) != 2 || got[1].Module != "hr" {
		t.Errorf("unexpected JSON output: %+v", got)
	}
}

func TestPrintResult_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := printResult(&buf, formatYAML, outputCases[0], nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if got["question"] != "Total revenue in 2025?" || got["is_active"] != true {
		t.Errorf("unexpected YAML output: %v", got)
	}
	if _, ok := got["Status"]; ok {
		t.Error("runtime status must not be serialized")
	}
}

func TestPrintResult_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := printResult(&buf, "xml", outputCases, nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	if err := printMessage(&buf, formatTable, domain.BulkResult{Deleted: 3}, "3 cases deleted"); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "3 cases deleted" {
		t.Errorf("expected message, got %q", got)
	}

	buf.Reset()
	if err := printMessage(&buf, formatJSON, domain.BulkResult{Deleted: 3}, "3 cases deleted"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"deleted": 3`) {
		t.Errorf("expected JSON body, got %s", buf.String())
	}
}
