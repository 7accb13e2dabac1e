package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/util"
)

// parseIDs reads case ids from arguments; each argument may itself be a
// comma-separated list.
func parseIDs(args []string) ([]int, error) {
	var ids []int
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid case id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseID(arg string) (int, error) {
	ids, err := parseIDs([]string{arg})
	if err != nil {
		return 0, err
	}
	if len(ids) != 1 {
		return 0, fmt.Errorf("expected a single id, got %q", arg)
	}
	return ids[0], nil
}

// parsePairs turns key=value flags into a map.
func parsePairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		out[k] = v
	}
	return out, nil
}

// readYAMLFile decodes a YAML (or JSON) document from path, "-" for stdin.
func readYAMLFile(path string, out any) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func caseFilterFromFlags(search string, modules, priorities []string, status string) domain.CaseFilter {
	f := domain.CaseFilter{
		Search:  search,
		Modules: modules,
		Status:  domain.ParseStatusFilter(status),
	}
	for _, p := range priorities {
		f.Priorities = append(f.Priorities, domain.Priority(strings.ToUpper(strings.TrimSpace(p))))
	}
	return f
}

func formatTS(ts *domain.Timestamp) string {
	if ts == nil {
		return "-"
	}
	return util.FormatDateTime(ts.Time)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to max runes for table cells.
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
