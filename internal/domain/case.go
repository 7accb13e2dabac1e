package domain

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// Priority ranks a test case for triage.
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
)

// CaseStatus is the runtime status of a case inside a run. It is never sent
// to the backend.
type CaseStatus string

const (
	CaseStatusIdle    CaseStatus = "IDLE"
	CaseStatusWaiting CaseStatus = "WAITING"
	CaseStatusRunning CaseStatus = "RUNNING"
	CaseStatusPass    CaseStatus = "PASS"
	CaseStatusFail    CaseStatus = "FAIL"
)

// IsFinished reports whether the case reached a verdict.
func (s CaseStatus) IsFinished() bool {
	return s == CaseStatusPass || s == CaseStatusFail
}

// TestCase is a natural-language question the backend turns into SQL and
// checks against expectations.
type TestCase struct {
	ID                 int        `json:"id" yaml:"id"`
	Question           string     `json:"question" yaml:"question"`
	Module             string     `json:"module,omitempty" yaml:"module,omitempty"`
	Priority           Priority   `json:"priority,omitempty" yaml:"priority,omitempty"`
	ExpectedKeywords   string     `json:"expected_keywords,omitempty" yaml:"expected_keywords,omitempty"`
	ExpectedConditions string     `json:"expected_conditions,omitempty" yaml:"expected_conditions,omitempty"`
	ExpectedSQL        string     `json:"expected_sql,omitempty" yaml:"expected_sql,omitempty"`
	IsActive           bool       `json:"is_active" yaml:"is_active"`
	LastRun            string     `json:"last_run,omitempty" yaml:"last_run,omitempty"`
	CreatedAt          *Timestamp `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt          *Timestamp `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`

	Status CaseStatus `json:"-" yaml:"-"`
}

// CaseInput is the body for creating or replacing a case.
type CaseInput struct {
	Question           string `json:"question" yaml:"question"`
	ExpectedKeywords   string `json:"expected_keywords,omitempty" yaml:"expected_keywords,omitempty"`
	ExpectedConditions string `json:"expected_conditions,omitempty" yaml:"expected_conditions,omitempty"`
	ExpectedSQL        string `json:"expected_sql,omitempty" yaml:"expected_sql,omitempty"`
	IsActive           bool   `json:"is_active" yaml:"is_active"`
}

// Validate checks the required fields of a case form.
func (c CaseInput) Validate() error {
	var v ValidationError
	if strings.TrimSpace(c.Question) == "" {
		v.Add("question", "is required")
	}
	return v.OrNil()
}

// StatusFilter selects cases by their active flag.
type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

// ParseStatusFilter maps free-form input to a StatusFilter, defaulting to all.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive
	case StatusInactive:
		return StatusInactive
	default:
		return StatusAll
	}
}

// CaseFilter mirrors the filter panel of the case table.
type CaseFilter struct {
	Search     string
	Modules    []string
	Priorities []Priority
	Status     StatusFilter
}

// IsZero reports whether the filter lets every case through.
func (f CaseFilter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && len(f.Modules) == 0 &&
		len(f.Priorities) == 0 && (f.Status == "" || f.Status == StatusAll)
}

// Match reports whether a single case passes the filter.
func (f CaseFilter) Match(c TestCase) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strconv.Itoa(c.ID), q) && !strings.Contains(strings.ToLower(c.Question), q) {
			return false
		}
	}
	if len(f.Modules) > 0 {
		if c.Module == "" || !containsString(f.Modules, c.Module) {
			return false
		}
	}
	if len(f.Priorities) > 0 {
		if c.Priority == "" || !containsPriority(f.Priorities, c.Priority) {
			return false
		}
	}
	switch f.Status {
	case StatusActive:
		return c.IsActive
	case StatusInactive:
		return !c.IsActive
	}
	return true
}

// FilterCases returns the cases passing the filter, preserving order.
func FilterCases(cases []TestCase, f CaseFilter) []TestCase {
	if f.IsZero() {
		return cases
	}
	out := make([]TestCase, 0, len(cases))
	for _, c := range cases {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// UniqueModules lists the distinct non-empty modules, sorted.
func UniqueModules(cases []TestCase) []string {
	seen := make(map[string]struct{})
	var modules []string
	for _, c := range cases {
		if c.Module == "" {
			continue
		}
		if _, ok := seen[c.Module]; ok {
			continue
		}
		seen[c.Module] = struct{}{}
		modules = append(modules, c.Module)
	}
	sort.Strings(modules)
	return modules
}

// ErrEmptySelection is returned when a run would contain no cases.
var ErrEmptySelection = errors.New("no cases selected and the current filter matches nothing")

// SelectForRun picks the ids to run: the explicit selection when present,
// otherwise every displayed case.
func SelectForRun(selected []int, displayed []TestCase) ([]int, error) {
	if len(selected) > 0 {
		return selected, nil
	}
	ids := make([]int, 0, len(displayed))
	for _, c := range displayed {
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	return ids, nil
}

// CasesByID keeps the cases whose id is in ids, in the order of cases.
func CasesByID(cases []TestCase, ids []int) []TestCase {
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]TestCase, 0, len(ids))
	for _, c := range cases {
		if _, ok := want[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(list []Priority, p Priority) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}
