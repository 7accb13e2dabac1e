package domain

import "strings"

// SystemConfig is the backend-wide execution configuration.
type SystemConfig struct {
	UserToken  string            `json:"user_token" yaml:"user_token"`
	MaxWorkers int               `json:"max_workers" yaml:"max_workers"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// MaskedToken hides all but the last four characters of the user token.
func (c SystemConfig) MaskedToken() string {
	if len(c.UserToken) <= 4 {
		return strings.Repeat("*", len(c.UserToken))
	}
	return strings.Repeat("*", len(c.UserToken)-4) + c.UserToken[len(c.UserToken)-4:]
}

// ConfigUpdate is a partial update; nil fields are left untouched.
type ConfigUpdate struct {
	UserToken  *string           `json:"user_token,omitempty"`
	MaxWorkers *int              `json:"max_workers,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Validate rejects impossible worker counts.
func (u ConfigUpdate) Validate() error {
	var v ValidationError
	if u.MaxWorkers != nil && *u.MaxWorkers < 1 {
		v.Add("max_workers", "must be at least 1")
	}
	return v.OrNil()
}

// IsEmpty reports whether the update would change nothing.
func (u ConfigUpdate) IsEmpty() bool {
	return u.UserToken == nil && u.MaxWorkers == nil && u.Headers == nil
}

// GeneratorMetadata previews the business metadata cases are generated from.
type GeneratorMetadata struct {
	IndicatorCount   int      `json:"indicator_count" yaml:"indicator_count"`
	CompanyCount     int      `json:"company_count" yaml:"company_count"`
	SampleIndicators []string `json:"sample_indicators" yaml:"sample_indicators"`
	SampleCompanies  []string `json:"sample_companies" yaml:"sample_companies"`
}

// GenerateResult reports how many cases the backend created.
type GenerateResult struct {
	Generated int    `json:"generated" yaml:"generated"`
	Message   string `json:"message" yaml:"message"`
}

// Generator bounds accepted by the backend.
const (
	MinGenerateCount     = 1
	MaxGenerateCount     = 10
	DefaultGenerateCount = 3
)

// ClampGenerateCount keeps count inside the backend's accepted range.
func ClampGenerateCount(count int) int {
	switch {
	case count < MinGenerateCount:
		return MinGenerateCount
	case count > MaxGenerateCount:
		return MaxGenerateCount
	default:
		return count
	}
}

// ImportResult reports how many cases an upload created.
type ImportResult struct {
	Imported int `json:"imported" yaml:"imported"`
}

// BulkResult reports rows touched by a bulk operation.
type BulkResult struct {
	Updated  int  `json:"updated,omitempty" yaml:"updated,omitempty"`
	Deleted  int  `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	IsActive bool `json:"is_active,omitempty" yaml:"is_active,omitempty"`
}
