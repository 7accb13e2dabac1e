package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestamp_UnmarshalBackendLayouts(t *testing.T) {
	want := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	tests := []string{
		`"2026-03-01T10:30:00Z"`,
		`"2026-03-01T10:30:00"`,
		`"2026-03-01T10:30:00.000000"`,
		`"2026-03-01 10:30:00"`,
	}
	for _, in := range tests {
		var ts Timestamp
		if err := json.Unmarshal([]byte(in), &ts); err != nil {
			t.Errorf("%s: unexpected error: %v", in, err)
			continue
		}
		if !ts.Equal(want) {
			t.Errorf("%s: expected %s, got %s", in, want, ts.Time)
		}
	}
}

func TestTimestamp_NullAndInvalid(t *testing.T) {
	var b Batch
	if err := json.Unmarshal([]byte(`{"id":"b","start_time":null}`), &b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.StartTime != nil {
		t.Errorf("expected nil start time, got %v", b.StartTime)
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

func TestTimestamp_MarshalRoundTrip(t *testing.T) {
	in := Timestamp{Time: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(t, "json", `"2026-03-01T10:30:00Z"`, string(data))
}
