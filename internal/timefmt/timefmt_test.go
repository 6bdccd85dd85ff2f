package timefmt

import (
	"testing"
	"time"
)

func TestShortIn(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"2024-03-01T15:45:00Z", "3:45pm", false},
		{"2024-03-01T09:05:30.123Z", "9:05am", false},
		{"2024-03-01T00:00:00+00:00", "12:00am", false},
		{"2024-03-01 12:30:00", "12:30pm", false},
		{"yesterday-ish", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ShortIn(tt.in, time.UTC)
		if (err != nil) != tt.err {
			t.Errorf("ShortIn(%q) error = %v, want error %v", tt.in, err, tt.err)
		}
		if got != tt.want {
			t.Errorf("ShortIn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortIn_ConvertsZone(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got, err := ShortIn("2024-03-01T15:45:00Z", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "5:45pm" {
		t.Errorf("got %q, want 5:45pm", got)
	}
}

func TestShortIn_LocalWallTime(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-01T15:45:00", "3:45pm"},
		{"2024-03-01 15:45:00", "3:45pm"},
		{"2024-03-01T15:45", "3:45pm"},
		{"2024-03-01", "12:00am"},
		{"2024-03-01T15:45:00+0000", "10:45am"},
		{"2024-03-01T15:45:00Z", "10:45am"},
	}

	for _, tt := range tests {
		got, err := ShortIn(tt.in, loc)
		if err != nil {
			t.Errorf("ShortIn(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ShortIn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShort_FailsClosed(t *testing.T) {
	if got := Short("not a time"); got != "" {
		t.Errorf("Short on malformed input = %q, want empty", got)
	}
}
