package version

import (
	"math"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1.2.3", "1.23"},
		{"1.2.3beta4", "1.234"},
		{"v10.0.19041", "10.019041"},
		{"", ""},
		{".", "."},
		{"...", "."},
		{"abc", ""},
		{"2024-01-15", "20240115"},
		{"１.２", "."},
		{"ünïcödé 7", "7"},
		{"< 1.0", "1.0"},
	}
	for _, tt := range tests {
		if got := Extract(tt.raw); got != tt.want {
			t.Errorf("Extract(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"1.2.3beta4", 1.234},
		{"128.0", 128},
		{"129.0.1", 129.01},
		{"", 0},
		{".", 0},
		{"latest", 0},
		{"Unknown", 0},
		{".5", 0.5},
		{"7.", 7},
	}
	for _, tt := range tests {
		if got := Parse(tt.raw); got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseOverflowYieldsZero(t *testing.T) {
	huge := ""
	for i := 0; i < 400; i++ {
		huge += "9"
	}
	if got := Parse(huge); got != 0 {
		t.Fatalf("Parse(overflow) = %v, want 0", got)
	}
}

func TestParseSuffixDigits(t *testing.T) {
	if Parse("1.2.3-beta") != Parse("1.2.3") {
		// "1.2.3-beta" and "1.2.3" both extract to "1.23"; the suffix carries no digits.
		t.Fatal("expected suffix without digits to be ignored")
	}
	if Parse("1.2.3beta4") == Parse("1.2.3") {
		t.Fatal("digits inside a suffix must be appended, not ignored")
	}
}

func TestParseIsIdempotent(t *testing.T) {
	inputs := []string{
		"1.2.3beta4", "0.0.1", "10.0.19041.3693", "abc", "", ".", "3.14159265358979323846",
		"00012.000", "99999999999999999999999", "1.2e5", "v2.41.0.windows.1",
	}
	for _, in := range inputs {
		first := Parse(in)
		second := Parse(Format(first))
		if first != second {
			t.Errorf("Parse not idempotent for %q: %v then %v", in, first, second)
		}
		if math.IsInf(first, 0) || math.IsNaN(first) {
			t.Errorf("Parse(%q) returned %v", in, first)
		}
	}
}

func TestCompare(t *testing.T) {
	if Compare("129.0", "128.0") != 1 {
		t.Error("129.0 should compare greater than 128.0")
	}
	if Compare("1.0", "1.0.0") != 0 {
		t.Error("1.0 and 1.0.0 should compare equal")
	}
	if Compare("0.9", "1") != -1 {
		t.Error("0.9 should compare less than 1")
	}
	// Later components are folded into the fraction, so 1.2.10 sorts
	// below 1.2.9.
	if Compare("1.2.10", "1.2.9") != -1 {
		t.Error("expected lossy ordering of 1.2.10 and 1.2.9")
	}
}
