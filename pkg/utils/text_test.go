package utils

import (
	"strings"
	"testing"
)

func TestNormalizeDigits(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ASCII untouched", "1-A 2-B", "1-A 2-B"},
		{"Persian digits", "۱-A ۲۳-B", "1-A 23-B"},
		{"Arabic-Indic digits", "٤.C", "4.C"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDigits(tt.input); got != tt.want {
				t.Errorf("NormalizeDigits(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("  ot9-2025 "); got != "OT9-2025" {
		t.Errorf("NormalizeCode() = %q, want %q", got, "OT9-2025")
	}
}

func TestGenerateTestCode(t *testing.T) {
	code := GenerateTestCode(6)
	if len(code) != 6 {
		t.Fatalf("len = %d, want 6", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(codeCharset, r) {
			t.Errorf("unexpected character %q in %q", r, code)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	if got := SplitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("SplitMessage(short) = %q", got)
	}

	text := strings.Repeat("line ۱۲۳\n", 10)
	chunks := SplitMessage(text, 25)
	if strings.Join(chunks, "") != text {
		t.Fatal("chunks do not add up to the input")
	}
	for _, c := range chunks {
		if n := len([]rune(c)); n > 25 {
			t.Errorf("chunk has %d runes, want <= 25", n)
		}
		if !strings.HasSuffix(c, "\n") {
			t.Errorf("chunk %q should end on a line break", c)
		}
	}

	long := strings.Repeat("x", 30)
	chunks = SplitMessage(long, 25)
	if len(chunks) != 2 || len(chunks[0]) != 25 || len(chunks[1]) != 5 {
		t.Errorf("SplitMessage(no newline) = %q", chunks)
	}
}
