package quiz

import (
	"reflect"
	"testing"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  AnswerKey
	}{
		{
			name:  "Dash separated",
			input: "1-A 2-B 3-C",
			want:  AnswerKey{1: "A", 2: "B", 3: "C"},
		},
		{
			name:  "Last occurrence wins",
			input: "1-A 2-B 1-C",
			want:  AnswerKey{1: "C", 2: "B"},
		},
		{
			name:  "Mixed separators and case",
			input: "1.a 2 b 3-c 4d",
			want:  AnswerKey{1: "A", 2: "B", 3: "C", 4: "D"},
		},
		{
			name:  "Repeated separators",
			input: "10 - - b\n11..C",
			want:  AnswerKey{10: "B", 11: "C"},
		},
		{
			name:  "Noise ignored",
			input: "answers: 1-A, 2-E, 3-B!",
			want:  AnswerKey{1: "A", 3: "B"},
		},
		{
			name:  "Numbers need not be contiguous",
			input: "5-D 12-A",
			want:  AnswerKey{5: "D", 12: "A"},
		},
		{
			name:  "Persian digits",
			input: "۱-A ۲-B",
			want:  AnswerKey{1: "A", 2: "B"},
		},
		{
			name:  "Unicode spaces",
			input: "1\u00a0A 2\u3000b 3\u2009-\u00a0C",
			want:  AnswerKey{1: "A", 2: "B", 3: "C"},
		},
		{
			name:  "No matches",
			input: "hello world",
			want:  AnswerKey{},
		},
		{
			name:  "Empty",
			input: "",
			want:  AnswerKey{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseKey(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseKey(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestKeyFromRows_MatchesText(t *testing.T) {
	rows := []KeyRow{
		{Number: 1, Value: "a"},
		{Number: 2, Value: " B "},
		{Number: 3, Value: "x"},
		{Number: 1, Value: "d"},
	}

	fromRows := KeyFromRows(rows)
	fromText := ParseKey("1-a 2-B 3-x 1-d")

	if !reflect.DeepEqual(fromRows, fromText) {
		t.Errorf("KeyFromRows() = %v, ParseKey() = %v", fromRows, fromText)
	}
	want := AnswerKey{1: "D", 2: "B"}
	if !reflect.DeepEqual(fromRows, want) {
		t.Errorf("KeyFromRows() = %v, want %v", fromRows, want)
	}
}

func TestAnswerKey_String(t *testing.T) {
	key := AnswerKey{10: "B", 2: "C", 1: "A"}

	if got := key.String(); got != "1-A 2-C 10-B" {
		t.Errorf("String() = %q", got)
	}
	if got := ParseKey(key.String()); !reflect.DeepEqual(got, key) {
		t.Errorf("ParseKey(String()) = %v, want %v", got, key)
	}
}

func TestNormalizeLetter(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"a", "A", true},
		{" D ", "D", true},
		{"E", "", false},
		{"AB", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeLetter(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NormalizeLetter(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}
