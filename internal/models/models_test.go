package models

import (
	"testing"
)

func TestTest_BeforeSave(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		count    int
		wantCode string
		wantErr  bool
	}{
		{
			name:     "Normalizes code",
			code:     "  ot9-2025 ",
			count:    10,
			wantCode: "OT9-2025",
			wantErr:  false,
		},
		{
			name:    "Empty code",
			code:    "   ",
			count:   10,
			wantErr: true,
		},
		{
			name:    "No questions",
			code:    "MATH",
			count:   0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test := &Test{Code: tt.code, Title: "Math", CorrectKeys: "1-A", QuestionCount: tt.count}

			err := test.BeforeSave(nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BeforeSave() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && test.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", test.Code, tt.wantCode)
			}
		})
	}
}

func TestStudent_BeforeSave(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		wantErr  bool
	}{
		{"Valid name", "Abdullayev Sardor", false},
		{"Minimum length", "Ali", false},
		{"Multibyte minimum", "Äli", false},
		{"Too short", "Al", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Student{TelegramID: 42, FullName: tt.fullName}
			if err := s.BeforeSave(nil); (err != nil) != tt.wantErr {
				t.Errorf("BeforeSave() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
