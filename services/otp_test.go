package services

import "testing"

func TestGenerateOTP(t *testing.T) {
	for _, length := range []int{6, 7, 8} {
		code, err := GenerateOTP(length)
		if err != nil {
			t.Fatalf("GenerateOTP(%d): %v", length, err)
		}
		if len(code) != length {
			t.Errorf("expected %d digits, got %q", length, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Errorf("expected digits only, got %q", code)
			}
		}
	}
}

func TestGenerateOTPRejectsBadLength(t *testing.T) {
	for _, length := range []int{0, 5, 9, -1} {
		if _, err := GenerateOTP(length); err == nil {
			t.Errorf("GenerateOTP(%d): expected error", length)
		}
	}
}

func TestCompareOTP(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		given  string
		want   bool
	}{
		{"match", "123456", "123456", true},
		{"mismatch", "123456", "654321", false},
		{"different length", "123456", "12345", false},
		{"empty given", "123456", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareOTP(tt.stored, tt.given); got != tt.want {
				t.Errorf("CompareOTP(%q, %q) = %v, want %v", tt.stored, tt.given, got, tt.want)
			}
		})
	}
}
