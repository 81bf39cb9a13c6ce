package util

import (
	"testing"
	"unicode"
)

func TestGenerateNumericOTP(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateNumericOTP(6)
		if err != nil {
			t.Fatalf("GenerateNumericOTP returned error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if !unicode.IsDigit(r) {
				t.Fatalf("expected digits only, got %q", code)
			}
		}
	}
}

func TestGenerateTokenAndCompare(t *testing.T) {
	a, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	b, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if len(a) != 43 {
		t.Fatalf("expected 43 url-safe characters, got %d", len(a))
	}
	if a == b {
		t.Fatalf("expected distinct tokens")
	}
	if !TokensEqual(a, a) || TokensEqual(a, b) || TokensEqual("", "") {
		t.Fatalf("unexpected TokensEqual result")
	}
}

func TestGenerateNumericOTPRejectsOutOfRangeLength(t *testing.T) {
	for _, digits := range []int{0, MinOTPDigits - 1, MaxOTPDigits + 1, 18} {
		if _, err := GenerateNumericOTP(digits); err == nil {
			t.Fatalf("expected error for %d digits", digits)
		}
	}
	code, err := GenerateNumericOTP(MaxOTPDigits)
	if err != nil {
		t.Fatalf("GenerateNumericOTP returned error: %v", err)
	}
	if len(code) != MaxOTPDigits {
		t.Fatalf("expected %d digits, got %q", MaxOTPDigits, code)
	}
}
