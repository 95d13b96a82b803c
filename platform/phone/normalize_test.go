package phone

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already prefixed", "5511987654321", "5511987654321"},
		{"formatted with prefix", "+55 (11) 98765-4321", "5511987654321"},
		{"trunk zero", "011987654321", "5511987654321"},
		{"bare local number", "11987654321", "5511987654321"},
		{"landline", "(11) 3456-7890", "551134567890"},
		{"letters and symbols", "tel: 11 98765-4321", "5511987654321"},
		{"empty", "", "55"},
		{"only punctuation", "()- ", "55"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonical(tt.input)
			if got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalIdempotent(t *testing.T) {
	inputs := []string{
		"+55 (11) 98765-4321",
		"011987654321",
		"11987654321",
		"",
		"5511987654321",
	}

	for _, input := range inputs {
		once := Canonical(input)
		twice := Canonical(once)
		if once != twice {
			t.Errorf("Canonical not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestDigits(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+55 (11) 98765-4321", "5511987654321"},
		{"abc", ""},
		{"", ""},
		{"12 34", "1234"},
	}

	for _, tt := range tests {
		if got := Digits(tt.input); got != tt.want {
			t.Errorf("Digits(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"national mobile", "11 98765-4321", "+5511987654321"},
		{"already e164", "+5511987654321", "+5511987654321"},
		{"empty", "", ""},
		{"garbage returns trimmed input", " not-a-number ", "not-a-number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeE164(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeE164(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
