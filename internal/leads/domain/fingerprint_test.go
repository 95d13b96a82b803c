package domain

import "testing"

func TestFingerprintStability(t *testing.T) {
	a := Fingerprint("Padaria Estrela", "Rua A, 10", "+55 (11) 98765-4321")
	b := Fingerprint("  PADARIA ESTRELA  ", "RUA A, 10  ", "5511987654321")

	if a != b {
		t.Errorf("equivalent inputs produced different fingerprints: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("fingerprint length = %d, want 32 hex chars", len(a))
	}
}

func TestFingerprintDistinguishes(t *testing.T) {
	base := Fingerprint("Padaria Estrela", "Rua A, 10", "11987654321")

	tests := []struct {
		name    string
		other   string
		address string
		phone   string
	}{
		{"different name", "Padaria Lua", "Rua A, 10", "11987654321"},
		{"different address", "Padaria Estrela", "Rua B, 20", "11987654321"},
		{"different phone", "Padaria Estrela", "Rua A, 10", "11987650000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fingerprint(tt.other, tt.address, tt.phone)
			if got == base {
				t.Error("distinct businesses collided on fingerprint")
			}
		})
	}
}

func TestFingerprintEmptyFields(t *testing.T) {
	a := Fingerprint("Padaria", "", "")
	b := Fingerprint("Padaria", "", "")
	if a != b {
		t.Error("fingerprint with empty fields is not deterministic")
	}
}
