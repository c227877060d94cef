package partner

import "testing"

func TestValidateCitizenID(t *testing.T) {
	valid := []string{"123456789", "123456789012"}
	for _, id := range valid {
		if err := ValidateCitizenID(id); err != nil {
			t.Fatalf("ValidateCitizenID(%q): %v", id, err)
		}
	}

	invalid := []string{"12345678", "1234567890", "1234567890123", "12345678a", "abc", " 123456789"}
	for _, id := range invalid {
		if err := ValidateCitizenID(id); err == nil {
			t.Fatalf("ValidateCitizenID(%q): expected error", id)
		}
	}

	// 未填写不校验
	if err := ValidateCitizenID(""); err != nil {
		t.Fatalf("empty citizen id should pass: %v", err)
	}
}

func TestDisplayFunds(t *testing.T) {
	p := Partner{CurrentFunds: 25000}
	if got := p.DisplayFunds(); got != "25000 VND" {
		t.Fatalf("DisplayFunds = %q", got)
	}
}
