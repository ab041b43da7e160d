package errors

import (
	"testing"
)

func TestValidatePostalCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"five digits", "05050", false},
		{"six digits", "110001", false},
		{"surrounding spaces", " 05050 ", false},

		{"empty", "", true},
		{"too short", "0505", true},
		{"letters", "0505A", true},
		{"dash", "05-050", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePostalCode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePostalCode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidatePostalCode(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateProductID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"sku", "LIV-004", false},
		{"minimum length", "ABC", false},

		{"empty", "", true},
		{"too short", "AB", true},
		{"too long", string(make([]byte, 80)), true},
		{"control char", "LIV\x01004", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProductID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProductID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateQuantity(t *testing.T) {
	if err := ValidateQuantity(3); err != nil {
		t.Errorf("ValidateQuantity(3) error = %v", err)
	}
	if err := ValidateQuantity(0); err == nil {
		t.Error("ValidateQuantity(0) should fail")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"http", "http://0.0.0.0:8000", false},
		{"https", "https://fee.example.com", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"bare host", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
