package errors

import (
	"strings"
	"testing"
)

func TestValidateQueryText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"select", "SELECT * WHERE { ?a ?b ?c }", false},
		{"update", "INSERT DATA { <a> <b> <c> }", false},

		{"empty", "", true},
		{"whitespace", " \n\t ", true},
		{"nul byte", "SELECT\x00", true},
		{"invalid utf8", "SELECT \xff", true},
		{"too long", "#" + strings.Repeat("x", MaxQueryLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQueryText(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateQueryText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidQuery) {
				t.Errorf("code = %v, want INVALID_QUERY", GetCode(err))
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	supported := []string{"svg", "dot", "json"}
	if err := ValidateFormat("SVG", supported); err != nil {
		t.Errorf("ValidateFormat(SVG) = %v", err)
	}
	err := ValidateFormat("gif", supported)
	if !Is(err, ErrCodeInvalidFormat) {
		t.Fatalf("ValidateFormat(gif) = %v, want INVALID_FORMAT", err)
	}
	if !strings.Contains(err.Error(), "svg, dot, json") {
		t.Errorf("message should list supported formats: %v", err)
	}
}

func TestValidatePrefixName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"rdf", false},
		{"foaf-2", false},
		{"ex.org", false},
		{"", true},
		{"1ex", true},
		{"ex.", true},
		{"e x", true},
		{"ex:", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidatePrefixName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePrefixName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNamespace(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"http://www.w3.org/2002/07/owl#", false},
		{"urn:x-local:", false},
		{"", true},
		{"relative/path", true},
		{"http://x/<y>", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateNamespace(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNamespace(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
