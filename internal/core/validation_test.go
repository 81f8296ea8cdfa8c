package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateHeaders(t *testing.T) {
	specs := []FieldSpec{
		{Name: "Mineral Name", Required: true},
		{Name: "RRUFF IDs", Required: true},
		{Name: "IMA Status"},
	}

	idx, err := ValidateHeaders([]string{"rruff ids", "Mineral Name"}, specs)
	if err != nil {
		t.Fatalf("ValidateHeaders() error = %v", err)
	}
	if idx["mineral name"] != 1 {
		t.Errorf("idx[mineral name] = %d, want 1", idx["mineral name"])
	}

	_, err = ValidateHeaders([]string{"IMA Status"}, specs)
	if err == nil {
		t.Fatal("ValidateHeaders() expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "Mineral Name, RRUFF IDs") {
		t.Errorf("error should list missing columns: %v", err)
	}
}

func TestRowValidator_ValidateRow(t *testing.T) {
	specs := []FieldSpec{
		{Name: "Mineral Name", Type: FieldText, Required: true},
		{Name: "Year", Type: FieldInteger},
		{Name: "Wavelength", Type: FieldNumeric},
		{Name: "Status", Type: FieldEnum, EnumValues: []string{"Approved", "Grandfathered"}},
		{Name: "Notes", Type: FieldText, Required: true, AllowEmpty: true},
	}
	idx := MakeHeaderIndex([]string{"Mineral Name", "Year", "Wavelength", "Status", "Notes"})
	v := NewRowValidator(specs, idx)

	tests := []struct {
		name      string
		row       []string
		wantField string
	}{
		{"valid row", []string{"Quartz", "1800", "532.0", "approved", ""}, ""},
		{"optional cells empty", []string{"Quartz", "", "", "", ""}, ""},
		{"required empty", []string{"  ", "1800", "", "", ""}, "Mineral Name"},
		{"bad integer", []string{"Quartz", "18th c.", "", "", ""}, "Year"},
		{"bad number", []string{"Quartz", "", "green", "", ""}, "Wavelength"},
		{"bad enum", []string{"Quartz", "", "", "Discredited", ""}, "Status"},
		{"short row", []string{"Quartz", "1800", "532", "Approved"}, "Notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRow(tt.row)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateRow() unexpected error: %v", err)
				}
				return
			}
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("ValidateRow() error = %v, want ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestRowValidator_Normalizer(t *testing.T) {
	specs := []FieldSpec{
		{Name: "Status", Type: FieldEnum, EnumValues: []string{"Approved"}, Normalizer: func(s string) string {
			return strings.TrimSuffix(s, " (IMA)")
		}},
	}
	v := NewRowValidator(specs, MakeHeaderIndex([]string{"Status"}))

	if err := v.ValidateRow([]string{"Approved (IMA)"}); err != nil {
		t.Errorf("ValidateRow() with normalizer error = %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{Field: "Year", Value: "abc", Message: "invalid integer format"}, `Year: invalid integer format (got "abc")`},
		{ValidationError{Field: "name", Message: "required field is empty"}, "name: required field is empty"},
		{ValidationError{Message: "bad row"}, "bad row"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestRecordValidate(t *testing.T) {
	year := 0
	if err := (MineralRecord{}).Validate(); err == nil {
		t.Error("MineralRecord without name should fail")
	}
	if err := (MineralRecord{Name: "Quartz", YearFirstPublished: &year}).Validate(); err == nil {
		t.Error("MineralRecord with year 0 should fail")
	}
	if err := (MineralRecord{Name: "Quartz"}).Validate(); err != nil {
		t.Errorf("MineralRecord valid: %v", err)
	}

	ok := SpectrumRecord{Key: "k", RRUFFID: "R1", MineralName: "Quartz", X: []float64{1, 2}, Y: []float64{3, 4}}
	if err := ok.Validate(); err != nil {
		t.Errorf("SpectrumRecord valid: %v", err)
	}

	mismatch := ok
	mismatch.Y = []float64{3}
	if err := mismatch.Validate(); err == nil {
		t.Error("SpectrumRecord with x/y mismatch should fail")
	}

	empty := ok
	empty.X, empty.Y = nil, nil
	if err := empty.Validate(); err == nil {
		t.Error("SpectrumRecord without data should fail")
	}

	noID := ok
	noID.RRUFFID = ""
	if err := noID.Validate(); err == nil {
		t.Error("SpectrumRecord without RRUFF id should fail")
	}
}
