package bookings

import (
	"errors"
	"testing"

	"github.com/codr1/salonbook/internal/api/apiutil"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		region   string
		expected string
		valid    bool
	}{
		{"empty stays empty", "", "US", "", true},
		{"national US", "650-253-0000", "US", "+16502530000", true},
		{"national with parens", "(650) 253-0000", "US", "+16502530000", true},
		{"E.164 with spaces", "+1 650 253 0000", "US", "+16502530000", true},
		{"Spanish mobile", "612 34 56 78", "ES", "+34612345678", true},
		{"explicit country overrides region", "+34 612 345 678", "US", "+34612345678", true},
		{"default region", "6502530000", "", "+16502530000", true},

		{"letters", "abcdefghij", "US", "", false},
		{"too short", "555", "US", "", false},
		{"email", "client@example.com", "US", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input, tt.region)
			if tt.valid {
				if err != nil {
					t.Fatalf("NormalizePhone(%q) unexpected error: %v", tt.input, err)
				}
				if got != tt.expected {
					t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.expected)
				}
				return
			}
			var ferr apiutil.FieldError
			if !errors.As(err, &ferr) || ferr.Field != "client_phone" {
				t.Fatalf("NormalizePhone(%q) expected client_phone field error, got %v", tt.input, err)
			}
		})
	}
}

func TestNormalizeCreate(t *testing.T) {
	valid := func() createRequest {
		return createRequest{
			ServiceID:   1,
			Day:         "2030-03-04",
			StartTime:   "9:30",
			ClientName:  "  Ana   María ",
			ClientEmail: "Ana@Example.com",
			ClientPhone: "+1 650 253 0000",
		}
	}

	req := valid()
	if err := normalizeCreate(&req, "US"); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if req.StartTime != "09:30" || req.ClientName != "Ana María" || req.ClientEmail != "ana@example.com" {
		t.Fatalf("unexpected normalization: %+v", req)
	}
	if req.Language != "en" {
		t.Fatalf("expected default language en, got %q", req.Language)
	}

	failures := map[string]struct {
		mutate func(*createRequest)
		field  string
	}{
		"missing service":  {func(r *createRequest) { r.ServiceID = 0 }, "service_id"},
		"bad add-on id":    {func(r *createRequest) { r.AddonIDs = []int64{2, -1} }, "addon_ids"},
		"bad day":          {func(r *createRequest) { r.Day = "2030-02-30" }, "day"},
		"bad time":         {func(r *createRequest) { r.StartTime = "noon" }, "start_time"},
		"missing name":     {func(r *createRequest) { r.ClientName = "   " }, "client_name"},
		"missing email":    {func(r *createRequest) { r.ClientEmail = "" }, "client_email"},
		"bad email":        {func(r *createRequest) { r.ClientEmail = "ana at example" }, "client_email"},
		"display name":     {func(r *createRequest) { r.ClientEmail = "Ana <ana@example.com>" }, "client_email"},
		"bad phone":        {func(r *createRequest) { r.ClientPhone = "12" }, "client_phone"},
		"unknown language": {func(r *createRequest) { r.Language = "fr" }, "language"},
	}
	for name, tc := range failures {
		t.Run(name, func(t *testing.T) {
			req := valid()
			tc.mutate(&req)
			err := normalizeCreate(&req, "US")
			var ferr apiutil.FieldError
			if !errors.As(err, &ferr) || ferr.Field != tc.field {
				t.Fatalf("expected %s field error, got %v", tc.field, err)
			}
		})
	}
}

func TestNormalizePatchOnlyTouchesPresentFields(t *testing.T) {
	lang := "ES"
	empty := []int64{}
	req := patchRequest{Language: &lang, AddonIDs: &empty}
	if err := normalizePatch(&req, "US"); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if *req.Language != "es" {
		t.Fatalf("language: %q", *req.Language)
	}
	if req.ClientName != nil || req.Day != nil {
		t.Fatal("absent fields must stay nil")
	}
	if req.empty() {
		t.Fatal("request with fields reported empty")
	}
	if !(patchRequest{}).empty() {
		t.Fatal("zero request should be empty")
	}

	blank := " "
	if err := normalizePatch(&patchRequest{ClientName: &blank}, "US"); err == nil {
		t.Fatal("expected blank name to fail")
	}
}
