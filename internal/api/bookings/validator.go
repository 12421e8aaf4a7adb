package bookings

import (
	"net/mail"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/codr1/salonbook/internal/api/apiutil"
	"github.com/codr1/salonbook/internal/models"
)

const (
	DefaultPhoneRegion = "US"
	maxNameLength      = 120
	maxNotesLength     = 1000
)

type createRequest struct {
	ServiceID   int64   `json:"service_id"`
	AddonIDs    []int64 `json:"addon_ids"`
	Day         string  `json:"day"`
	StartTime   string  `json:"start_time"`
	ClientName  string  `json:"client_name"`
	ClientPhone string  `json:"client_phone"`
	ClientEmail string  `json:"client_email"`
	Language    string  `json:"language"`
	Notes       string  `json:"notes"`
}

type patchRequest struct {
	ServiceID   *int64   `json:"service_id"`
	AddonIDs    *[]int64 `json:"addon_ids"`
	Day         *string  `json:"day"`
	StartTime   *string  `json:"start_time"`
	ClientName  *string  `json:"client_name"`
	ClientPhone *string  `json:"client_phone"`
	ClientEmail *string  `json:"client_email"`
	Language    *string  `json:"language"`
	Notes       *string  `json:"notes"`
}

// normalizeCreate checks the shape of a create request and rewrites its
// fields into stored form. Catalog and slot checks happen in the handler.
func normalizeCreate(req *createRequest, region string) error {
	if req.ServiceID <= 0 {
		return apiutil.FieldError{Field: "service_id", Reason: "is required"}
	}
	for _, id := range req.AddonIDs {
		if id <= 0 {
			return apiutil.FieldError{Field: "addon_ids", Reason: "must contain positive integers"}
		}
	}

	day, err := apiutil.ParseDayField(req.Day, "day")
	if err != nil {
		return err
	}
	start, err := apiutil.ParseClockField(req.StartTime, "start_time")
	if err != nil {
		return err
	}
	req.Day = day
	req.StartTime = start.String()

	if req.ClientName, err = normalizeName(req.ClientName); err != nil {
		return err
	}
	if req.ClientEmail, err = normalizeEmail(req.ClientEmail); err != nil {
		return err
	}
	if req.ClientPhone, err = NormalizePhone(req.ClientPhone, region); err != nil {
		return err
	}
	if req.Language, err = normalizeLanguage(req.Language); err != nil {
		return err
	}
	if req.Notes, err = normalizeNotes(req.Notes); err != nil {
		return err
	}
	return nil
}

// normalizePatch validates only the fields present in req.
func normalizePatch(req *patchRequest, region string) error {
	if req.ServiceID != nil && *req.ServiceID <= 0 {
		return apiutil.FieldError{Field: "service_id", Reason: "must be greater than 0"}
	}
	if req.AddonIDs != nil {
		for _, id := range *req.AddonIDs {
			if id <= 0 {
				return apiutil.FieldError{Field: "addon_ids", Reason: "must contain positive integers"}
			}
		}
	}
	if req.Day != nil {
		day, err := apiutil.ParseDayField(*req.Day, "day")
		if err != nil {
			return err
		}
		req.Day = &day
	}
	if req.StartTime != nil {
		start, err := apiutil.ParseClockField(*req.StartTime, "start_time")
		if err != nil {
			return err
		}
		formatted := start.String()
		req.StartTime = &formatted
	}

	normalizers := []struct {
		value *string
		fn    func(string) (string, error)
	}{
		{req.ClientName, normalizeName},
		{req.ClientEmail, normalizeEmail},
		{req.ClientPhone, func(raw string) (string, error) { return NormalizePhone(raw, region) }},
		{req.Language, normalizeLanguage},
		{req.Notes, normalizeNotes},
	}
	for _, n := range normalizers {
		if n.value == nil {
			continue
		}
		normalized, err := n.fn(*n.value)
		if err != nil {
			return err
		}
		*n.value = normalized
	}
	return nil
}

func (req patchRequest) empty() bool {
	return req.ServiceID == nil && req.AddonIDs == nil && req.Day == nil && req.StartTime == nil &&
		req.ClientName == nil && req.ClientPhone == nil && req.ClientEmail == nil &&
		req.Language == nil && req.Notes == nil
}

func normalizeName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", apiutil.FieldError{Field: "client_name", Reason: "is required"}
	}
	if len(name) > maxNameLength {
		return "", apiutil.FieldError{Field: "client_name", Reason: "is too long"}
	}
	return name, nil
}

// normalizeEmail requires a bare address; display names are rejected.
func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apiutil.FieldError{Field: "client_email", Reason: "is required"}
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || addr.Name != "" {
		return "", apiutil.FieldError{Field: "client_email", Reason: "must be a valid email address"}
	}
	return strings.ToLower(addr.Address), nil
}

// NormalizePhone formats raw as E.164. Numbers without a country code are
// read in region. An empty number stays empty.
func NormalizePhone(raw string, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if region == "" {
		region = DefaultPhoneRegion
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", apiutil.FieldError{Field: "client_phone", Reason: "must be a valid phone number"}
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func normalizeLanguage(raw string) (string, error) {
	lang := strings.ToLower(strings.TrimSpace(raw))
	if lang == "" {
		return models.LanguageEnglish, nil
	}
	if !models.IsSupportedLanguage(lang) {
		return "", apiutil.FieldError{Field: "language", Reason: "must be one of en, es"}
	}
	return lang, nil
}

func normalizeNotes(raw string) (string, error) {
	notes := strings.TrimSpace(raw)
	if len(notes) > maxNotesLength {
		return "", apiutil.FieldError{Field: "notes", Reason: "is too long"}
	}
	return notes, nil
}
