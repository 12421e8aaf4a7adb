package apiutil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/codr1/salonbook/internal/models"
)

func ParseNonNegativeInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0, FieldError{Field: field, Reason: "must be 0 or greater"}
	}
	return value, nil
}

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: field, Reason: "must be greater than 0"}
	}
	return value, nil
}

// ParseIDList parses a comma separated list such as "1,2,3". Empty input
// yields an empty list.
func ParseIDList(raw string, field string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	ids := []int64{}
	if raw == "" {
		return ids, nil
	}
	for _, part := range strings.Split(raw, ",") {
		id, err := ParsePositiveInt64Field(part, field)
		if err != nil {
			return nil, FieldError{Field: field, Reason: "must be a comma separated list of positive integers"}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IDFromPath reads a positive integer path value such as {id}.
func IDFromPath(r *http.Request, name string) (int64, error) {
	return ParsePositiveInt64Field(r.PathValue(name), name)
}

// ParseDayField validates a YYYY-MM-DD value.
func ParseDayField(raw string, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", FieldError{Field: field, Reason: "is required"}
	}
	day, err := models.ParseDay(raw)
	if err != nil {
		return "", FieldError{Field: field, Reason: "must be a date in YYYY-MM-DD format"}
	}
	return models.FormatDay(day), nil
}

// ParseClockField validates an HH:MM value and returns it normalized.
func ParseClockField(raw string, field string) (models.ClockTime, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	clock, err := models.ParseClock(raw)
	if err != nil {
		return 0, FieldError{Field: field, Reason: "must be a time in HH:MM format"}
	}
	return clock, nil
}

// DayRangeFromQuery reads ?from=&to= as an inclusive day range. Both are
// required and from must not be after to.
func DayRangeFromQuery(r *http.Request) (string, string, error) {
	query := r.URL.Query()
	from, err := ParseDayField(query.Get("from"), "from")
	if err != nil {
		return "", "", err
	}
	to, err := ParseDayField(query.Get("to"), "to")
	if err != nil {
		return "", "", err
	}
	if to < from {
		return "", "", FieldError{Field: "to", Reason: "must not be before from"}
	}
	return from, to, nil
}

func FormatPriceCents(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
