package apiutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dbq "github.com/codr1/salonbook/internal/db/queries"
)

// Selection is a primary service plus the add-ons requested with it.
type Selection struct {
	Service dbq.Service
	Addons  []dbq.Service
}

// TotalMinutes is the time the selection occupies in the chair.
func (s Selection) TotalMinutes() int {
	total := s.Service.DurationMinutes
	for _, addon := range s.Addons {
		total += addon.DurationMinutes
	}
	return int(total)
}

func (s Selection) AddonIDs() []int64 {
	ids := make([]int64, 0, len(s.Addons))
	for _, addon := range s.Addons {
		ids = append(ids, addon.ID)
	}
	return ids
}

// ResolveSelection loads serviceID and addonIDs and checks that the service
// is an active primary service and every add-on is an active add-on.
// Duplicate add-on ids collapse to one.
func ResolveSelection(ctx context.Context, q *dbq.Queries, serviceID int64, addonIDs []int64) (Selection, error) {
	service, err := q.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Selection{}, FieldError{Field: "service_id", Reason: "does not exist"}
		}
		return Selection{}, fmt.Errorf("get service %d: %w", serviceID, err)
	}
	if service.IsAddon {
		return Selection{}, FieldError{Field: "service_id", Reason: "must be a primary service, not an add-on"}
	}
	if !service.IsActive {
		return Selection{}, FieldError{Field: "service_id", Reason: "is not currently offered"}
	}

	selection := Selection{Service: service, Addons: []dbq.Service{}}
	seen := make(map[int64]struct{}, len(addonIDs))
	for _, addonID := range addonIDs {
		if _, dup := seen[addonID]; dup {
			continue
		}
		seen[addonID] = struct{}{}

		addon, err := q.GetService(ctx, addonID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return Selection{}, FieldError{Field: "addon_ids", Reason: fmt.Sprintf("contains unknown service %d", addonID)}
			}
			return Selection{}, fmt.Errorf("get add-on %d: %w", addonID, err)
		}
		if !addon.IsAddon {
			return Selection{}, FieldError{Field: "addon_ids", Reason: fmt.Sprintf("service %d is not an add-on", addonID)}
		}
		if !addon.IsActive {
			return Selection{}, FieldError{Field: "addon_ids", Reason: fmt.Sprintf("add-on %d is not currently offered", addonID)}
		}
		selection.Addons = append(selection.Addons, addon)
	}
	return selection, nil
}
