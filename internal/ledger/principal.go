package ledger

import "asset-ledger-api/internal/models"

// Principal is the authenticated caller handed to every operation.
type Principal struct {
	UserID     int64
	Role       string
	LocationID *int64
}

// Elevated reports whether the caller may act across all locations.
func (p Principal) Elevated() bool {
	return p.Role == models.RoleAdmin
}

// CanActOn is the Authorization Guard's permit/deny decision for a location.
func (p Principal) CanActOn(locationID int64) bool {
	if p.Elevated() {
		return true
	}
	return p.LocationID != nil && *p.LocationID == locationID
}

// homeScope returns the location a non-elevated caller is restricted to, or
// nil for elevated callers. A non-elevated caller without a home location
// gets an error.
func (p Principal) homeScope() (*int64, error) {
	if p.Elevated() {
		return nil, nil
	}
	if p.LocationID == nil {
		return nil, forbidden("User has no base assigned. Cannot perform this operation.")
	}
	id := *p.LocationID
	return &id, nil
}
