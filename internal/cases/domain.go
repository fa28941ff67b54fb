// Package cases implements the case registry: the representative
// resource guarded by the authorization core.
package cases

import (
	"errors"
	"time"
)

// ErrNotFound indicates the requested case does not exist.
var ErrNotFound = errors.New("cases: not found")

// Case represents a legal matter handled by a law firm.
type Case struct {
	ID          string
	CaseNumber  string
	Title       string
	Description string
	Status      string
	OwnerID     string
	LawFirmID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Statuses a case moves through.
const (
	StatusOpen    = "OPEN"
	StatusPending = "PENDING"
	StatusClosed  = "CLOSED"
)

// ListFilters narrows case listings.
type ListFilters struct {
	LawFirmID string
	Status    string
	Limit     int
	Offset    int
}
