package handler

import (
	"fmt"
	"time"

	"boardinghouse-service/internal/ledger"
	"boardinghouse-service/internal/occupancy"
	"boardinghouse-service/pkg/config"
	"boardinghouse-service/pkg/database"

	"github.com/go-playground/validator/v10"
)

var (
	occ      *occupancy.Manager
	led      *ledger.Ledger
	validate = validator.New()
)

// Init wires the handlers to the shared database handle and billing policy.
// Must be called after database.InitDB.
func Init(cfg *config.Config) {
	occ = occupancy.NewManager(database.GetDB())
	led = ledger.New(database.GetDB(), &cfg.Billing)
}

const dateLayout = "2006-01-02"

// nowUTC is the read-time "today" used for derived status views
func nowUTC() time.Time {
	return time.Now().UTC()
}

// parseDate parses a request date in YYYY-MM-DD form
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// parseOptionalDate parses a date that may be absent
func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
