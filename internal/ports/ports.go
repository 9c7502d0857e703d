package ports

import (
	"context"
	"time"

	"platewatch/internal/domain"
)

// VehicleResolver turns a plate into a VehicleFact by fetching its detail
// page. The boolean is false when the candidate was rejected (stale date,
// missing VIN, non-200); an error indicates a transport failure, which
// callers treat the same way after logging.
type VehicleResolver interface {
	Resolve(ctx context.Context, plate string, win domain.Window) (domain.VehicleFact, bool, error)
}

// InsuranceResolver looks up the insurer and policy-creation date for a VIN.
// It never fails: every error path yields the Unknown sentinel pair, which
// the date filter downstream rejects naturally.
type InsuranceResolver interface {
	Lookup(ctx context.Context, vin string) domain.InsuranceInfo
}

// RegistrationStore is the dedup authority and the persistence boundary for
// confirmed registrations.
type RegistrationStore interface {
	IsNew(plate string) bool
	RecordSeen(plate string) error
	HasEntry(insurer, plate string) bool
	Insert(insurer string, entry domain.RegistrationEntry)
	NewCount() int
	Persist() error
}

// Archiver records confirmed registrations for audit across runs. Optional;
// insert failures are logged, never fatal.
type Archiver interface {
	Record(ctx context.Context, entry domain.RegistrationEntry, insurer, strategy string) error
	Close() error
}

// Notifier delivers a fire-and-forget local notification. Failures are
// ignored by the pipeline.
type Notifier interface {
	Notify(title, message string, timeout time.Duration) error
}

// Deployer pushes the static site after a run, independent of outcome.
type Deployer interface {
	Deploy(ctx context.Context) error
}
