package contracts

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a lookup matches nothing
var ErrNotFound = errors.New("not found")

// FetchStore persists fetch records
// ⭐ SSOT: 저장소 인터페이스 정의는 여기서만
//
// Every write is its own unit of work: acquire, insert, commit or rollback, release.
type FetchStore interface {
	InsertFetch(ctx context.Context, rec *FetchRecord) error
	RecentFetches(ctx context.Context, sourceID string, limit int) ([]FetchRecord, error)
	FetchesBetween(ctx context.Context, sourceID string, from, to time.Time) ([]FetchRecord, error)
	LatestPerSource(ctx context.Context) ([]FetchRecord, error)
}

// AlertStore persists alerts
type AlertStore interface {
	InsertAlert(ctx context.Context, alert *Alert) error
	ListAlerts(ctx context.Context, status AlertStatus, limit int) ([]Alert, error)
	ResolveAlert(ctx context.Context, id int64, at time.Time) error
	HasOpenAlert(ctx context.Context, sourceID, alertType string) (bool, error)
}

// HealthStore persists source health snapshots
type HealthStore interface {
	InsertHealth(ctx context.Context, h *SourceHealth) error
	LatestHealth(ctx context.Context, sourceID string) (*SourceHealth, error)
}

// ReconciliationStore persists cross-source reconciliation results
type ReconciliationStore interface {
	InsertReconciliation(ctx context.Context, check *ReconciliationCheck) error
}

// ContractStore mirrors registered contracts into the data_contracts table
type ContractStore interface {
	UpsertContract(ctx context.Context, c DataContract) error
}

// Store is the full durable record store
type Store interface {
	FetchStore
	AlertStore
	HealthStore
	ReconciliationStore
	ContractStore

	Ping(ctx context.Context) error
	Close() error
}
