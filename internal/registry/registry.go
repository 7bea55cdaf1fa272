// Package registry holds the data contract of every known source.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/wonny/evlq/internal/contracts"
)

var (
	// ErrDuplicateContract is returned when a source already has an active contract
	ErrDuplicateContract = errors.New("contract already registered")

	// ErrInvalidContract is returned for contracts that fail structural checks
	ErrInvalidContract = errors.New("invalid contract")
)

// Registry maps source_id to its DataContract
// ⭐ SSOT: 데이터 계약 조회는 이 레지스트리에서만
//
// Reads are concurrent; Register takes the single write lock.
type Registry struct {
	mu        sync.RWMutex
	contracts map[string]contracts.DataContract
}

// New creates an empty registry
func New() *Registry {
	return &Registry{contracts: make(map[string]contracts.DataContract)}
}

// NewDefault creates a registry populated with the built-in contracts
func NewDefault() *Registry {
	r := New()
	for _, c := range Builtin() {
		// built-in table is known to be valid and unique
		r.contracts[c.SourceID] = c
	}
	return r
}

// Get returns the contract for sourceID
func (r *Registry) Get(sourceID string) (contracts.DataContract, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contracts[sourceID]
	return c, ok
}

// All returns a copy of every registered contract keyed by source_id
func (r *Registry) All() map[string]contracts.DataContract {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]contracts.DataContract, len(r.contracts))
	for id, c := range r.contracts {
		out[id] = c
	}
	return out
}

// SourceIDs returns the registered source ids, sorted
func (r *Registry) SourceIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.contracts))
	for id := range r.contracts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Register adds a contract for a previously unknown source
func (r *Registry) Register(c contracts.DataContract) error {
	if err := Check(c); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contracts[c.SourceID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateContract, c.SourceID)
	}
	r.contracts[c.SourceID] = c
	return nil
}

// Check validates the structure of a contract
func Check(c contracts.DataContract) error {
	if c.SourceID == "" {
		return fmt.Errorf("%w: source_id is required", ErrInvalidContract)
	}
	if c.FreshnessSLA.MaxLagHours > 0 && c.FreshnessSLA.MaxLagDays > 0 {
		return fmt.Errorf("%w: %s: max_lag_hours and max_lag_days are mutually exclusive", ErrInvalidContract, c.SourceID)
	}
	if c.FreshnessSLA.MaxLagHours < 0 || c.FreshnessSLA.MaxLagDays < 0 {
		return fmt.Errorf("%w: %s: freshness SLA must not be negative", ErrInvalidContract, c.SourceID)
	}

	specs := append(append([]contracts.FieldSpec{}, c.RequiredFields...), c.OptionalFields...)
	for _, spec := range specs {
		if spec.Name == "" {
			return fmt.Errorf("%w: %s: field name is required", ErrInvalidContract, c.SourceID)
		}
		if !spec.Type.Valid() {
			return fmt.Errorf("%w: %s.%s: unknown type %q", ErrInvalidContract, c.SourceID, spec.Name, spec.Type)
		}
		if spec.Min != nil && spec.Max != nil && *spec.Min > *spec.Max {
			return fmt.Errorf("%w: %s.%s: min above max", ErrInvalidContract, c.SourceID, spec.Name)
		}
	}

	return nil
}
