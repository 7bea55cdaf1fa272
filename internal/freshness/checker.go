// Package freshness decides whether fetched data is within its source SLA.
package freshness

import (
	"fmt"
	"strconv"
	"time"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/registry"
)

// Verdict is the detailed result of a freshness check
type Verdict struct {
	Fresh   bool          `json:"is_fresh"`
	HasSLA  bool          `json:"has_sla"`
	Age     time.Duration `json:"age"`
	MaxLag  time.Duration `json:"max_lag"`
	Message string        `json:"message"`
}

// Checker evaluates freshness SLAs from the contract registry
type Checker struct {
	registry *registry.Registry
	now      func() time.Time
}

// NewChecker creates a Checker using the wall clock
func NewChecker(reg *registry.Registry) *Checker {
	return &Checker{registry: reg, now: time.Now}
}

// WithClock returns a copy of the checker reading time from now
func (c *Checker) WithClock(now func() time.Time) *Checker {
	return &Checker{registry: c.registry, now: now}
}

// ValidateFreshness reports whether data fetched at fetchedAt is still fresh
func (c *Checker) ValidateFreshness(sourceID string, fetchedAt time.Time) (bool, string) {
	v := c.Check(sourceID, fetchedAt)
	return v.Fresh, v.Message
}

// Check is ValidateFreshness with age and bound attached.
// Sources without a contract or without an SLA are always fresh.
// Age equal to the bound is still fresh.
func (c *Checker) Check(sourceID string, fetchedAt time.Time) Verdict {
	contract, ok := c.registry.Get(sourceID)
	if !ok || contract.FreshnessSLA.IsZero() {
		return Verdict{Fresh: true, Message: "No freshness SLA defined"}
	}

	return Evaluate(contract.FreshnessSLA, c.now().Sub(fetchedAt))
}

// Evaluate judges an age against sla without consulting a registry.
// A zero SLA is always fresh.
func Evaluate(sla contracts.FreshnessSLA, age time.Duration) Verdict {
	if sla.IsZero() {
		return Verdict{Fresh: true, Age: age, Message: "No freshness SLA defined"}
	}

	// hours take precedence when both are set
	if sla.MaxLagHours > 0 {
		maxLag := time.Duration(sla.MaxLagHours * float64(time.Hour))
		v := Verdict{Fresh: age <= maxLag, HasSLA: true, Age: age, MaxLag: maxLag}
		if v.Fresh {
			v.Message = "Data is fresh"
		} else {
			v.Message = fmt.Sprintf("Data stale: %.1fh > %sh SLA", age.Hours(), formatBound(sla.MaxLagHours))
		}
		return v
	}

	maxLag := time.Duration(sla.MaxLagDays * 24 * float64(time.Hour))
	v := Verdict{Fresh: age <= maxLag, HasSLA: true, Age: age, MaxLag: maxLag}
	if v.Fresh {
		v.Message = "Data is fresh"
	} else {
		v.Message = fmt.Sprintf("Data stale: %.1fd > %sd SLA", age.Hours()/24, formatBound(sla.MaxLagDays))
	}
	return v
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
