/*
Package generic provides the shared primitives of the settlement engine.

PURPOSE:
  Domain-agnostic building blocks used by the compensation and timesheet
  packages: decimal quantities, identifiers, calendar types, the error
  taxonomy and the audit log contract. Nothing in here knows what a pay
  model or a timesheet status is.

KEY CONCEPTS IN THIS FILE (types.go):
  - Decimal helpers: money, hours and PTO days are all decimal.Decimal
  - Identifiers: WorkerID, ContractID, TimesheetID
  - Currency: ISO-4217 style three letter code

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere, never float64 arithmetic
  2. Type Safety: distinct ID types so a worker ID can't be passed as a contract ID
  3. Auditability: every state change produces an AuditEntry (see store.go)

SEE ALSO:
  - time.go: TimePoint, Month, HolidayCalendar
  - period.go: Period boundaries
  - errors.go: ValidationError, StateError, NotFoundError, ConsistencyError
*/
package generic

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// Dec converts a float literal into a decimal. Use only for constants and
// configuration input; arithmetic stays in decimal.
func Dec(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// MinDec returns the smaller of a and b.
func MinDec(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MaxDec returns the larger of a and b.
func MaxDec(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// RoundMoney rounds to cents using banker's rounding.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string
type ContractID string
type TimesheetID string

// Currency is an upper-case three letter code such as "USD".
type Currency string

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(s string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(s)))
}

// Valid reports whether c looks like a three letter code.
func (c Currency) Valid() bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
