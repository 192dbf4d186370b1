// Package grocery provides the domain types for grocery price tracking.
//
// This package contains type definitions, defaults, and input validation
// only. It imports nothing internal, so both the store and the CLI can
// depend on it.
//
// Key conventions:
//   - Money and quantities use decimal.Decimal, never float64
//   - Calendar dates are time.Time values truncated to the day (UTC)
//   - Names are NFC-normalized and trimmed before they reach the store
//   - Defaults derived from "today" take the date as an explicit argument
package grocery
