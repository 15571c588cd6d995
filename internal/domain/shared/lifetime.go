package shared

import "time"

// Row is one entry in an append-only, per-stream lifetime sequence:
// "Value held from ValidFrom (inclusive) until ValidUntil (exclusive,
// nil meaning still open)." Every mutable association in the bid book
// (curve data, portfolio weight maps) is modeled as a flat []Row[T]
// rather than a chain of pointers between versions, so replaying
// history never requires walking a version graph. Product-tree edges
// (product.Edge) carry the same ValidFrom/ValidUntil pair directly.
type Row[T any] struct {
	Value      T
	ValidFrom  time.Time
	ValidUntil *time.Time // nil => open
}

// Open reports whether the row has no ValidUntil yet.
func (r Row[T]) Open() bool {
	return r.ValidUntil == nil
}

// Contains reports whether t falls in the row's half-open interval
// [ValidFrom, ValidUntil).
func (r Row[T]) Contains(t time.Time) bool {
	if t.Before(r.ValidFrom) {
		return false
	}
	if r.ValidUntil == nil {
		return true
	}
	return t.Before(*r.ValidUntil)
}

// Closed returns a copy of r with ValidUntil set to t. The original
// row is left untouched; callers append the closed copy in place of
// the open row and then append a fresh open row for the new value.
func (r Row[T]) Closed(t time.Time) Row[T] {
	closedAt := t
	r.ValidUntil = &closedAt
	return r
}

// AtInstant scans rows (in any order) for the one open at t. Lifetime
// exclusivity (spec section 8) guarantees at most one match; AtInstant
// returns the first it finds and ok=false if none match.
func AtInstant[T any](rows []Row[T], t time.Time) (Row[T], bool) {
	for _, r := range rows {
		if r.Contains(t) {
			return r, true
		}
	}
	var zero Row[T]
	return zero, false
}

// CloseOpen closes whichever row in rows is currently open (if any),
// at instant t, returning the updated slice. It is a no-op if no row
// is open.
func CloseOpen[T any](rows []Row[T], t time.Time) []Row[T] {
	for i := range rows {
		if rows[i].Open() {
			rows[i] = rows[i].Closed(t)
			break
		}
	}
	return rows
}
