// Package enrich decorates schedule entries with cover art, release
// details and an encyclopedia summary. Every lookup is best effort: callers
// always get a value, and the Status says whether it is real data.
package enrich

import "errors"

// ErrNoMatch is returned by lookups that reached the upstream but found
// nothing for the query.
var ErrNoMatch = errors.New("no match")

type Status string

const (
	StatusSuccess  Status = "success"
	StatusFallback Status = "fallback"
	StatusError    Status = "error"
)

// Result is the outcome of one lookup. On fallback and error Value holds
// the documented default.
type Result[T any] struct {
	Value  T      `json:"value"`
	Status Status `json:"status"`
	Err    string `json:"error,omitempty"`
}

func success[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusSuccess}
}

// failed maps a lookup error onto fallback (no match) or error.
func failed[T any](def T, err error) Result[T] {
	if errors.Is(err, ErrNoMatch) {
		return Result[T]{Value: def, Status: StatusFallback}
	}
	return Result[T]{Value: def, Status: StatusError, Err: err.Error()}
}
