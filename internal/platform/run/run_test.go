package run

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
)

func TestWithSignals_ExitCodes(t *testing.T) {
	r := New(zap.NewNop())

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"clean", nil, 0},
		{"server closed", http.ErrServerClosed, 0},
		{"canceled", context.Canceled, 0},
		{"failure", errors.New("listen: address in use"), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.WithSignals(func(context.Context) error { return tc.err })
			if got != tc.want {
				t.Fatalf("expected exit code %d, got %d", tc.want, got)
			}
		})
	}
}
