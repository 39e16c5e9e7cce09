package constants

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodeFollowsWrapChain(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"source", fmt.Errorf("fetch donations_state: %w", ErrSourceUnavailable), http.StatusBadGateway},
		{"double wrapped", fmt.Errorf("load: %w", fmt.Errorf("parse: %w", ErrSchemaMismatch)), http.StatusUnprocessableEntity},
		{"empty", ErrEmptyResult, http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusCode(tc.err); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestSentinelsMatchWithErrorsIs(t *testing.T) {
	err := fmt.Errorf("hospital report: %w", ErrUnmappedEntity)
	if !errors.Is(err, ErrUnmappedEntity) {
		t.Fatalf("expected errors.Is to match ErrUnmappedEntity")
	}
	if errors.Is(err, ErrEmptyResult) {
		t.Fatalf("did not expect ErrEmptyResult to match")
	}
}
