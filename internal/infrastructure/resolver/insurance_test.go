package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"platewatch/internal/domain"
)

func TestInsuranceResolverSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("stelnr"); got != "WVWZZZ1KZAW000001" {
			t.Errorf("unexpected stelnr %q", got)
		}
		fmt.Fprint(w, `{"status_code":"1","carData":{"selskab":" Tryg Forsikring ","oprettet":"27-08-2026"}}`)
	}))
	defer server.Close()

	res := NewInsuranceResolver(server.URL, server.Client(), nil)

	info := res.Lookup(context.Background(), "wvwzzz1kzaw000001")
	if info.Insurer != "Tryg Forsikring" {
		t.Fatalf("unexpected insurer %q", info.Insurer)
	}
	if info.CreatedText != "27-08-2026" {
		t.Fatalf("unexpected created date %q", info.CreatedText)
	}
	if info.Unresolved() {
		t.Fatal("a successful lookup must not be the sentinel")
	}
}

func TestInsuranceResolverStatusZero(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status_code":"0"}`)
	}))
	defer server.Close()

	res := NewInsuranceResolver(server.URL, server.Client(), nil)

	info := res.Lookup(context.Background(), "VIN00000000000001")
	if info.Insurer != domain.Unknown || info.CreatedText != domain.Unknown {
		t.Fatalf("expected the sentinel pair, got %+v", info)
	}
}

func TestInsuranceResolverFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html>not json</html>`)
			},
		},
		{
			name: "missing car data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"status_code":"1","carData":{}}`)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			res := NewInsuranceResolver(server.URL, server.Client(), nil)

			info := res.Lookup(context.Background(), "VIN00000000000001")
			if !info.Unresolved() {
				t.Fatalf("expected the sentinel pair, got %+v", info)
			}
		})
	}
}

func TestInsuranceResolverNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	res := NewInsuranceResolver(server.URL, nil, nil)

	info := res.Lookup(context.Background(), "VIN00000000000001")
	if info.Insurer != domain.Unknown || info.CreatedText != domain.Unknown {
		t.Fatalf("expected the sentinel pair on network failure, got %+v", info)
	}
}
