package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"platewatch/internal/domain"
)

func testWindow() domain.Window {
	return domain.NewWindow(time.Date(2026, time.August, 28, 12, 0, 0, 0, time.Local))
}

func TestSearchSourcePagination(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("first_registration_date_gteq"); got != "2026-08-27" {
			t.Errorf("expected date floor 2026-08-27, got %s", got)
		}
		if got := r.URL.Query().Get("registration_matches"); got != "%%%%%" {
			t.Errorf("unexpected wildcard %q", got)
		}

		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"data":[
				{"registration":"en12345","vin":"wvwzzz1kzaw000001"},
				{"registration":"XX1","vin":"VF1RFB00123456789"},
				{"registration":"CD999","vin":""}
			]}`)
		case "2":
			fmt.Fprint(w, `{"data":[{"registration":"AB123","vin":"VF1RFB00987654321"}]}`)
		default:
			fmt.Fprint(w, `{"data":[]}`)
		}
	}))
	defer server.Close()

	src := NewSearchSource(server.URL, 7, server.Client(), nil)

	candidates, err := src.Discover(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %v", len(candidates), candidates)
	}
	if candidates[0].Plate != "EN12345" || candidates[0].VIN != "WVWZZZ1KZAW000001" {
		t.Fatalf("unexpected first candidate: %+v", candidates[0])
	}
	if candidates[1].Plate != "AB123" {
		t.Fatalf("unexpected second candidate: %+v", candidates[1])
	}
}

func TestSearchSourcePageCap(t *testing.T) {
	t.Parallel()

	var pages int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		fmt.Fprint(w, `{"data":[{"registration":"EN100","vin":"VIN00000000000001"}]}`)
	}))
	defer server.Close()

	src := NewSearchSource(server.URL, 3, server.Client(), nil)

	if _, err := src.Discover(context.Background(), testWindow()); err != nil {
		t.Fatalf("Discover error: %v", err)
	}

	if pages != 3 {
		t.Fatalf("expected pagination to stop at the cap of 3, made %d requests", pages)
	}
}

func TestSearchSourceFailureKeepsPartialResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"data":[{"registration":"EN555","vin":"VF1AAAAA00000001"}]}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := NewSearchSource(server.URL, 7, server.Client(), nil)

	candidates, err := src.Discover(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("page failure must not surface as an error, got %v", err)
	}
	if len(candidates) != 1 || candidates[0].Plate != "EN555" {
		t.Fatalf("expected the page-1 result to survive, got %v", candidates)
	}
}

func TestSearchSourceFirstPageFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	src := NewSearchSource(server.URL, 7, server.Client(), nil)

	candidates, err := src.Discover(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("first-page failure is a normal outcome, got error %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %v", candidates)
	}
}
