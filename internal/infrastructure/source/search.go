package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"platewatch/internal/domain"
	"platewatch/internal/scanner"
)

const registrationWildcard = "%%%%%"

// SearchSource paginates the advanced-search API filtered by first
// registration date >= yesterday, yielding (plate, VIN) pairs directly.
type SearchSource struct {
	baseURL string
	pageCap int
	client  *http.Client
	logger  *slog.Logger
}

var _ scanner.Source = (*SearchSource)(nil)

// NewSearchSource wires an HTTP client; pageCap bounds pagination and
// defaults to 7.
func NewSearchSource(baseURL string, pageCap int, client *http.Client, log *slog.Logger) *SearchSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if pageCap <= 0 {
		pageCap = 7
	}
	if log == nil {
		log = slog.Default()
	}
	return &SearchSource{baseURL: baseURL, pageCap: pageCap, client: client, logger: log}
}

// Name identifies the strategy inside the registry.
func (s *SearchSource) Name() string {
	return "search"
}

// Discover walks pages until the first empty result list or the page cap.
// A failing page ends pagination with whatever was collected so far; only
// the candidates matching the registration pattern with a non-empty VIN
// are kept.
func (s *SearchSource) Discover(ctx context.Context, win domain.Window) ([]domain.Candidate, error) {
	dateFloor := win.Yesterday.Format(domain.EntryDateLayout)

	var candidates []domain.Candidate
	for page := 1; page <= s.pageCap; page++ {
		pageURL, err := buildSearchURL(s.baseURL, dateFloor, page)
		if err != nil {
			return candidates, err
		}

		s.logger.Debug("fetch search page", "page", page, "url", pageURL)

		rows, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			s.logger.Warn("search page failed, stopping pagination", "page", page, "error", err)
			break
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			plate := strings.ToUpper(strings.TrimSpace(row.Registration))
			vin := strings.ToUpper(strings.TrimSpace(row.VIN))
			if vin == "" || !domain.PlatePattern.MatchString(plate) {
				continue
			}
			candidates = append(candidates, domain.Candidate{Plate: plate, VIN: vin})
		}
	}

	s.logger.Debug("search discovery done", "candidates", len(candidates))
	return candidates, nil
}

type searchRow struct {
	Registration string `json:"registration"`
	VIN          string `json:"vin"`
}

func (s *SearchSource) fetchPage(ctx context.Context, pageURL string) ([]searchRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s", resp.Status)
	}

	var payload struct {
		Data []searchRow `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}

	return payload.Data, nil
}

func buildSearchURL(base, dateFloor string, page int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("registration_matches", registrationWildcard)
	query.Set("first_registration_date_gteq", dateFloor)
	query.Set("page", strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
