package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"platewatch/internal/domain"
	"platewatch/internal/ports"
)

const defaultRetryAfter = 5 * time.Second

var (
	lastChangeExpr = regexp.MustCompile(`id="seneste_aendring">d\.\s*(\d{2}-\d{2}-\d{4})`)
	searchDataExpr = regexp.MustCompile(`var\s+search_data\s*=\s*"(\w+)"`)
	stelnummerExpr = regexp.MustCompile(`(?i)stelnummer\s+([A-Z0-9]+)`)
	vinShapeExpr   = regexp.MustCompile(`(VF[A-Z0-9]{10,}|WVW[A-Z0-9]{10,}|[A-HJ-NPR-Z0-9]{17})`)
)

// PlateResolver fetches a per-plate detail page and extracts the last-change
// date and a VIN-like token. Candidates whose last change falls outside the
// lookback window are rejected.
type PlateResolver struct {
	baseURL string
	client  *http.Client
}

var _ ports.VehicleResolver = (*PlateResolver)(nil)

// NewPlateResolver wires an HTTP client against the detail-page base URL.
func NewPlateResolver(baseURL string, client *http.Client) *PlateResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PlateResolver{baseURL: baseURL, client: client}
}

// Resolve issues one GET to the detail endpoint. A 429 response is retried
// once after the server-hinted delay; any repeat is treated as a miss. The
// boolean is false for every rejection (non-200, missing or stale date,
// missing VIN).
func (p *PlateResolver) Resolve(ctx context.Context, plate string, win domain.Window) (domain.VehicleFact, bool, error) {
	var fact domain.VehicleFact

	body, ok, err := p.fetch(ctx, plate)
	if err != nil || !ok {
		return fact, false, err
	}

	lastChanged, ok := extractLastChange(body)
	if !ok || !win.Contains(lastChanged) {
		return fact, false, nil
	}

	vin, ok := extractVIN(body)
	if !ok {
		return fact, false, nil
	}

	return domain.VehicleFact{Plate: plate, VIN: vin, LastChanged: lastChanged}, true, nil
}

func (p *PlateResolver) fetch(ctx context.Context, plate string) (string, bool, error) {
	pageURL := strings.TrimSuffix(p.baseURL, "/") + "/" + plate + ".html"

	// One bounded retry on 429, never more.
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return "", false, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
		req.Header.Set("Accept", "text/html,application/xhtml+xml")

		resp, err := p.client.Do(req)
		if err != nil {
			return "", false, fmt.Errorf("request %s: %w", plate, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := retryAfter(resp.Header.Get("Retry-After"))
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()

			if attempt > 0 {
				return "", false, nil
			}

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", false, ctx.Err()
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			return "", false, nil
		}

		raw, err := io.ReadAll(resp.Body)
		closeErr := resp.Body.Close()
		if err != nil {
			return "", false, fmt.Errorf("read %s: %w", plate, err)
		}
		if closeErr != nil {
			return "", false, fmt.Errorf("close body %s: %w", plate, closeErr)
		}

		return string(raw), true, nil
	}

	return "", false, nil
}

func retryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func extractLastChange(body string) (time.Time, bool) {
	match := lastChangeExpr.FindStringSubmatch(body)
	if match == nil {
		return time.Time{}, false
	}

	parsed, err := time.ParseInLocation(domain.WireDateLayout, match[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}

	return parsed, true
}

// extractVIN tries, in priority order: the script-variable assignment, the
// "stelnummer <token>" label, then a scan of the page's visible text for a
// token with standard VIN shape or a known manufacturer prefix.
func extractVIN(body string) (string, bool) {
	if match := searchDataExpr.FindStringSubmatch(body); match != nil {
		return strings.ToUpper(match[1]), true
	}

	if match := stelnummerExpr.FindStringSubmatch(body); match != nil {
		return strings.ToUpper(match[1]), true
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", false
	}

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if match := vinShapeExpr.FindString(text); match != "" {
		return strings.ToUpper(match), true
	}

	return "", false
}
