package resolver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"platewatch/internal/domain"
	"platewatch/internal/ports"
)

// InsuranceResolver queries the insurance-lookup endpoint for a VIN. Every
// failure path collapses to the Unknown sentinel pair instead of an error:
// a missing record for one VIN must not abort the batch, and the date
// filter downstream discards the sentinel on its own.
type InsuranceResolver struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.InsuranceResolver = (*InsuranceResolver)(nil)

// NewInsuranceResolver wires an HTTP client against the lookup base URL.
func NewInsuranceResolver(baseURL string, client *http.Client, log *slog.Logger) *InsuranceResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &InsuranceResolver{baseURL: baseURL, client: client, logger: log}
}

// Lookup fetches insurer and policy-creation date for the VIN. Success
// requires HTTP 200, a decodable body, and status_code "1".
func (r *InsuranceResolver) Lookup(ctx context.Context, vin string) domain.InsuranceInfo {
	unknown := domain.InsuranceInfo{Insurer: domain.Unknown, CreatedText: domain.Unknown}

	lookupURL, err := buildLookupURL(r.baseURL, vin)
	if err != nil {
		r.logger.Warn("insurance lookup url", "vin", vin, "error", err)
		return unknown
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		r.logger.Warn("insurance lookup request", "vin", vin, "error", err)
		return unknown
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Referer", "https://nummerplade.net/")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("insurance lookup failed", "vin", vin, "error", err)
		return unknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unknown
	}

	var payload struct {
		StatusCode string `json:"status_code"`
		CarData    struct {
			Selskab  string `json:"selskab"`
			Oprettet string `json:"oprettet"`
		} `json:"carData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		r.logger.Warn("insurance lookup decode", "vin", vin, "error", err)
		return unknown
	}

	if payload.StatusCode != "1" {
		return unknown
	}

	insurer := strings.TrimSpace(payload.CarData.Selskab)
	created := strings.TrimSpace(payload.CarData.Oprettet)
	if insurer == "" {
		insurer = domain.Unknown
	}
	if created == "" {
		created = domain.Unknown
	}

	return domain.InsuranceInfo{Insurer: insurer, CreatedText: created}
}

func buildLookupURL(base, vin string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	query := parsed.Query()
	query.Set("stelnr", strings.ToUpper(vin))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
