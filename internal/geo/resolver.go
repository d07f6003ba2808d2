// Package geo resolves a participant's country from its IP address. Lookups
// run asynchronously and must never block matching: a participant whose
// country has not resolved yet simply matches as if country were absent.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Resolver queries a JSON geolocation endpoint.
type Resolver struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// New builds a resolver. An empty baseURL disables lookups.
func New(baseURL string, log *zap.Logger) *Resolver {
	return &Resolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     log,
	}
}

type lookupResponse struct {
	CountryCode string `json:"countryCode"`
}

// Lookup resolves the country code for ip in a fresh goroutine and invokes
// done with the result. done is skipped entirely on failure.
func (r *Resolver) Lookup(ctx context.Context, ip string, done func(country string)) {
	if r.baseURL == "" || ip == "" {
		return
	}
	go func() {
		country, err := r.resolve(ctx, ip)
		if err != nil {
			r.log.Debug("geo lookup failed", zap.String("ip", ip), zap.Error(err))
			return
		}
		if country != "" {
			done(country)
		}
	}()
}

func (r *Resolver) resolve(ctx context.Context, ip string) (string, error) {
	url := fmt.Sprintf("%s/%s?fields=countryCode", r.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo lookup status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.CountryCode, nil
}
