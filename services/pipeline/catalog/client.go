// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/UFG-Pos/pokemon-data/pkg/validation"
)

// HTTPClient is the interface for making HTTP requests.
// This allows mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// =============================================================================
// Configuration
// =============================================================================

// ClientConfig configures the upstream catalog client.
type ClientConfig struct {
	// BaseURL is the catalog API root, without a trailing slash.
	BaseURL string

	// HTTPClient performs the requests. Nil uses a 15s-timeout client.
	HTTPClient HTTPClient

	// RequestsPerSecond throttles outbound requests (fair-use policy of
	// the public catalog). Zero or negative disables throttling.
	RequestsPerSecond float64

	// Burst is the throttle burst size. Defaults to 5 when throttling.
	Burst int

	// Parallelism bounds concurrent fetches during range imports.
	Parallelism int

	// Logger for fetch failures during imports. Nil uses slog.Default.
	Logger *slog.Logger
}

// DefaultClientConfig returns defaults pointed at the public PokéAPI.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:           "https://pokeapi.co/api/v2",
		RequestsPerSecond: 5,
		Burst:             5,
		Parallelism:       4,
	}
}

// =============================================================================
// Client
// =============================================================================

// Client fetches records from the upstream catalog and normalizes them
// into the canonical Record shape.
type Client struct {
	baseURL     string
	http        HTTPClient
	limiter     *rate.Limiter
	parallelism int
	logger      *slog.Logger
}

// NewClient builds a catalog client from cfg, filling in defaults for
// any zero-valued field.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultClientConfig().BaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultClientConfig().Parallelism
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 5
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        cfg.HTTPClient,
		limiter:     limiter,
		parallelism: cfg.Parallelism,
		logger:      cfg.Logger,
	}
}

// apiPokemon mirrors the upstream wire format. Only the fields the
// pipeline consumes are decoded.
type apiPokemon struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Height         int    `json:"height"`
	Weight         int    `json:"weight"`
	BaseExperience int    `json:"base_experience"`
	Types          []struct {
		Slot int `json:"slot"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability struct {
			Name string `json:"name"`
		} `json:"ability"`
	} `json:"abilities"`
	Stats []struct {
		BaseStat int `json:"base_stat"`
		Stat     struct {
			Name string `json:"name"`
		} `json:"stat"`
	} `json:"stats"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
		BackDefault  string `json:"back_default"`
	} `json:"sprites"`
}

// Fetch retrieves one record by numeric id or name.
//
// The identifier is sanitized before it is interpolated into the request
// path. A 404 from the catalog maps to ErrNotFound; other non-200 statuses
// are surfaced with the status code. The returned record is normalized and
// carries zero timestamps (the store assigns those on upsert).
func (c *Client) Fetch(ctx context.Context, idOrName string) (*Record, error) {
	idOrName, err := validation.SanitizeResourceName(idOrName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := fmt.Sprintf("%s/pokemon/%s", c.baseURL, url.PathEscape(idOrName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrName)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("catalog returned status %d for %s", resp.StatusCode, idOrName)
	}

	var payload apiPokemon
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode catalog response for %s: %w", idOrName, err)
	}
	return payload.toRecord(), nil
}

func (p *apiPokemon) toRecord() *Record {
	rec := &Record{
		ID:             p.ID,
		Name:           p.Name,
		Height:         p.Height,
		Weight:         p.Weight,
		BaseExperience: p.BaseExperience,
		SpriteFront:    p.Sprites.FrontDefault,
		SpriteBack:     p.Sprites.BackDefault,
		Stats:          make(map[string]int, len(p.Stats)),
	}
	for _, t := range p.Types {
		rec.Types = append(rec.Types, t.Type.Name)
	}
	for _, a := range p.Abilities {
		rec.Abilities = append(rec.Abilities, a.Ability.Name)
	}
	for _, s := range p.Stats {
		rec.Stats[s.Stat.Name] = s.BaseStat
	}
	rec.Normalize()
	return rec
}

// =============================================================================
// Batch import
// =============================================================================

// ImportResult summarizes a range import.
type ImportResult struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// ImportRange fetches ids [first, last] concurrently and upserts each
// into the store.
//
// Individual fetch or upsert failures are counted and logged, not fatal;
// context cancellation aborts the whole import. Parallelism is bounded by
// the client's configuration so the upstream catalog is not hammered.
func (c *Client) ImportRange(ctx context.Context, store *Store, first, last int) (ImportResult, error) {
	if first <= 0 || last < first {
		return ImportResult{}, fmt.Errorf("invalid import range %d..%d", first, last)
	}

	var (
		mu  sync.Mutex
		res ImportResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)

	for id := first; id <= last; id++ {
		g.Go(func() error {
			rec, err := c.Fetch(gctx, strconv.Itoa(id))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("catalog fetch failed", slog.Int("id", id), slog.String("error", err.Error()))
				mu.Lock()
				res.Failed++
				mu.Unlock()
				return nil
			}
			if err := store.Upsert(gctx, rec); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("record upsert failed", slog.String("name", rec.Name), slog.String("error", err.Error()))
				mu.Lock()
				res.Failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			res.Imported++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}
