package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/imi1563/Goal-Backend-sub001/internal/models"
	"github.com/imi1563/Goal-Backend-sub001/internal/quota"
)

// Client is the API-Football client. Every request is admitted through the
// quota gate and executed with retry-on-failure and retry-on-429 semantics.
type Client struct {
	baseURL           string
	apiKey            string
	httpClient        *http.Client
	gate              *quota.Gate
	maxRetries        int
	maxRateLimitWaits int
	sleep             func(ctx context.Context, d time.Duration) error
}

// Options holds client settings
type Options struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	MaxRetries        int // transient-failure attempt budget
	MaxRateLimitWaits int // ceiling on provider 429 waits per call
}

// NewClient creates a new API-Football client gated by the given quota gate
func NewClient(opts Options, gate *quota.Gate) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.MaxRateLimitWaits <= 0 {
		opts.MaxRateLimitWaits = 5
	}

	return &Client{
		baseURL:           opts.BaseURL,
		apiKey:            opts.APIKey,
		gate:              gate,
		maxRetries:        opts.MaxRetries,
		maxRateLimitWaits: opts.MaxRateLimitWaits,
		sleep:             sleepContext,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// envelope is the provider's standard response wrapper. List endpoints carry
// an array in `response`; /teams/statistics carries a single object.
type envelope struct {
	Get      string            `json:"get"`
	Errors   json.RawMessage   `json:"errors"`
	Results  int               `json:"results"`
	Paging   paging            `json:"paging"`
	Response []json.RawMessage `json:"response"`
}

type objectEnvelope struct {
	Get      string          `json:"get"`
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

type paging struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// providerError surfaces errors the provider reports inside a 200 body.
// The `errors` field is an empty array when all is well and a populated
// object or array otherwise.
func providerError(raw json.RawMessage) error {
	s := string(raw)
	if s == "" || s == "[]" || s == "{}" || s == "null" {
		return nil
	}
	return fmt.Errorf("provider reported errors: %s", s)
}

func decodeEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response envelope: %w", err)
	}
	if err := providerError(env.Errors); err != nil {
		return nil, err
	}
	return &env, nil
}

// FixtureQuery narrows a /fixtures bulk request
type FixtureQuery struct {
	League int
	Season int
	From   string // YYYY-MM-DD
	To     string // YYYY-MM-DD
	Date   string // YYYY-MM-DD
	Status string
	Live   bool
}

func (q FixtureQuery) params() map[string]string {
	params := make(map[string]string)
	if q.League != 0 {
		params["league"] = strconv.Itoa(q.League)
	}
	if q.Season != 0 {
		params["season"] = strconv.Itoa(q.Season)
	}
	if q.From != "" {
		params["from"] = q.From
	}
	if q.To != "" {
		params["to"] = q.To
	}
	if q.Date != "" {
		params["date"] = q.Date
	}
	if q.Status != "" {
		params["status"] = q.Status
	}
	if q.Live {
		params["live"] = "all"
	}
	return params
}

// FetchLeagues fetches all leagues with their seasons
func (c *Client) FetchLeagues(ctx context.Context) ([]models.LeagueItem, error) {
	body, err := c.get(ctx, "leagues", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leagues: %w", err)
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("leagues response invalid: %w", err)
	}

	items := make([]models.LeagueItem, 0, len(env.Response))
	for _, raw := range env.Response {
		var item models.LeagueItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal league item: %w", err)
		}
		items = append(items, item)
	}

	return items, nil
}

// FetchFixtures fetches fixtures matching the query (bulk path)
func (c *Client) FetchFixtures(ctx context.Context, query FixtureQuery) ([]models.FixtureItem, error) {
	body, err := c.get(ctx, "fixtures", query.params())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures: %w", err)
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("fixtures response invalid: %w", err)
	}

	items := make([]models.FixtureItem, 0, len(env.Response))
	for _, raw := range env.Response {
		var item models.FixtureItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fixture item: %w", err)
		}
		items = append(items, item)
	}

	return items, nil
}

// FetchFixtureByID fetches a single fixture (fallback path). Returns nil
// without error when the provider does not know the fixture.
func (c *Client) FetchFixtureByID(ctx context.Context, fixtureID int64) (*models.FixtureItem, error) {
	body, err := c.get(ctx, "fixtures", map[string]string{"id": strconv.FormatInt(fixtureID, 10)})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fixture %d: %w", fixtureID, err)
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("fixture %d response invalid: %w", fixtureID, err)
	}

	if len(env.Response) == 0 {
		return nil, nil
	}

	var item models.FixtureItem
	if err := json.Unmarshal(env.Response[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixture %d: %w", fixtureID, err)
	}

	return &item, nil
}

// FetchTeams fetches teams participating in a league season
func (c *Client) FetchTeams(ctx context.Context, league, season int) ([]models.TeamItem, error) {
	params := map[string]string{
		"league": strconv.Itoa(league),
		"season": strconv.Itoa(season),
	}

	body, err := c.get(ctx, "teams", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("teams response invalid: %w", err)
	}

	items := make([]models.TeamItem, 0, len(env.Response))
	for _, raw := range env.Response {
		var item models.TeamItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal team item: %w", err)
		}
		items = append(items, item)
	}

	return items, nil
}

// FetchTeamStatistics fetches season statistics for one team in one league
func (c *Client) FetchTeamStatistics(ctx context.Context, league, season, team int) (*models.TeamStatistics, error) {
	params := map[string]string{
		"league": strconv.Itoa(league),
		"season": strconv.Itoa(season),
		"team":   strconv.Itoa(team),
	}

	body, err := c.get(ctx, "teams/statistics", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team statistics: %w", err)
	}

	var env objectEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal statistics envelope: %w", err)
	}
	if err := providerError(env.Errors); err != nil {
		return nil, fmt.Errorf("team statistics response invalid: %w", err)
	}

	var stats models.TeamStatistics
	if err := json.Unmarshal(env.Response, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team statistics: %w", err)
	}

	return &stats, nil
}
