package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/probability"
)

const (
	statsSourceName = "stats_api"
	maxContextBytes = 1 << 20
)

// StatsClient fetches team and situational context for matchups from the
// stats API.
type StatsClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     *logrus.Entry
}

// NewStatsClient creates a new stats API client
func NewStatsClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, logger *logrus.Logger) *StatsClient {
	return &StatsClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.WithField("component", "stats_client"),
	}
}

// GetMatchupContext returns the context for a matchup. A 404 yields a nil
// context and no error. Venue flags come from the matchup row and are always
// set on the result.
func (c *StatsClient) GetMatchupContext(ctx context.Context, m *models.Matchup) (*probability.MatchupContext, error) {
	key := m.ExternalID
	if key == "" {
		key = m.ID.String()
	}
	endpoint := fmt.Sprintf("%s/v1/%s/matchups/%s/context", c.baseURL, m.Sport, url.PathEscape(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build context request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewDataSourceError(statsSourceName, ErrCodeNetworkError, "context request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.WithField("matchup_id", m.ID).Debug("No context for matchup")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(statsSourceName, resp)
	}

	var mctx probability.MatchupContext
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxContextBytes)).Decode(&mctx); err != nil {
		return nil, NewDataSourceError(statsSourceName, ErrCodeInvalidData, "failed to decode context", err)
	}
	mctx.Outdoor = m.Outdoor
	mctx.Divisional = m.Divisional

	return &mctx, nil
}
