package osutrack

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/logging"
)

const (
	defaultBaseURL = "https://osutrack-api.ameo.dev"
	dateLayout     = "2006-01-02"
)

// ErrDecode marks a response body that was not a stats_history array.
var ErrDecode = crerr.New("osutrack decode failure")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	Logger     *logging.Logger
}

// HistoryStat is one snapshot of a player's stats at Timestamp.
type HistoryStat struct {
	Rank      int
	PP        float64
	Timestamp time.Time
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("osutrack status=%d body=%s", e.StatusCode, e.Body)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// StatsHistory returns snapshots between from and to, earliest first. An empty
// body or "[]" yields no rows and no error. Each call is exactly one request.
func (c *Client) StatsHistory(ctx context.Context, osuID int64, mode gamemode.Mode, from, to time.Time) ([]HistoryStat, error) {
	values := url.Values{}
	values.Set("user", strconv.FormatInt(osuID, 10))
	values.Set("mode", strconv.Itoa(int(mode)))
	values.Set("from", from.UTC().Format(dateLayout))
	if !to.IsZero() {
		values.Set("to", to.UTC().Format(dateLayout))
	}
	fullURL := c.baseURL + "/stats_history?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	c.logger.DebugContext(ctx, "osutrack response", "user", osuID, "mode", mode.String(), "status", resp.StatusCode, "bytes", len(raw))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: abbreviateBody(raw)}
	}

	body := strings.TrimSpace(string(raw))
	if body == "" || body == "[]" {
		return nil, nil
	}

	var rows []historyPayload
	if err := sonic.UnmarshalString(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: stats_history: %v", ErrDecode, err)
	}

	out := make([]HistoryStat, 0, len(rows))
	for _, row := range rows {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: stats_history timestamp %q: %v", ErrDecode, row.Timestamp, err)
		}
		out = append(out, HistoryStat{Rank: row.PPRank, PP: row.PPRaw, Timestamp: ts})
	}
	return out, nil
}

type historyPayload struct {
	PPRank    int     `json:"pp_rank"`
	PPRaw     float64 `json:"pp_raw"`
	Timestamp string  `json:"timestamp"`
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", dateLayout} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
