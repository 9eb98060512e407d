package osuapi

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/gamemode"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/logging"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/resilience"
	"github.com/riskibarqy/osu-tournament-rating/internal/usecase"
)

const (
	defaultBaseURL           = "https://osu.ppy.sh/api"
	defaultRequestsPerMinute = 60
)

var apiKeyParamRegex = regexp.MustCompile(`([?&])k=[^&\s"']+`)
var errOsuAPITransient = crerr.New("osu api transient failure")

type ClientConfig struct {
	HTTPClient        *http.Client
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerMinute int
	Logger            *logging.Logger
	CircuitBreaker    resilience.CircuitBreakerConfig
}

// User is the subset of the v1 get_user payload the sync workers consume.
type User struct {
	OsuID    int64
	Username string
	Country  string
	// Rank is nil for players without a global rank in the requested mode.
	Rank *int
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	limiter    *rate.Limiter
	flight     singleflight.Group
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

	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = defaultRequestsPerMinute
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger,
		breaker:    resilience.NewCircuitBreaker(cfg.CircuitBreaker, nil),
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// GetUser looks a player up in one mode. A nil user with a nil error means the
// API returned no row, which is how restricted accounts appear.
func (c *Client) GetUser(ctx context.Context, osuID int64, mode gamemode.Mode) (*User, error) {
	if osuID <= 0 {
		return nil, fmt.Errorf("osu id must be greater than zero")
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid mode %d", mode)
	}

	query := map[string]string{
		"u":    strconv.FormatInt(osuID, 10),
		"m":    strconv.Itoa(int(mode)),
		"type": "id",
	}

	var rows []userPayload
	if err := c.doJSON(ctx, "/get_user", query, &rows); err != nil {
		return nil, fmt.Errorf("get_user user=%d mode=%s: %w", osuID, mode, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0].toUser(osuID), nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	key := path + "?" + values.Encode()
	values.Set("k", c.apiKey)
	fullURL := c.baseURL + path + "?" + values.Encode()

	out, err, _ := c.flight.Do(key, func() (any, error) {
		var raw []byte
		err := c.breaker.Do(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(ctx, fullURL)
			return reqErr
		}, isCircuitFailure)
		return raw, err
	})
	if err != nil {
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "osu api circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: osu api is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode osu api payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: send request: %s", errOsuAPITransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errOsuAPITransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: osu api status=%d body=%s", errOsuAPITransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("osu api status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("osu api request failed")
	}
	c.logger.WarnContext(ctx, "osu api request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

type userPayload struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Country  string  `json:"country"`
	PPRank   *string `json:"pp_rank"`
}

func (p userPayload) toUser(fallbackID int64) *User {
	out := &User{
		OsuID:    fallbackID,
		Username: strings.TrimSpace(p.Username),
		Country:  strings.ToUpper(strings.TrimSpace(p.Country)),
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(p.UserID), 10, 64); err == nil && id > 0 {
		out.OsuID = id
	}
	if p.PPRank != nil {
		if rank, err := strconv.Atoi(strings.TrimSpace(*p.PPRank)); err == nil && rank > 0 {
			out.Rank = &rank
		}
	}
	return out
}

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errOsuAPITransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if apiKey != "" {
		value = strings.ReplaceAll(value, apiKey, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "${1}k=REDACTED")
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has("k") {
		query.Set("k", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
