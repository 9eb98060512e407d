package jwtauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
	basecache "github.com/riskibarqy/osu-tournament-rating/internal/platform/cache"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/logging"
	"github.com/riskibarqy/osu-tournament-rating/internal/usecase"
)

// Claims is the access token payload issued by the web frontend.
type Claims struct {
	Name     string   `json:"name,omitempty"`
	PlayerID *int64   `json:"player_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type Config struct {
	Key    string
	Issuer string
	// CacheTTL bounds how long a verified token is reused without re-parsing; zero disables it.
	CacheTTL time.Duration
	Clock    clockwork.Clock
	Logger   *logging.Logger
}

type Verifier struct {
	key    []byte
	issuer string
	clock  clockwork.Clock
	cache  *basecache.Store
	logger *logging.Logger
	parser *jwt.Parser
}

func NewVerifier(cfg Config) (*Verifier, error) {
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		return nil, fmt.Errorf("jwt key is required")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(clock.Now),
		jwt.WithLeeway(5 * time.Second),
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	v := &Verifier{
		key:    []byte(key),
		issuer: issuer,
		clock:  clock,
		logger: logger,
		parser: jwt.NewParser(opts...),
	}
	if cfg.CacheTTL > 0 {
		v.cache = basecache.NewStore(cfg.CacheTTL, clock)
	}
	return v, nil
}

type cachedPrincipal struct {
	principal user.Principal
	expiresAt time.Time
}

// VerifyAccessToken validates token and resolves the caller it was issued for.
func (v *Verifier) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	if v.cache == nil {
		principal, _, err := v.parse(token)
		if err != nil {
			v.logger.DebugContext(ctx, "access token rejected", "error", err)
		}
		return principal, err
	}

	key := "token:" + hashToken(token)
	if raw, ok := v.cache.Get(ctx, key); ok {
		if cached, ok := raw.(cachedPrincipal); ok && v.clock.Now().Before(cached.expiresAt) {
			return cached.principal, nil
		}
		v.cache.Delete(ctx, key)
	}

	principal, expiresAt, err := v.parse(token)
	if err != nil {
		v.logger.DebugContext(ctx, "access token rejected", "error", err)
		return user.Principal{}, err
	}
	v.cache.Set(ctx, key, cachedPrincipal{principal: principal, expiresAt: expiresAt})
	return principal, nil
}

func (v *Verifier) parse(token string) (user.Principal, time.Time, error) {
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return user.Principal{}, time.Time{}, fmt.Errorf("%w: token expired", usecase.ErrUnauthorized)
		}
		return user.Principal{}, time.Time{}, fmt.Errorf("%w: invalid token: %v", usecase.ErrUnauthorized, err)
	}
	if !parsed.Valid {
		return user.Principal{}, time.Time{}, fmt.Errorf("%w: invalid token", usecase.ErrUnauthorized)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		subject = strings.TrimSpace(claims.Name)
	}
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID <= 0 {
		return user.Principal{}, time.Time{}, fmt.Errorf("%w: token subject is not a user id", usecase.ErrUnauthorized)
	}

	roles := make([]user.Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		roles = append(roles, user.ParseRole(r))
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return user.Principal{
		UserID:   userID,
		PlayerID: claims.PlayerID,
		Roles:    user.NewRoleSet(roles...),
	}, expiresAt, nil
}

// Issue signs an access token for principal; used by tooling and tests.
func (v *Verifier) Issue(principal user.Principal, ttl time.Duration) (string, error) {
	now := v.clock.Now()
	claims := Claims{
		Name:     strconv.FormatInt(principal.UserID, 10),
		PlayerID: principal.PlayerID,
		Roles:    principal.Roles.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(principal.UserID, 10),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
