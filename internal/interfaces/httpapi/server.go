package httpapi

import (
	"net/http"

	"github.com/riskibarqy/osu-tournament-rating/internal/platform/id"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/logging"
)

type RouterConfig struct {
	Handler            *Handler
	Verifier           TokenVerifier
	Logger             *logging.Logger
	CORSAllowedOrigins []string
	// Metrics is mounted on GET /metrics when set.
	Metrics    http.Handler
	RequestIDs id.Generator
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	requestIDs := cfg.RequestIDs
	if requestIDs == nil {
		requestIDs = id.NewHexGenerator(16)
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, cfg.Handler, cfg.Metrics)
	registerMatchRoutes(mux, cfg.Handler, cfg.Verifier)
	registerPlayerRoutes(mux, cfg.Handler, cfg.Verifier)
	registerRatingRoutes(mux, cfg.Handler, cfg.Verifier)
	registerMeRoutes(mux, cfg.Handler, cfg.Verifier)

	handler := recoverPanic(logger, mux)
	handler = CORS(cfg.CORSAllowedOrigins, handler)
	handler = RequestLogging(logger, handler)
	handler = RequestID(requestIDs, handler)
	return RequestTracing(handler)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(r.Context(), w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
