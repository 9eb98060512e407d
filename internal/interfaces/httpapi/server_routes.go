package httpapi

import (
	"net/http"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
)

var (
	verifierRoles   = []user.Role{user.RoleMatchVerifier, user.RoleAdmin, user.RoleSystem}
	privilegedRoles = []user.Role{user.RoleAdmin, user.RoleSystem}
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
}

func authed(verifier TokenVerifier, fn http.HandlerFunc, roles ...user.Role) http.Handler {
	var next http.Handler = fn
	if len(roles) > 0 {
		next = RequireRole(next, roles...)
	}
	return RequireAuth(verifier, next)
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /api/matches/batch", authed(verifier, handler.SubmitMatchBatch))
	mux.Handle("POST /api/matches/refresh/AutomationChecks/invalid", authed(verifier, handler.RefreshAutomationChecks, privilegedRoles...))
	mux.Handle("GET /api/matches/all", authed(verifier, handler.ListMatchIDs, privilegedRoles...))
	mux.Handle("GET /api/matches/duplicates", authed(verifier, handler.ListDuplicates, verifierRoles...))
	mux.Handle("POST /api/matches/duplicates/{rootId}", authed(verifier, handler.VerifyDuplicate, verifierRoles...))
	mux.Handle("GET /api/matches/player/{playerId}", authed(verifier, handler.ListMatchesForPlayer, privilegedRoles...))
	mux.Handle("GET /api/matches/{externalId}", authed(verifier, handler.GetMatchByOsuID, privilegedRoles...))
	// "{id}/osuid" would overlap "player/{playerId}" without either being more specific,
	// so the suffix is matched inside the handler.
	mux.Handle("GET /api/matches/{id}/{field}", authed(verifier, handler.GetOsuMatchIDByID, privilegedRoles...))
	mux.Handle("PUT /api/matches/{externalId}/verification", authed(verifier, handler.SetVerificationStatus, verifierRoles...))
}

func registerPlayerRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /api/players/all", authed(verifier, handler.ListPlayers))
	mux.Handle("GET /api/players/{externalId}", authed(verifier, handler.GetPlayer))
	mux.Handle("GET /api/players/{externalId}/id", authed(verifier, handler.GetPlayerID))
	mux.Handle("GET /api/players/{id}/osuid", authed(verifier, handler.GetPlayerOsuID))
}

func registerRatingRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /api/ratings/{playerId}", authed(verifier, handler.ListRatings))
	mux.Handle("GET /api/ratings/{playerId}/history", authed(verifier, handler.ListRatingHistory))
	mux.Handle("PUT /api/ratings/{playerId}/update", authed(verifier, handler.UpdateRating, privilegedRoles...))
	mux.Handle("POST /api/ratings/batch", authed(verifier, handler.BatchUpdateRatings, privilegedRoles...))
}

func registerMeRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /api/me", authed(verifier, handler.GetMe))
	mux.Handle("GET /api/me/stats", authed(verifier, handler.GetMeStats))
}
