package httpapi

import (
	"net/http"
)

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMe")
	defer span.End()

	principal, _ := principalFromContext(ctx)
	info, err := h.userService.Me(ctx, principal)
	if err != nil {
		h.fail(ctx, w, "get me failed", err, "user_id", principal.UserID)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, userInfoToDTO(info))
}

// GetMeStats accepts mode plus the optional dateMin and dateMax bounds.
func (h *Handler) GetMeStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMeStats")
	defer span.End()

	mode, err := queryMode(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	from, err := queryTime(r, "dateMin")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	to, err := queryTime(r, "dateMax")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	principal, _ := principalFromContext(ctx)
	stats, err := h.userService.Stats(ctx, principal, mode, from, to)
	if err != nil {
		h.fail(ctx, w, "get me stats failed", err, "user_id", principal.UserID, "mode", mode)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, playerStatsToDTO(stats))
}
