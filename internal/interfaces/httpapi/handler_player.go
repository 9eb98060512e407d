package httpapi

import (
	"net/http"
)

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	players, err := h.playerService.ListAll(ctx)
	if err != nil {
		h.fail(ctx, w, "list players failed", err)
		return
	}

	items := make([]playerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerToDTO(p))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	osuID, err := pathInt64(r, "externalId")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	detail, err := h.playerService.GetByOsuID(ctx, osuID)
	if err != nil {
		h.fail(ctx, w, "get player failed", err, "osu_id", osuID)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, playerDetailToDTO(detail))
}

func (h *Handler) GetPlayerID(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerID")
	defer span.End()

	osuID, err := pathInt64(r, "externalId")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	id, err := h.playerService.GetIDByOsuID(ctx, osuID)
	if err != nil {
		h.fail(ctx, w, "get player id failed", err, "osu_id", osuID)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, id)
}

func (h *Handler) GetPlayerOsuID(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerOsuID")
	defer span.End()

	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	osuID, err := h.playerService.GetOsuIDByID(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get player osu id failed", err, "player_id", id)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, osuID)
}
