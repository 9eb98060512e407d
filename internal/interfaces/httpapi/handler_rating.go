package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/osu-tournament-rating/internal/usecase"
)

// ListRatings takes the osu! id of the player; unknown players have no ratings.
func (h *Handler) ListRatings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRatings")
	defer span.End()

	osuID, err := pathInt64(r, "playerId")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.ratingService.ListForPlayer(ctx, osuID)
	if err != nil {
		h.fail(ctx, w, "list ratings failed", err, "osu_id", osuID)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, ratingsToDTO(items))
}

func (h *Handler) ListRatingHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRatingHistory")
	defer span.End()

	osuID, err := pathInt64(r, "playerId")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	mode, err := queryMode(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	from, err := queryTime(r, "from")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	playerID, err := h.playerService.GetIDByOsuID(ctx, osuID)
	if err != nil {
		h.fail(ctx, w, "resolve player failed", err, "osu_id", osuID)
		return
	}
	items, err := h.ratingService.ListHistoryForPlayer(ctx, playerID, mode, from, to)
	if err != nil {
		h.fail(ctx, w, "list rating history failed", err, "player_id", playerID, "mode", mode)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, historyToDTO(items))
}

// UpdateRating takes the internal player id, which must match the payload.
func (h *Handler) UpdateRating(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateRating")
	defer span.End()

	playerID, err := pathInt64(r, "playerId")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req ratingUpdateRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if req.PlayerID != playerID {
		writeError(ctx, w, fmt.Errorf("%w: player id %d in body does not match player id %d in path", usecase.ErrInvalidInput, req.PlayerID, playerID))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.ratingService.InsertOrUpdate(ctx, req.toInput())
	if err != nil {
		h.fail(ctx, w, "update rating failed", err, "player_id", playerID, "mode", req.Mode)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, ratingToDTO(item))
}

func (h *Handler) BatchUpdateRatings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BatchUpdateRatings")
	defer span.End()

	var req []ratingUpdateRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	inputs := make([]usecase.RatingUpdateInput, 0, len(req))
	for i, item := range req {
		if err := h.validateRequest(ctx, item); err != nil {
			writeError(ctx, w, fmt.Errorf("ratings[%d]: %w", i, err))
			return
		}
		inputs = append(inputs, item.toInput())
	}

	written, err := h.ratingService.BatchInsertOrUpdate(ctx, inputs)
	if err != nil {
		h.fail(ctx, w, "batch update ratings failed", err, "count", len(inputs))
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]int{"written": written})
}
