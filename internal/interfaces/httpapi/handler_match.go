package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/match"
	"github.com/riskibarqy/osu-tournament-rating/internal/usecase"
)

func (h *Handler) SubmitMatchBatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitMatchBatch")
	defer span.End()

	principal, _ := principalFromContext(ctx)
	verified, err := queryBool(r, "verified", false)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if verified && !principal.Roles.CanVerify() {
		writeError(ctx, w, fmt.Errorf("%w: you are not authorized to verify matches", usecase.ErrUnauthorized))
		return
	}

	var req submitBatchRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.matchService.SubmitBatch(ctx, usecase.SubmitBatchInput{
		OsuMatchIDs: req.IDs,
		Tournament: usecase.TournamentInfo{
			Name:                req.TournamentName,
			Abbreviation:        req.Abbreviation,
			ForumURL:            req.ForumPost,
			RankRangeLowerBound: req.RankRangeLowerBound,
			TeamSize:            req.TeamSize,
			Mode:                gamemodeOf(req.Mode),
		},
		Submitter: principal,
		Verified:  verified,
	})
	if err != nil {
		h.fail(ctx, w, "submit match batch failed", err, "tournament", req.TournamentName, "count", len(req.IDs))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, submitBatchDTO{
		TournamentID: result.TournamentID,
		Inserted:     result.Inserted,
		Updated:      result.Updated,
		Status:       result.Status.String(),
	})
}

func (h *Handler) RefreshAutomationChecks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshAutomationChecks")
	defer span.End()

	principal, _ := principalFromContext(ctx)
	affected, err := h.matchService.RefreshAutomationChecks(ctx, principal, true)
	if err != nil {
		h.fail(ctx, w, "refresh automation checks failed", err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int64{"affected": affected})
}

func (h *Handler) ListMatchIDs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchIDs")
	defer span.End()

	onlyVerified, err := queryBool(r, "verified", true)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	ids, err := h.matchService.ListOsuMatchIDs(ctx, onlyVerified)
	if err != nil {
		h.fail(ctx, w, "list match ids failed", err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, ids)
}

func (h *Handler) GetMatchByOsuID(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchByOsuID")
	defer span.End()

	osuMatchID, err := pathInt64(r, "externalId")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.GetByOsuMatchID(ctx, osuMatchID)
	if err != nil {
		h.fail(ctx, w, "get match failed", err, "osu_match_id", osuMatchID)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) GetOsuMatchIDByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetOsuMatchIDByID")
	defer span.End()

	if r.PathValue("field") != "osuid" {
		writeError(ctx, w, fmt.Errorf("%w: %s", usecase.ErrNotFound, r.URL.Path))
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	osuMatchID, err := h.matchService.GetOsuMatchIDByID(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get osu match id failed", err, "match_id", id)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, osuMatchID)
}

func (h *Handler) ListMatchesForPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchesForPlayer")
	defer span.End()

	osuID, err := pathInt64(r, "playerId")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.matchService.ListForPlayer(ctx, osuID)
	if err != nil {
		h.fail(ctx, w, "list matches for player failed", err, "osu_id", osuID)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(items))
}

func (h *Handler) ListDuplicates(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDuplicates")
	defer span.End()

	items, err := h.matchService.ListDuplicates(ctx)
	if err != nil {
		h.fail(ctx, w, "list duplicates failed", err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, duplicatesToDTO(items))
}

func (h *Handler) VerifyDuplicate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.VerifyDuplicate")
	defer span.End()

	rootID, err := pathInt64(r, "rootId")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	confirmed, err := queryBool(r, "confirmed", false)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	principal, _ := principalFromContext(ctx)
	result, err := h.matchService.VerifyDuplicate(ctx, rootID, principal, confirmed)
	if err != nil {
		h.fail(ctx, w, "verify duplicate failed", err, "root_id", rootID, "confirmed", confirmed)
		return
	}

	out := verifyDuplicateDTO{RootID: result.RootID, Marked: result.Marked, Confirmed: result.Verdict}
	if result.Merge != nil {
		out.Absorbed = result.Merge.Absorbed
		out.ScoresMoved = result.Merge.ScoresMoved
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) SetVerificationStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetVerificationStatus")
	defer span.End()

	osuMatchID, err := pathInt64(r, "externalId")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setVerificationRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	principal, _ := principalFromContext(ctx)
	item, err := h.matchService.SetVerificationStatus(ctx, osuMatchID, match.VerificationStatus(req.Status), principal)
	if err != nil {
		h.fail(ctx, w, "set verification status failed", err, "osu_match_id", osuMatchID, "status", req.Status)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}
