package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/twinsgen/twin-problem-service/internal/exam"
	"github.com/twinsgen/twin-problem-service/internal/models"
	"github.com/twinsgen/twin-problem-service/internal/store"
)

// SaveProblemRequest saves either variant `index` of a live run, or an
// explicit variant with its classification.
type SaveProblemRequest struct {
	RunID          string                 `json:"runId,omitempty"`
	Index          *int                   `json:"index,omitempty"`
	Variant        *models.ProblemVariant `json:"variant,omitempty"`
	Classification *models.Classification `json:"classification,omitempty"`
}

// SaveProblem - POST /api/problems
func (h *Handler) SaveProblem(w http.ResponseWriter, r *http.Request) {
	var req SaveProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	save, status, msg := h.saveRequestFrom(req)
	if status != 0 {
		h.sendError(w, status, msg)
		return
	}

	saved, err := h.problems.Save(r.Context(), save)
	if err != nil {
		if errors.Is(err, store.ErrInvalidProblem) {
			h.sendError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("save problem failed")
		h.sendError(w, http.StatusInternalServerError, "failed to save problem")
		return
	}
	h.sendJSON(w, http.StatusCreated, saved)
}

func (h *Handler) saveRequestFrom(req SaveProblemRequest) (store.SaveRequest, int, string) {
	if req.RunID == "" {
		if req.Variant == nil {
			return store.SaveRequest{}, http.StatusBadRequest, "runId and index, or variant, is required"
		}
		return store.SaveRequest{Variant: *req.Variant, Classification: req.Classification}, 0, ""
	}

	run, ok := h.registry.Get(req.RunID)
	if !ok {
		return store.SaveRequest{}, http.StatusNotFound, "run not found"
	}
	snap := run.Snapshot()
	index := 0
	if req.Index != nil {
		index = *req.Index
	}
	if index < 0 || index >= len(snap.Variants) {
		return store.SaveRequest{}, http.StatusBadRequest,
			fmt.Sprintf("index %d out of range: run has %d problems", index, len(snap.Variants))
	}
	return store.SaveRequest{Variant: snap.Variants[index], Classification: snap.Classification}, 0, ""
}

// ListProblems - GET /api/problems?q=&subject=&page=&limit=
func (h *Handler) ListProblems(w http.ResponseWriter, r *http.Request) {
	problems, ok := h.queryProblems(w, r)
	if !ok {
		return
	}

	// Parse pagination params
	page := 1
	limit := 50
	if p := r.URL.Query().Get("page"); p != "" {
		if val, err := strconv.Atoi(p); err == nil && val > 0 {
			page = val
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 100 {
			limit = val
		}
	}

	total := len(problems)
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"problems":    problems[start:end],
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages,
	})
}

// ListSubjects - GET /api/problems/subjects
func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.problems.Subjects(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list subjects failed")
		h.sendError(w, http.StatusInternalServerError, "failed to read problem bank")
		return
	}
	h.sendJSON(w, http.StatusOK, map[string]interface{}{"subjects": subjects})
}

// GetProblem - GET /api/problems/{id}
func (h *Handler) GetProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problems.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrProblemNotFound) {
			h.sendError(w, http.StatusNotFound, "problem not found")
			return
		}
		h.sendError(w, http.StatusInternalServerError, "failed to read problem bank")
		return
	}
	h.sendJSON(w, http.StatusOK, problem)
}

// DeleteProblem - DELETE /api/problems/{id}
func (h *Handler) DeleteProblem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.problems.Delete(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("delete problem failed")
		h.sendError(w, http.StatusInternalServerError, "failed to delete problem")
		return
	}
	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      id,
	})
}

// BankExam - GET /api/problems/exam?q=&subject=&ids=&answers=
// ids, a comma-separated list, keeps the given order.
func (h *Handler) BankExam(w http.ResponseWriter, r *http.Request) {
	problems, ok := h.queryProblems(w, r)
	if !ok {
		return
	}
	if ids := r.URL.Query().Get("ids"); ids != "" {
		problems = pickByID(problems, strings.Split(ids, ","))
	}

	sheet := exam.Sheet{
		Subject:     r.URL.Query().Get("subject"),
		Date:        h.now(),
		ShowAnswers: queryBool(r, "answers"),
	}
	if sheet.Subject == "all" {
		sheet.Subject = ""
	}
	if sheet.Subject == "" && len(problems) > 0 {
		sheet.Subject = problems[0].Subject()
	}
	for _, p := range problems {
		sheet.Problems = append(sheet.Problems, p.ProblemVariant)
	}
	h.sendExam(w, sheet)
}

// queryProblems applies the q and subject filters; ok is false when a response was sent
func (h *Handler) queryProblems(w http.ResponseWriter, r *http.Request) ([]models.SavedProblem, bool) {
	problems, err := h.problems.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error().Err(err).Msg("read problem bank failed")
		h.sendError(w, http.StatusInternalServerError, "failed to read problem bank")
		return nil, false
	}
	problems = store.FilterBySubject(problems, r.URL.Query().Get("subject"))
	if problems == nil {
		problems = []models.SavedProblem{}
	}
	return problems, true
}

func pickByID(problems []models.SavedProblem, ids []string) []models.SavedProblem {
	byID := make(map[string]models.SavedProblem, len(problems))
	for _, p := range problems {
		byID[p.ID] = p
	}
	out := []models.SavedProblem{}
	for _, id := range ids {
		if p, ok := byID[strings.TrimSpace(id)]; ok {
			out = append(out, p)
		}
	}
	return out
}
