package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/twinsgen/twin-problem-service/internal/exam"
	"github.com/twinsgen/twin-problem-service/internal/models"
	"github.com/twinsgen/twin-problem-service/internal/pipeline"
	"github.com/twinsgen/twin-problem-service/internal/storage"
)

// GenerateRequest is the body of POST /api/runs/{id}/generate
type GenerateRequest struct {
	Mode models.Mode `json:"mode"`
}

// GenerateResponse carries the appended variants and the updated run
type GenerateResponse struct {
	Added []models.ProblemVariant `json:"added"`
	Run   pipeline.Snapshot       `json:"run"`
}

// CreateRun - POST /api/runs
// Accepts a multipart image in "image" or "file". The pipeline runs in the
// background unless wait=true, so clients poll GET /api/runs/{id}.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readImage(w, r)
	if !ok {
		return
	}
	if !in.IsImage() {
		h.sendPipelineError(w, pipeline.InvalidInputError("unsupported media type "+strconv.Quote(in.DetectedType())+": an image is required"))
		return
	}

	extractor, analyzer, err := h.newServices(r.FormValue("aiProvider"), r.FormValue("model"))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.registry.Create(func(id string) *pipeline.Pipeline {
		return pipeline.New(extractor, analyzer,
			pipeline.WithID(id),
			pipeline.WithLogger(h.logger.With().Str("run_id", id).Logger()),
		)
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrRegistryFull) {
			h.sendError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.startRun(w, r, run, in, http.StatusCreated)
}

// GetRun - GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookupRun(w, r)
	if !ok {
		return
	}
	h.sendJSON(w, http.StatusOK, run.Snapshot())
}

// RestartRun - POST /api/runs/{id}/image
// Replaces the source image and runs the pipeline again from the start.
func (h *Handler) RestartRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookupRun(w, r)
	if !ok {
		return
	}
	in, ok := h.readImage(w, r)
	if !ok {
		return
	}
	h.startRun(w, r, run, in, http.StatusOK)
}

// ClearRun - DELETE /api/runs/{id}/image
func (h *Handler) ClearRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookupRun(w, r)
	if !ok {
		return
	}
	if err := run.Start(r.Context(), nil); err != nil {
		h.sendPipelineError(w, err)
		return
	}
	h.releaseImage(run)
	h.sendJSON(w, http.StatusOK, run.Snapshot())
}

// GenerateMore - POST /api/runs/{id}/generate
func (h *Handler) GenerateMore(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookupRun(w, r)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mode == "" {
		req.Mode = models.ModeTwin
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	added, err := run.GenerateMore(ctx, req.Mode)
	if err != nil {
		h.sendPipelineError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, GenerateResponse{Added: added, Run: run.Snapshot()})
}

// RunExam - GET /api/runs/{id}/exam
// Renders the run's variants as a printable sheet; answers=true adds the key.
func (h *Handler) RunExam(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookupRun(w, r)
	if !ok {
		return
	}

	snap := run.Snapshot()
	if len(snap.Variants) == 0 {
		h.sendPipelineError(w, pipeline.PreconditionError("the run has no generated problems yet"))
		return
	}

	sheet := exam.Sheet{
		Date:        h.now(),
		Problems:    snap.Variants,
		ShowAnswers: queryBool(r, "answers"),
	}
	if snap.Classification != nil {
		sheet.Subject = snap.Classification.Subject
	}
	h.sendExam(w, sheet)
}

// DeleteRun - DELETE /api/runs/{id}
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, ok := h.registry.Delete(id)
	if !ok {
		h.sendError(w, http.StatusNotFound, "run not found")
		return
	}
	h.releaseImage(run)
	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      id,
	})
}

// startRun admits the image, stores it and runs the pipeline. Admission is
// synchronous: busy or invalid requests are refused before storage is
// touched, and the 202 snapshot already shows the new cycle.
// With wait=true the request blocks until the run settles.
func (h *Handler) startRun(w http.ResponseWriter, r *http.Request, run *pipeline.Run, in *models.ImageInput, waitStatus int) {
	if err := run.Begin(in); err != nil {
		h.sendPipelineError(w, err)
		return
	}
	h.storeImage(r.Context(), run, in)

	if formBool(r, "wait") {
		ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
		defer cancel()
		if err := run.Run(ctx); err != nil {
			h.sendJSON(w, statusForErrorType(pipeline.TypeOf(err)), map[string]interface{}{
				"error":     err.Error(),
				"errorType": pipeline.TypeOf(err),
				"run":       run.Snapshot(),
			})
			return
		}
		h.sendJSON(w, waitStatus, run.Snapshot())
		return
	}

	snap := run.Snapshot()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
		defer cancel()
		if err := run.Run(ctx); err != nil {
			h.logger.Warn().Err(err).Str("run_id", run.ID()).Msg("run failed")
		}
	}()
	h.sendJSON(w, http.StatusAccepted, snap)
}

// readImage parses the multipart upload; ok is false when a response was sent
func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) (*models.ImageInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data")
		return nil, false
	}

	// Accept both "image" and "file" field names
	file, header, err := r.FormFile("image")
	if err != nil {
		file, header, err = r.FormFile("file")
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "No file provided (use 'image' or 'file' field)")
			return nil, false
		}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return nil, false
	}
	if len(data) == 0 {
		h.sendError(w, http.StatusBadRequest, "Uploaded file is empty")
		return nil, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		// generic clients; let the bytes decide
		contentType = ""
	}
	return &models.ImageInput{
		Data:      data,
		MediaType: contentType,
		Filename:  header.Filename,
	}, true
}

// storeImage uploads the source image when object storage is configured.
// Failures are logged; the run goes on without a stored copy.
func (h *Handler) storeImage(ctx context.Context, run *pipeline.Run, in *models.ImageInput) {
	if !storage.Enabled() {
		return
	}

	oldKey, _ := run.Image()
	key, err := storage.UploadSourceImage(ctx, run.ID(), in.Data, in.DetectedType())
	if err != nil {
		h.logger.Warn().Err(err).Str("run_id", run.ID()).Msg("source image upload failed")
		return
	}
	url, err := storage.GetPresignedURL(ctx, key)
	if err != nil {
		h.logger.Warn().Err(err).Str("run_id", run.ID()).Msg("presign failed")
	}
	run.SetImage(key, url)

	if oldKey != "" && oldKey != key {
		if err := storage.DeleteImage(ctx, oldKey); err != nil {
			h.logger.Warn().Err(err).Str("key", oldKey).Msg("old source image not removed")
		}
	}
}

// releaseImage removes the stored image of a run, if any
func (h *Handler) releaseImage(run *pipeline.Run) {
	key, _ := run.Image()
	if key == "" {
		return
	}
	run.SetImage("", "")
	if err := storage.DeleteImage(context.Background(), key); err != nil {
		h.logger.Warn().Err(err).Str("key", key).Msg("source image not removed")
	}
}

func (h *Handler) lookupRun(w http.ResponseWriter, r *http.Request) (*pipeline.Run, bool) {
	run, ok := h.registry.Get(mux.Vars(r)["id"])
	if !ok {
		h.sendError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	return run, true
}

func (h *Handler) sendExam(w http.ResponseWriter, sheet exam.Sheet) {
	var buf bytes.Buffer
	if err := h.exam.Render(&buf, sheet); err != nil {
		if errors.Is(err, exam.ErrNoProblems) {
			h.sendError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("exam render failed")
		h.sendError(w, http.StatusInternalServerError, "failed to render exam")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// formBool also looks at multipart fields
func formBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.FormValue(name))
	return err == nil && v
}
