package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/twinsgen/twin-problem-service/internal/ai"
	"github.com/twinsgen/twin-problem-service/internal/auth"
	"github.com/twinsgen/twin-problem-service/internal/db"
	"github.com/twinsgen/twin-problem-service/internal/exam"
	"github.com/twinsgen/twin-problem-service/internal/models"
	"github.com/twinsgen/twin-problem-service/internal/ocr"
	"github.com/twinsgen/twin-problem-service/internal/pipeline"
	"github.com/twinsgen/twin-problem-service/internal/storage"
	"github.com/twinsgen/twin-problem-service/internal/store"
)

const (
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
	Version       = "1.0.0"

	defaultRunTimeout = 180 * time.Second
)

// ServiceFactory builds the OCR engine and analyzer of a new run.
// Empty names fall back to the configured provider and model.
type ServiceFactory func(providerName, modelName string) (pipeline.Extractor, pipeline.Analyzer, error)

// Handler handles HTTP requests for problem runs and the problem bank
type Handler struct {
	config   *models.Config
	registry *pipeline.Registry
	problems *store.ProblemStore
	exam     *exam.Renderer
	logger   zerolog.Logger

	newServices ServiceFactory
	runTimeout  time.Duration
	now         func() time.Time
}

// HandlerOption customizes a Handler
type HandlerOption func(*Handler)

// WithServiceFactory replaces the provider-backed engine and analyzer
func WithServiceFactory(f ServiceFactory) HandlerOption {
	return func(h *Handler) { h.newServices = f }
}

// WithLogger sets the handler logger
func WithLogger(logger zerolog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, problems *store.ProblemStore, opts ...HandlerOption) (*Handler, error) {
	renderer, err := exam.NewRenderer(config.Exam)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		config:     config,
		problems:   problems,
		exam:       renderer,
		logger:     zerolog.Nop(),
		runTimeout: defaultRunTimeout,
		now:        time.Now,
	}
	if config.Pipeline.RunTimeoutSeconds > 0 {
		h.runTimeout = time.Duration(config.Pipeline.RunTimeoutSeconds) * time.Second
	}
	h.newServices = h.buildServices
	for _, opt := range opts {
		opt(h)
	}
	h.registry = pipeline.NewRegistry(config.Pipeline.MaxRuns, h.releaseImage)
	return h, nil
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/login", auth.LoginHandler).Methods("POST")

	// Generation runs
	router.HandleFunc("/api/runs", h.CreateRun).Methods("POST")
	router.HandleFunc("/api/runs/{id}", h.GetRun).Methods("GET")
	router.HandleFunc("/api/runs/{id}", h.DeleteRun).Methods("DELETE")
	router.HandleFunc("/api/runs/{id}/image", h.RestartRun).Methods("POST")
	router.HandleFunc("/api/runs/{id}/image", h.ClearRun).Methods("DELETE")
	router.HandleFunc("/api/runs/{id}/generate", h.GenerateMore).Methods("POST")
	router.HandleFunc("/api/runs/{id}/exam", h.RunExam).Methods("GET")

	// Problem bank; fixed paths before {id}
	router.HandleFunc("/api/problems", h.SaveProblem).Methods("POST")
	router.HandleFunc("/api/problems", h.ListProblems).Methods("GET")
	router.HandleFunc("/api/problems/subjects", h.ListSubjects).Methods("GET")
	router.HandleFunc("/api/problems/exam", h.BankExam).Methods("GET")
	router.HandleFunc("/api/problems/{id}", h.GetProblem).Methods("GET")
	router.HandleFunc("/api/problems/{id}", h.DeleteProblem).Methods("DELETE")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Timestamp   string            `json:"timestamp"`
	Uptime      string            `json:"uptime"`
	Memory      MemoryStats       `json:"memory"`
	Tesseract   ServiceStatus     `json:"tesseract"`
	ImageMagick ServiceStatus     `json:"imageMagick"`
	Store       ServiceStatus     `json:"store"`
	Database    ServiceStatus     `json:"database"`
	Storage     ServiceStatus     `json:"storage"`
	Runs        int               `json:"runs"`
	AI          map[string]string `json:"ai"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health reports dependency status. It answers 503 when the configured OCR
// engine or the problem bank cannot work.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	tesseractStatus := checkTool("tesseract", "--version")
	imageMagickStatus := checkImageMagick()
	storeStatus := h.checkStore(ctx)

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: h.now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Tesseract:   tesseractStatus,
		ImageMagick: imageMagickStatus,
		Store:       storeStatus,
		Database:    checkDatabase(ctx),
		Storage:     checkStorage(ctx),
		Runs:        h.registry.Len(),
		AI: map[string]string{
			"defaultProvider": h.config.AI.DefaultProvider,
			"ocrEngine":       h.config.OCR.Engine,
		},
	}

	usesTesseract := h.config.OCR.Engine == "" || h.config.OCR.Engine == "tesseract"
	if (usesTesseract && !tesseractStatus.Available) || !storeStatus.Available {
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// checkTool runs a version command and reports its first output line
func checkTool(name string, args ...string) ServiceStatus {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return ServiceStatus{
			Available: false,
			Error:     name + " not found or not executable",
		}
	}

	version := "unknown"
	if line, _, _ := strings.Cut(string(output), "\n"); strings.TrimSpace(line) != "" {
		version = strings.TrimSpace(line)
	}
	return ServiceStatus{Available: true, Version: version}
}

func checkImageMagick() ServiceStatus {
	if !ocr.ImageMagickAvailable() {
		return ServiceStatus{Available: false, Error: "imagemagick not found or not executable"}
	}
	if status := checkTool("magick", "-version"); status.Available {
		return status
	}
	return checkTool("convert", "-version")
}

func (h *Handler) checkStore(ctx context.Context) ServiceStatus {
	if err := h.problems.Ping(ctx); err != nil {
		return ServiceStatus{Available: false, Error: err.Error()}
	}
	return ServiceStatus{Available: true, Version: h.config.Store.Backend}
}

// checkDatabase verifies the PostgreSQL connection when one is configured
func checkDatabase(ctx context.Context) ServiceStatus {
	if err := db.Ping(ctx); err != nil {
		return ServiceStatus{Available: false, Error: err.Error()}
	}
	return ServiceStatus{Available: true, Version: "PostgreSQL"}
}

// checkStorage verifies the MinIO connection when one is configured
func checkStorage(ctx context.Context) ServiceStatus {
	if err := storage.Ping(ctx); err != nil {
		return ServiceStatus{Available: false, Error: err.Error()}
	}
	return ServiceStatus{Available: true, Version: "MinIO S3"}
}

// buildServices wires the configured provider into an OCR engine and analyzer
func (h *Handler) buildServices(providerName, modelName string) (pipeline.Extractor, pipeline.Analyzer, error) {
	provider, err := ai.NewProvider(h.config.AI, providerName, modelName)
	if err != nil {
		return nil, nil, err
	}
	engine, err := ocr.NewEngine(h.config.OCR, provider, h.logger)
	if err != nil {
		return nil, nil, err
	}
	return engine, ai.NewAnalyzer(provider, h.logger), nil
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// sendPipelineError maps a pipeline failure to a status code
func (h *Handler) sendPipelineError(w http.ResponseWriter, err error) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForErrorType(perr.Type))
	json.NewEncoder(w).Encode(map[string]string{
		"error":     perr.Error(),
		"errorType": string(perr.Type),
	})
}

func statusForErrorType(t pipeline.ErrorType) int {
	switch t {
	case pipeline.ErrorTypeInvalidInput:
		return http.StatusBadRequest
	case pipeline.ErrorTypePrecondition, pipeline.ErrorTypeBusy:
		return http.StatusConflict
	case pipeline.ErrorTypeExtraction, pipeline.ErrorTypeClassification, pipeline.ErrorTypeGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) sendJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
