package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinsgen/twin-problem-service/internal/config"
	"github.com/twinsgen/twin-problem-service/internal/models"
	"github.com/twinsgen/twin-problem-service/internal/ocr"
	"github.com/twinsgen/twin-problem-service/internal/pipeline"
	"github.com/twinsgen/twin-problem-service/internal/store"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) ExtractText(ctx context.Context, in models.ImageInput, progress ocr.ProgressFunc) (string, error) {
	if progress != nil {
		progress(50)
		progress(100)
	}
	return s.text, s.err
}

type stubAnalyzer struct {
	generateErr error
}

func (stubAnalyzer) Classify(ctx context.Context, text string) (*models.Classification, error) {
	return &models.Classification{
		Subject:    "수학",
		Grade:      "중1",
		Topic:      "일차방정식",
		SubTopic:   "이항",
		Type:       "계산",
		Difficulty: models.DifficultyLow,
	}, nil
}

func (s stubAnalyzer) Generate(ctx context.Context, req models.GenerateRequest) ([]models.ProblemVariant, error) {
	if s.generateErr != nil {
		return nil, s.generateErr
	}
	out := make([]models.ProblemVariant, req.Count)
	for i := range out {
		out[i] = models.ProblemVariant{
			Question:    fmt.Sprintf("%s 문제 %d: 3x + 1 = 10", req.Mode, i+1),
			Choices:     []string{"1", "2", "3", "4", "5"},
			Answer:      3,
			Explanation: "3x = 9 이므로 x = 3",
		}
	}
	return out, nil
}

// gatedExtractor blocks extraction while held
type gatedExtractor struct {
	stubExtractor
	mu   sync.Mutex
	gate chan struct{}
}

func (g *gatedExtractor) hold(t *testing.T) (release func()) {
	g.mu.Lock()
	gate := make(chan struct{})
	g.gate = gate
	g.mu.Unlock()

	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)
	return release
}

func (g *gatedExtractor) ExtractText(ctx context.Context, in models.ImageInput, progress ocr.ProgressFunc) (string, error) {
	g.mu.Lock()
	gate := g.gate
	g.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.stubExtractor.ExtractText(ctx, in, progress)
}

type testEnv struct {
	handler *Handler
	router  http.Handler
}

func newTestEnv(t *testing.T, extractor pipeline.Extractor, analyzer pipeline.Analyzer) *testEnv {
	t.Helper()
	cfg := config.Defaults()
	cfg.OCR.Engine = "vision"

	h, err := NewHandler(&cfg, store.New(store.NewMemoryKV(), ""),
		WithServiceFactory(func(providerName, modelName string) (pipeline.Extractor, pipeline.Analyzer, error) {
			if providerName == "nope" {
				return nil, nil, errors.New("unsupported AI provider: nope")
			}
			return extractor, analyzer, nil
		}),
	)
	require.NoError(t, err)
	h.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return &testEnv{handler: h, router: h.SetupRoutes()}
}

func newDefaultEnv(t *testing.T) *testEnv {
	return newTestEnv(t, stubExtractor{text: "2x + 3 = 7"}, stubAnalyzer{})
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, path, field, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="problem"`, field))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, v any) *http.Request {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// createReadyRun uploads an image and waits for the pipeline to settle
func (e *testEnv) createReadyRun(t *testing.T) pipeline.Snapshot {
	t.Helper()
	rec := e.do(t, uploadRequest(t, "/api/runs?wait=true", "image", "image/png", pngHeader))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snap := decode[pipeline.Snapshot](t, rec)
	require.Equal(t, pipeline.StateReady, snap.State)
	return snap
}

func TestCreateRunWait(t *testing.T) {
	env := newDefaultEnv(t)
	snap := env.createReadyRun(t)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 100, snap.Progress)
	assert.Equal(t, "2x + 3 = 7", snap.ExtractedText)
	require.NotNil(t, snap.Classification)
	assert.Equal(t, "수학", snap.Classification.Subject)
	require.Len(t, snap.Variants, 1)
	assert.Equal(t, 3, snap.Variants[0].Answer)
}

func TestCreateRunAcceptsFileField(t *testing.T) {
	env := newDefaultEnv(t)
	rec := env.do(t, uploadRequest(t, "/api/runs?wait=true", "file", "application/octet-stream", pngHeader))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreateRunBackground(t *testing.T) {
	env := newDefaultEnv(t)
	rec := env.do(t, uploadRequest(t, "/api/runs", "image", "image/png", pngHeader))
	require.Equal(t, http.StatusAccepted, rec.Code)
	accepted := decode[pipeline.Snapshot](t, rec)
	assert.Equal(t, pipeline.StateExtracting, accepted.State)
	assert.Zero(t, accepted.Progress)
	id := accepted.ID

	require.Eventually(t, func() bool {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/runs/"+id, nil))
		return rec.Code == http.StatusOK && decode[pipeline.Snapshot](t, rec).State == pipeline.StateReady
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCreateRunRejectsNonImage(t *testing.T) {
	env := newDefaultEnv(t)
	rec := env.do(t, uploadRequest(t, "/api/runs", "image", "text/plain", []byte("2x + 3 = 7")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, string(pipeline.ErrorTypeInvalidInput), body["errorType"])
	assert.Equal(t, 0, env.handler.registry.Len())
}

func TestCreateRunRequiresFile(t *testing.T) {
	env := newDefaultEnv(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("model", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/runs", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No file provided")
}

func TestCreateRunUnknownProvider(t *testing.T) {
	env := newDefaultEnv(t)
	rec := env.do(t, uploadRequest(t, "/api/runs?aiProvider=nope", "image", "image/png", pngHeader))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.handler.registry.Len())
}

func TestCreateRunExtractionFailure(t *testing.T) {
	env := newTestEnv(t, stubExtractor{err: errors.New("tesseract failed")}, stubAnalyzer{})
	rec := env.do(t, uploadRequest(t, "/api/runs?wait=true", "image", "image/png", pngHeader))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body struct {
		ErrorType pipeline.ErrorType `json:"errorType"`
		Run       pipeline.Snapshot  `json:"run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, pipeline.ErrorTypeExtraction, body.ErrorType)
	assert.Equal(t, pipeline.StateError, body.Run.State)

	// a failed run cannot generate more
	rec = env.do(t, jsonRequest(t, http.MethodPost, "/api/runs/"+body.Run.ID+"/generate", GenerateRequest{Mode: models.ModeTwin}))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetRunNotFound(t *testing.T) {
	env := newDefaultEnv(t)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateMore(t *testing.T) {
	env := newDefaultEnv(t)
	snap := env.createReadyRun(t)

	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/runs/"+snap.ID+"/generate", GenerateRequest{Mode: models.ModeSimilar}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[GenerateResponse](t, rec)
	assert.Len(t, resp.Added, 2)
	assert.Len(t, resp.Run.Variants, 3)
	assert.Equal(t, pipeline.StateReady, resp.Run.State)

	// empty body means twin
	req := httptest.NewRequest(http.MethodPost, "/api/runs/"+snap.ID+"/generate", nil)
	rec = env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[GenerateResponse](t, rec).Run.Variants, 4)

	rec = env.do(t, jsonRequest(t, http.MethodPost, "/api/runs/"+snap.ID+"/generate", GenerateRequest{Mode: "random"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateMoreFailureKeepsVariants(t *testing.T) {
	analyzer := &toggleAnalyzer{}
	env := newTestEnv(t, stubExtractor{text: "2x + 3 = 7"}, analyzer)
	snap := env.createReadyRun(t)

	analyzer.fail = true
	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/runs/"+snap.ID+"/generate", GenerateRequest{Mode: models.ModeTwin}))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/runs/"+snap.ID, nil))
	after := decode[pipeline.Snapshot](t, rec)
	assert.Equal(t, pipeline.StateReady, after.State)
	assert.Len(t, after.Variants, 1)
}

type toggleAnalyzer struct {
	stubAnalyzer
	fail bool
}

func (a *toggleAnalyzer) Generate(ctx context.Context, req models.GenerateRequest) ([]models.ProblemVariant, error) {
	if a.fail {
		return nil, errors.New("model unavailable")
	}
	return a.stubAnalyzer.Generate(ctx, req)
}

func TestRestartAndClearRun(t *testing.T) {
	env := newDefaultEnv(t)
	snap := env.createReadyRun(t)

	rec := env.do(t, uploadRequest(t, "/api/runs/"+snap.ID+"/image?wait=true", "image", "image/png", pngHeader))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	restarted := decode[pipeline.Snapshot](t, rec)
	assert.Equal(t, snap.ID, restarted.ID)
	assert.Len(t, restarted.Variants, 1)

	rec = env.do(t, uploadRequest(t, "/api/runs/"+snap.ID+"/image", "image", "text/plain", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/runs/"+snap.ID+"/image", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := decode[pipeline.Snapshot](t, rec)
	assert.Equal(t, pipeline.StateIdle, cleared.State)
	assert.Empty(t, cleared.Variants)
	assert.Nil(t, cleared.Classification)
	assert.Zero(t, cleared.Progress)
}

func TestRestartRunBackground(t *testing.T) {
	ex := &gatedExtractor{stubExtractor: stubExtractor{text: "2x + 3 = 7"}}
	env := newTestEnv(t, ex, stubAnalyzer{})
	snap := env.createReadyRun(t)

	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/runs/"+snap.ID+"/generate", GenerateRequest{Mode: models.ModeSimilar}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, decode[GenerateResponse](t, rec).Run.Variants, 3)

	release := ex.hold(t)
	rec = env.do(t, uploadRequest(t, "/api/runs/"+snap.ID+"/image", "image", "image/png", pngHeader))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	accepted := decode[pipeline.Snapshot](t, rec)
	assert.Equal(t, pipeline.StateExtracting, accepted.State)
	assert.Empty(t, accepted.Variants)
	assert.Nil(t, accepted.Classification)
	assert.Empty(t, accepted.ExtractedText)

	rec = env.do(t, uploadRequest(t, "/api/runs/"+snap.ID+"/image", "image", "image/png", pngHeader))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pipeline.ErrorTypeBusy), decode[map[string]string](t, rec)["errorType"])

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/runs/"+snap.ID+"/image", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	release()
	require.Eventually(t, func() bool {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/runs/"+snap.ID, nil))
		s := decode[pipeline.Snapshot](t, rec)
		return s.State == pipeline.StateReady && len(s.Variants) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunExam(t *testing.T) {
	env := newDefaultEnv(t)
	snap := env.createReadyRun(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/runs/"+snap.ID+"/exam", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "수학 유사 문제")
	assert.Contains(t, rec.Body.String(), "2026년 3월 1일")
	assert.NotContains(t, rec.Body.String(), "정답: ③")

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/runs/"+snap.ID+"/exam?answers=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "정답: ③ 3번")
}

func TestRunExamWithoutProblems(t *testing.T) {
	env := newDefaultEnv(t)
	snap := env.createReadyRun(t)
	env.do(t, httptest.NewRequest(http.MethodDelete, "/api/runs/"+snap.ID+"/image", nil))

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/runs/"+snap.ID+"/exam", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteRun(t *testing.T) {
	env := newDefaultEnv(t)
	snap := env.createReadyRun(t)

	rec := env.do(t, httptest.NewRequest(http.MethodDelete, "/api/runs/"+snap.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/runs/"+snap.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/runs/"+snap.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProblemBankLifecycle(t *testing.T) {
	env := newDefaultEnv(t)
	snap := env.createReadyRun(t)

	zero := 0
	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/problems", SaveProblemRequest{RunID: snap.ID, Index: &zero}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[models.SavedProblem](t, rec)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "수학", saved.OriginalSubject)
	assert.Equal(t, "일차방정식", saved.OriginalTopic)
	assert.Equal(t, models.DifficultyLow, saved.Difficulty)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/problems/"+saved.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, saved.Question, decode[models.SavedProblem](t, rec).Question)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/problems/subjects", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"수학"}, decode[map[string][]string](t, rec)["subjects"])

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/problems/"+saved.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/problems/"+saved.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// deleting twice is harmless
	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/problems/"+saved.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSaveProblemErrors(t *testing.T) {
	env := newDefaultEnv(t)
	snap := env.createReadyRun(t)
	five := 5

	tests := []struct {
		name   string
		body   SaveProblemRequest
		status int
	}{
		{"nothing to save", SaveProblemRequest{}, http.StatusBadRequest},
		{"unknown run", SaveProblemRequest{RunID: "missing"}, http.StatusNotFound},
		{"index out of range", SaveProblemRequest{RunID: snap.ID, Index: &five}, http.StatusBadRequest},
		{"invalid variant", SaveProblemRequest{Variant: &models.ProblemVariant{
			Question: "q", Choices: []string{"1", "2", "3"}, Answer: 1,
		}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/problems", tt.body))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func saveExplicit(t *testing.T, env *testEnv, subject, topic, question string) models.SavedProblem {
	t.Helper()
	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/problems", SaveProblemRequest{
		Variant: &models.ProblemVariant{
			Question: question,
			Choices:  []string{"1", "2", "3", "4", "5"},
			Answer:   2,
		},
		Classification: &models.Classification{Subject: subject, Topic: topic},
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.SavedProblem](t, rec)
}

func TestListProblemsFilters(t *testing.T) {
	env := newDefaultEnv(t)
	saveExplicit(t, env, "수학", "일차방정식", "x + 1 = 3 일 때 x는?")
	saveExplicit(t, env, "과학", "힘과 운동", "가속도의 단위는?")
	saveExplicit(t, env, "수학", "도형", "삼각형 내각의 합은?")

	type listResponse struct {
		Problems []models.SavedProblem `json:"problems"`
		Total    int                   `json:"total"`
	}

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/problems", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[listResponse](t, rec)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, "삼각형 내각의 합은?", all.Problems[0].Question, "most recent first")

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/problems?subject=%EC%88%98%ED%95%99", nil))
	assert.Equal(t, 2, decode[listResponse](t, rec).Total)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/problems?q=%ED%9E%98", nil))
	found := decode[listResponse](t, rec)
	require.Equal(t, 1, found.Total)
	assert.Equal(t, "과학", found.Problems[0].OriginalSubject)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/problems?limit=2&page=2", nil))
	paged := decode[listResponse](t, rec)
	assert.Equal(t, 3, paged.Total)
	assert.Len(t, paged.Problems, 1)
}

func TestBankExam(t *testing.T) {
	env := newDefaultEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/problems/exam", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	first := saveExplicit(t, env, "과학", "힘과 운동", "가속도의 단위는?")
	saveExplicit(t, env, "과학", "전기", "전류의 단위는?")

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/problems/exam?answers=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "과학 유사 문제")
	assert.Contains(t, body, "총 2문항 중 2문항")
	assert.Contains(t, body, "정답: ② 2번")

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/problems/exam?ids="+first.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "총 1문항 중 1문항")
	assert.True(t, strings.Contains(rec.Body.String(), "가속도의 단위는?"))
}

func TestHealth(t *testing.T) {
	env := newDefaultEnv(t)
	env.createReadyRun(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.True(t, resp.Store.Available)
	assert.False(t, resp.Storage.Available)
	assert.Equal(t, 1, resp.Runs)
	assert.Equal(t, "vision", resp.AI["ocrEngine"])
}

func TestStatusForErrorType(t *testing.T) {
	tests := map[pipeline.ErrorType]int{
		pipeline.ErrorTypeInvalidInput:   http.StatusBadRequest,
		pipeline.ErrorTypePrecondition:   http.StatusConflict,
		pipeline.ErrorTypeBusy:           http.StatusConflict,
		pipeline.ErrorTypeExtraction:     http.StatusBadGateway,
		pipeline.ErrorTypeClassification: http.StatusBadGateway,
		pipeline.ErrorTypeGeneration:     http.StatusBadGateway,
		"":                               http.StatusInternalServerError,
	}
	for errType, want := range tests {
		assert.Equal(t, want, statusForErrorType(errType), errType)
	}
}
