package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/twinsgen/twin-problem-service/internal/models"
	"github.com/twinsgen/twin-problem-service/internal/ocr"
)

// State of a pipeline run
type State string

const (
	StateIdle        State = "idle"
	StateExtracting  State = "extracting"
	StateClassifying State = "classifying"
	StateGenerating  State = "generating"
	StateReady       State = "ready"
	StateError       State = "error"
)

// Extractor recognizes the text of a problem image. ocr.Engine satisfies it.
type Extractor interface {
	ExtractText(ctx context.Context, in models.ImageInput, progress ocr.ProgressFunc) (string, error)
}

// Analyzer classifies text and generates variants. ai.Analyzer satisfies it.
type Analyzer interface {
	Classify(ctx context.Context, text string) (*models.Classification, error)
	Generate(ctx context.Context, req models.GenerateRequest) ([]models.ProblemVariant, error)
}

// EventKind distinguishes state transitions from progress updates
type EventKind string

const (
	EventState    EventKind = "state"
	EventProgress EventKind = "progress"
)

// Event is delivered to subscribers on every transition and progress change
type Event struct {
	RunID    string
	Kind     EventKind
	State    State
	Progress int
	Err      error
}

// Snapshot is a copy of the pipeline state, safe to hand out
type Snapshot struct {
	ID             string                  `json:"id"`
	State          State                   `json:"state"`
	Progress       int                     `json:"progress"`
	ExtractedText  string                  `json:"extractedText,omitempty"`
	Classification *models.Classification  `json:"classification,omitempty"`
	Variants       []models.ProblemVariant `json:"variants"`
	Error          string                  `json:"error,omitempty"`
	ErrorType      ErrorType               `json:"errorType,omitempty"`
	ImageURL       string                  `json:"imageUrl,omitempty"`
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger used for transitions
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithID sets the run id instead of a random one
func WithID(id string) Option {
	return func(p *Pipeline) { p.id = id }
}

type observer struct {
	id int
	fn func(Event)
}

// Pipeline drives one run: extraction, classification, initial generation and
// any number of GenerateMore calls. Only one operation runs at a time.
type Pipeline struct {
	id        string
	extractor Extractor
	analyzer  Analyzer
	logger    zerolog.Logger

	mu             sync.Mutex
	state          State
	busy           bool
	progress       int
	text           string
	classification *models.Classification
	variants       []models.ProblemVariant
	lastErr        error
	pending        *models.ImageInput
	observers      []observer
	nextObserver   int
}

// New creates an idle pipeline
func New(extractor Extractor, analyzer Analyzer, opts ...Option) *Pipeline {
	p := &Pipeline{
		id:        uuid.NewString(),
		extractor: extractor,
		analyzer:  analyzer,
		logger:    zerolog.Nop(),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("run_id", p.id).Logger()
	return p
}

// ID returns the run id
func (p *Pipeline) ID() string {
	return p.id
}

// Subscribe registers fn for events and returns a function that removes it.
// fn is called outside the pipeline lock and may call Snapshot.
func (p *Pipeline) Subscribe(fn func(Event)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextObserver
	p.nextObserver++
	p.observers = append(p.observers, observer{id: id, fn: fn})

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, o := range p.observers {
			if o.id == id {
				p.observers = append(p.observers[:i:i], p.observers[i+1:]...)
				return
			}
		}
	}
}

// Start runs a new cycle for the image. A nil or empty image clears the run.
func (p *Pipeline) Start(ctx context.Context, in *models.ImageInput) error {
	if in.Empty() {
		return p.Clear()
	}
	if err := p.Begin(in); err != nil {
		return err
	}
	return p.Run(ctx)
}

// Begin admits a new cycle: it validates the image, claims the pipeline and
// resets it to extracting. Run executes the admitted cycle.
func (p *Pipeline) Begin(in *models.ImageInput) error {
	if in.Empty() {
		return InvalidInputError("an image is required")
	}
	if !in.IsImage() {
		return InvalidInputError(fmt.Sprintf("unsupported media type %q: an image is required", in.DetectedType()))
	}
	image := *in

	if err := p.begin(StateExtracting, func() error {
		p.resetLocked()
		p.pending = &image
		return nil
	}); err != nil {
		return err
	}
	p.logger.Info().Str("filename", image.Filename).Int("bytes", len(image.Data)).Msg("run started")
	return nil
}

// Run extracts, classifies and generates the first twin for the cycle admitted
// by Begin. A panicking extractor or analyzer fails the run at its stage.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	p.mu.Lock()
	image := p.pending
	p.pending = nil
	p.mu.Unlock()
	if image == nil {
		return PreconditionError("no admitted image to run")
	}

	defer func() {
		if r := recover(); r != nil {
			err = p.fail(p.stageError(fmt.Errorf("panic: %v", r)))
		}
	}()

	text, err := p.extractor.ExtractText(ctx, *image, p.reportProgress)
	if err != nil {
		return p.fail(ExtractionError(err))
	}
	if text == "" {
		return p.fail(ExtractionError(ocr.ErrEmptyText))
	}
	p.transition(StateClassifying, func() { p.text = text })

	c, err := p.analyzer.Classify(ctx, text)
	if err != nil {
		return p.fail(ClassificationError(err))
	}
	if c == nil {
		return p.fail(ClassificationError(fmt.Errorf("no classification returned")))
	}
	classification := *c
	p.transition(StateGenerating, func() { p.classification = &classification })

	req := models.GenerateRequest{
		Classification: classification,
		OriginalText:   text,
		Count:          models.ModeTwin.Count(),
		Mode:           models.ModeTwin,
	}
	variants, err := p.generate(ctx, req)
	if err != nil {
		return p.fail(GenerationError(err))
	}

	p.finish(StateReady, func() { p.variants = variants })
	p.logger.Info().Str("subject", classification.Subject).Msg("run ready")
	return nil
}

// GenerateMore appends mode.Count() new variants to a ready run and returns them.
// On failure the accumulated variants are untouched and the run stays ready.
func (p *Pipeline) GenerateMore(ctx context.Context, mode models.Mode) (added []models.ProblemVariant, err error) {
	if !mode.Valid() {
		return nil, InvalidInputError(fmt.Sprintf("unknown mode %q: use twin or similar", mode))
	}

	var req models.GenerateRequest
	if err := p.begin(StateGenerating, func() error {
		if p.state != StateReady || p.classification == nil || p.text == "" {
			return PreconditionError(fmt.Sprintf("generate more requires a ready run, state is %s", p.state))
		}
		req = models.GenerateRequest{
			Classification: *p.classification,
			OriginalText:   p.text,
			Count:          mode.Count(),
			Mode:           mode,
		}
		return nil
	}); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			genErr := GenerationError(fmt.Errorf("panic: %v", r))
			p.finish(StateReady, func() { p.lastErr = genErr })
			p.logger.Error().Interface("panic", r).Str("mode", string(mode)).Msg("generate more panicked")
			added, err = nil, genErr
		}
	}()

	added, err = p.generate(ctx, req)
	if err != nil {
		genErr := GenerationError(err)
		p.finish(StateReady, func() { p.lastErr = genErr })
		p.logger.Warn().Err(err).Str("mode", string(mode)).Msg("generate more failed")
		return nil, genErr
	}

	p.finish(StateReady, func() {
		p.variants = append(p.variants, added...)
		p.lastErr = nil
	})
	return cloneVariants(added), nil
}

// Clear drops all accumulated state and returns the run to idle
func (p *Pipeline) Clear() error {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return BusyError()
	}
	p.resetLocked()
	p.state = StateIdle
	ev, obs := p.eventLocked(EventState)
	p.mu.Unlock()

	p.logger.Debug().Msg("run cleared")
	emit(obs, ev)
	return nil
}

// Snapshot returns a deep copy of the current state
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		ID:            p.id,
		State:         p.state,
		Progress:      p.progress,
		ExtractedText: p.text,
		Variants:      cloneVariants(p.variants),
	}
	if p.classification != nil {
		c := *p.classification
		s.Classification = &c
	}
	if p.lastErr != nil {
		s.Error = p.lastErr.Error()
		s.ErrorType = TypeOf(p.lastErr)
	}
	return s
}

// Busy reports whether an operation is in flight
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// generate calls the analyzer and enforces the all-or-nothing count
func (p *Pipeline) generate(ctx context.Context, req models.GenerateRequest) ([]models.ProblemVariant, error) {
	variants, err := p.analyzer.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(variants) != req.Count {
		return nil, fmt.Errorf("expected %d variants, got %d", req.Count, len(variants))
	}
	return cloneVariants(variants), nil
}

// reportProgress is handed to the extractor. Values are clamped to [0,100] and
// anything below the last reported value is dropped.
func (p *Pipeline) reportProgress(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	p.mu.Lock()
	if p.state != StateExtracting || percent <= p.progress {
		p.mu.Unlock()
		return
	}
	p.progress = percent
	ev, obs := p.eventLocked(EventProgress)
	p.mu.Unlock()

	emit(obs, ev)
}

// begin marks the pipeline busy and moves to next. prepare runs under the lock
// and can veto the operation.
func (p *Pipeline) begin(next State, prepare func() error) error {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return BusyError()
	}
	if err := prepare(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.busy = true
	p.state = next
	ev, obs := p.eventLocked(EventState)
	p.mu.Unlock()

	p.logger.Debug().Str("state", string(next)).Msg("transition")
	emit(obs, ev)
	return nil
}

func (p *Pipeline) transition(next State, apply func()) {
	p.mu.Lock()
	apply()
	p.state = next
	ev, obs := p.eventLocked(EventState)
	p.mu.Unlock()

	p.logger.Debug().Str("state", string(next)).Msg("transition")
	emit(obs, ev)
}

// finish ends the in-flight operation
func (p *Pipeline) finish(next State, apply func()) {
	p.mu.Lock()
	apply()
	p.busy = false
	p.state = next
	ev, obs := p.eventLocked(EventState)
	p.mu.Unlock()

	p.logger.Debug().Str("state", string(next)).Msg("transition")
	emit(obs, ev)
}

func (p *Pipeline) fail(err *Error) error {
	p.logger.Warn().Err(err.Err).Str("stage", string(err.Type)).Msg("run failed")
	p.finish(StateError, func() { p.lastErr = err })
	return err
}

// stageError wraps err in the error type of the stage the run is in
func (p *Pipeline) stageError(err error) *Error {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	switch state {
	case StateClassifying:
		return ClassificationError(err)
	case StateGenerating:
		return GenerationError(err)
	default:
		return ExtractionError(err)
	}
}

func (p *Pipeline) resetLocked() {
	p.progress = 0
	p.text = ""
	p.classification = nil
	p.variants = nil
	p.lastErr = nil
}

func (p *Pipeline) eventLocked(kind EventKind) (Event, []observer) {
	ev := Event{
		RunID:    p.id,
		Kind:     kind,
		State:    p.state,
		Progress: p.progress,
		Err:      p.lastErr,
	}
	return ev, append([]observer(nil), p.observers...)
}

func emit(observers []observer, ev Event) {
	for _, o := range observers {
		o.fn(ev)
	}
}

func cloneVariants(in []models.ProblemVariant) []models.ProblemVariant {
	out := make([]models.ProblemVariant, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}
