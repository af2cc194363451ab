package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/twinsgen/twin-problem-service/internal/models"
	"github.com/twinsgen/twin-problem-service/internal/services"
)

// DefaultKey is the collection key of the problem bank
const DefaultKey = "twins_question_bank"

var (
	ErrProblemNotFound = errors.New("problem not found")
	ErrInvalidProblem  = errors.New("invalid problem")
)

// SaveRequest is a variant plus the classification of the run it came from
type SaveRequest struct {
	Variant        models.ProblemVariant  `json:"variant"`
	Classification *models.Classification `json:"classification,omitempty"`
}

// ProblemStore keeps saved problems, most recent first, as one JSON array under
// a single key. Every operation reads the whole collection.
type ProblemStore struct {
	kv        KV
	key       string
	validator *services.VariantValidator

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// New creates a problem store over kv. An empty key uses DefaultKey.
func New(kv KV, key string) *ProblemStore {
	if key == "" {
		key = DefaultKey
	}
	return &ProblemStore{
		kv:        kv,
		key:       key,
		validator: services.NewVariantValidator(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Save assigns an id and timestamp and prepends the problem
func (s *ProblemStore) Save(ctx context.Context, req SaveRequest) (*models.SavedProblem, error) {
	if result := s.validator.ValidateVariant(&req.Variant); !result.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProblem, result.Err())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	problems, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	saved := models.SavedProblem{
		ProblemVariant: req.Variant.Clone(),
		ID:             s.uniqueID(problems),
		CreatedAt:      s.now().UTC(),
	}
	if c := req.Classification; c != nil {
		analysis := *c
		saved.Analysis = &analysis
		saved.OriginalSubject = c.Subject
		saved.OriginalTopic = c.Topic
		saved.Difficulty = c.Difficulty
	}

	problems = append([]models.SavedProblem{saved}, problems...)
	if err := s.persist(ctx, problems); err != nil {
		return nil, err
	}
	return &saved, nil
}

// List returns all saved problems, most recent first
func (s *ProblemStore) List(ctx context.Context) ([]models.SavedProblem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns one problem by id
func (s *ProblemStore) Get(ctx context.Context, id string) (*models.SavedProblem, error) {
	problems, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range problems {
		if problems[i].ID == id {
			return &problems[i], nil
		}
	}
	return nil, ErrProblemNotFound
}

// Delete removes the problem with id; deleting an unknown id is not an error
func (s *ProblemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	problems, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := problems[:0]
	for _, p := range problems {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(problems) {
		return nil
	}
	return s.persist(ctx, kept)
}

// Search matches query case-insensitively against question, topic and subTopic.
// An empty query returns everything.
func (s *ProblemStore) Search(ctx context.Context, query string) ([]models.SavedProblem, error) {
	problems, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return problems, nil
	}

	matches := []models.SavedProblem{}
	for _, p := range problems {
		if matchesQuery(&p, q) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func matchesQuery(p *models.SavedProblem, q string) bool {
	fields := []string{p.Question, p.OriginalTopic}
	if p.Analysis != nil {
		fields = append(fields, p.Analysis.Topic, p.Analysis.SubTopic)
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Subjects returns the distinct non-empty subjects in first-seen order
func (s *ProblemStore) Subjects(ctx context.Context) ([]string, error) {
	problems, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	subjects := []string{}
	for i := range problems {
		subject := problems[i].Subject()
		if subject == "" || seen[subject] {
			continue
		}
		seen[subject] = true
		subjects = append(subjects, subject)
	}
	return subjects, nil
}

// FilterBySubject returns the problems of one subject; "" or "all" returns everything
func FilterBySubject(problems []models.SavedProblem, subject string) []models.SavedProblem {
	if subject == "" || subject == "all" {
		return problems
	}
	out := []models.SavedProblem{}
	for i := range problems {
		if problems[i].Subject() == subject {
			out = append(out, problems[i])
		}
	}
	return out
}

func (s *ProblemStore) uniqueID(existing []models.SavedProblem) string {
	for {
		id := s.newID()
		taken := false
		for i := range existing {
			if existing[i].ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
}

func (s *ProblemStore) load(ctx context.Context) ([]models.SavedProblem, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return []models.SavedProblem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load problem bank: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []models.SavedProblem{}, nil
	}

	var problems []models.SavedProblem
	if err := json.Unmarshal(data, &problems); err != nil {
		return nil, fmt.Errorf("problem bank is corrupt: %w", err)
	}
	if problems == nil {
		problems = []models.SavedProblem{}
	}
	return problems, nil
}

func (s *ProblemStore) persist(ctx context.Context, problems []models.SavedProblem) error {
	data, err := json.Marshal(problems)
	if err != nil {
		return fmt.Errorf("failed to encode problem bank: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to save problem bank: %w", err)
	}
	return nil
}

// Ping checks the backend when it supports it
func (s *ProblemStore) Ping(ctx context.Context) error {
	if p, ok := s.kv.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the backend when it holds connections
func (s *ProblemStore) Close() error {
	if c, ok := s.kv.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
