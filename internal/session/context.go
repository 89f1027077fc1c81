package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vivalab/interview-agent/internal/models"
)

// Context owns the mutable state of one interview session: the loaded
// question set, the candidate's answers, the provider token, and the
// evaluation re-entrancy guard. It replaces what used to be global state;
// the top-level controller creates one per session and passes it down.
type Context struct {
	ID        string
	Track     string
	User      string
	Token     string
	CreatedAt time.Time

	mu         sync.Mutex
	questions  []models.Question
	answers    map[int]string
	status     string
	evaluating bool
}

func New(track string, questions []models.Question, token string) *Context {
	return &Context{
		ID:        uuid.NewString(),
		Track:     track,
		Token:     token,
		CreatedAt: time.Now(),
		questions: questions,
		answers:   make(map[int]string),
		status:    "ready",
	}
}

func (c *Context) Questions() []models.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// SetAnswer records or overwrites the transcript for one question. Answers
// stay mutable until an evaluation snapshot is taken.
func (c *Context) SetAnswer(questionID int, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasQuestion(questionID) {
		return fmt.Errorf("unknown question id %d", questionID)
	}
	c.answers[questionID] = text
	return nil
}

// Snapshot copies the current answers into an immutable answer set. Edits
// made after the snapshot do not affect an in-flight evaluation. Questions
// with no recorded answer carry the sentinel.
func (c *Context) Snapshot() models.AnswerSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := make(models.AnswerSet, 0, len(c.questions))
	for _, q := range c.questions {
		text, ok := c.answers[q.ID]
		if !ok || text == "" {
			text = models.NoAnswer
		}
		set = append(set, models.QA{
			Question: q,
			Answer:   models.Answer{QuestionID: q.ID, Text: text},
		})
	}
	return set
}

// BeginEvaluation claims the single evaluation slot. A second trigger while
// one run is in flight is a no-op for the caller: there is no queue.
func (c *Context) BeginEvaluation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.evaluating {
		return false
	}
	c.evaluating = true
	c.status = "evaluating"
	return true
}

func (c *Context) EndEvaluation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evaluating = false
	c.status = "ready"
}

// SetStatus records a user-visible status string, e.g. a permission denial
// reported by the capture client.
func (c *Context) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *Context) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Context) hasQuestion(id int) bool {
	for _, q := range c.questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// Store is an in-memory registry of live sessions, keyed by id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Context
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Context)}
}

func (s *Store) Put(ctx *Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[ctx.ID] = ctx
}

func (s *Store) Get(id string) (*Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctx, ok := s.sessions[id]
	return ctx, ok
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
