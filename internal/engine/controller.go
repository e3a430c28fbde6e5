package engine

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"snapquiz-service/internal/domain"
)

// State is the explicit lifecycle of a quiz session. Completion is owned here
// as a canonical value rather than recomputed from answer counts, which is
// what makes the exactly-once persistence guard tractable.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateActive     State = "active"
	StateComplete   State = "complete"
	StateRetaking   State = "retaking"
)

const (
	// DefaultQuestionCount is used when a generation request carries no count.
	DefaultQuestionCount = 5
	// MaxQuestionCount caps a single generation request.
	MaxQuestionCount = 40
	// minRetakeLimitMinutes floors the derived time limit when retaking from history.
	minRetakeLimitMinutes = 10

	saveTimeout = 5 * time.Second
)

// GenerateRequest is the engine-side request to the generation service.
type GenerateRequest struct {
	Document         string `json:"document"`
	Title            string `json:"title"`
	QuestionCount    int    `json:"questionCount"`
	TimeLimitMinutes int    `json:"timeLimitMinutes"`
}

// GenerateResult is the generation service response. The service may override
// the requested time limit.
type GenerateResult struct {
	Questions        domain.QuestionSet `json:"mcqs"`
	TimeLimitMinutes int                `json:"timeLimitMinutes,omitempty"`
}

// Generator produces a question set for a document. Implementations call the
// external generation service; a nil Generator is treated as unavailable.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}

// HistoryGateway persists and retrieves session result records. Save must be
// idempotent per record ID.
type HistoryGateway interface {
	Save(ctx context.Context, rec domain.HistoryRecord) (string, error)
	ListForUser(ctx context.Context, userID string) ([]domain.HistoryRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
}

// Config tunes one controller instance. The zero value is usable: anonymous
// user, synthesize on generation failure, no background clock.
type Config struct {
	UserID   string
	Username string
	// FailOnGenerationError surfaces generation failures to the caller instead
	// of synthesizing placeholder questions.
	FailOnGenerationError bool
	// TickInterval drives the background countdown. Zero disables the wall
	// clock; tests and embedders then call Tick themselves.
	TickInterval time.Duration
	// DefaultQuestionCount applies to generation requests that carry no
	// count. Zero keeps the built-in default.
	DefaultQuestionCount int
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Snapshot is a read-only view of the controller state, pushed to subscribers
// after every mutation.
type Snapshot struct {
	State            State              `json:"state"`
	SessionID        string             `json:"sessionId,omitempty"`
	Title            string             `json:"title,omitempty"`
	Questions        domain.QuestionSet `json:"questions,omitempty"`
	Current          int                `json:"current"`
	Answers          map[int]string     `json:"answers,omitempty"`
	Revealed         []int              `json:"revealed,omitempty"`
	AnsweredCount    int                `json:"answeredCount"`
	RemainingMinutes int                `json:"remainingMinutes"`
	RemainingSeconds int                `json:"remainingSeconds"`
	Unlimited        bool               `json:"unlimited"`
	Score            domain.Score       `json:"score"`
	TimeTakenSeconds int                `json:"timeTakenSeconds"`
	// Error carries the last generation failure when the controller is
	// configured to surface errors instead of synthesizing questions.
	Error string `json:"error,omitempty"`
}

// Controller owns the session state machine: generation, navigation, answer
// capture, timed expiry, completion detection and exactly-once persistence.
// Every mutation happens under one lock, so events never interleave.
type Controller struct {
	generator Generator
	history   HistoryGateway
	cfg       Config
	now       func() time.Time
	rnd       *rand.Rand

	mu          sync.Mutex
	state       State
	epoch       uint64
	lastError   string
	sess        *session
	set         domain.QuestionSet
	title       string
	current     int
	subscribers map[chan Snapshot]struct{}
}

func NewController(generator Generator, history HistoryGateway, cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Controller{
		generator:   generator,
		history:     history,
		cfg:         cfg,
		now:         cfg.Clock,
		rnd:         rand.New(rand.NewSource(cfg.Clock().UnixNano())),
		state:       StateIdle,
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generate starts a new quiz from a document. The generation call runs
// asynchronously; its result is applied only if the session epoch has not
// moved on, so a slow response cannot resurrect a discarded session.
func (c *Controller) Generate(ctx context.Context, req GenerateRequest) {
	if req.QuestionCount < 1 {
		req.QuestionCount = c.cfg.DefaultQuestionCount
	}
	if req.QuestionCount < 1 {
		req.QuestionCount = DefaultQuestionCount
	}
	if req.QuestionCount > MaxQuestionCount {
		req.QuestionCount = MaxQuestionCount
	}
	if req.TimeLimitMinutes < 0 {
		req.TimeLimitMinutes = 0
	}

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.state = StateGenerating
	c.lastError = ""
	c.sess = nil
	c.set = nil
	c.title = req.Title
	c.current = 0
	c.broadcastLocked()
	c.mu.Unlock()

	go func() {
		var res GenerateResult
		err := domain.ErrGenerationUnavailable
		if c.generator != nil {
			res, err = c.generator.Generate(ctx, req)
		}
		if err == nil && len(res.Questions) == 0 {
			err = domain.ErrGenerationUnavailable
		}
		c.applyGeneration(epoch, req, res, err)
	}()
}

func (c *Controller) applyGeneration(epoch uint64, req GenerateRequest, res GenerateResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch || c.state != StateGenerating {
		// Stale response; the session it belonged to is gone.
		return
	}
	if err != nil {
		if c.cfg.FailOnGenerationError {
			log.Printf("generation failed, returning to idle: %v", err)
			c.state = StateIdle
			c.lastError = err.Error()
			c.broadcastLocked()
			return
		}
		log.Printf("generation unavailable, synthesizing %d placeholder questions: %v", req.QuestionCount, err)
		res = GenerateResult{Questions: SynthesizeQuestions(c.rnd, req.Title, req.QuestionCount)}
	}
	limit := req.TimeLimitMinutes
	if res.TimeLimitMinutes > 0 {
		limit = res.TimeLimitMinutes
	}
	c.startSessionLocked(res.Questions, limit)
}

// startSessionLocked replaces the live session. Bumping the epoch here is what
// invalidates any ticker or in-flight response from the previous session.
func (c *Controller) startSessionLocked(set domain.QuestionSet, limitMinutes int) {
	c.epoch++
	c.set = set
	c.sess = newSession(c.now(), limitMinutes)
	c.current = 0
	c.state = StateActive
	c.startClockLocked()
	c.broadcastLocked()
}

func (c *Controller) startClockLocked() {
	if c.cfg.TickInterval <= 0 || c.sess == nil || c.sess.timer.Unlimited() {
		return
	}
	epoch := c.epoch
	go func() {
		ticker := time.NewTicker(c.cfg.TickInterval)
		defer ticker.Stop()
		for range ticker.C {
			if !c.tickEpoch(epoch) {
				return
			}
		}
	}()
}

// Tick advances the live session's countdown by one second.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked()
}

// tickEpoch applies a tick only if it belongs to the live session. It reports
// false when the owning ticker should stop.
func (c *Controller) tickEpoch(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return false
	}
	return c.tickLocked()
}

func (c *Controller) tickLocked() bool {
	if c.state != StateActive || c.sess == nil {
		return false
	}
	if c.sess.timer.Tick() {
		c.completeLocked()
		return false
	}
	c.broadcastLocked()
	return true
}

// Select records an option for the current question. Selection is silently
// rejected once the question's answer has been revealed.
func (c *Controller) Select(option string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive || c.sess == nil {
		return domain.ErrNoActiveSession
	}
	if c.sess.ledger.Select(c.current, option) {
		c.broadcastLocked()
	}
	return nil
}

// SubmitCurrent reveals the current question. If it was the last question, or
// every question is now answered, the session completes; otherwise the
// controller advances to the next question.
func (c *Controller) SubmitCurrent() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateComplete {
		return domain.ErrSessionComplete
	}
	if c.state != StateActive || c.sess == nil {
		return domain.ErrNoActiveSession
	}
	if _, ok := c.sess.ledger.Answer(c.current); !ok {
		return domain.ErrNoSelection
	}
	c.sess.ledger.Reveal(c.current)
	if c.current == len(c.set)-1 || c.sess.ledger.AnsweredCount() == len(c.set) {
		c.completeLocked()
		return nil
	}
	c.current++
	c.broadcastLocked()
	return nil
}

// completeLocked forces every answer revealed, flips to Complete, freezes the
// result record and persists it exactly once per session, guarded by the
// saved flag. The frozen record is what Record serves afterwards, so a share
// issued minutes later reports the same timestamps as the persisted row.
func (c *Controller) completeLocked() {
	if c.state == StateComplete || c.sess == nil {
		return
	}
	c.sess.ledger.RevealAll(len(c.set))
	c.state = StateComplete
	rec := c.buildRecordLocked()
	c.sess.record = &rec
	if !c.sess.saved {
		c.sess.saved = true
		go c.persist(rec)
	}
	c.broadcastLocked()
}

// persist is fire-and-forget: a failed save is logged and never blocks the
// user from continuing.
func (c *Controller) persist(rec domain.HistoryRecord) {
	if c.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if _, err := c.history.Save(ctx, rec); err != nil {
		log.Printf("failed to save history record %s: %v", rec.ID, err)
	}
}

func (c *Controller) buildRecordLocked() domain.HistoryRecord {
	score := ScoreAnswers(c.set, c.sess.ledger.Answers())
	title := c.title
	if title == "" {
		title = "Untitled Quiz"
	}
	questions := make(domain.QuestionSet, len(c.set))
	copy(questions, c.set)
	return domain.HistoryRecord{
		ID:               c.sess.id,
		UserID:           c.cfg.UserID,
		Title:            title,
		CreatedAt:        c.now(),
		QuestionCount:    len(c.set),
		CorrectCount:     score.Correct,
		TotalQuestions:   len(c.set),
		TimeTakenSeconds: c.sess.elapsedSeconds(c.now()),
		Questions:        questions,
		UserAnswers:      c.sess.ledger.Answers(),
	}
}

// Record returns the result record frozen when the session completed, for
// export and sharing. It does not persist anything.
func (c *Controller) Record() (domain.HistoryRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateComplete || c.sess == nil || c.sess.record == nil {
		return domain.HistoryRecord{}, domain.ErrSessionNotComplete
	}
	return *c.sess.record, nil
}

// JumpTo moves to a question by index, clamped to bounds. Navigation stays
// available on a completed session for review.
func (c *Controller) JumpTo(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || len(c.set) == 0 {
		return domain.ErrNoActiveSession
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.set)-1 {
		index = len(c.set) - 1
	}
	c.current = index
	c.broadcastLocked()
	return nil
}

// Next advances one question without wrapping.
func (c *Controller) Next() error {
	return c.step(1)
}

// Previous steps back one question without wrapping.
func (c *Controller) Previous() error {
	return c.step(-1)
}

func (c *Controller) step(delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || len(c.set) == 0 {
		return domain.ErrNoActiveSession
	}
	next := c.current + delta
	if next < 0 || next > len(c.set)-1 {
		return nil
	}
	c.current = next
	c.broadcastLocked()
	return nil
}

// Retry restarts a completed session over the same question set: fresh
// session ID, empty ledger, timer reset to the original limit.
func (c *Controller) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateComplete || c.sess == nil {
		return domain.ErrSessionNotComplete
	}
	c.startSessionLocked(c.set, c.sess.timeLimitMinutes)
	return nil
}

// NewQuiz discards the question set and returns to idle. The epoch bump
// invalidates any pending ticker or generation response.
func (c *Controller) NewQuiz() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.state = StateIdle
	c.lastError = ""
	c.sess = nil
	c.set = nil
	c.title = ""
	c.current = 0
	c.broadcastLocked()
}

// RetakeFromRecord starts a fresh session over a history record's stored
// questions. A record with missing or short question data degrades to
// synthesized placeholders instead of failing the retake. The time limit is
// derived from the prior run's duration, floored at ten minutes.
func (c *Controller) RetakeFromRecord(rec domain.HistoryRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.state = StateRetaking
	c.lastError = ""
	c.title = rec.Title
	c.current = 0
	c.broadcastLocked()

	set := rec.Questions
	total := rec.TotalQuestions
	if total < 1 {
		total = len(set)
	}
	if len(set) == 0 || len(set) < total {
		log.Printf("history record %s missing question data (%v), synthesizing %d questions",
			rec.ID, domain.ErrMalformedRecord, total)
		set = SynthesizeQuestions(c.rnd, rec.Title, total)
	}

	limit := (rec.TimeTakenSeconds + 59) / 60
	if limit < minRetakeLimitMinutes {
		limit = minRetakeLimitMinutes
	}
	c.startSessionLocked(set, limit)
}

// Close invalidates the live session so any background ticker stops. Used on
// transport disconnect.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.state = StateIdle
	c.sess = nil
	c.set = nil
}

// Snapshot returns the current read-only view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel that receives a snapshot after every mutation.
// The caller must invoke the returned cancel function to avoid leaks.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	initial := c.snapshotLocked()
	c.mu.Unlock()

	ch <- initial

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) broadcastLocked() {
	snap := c.snapshotLocked()
	for ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow consumer cannot block events.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:     c.state,
		Title:     c.title,
		Current:   c.current,
		Unlimited: true,
		Error:     c.lastError,
	}
	if len(c.set) > 0 {
		snap.Questions = make(domain.QuestionSet, len(c.set))
		copy(snap.Questions, c.set)
	}
	if c.sess != nil {
		snap.SessionID = c.sess.id
		snap.Answers = c.sess.ledger.Answers()
		snap.Revealed = c.sess.ledger.RevealedIndices()
		snap.AnsweredCount = c.sess.ledger.AnsweredCount()
		snap.Unlimited = c.sess.timer.Unlimited()
		snap.RemainingMinutes, snap.RemainingSeconds = c.sess.timer.Remaining()
		snap.Score = ScoreAnswers(c.set, snap.Answers)
		if c.sess.record != nil {
			snap.TimeTakenSeconds = c.sess.record.TimeTakenSeconds
		} else {
			snap.TimeTakenSeconds = c.sess.elapsedSeconds(c.now())
		}
	}
	return snap
}
