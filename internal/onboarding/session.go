package onboarding

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kayz/boardctl/internal/api"
	"github.com/kayz/boardctl/internal/logger"
)

// DefaultPollInterval is the session refresh cadence.
const DefaultPollInterval = 2 * time.Second

// Phase is the derived state of the dialogue. It is never stored; every
// read recomputes it from the cached session.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseQuestion Phase = "question"
	PhaseDraft    Phase = "draft"
)

// SessionClient is the slice of the dashboard API the synchronizer
// needs.
type SessionClient interface {
	StartOnboarding(ctx context.Context, boardID string) (*api.OnboardingSession, error)
	GetOnboarding(ctx context.Context, boardID string) (*api.OnboardingSession, error)
	AnswerOnboarding(ctx context.Context, boardID string, req api.AnswerRequest) (*api.OnboardingSession, error)
	ConfirmOnboarding(ctx context.Context, boardID string, req api.ConfirmRequest) (*api.Board, error)
}

// Recorder receives transcript rows and discard diagnostics. Optional.
type Recorder interface {
	RecordTurn(boardID, role, content string) error
	RecordEvent(boardID, kind, detail string) error
}

// Snapshot is the caller-facing view of the dialogue, recomputed from
// the cached session on every read.
type Snapshot struct {
	Phase    Phase            `json:"phase"`
	Question *Question        `json:"question,omitempty"`
	Draft    *Draft           `json:"draft,omitempty"`
	Selected []string         `json:"selected,omitempty"`
	Loading  bool             `json:"loading"`
	Error    string           `json:"error,omitempty"`
	Done     bool             `json:"done"`
	Board    *api.Board       `json:"board,omitempty"`
}

// Config wires a Synchronizer.
type Config struct {
	Client       SessionClient
	BoardID      string
	PollInterval time.Duration
	// OnConfirmed fires once, after a successful confirm, with the
	// finalized board.
	OnConfirmed func(api.Board)
	// OnChange fires after every state mutation with a fresh snapshot.
	OnChange func(Snapshot)
	Recorder Recorder
}

// Synchronizer owns the single source of truth for one onboarding
// dialogue: the cached remote session plus loading and error flags.
// All derived views (phase, question, draft) are pure projections of
// that cache. Overlapping start/poll/answer responses are resolved as
// last write wins; both sides are idempotent reads of
// server-authoritative state, which is acceptable for a low-frequency
// single-operator flow.
type Synchronizer struct {
	client   SessionClient
	boardID  string
	interval time.Duration

	onConfirmed func(api.Board)
	onChange    func(Snapshot)
	recorder    Recorder

	mu            sync.RWMutex
	session       *api.OnboardingSession
	question      *Question
	draft         *Draft
	selected      []string
	otherText     string
	loading       bool
	errText       string
	done          bool
	board         *api.Board
	lastPrompt    string
	recordedTurns int
	lastDiscards  int

	stopped chan struct{}
	once    sync.Once
}

func NewSynchronizer(cfg Config) *Synchronizer {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Synchronizer{
		client:      cfg.Client,
		boardID:     cfg.BoardID,
		interval:    interval,
		onConfirmed: cfg.OnConfirmed,
		onChange:    cfg.OnChange,
		recorder:    cfg.Recorder,
		stopped:     make(chan struct{}),
	}
}

// Run starts the session once, then re-polls it on a fixed cadence
// until ctx is cancelled or the dialogue is confirmed. The poll loop is
// bound to ctx; in-flight requests outlive cancellation but their
// results are discarded once Run has returned.
func (s *Synchronizer) Run(ctx context.Context) {
	s.start(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopped:
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// start begins or resumes the dialogue. Failures surface as the
// user-visible error; they never propagate past this boundary.
func (s *Synchronizer) start(ctx context.Context) {
	s.setLoading(true)

	session, err := s.client.StartOnboarding(ctx, s.boardID)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errText = errorText(err, "Failed to start onboarding.")
		s.mu.Unlock()
		s.notify()
		return
	}
	s.errText = ""
	s.applySessionLocked(session)
	s.mu.Unlock()
	s.notify()
}

// poll refreshes the cached session. Failures are swallowed: a
// transient hiccup during a background refresh is not a user-facing
// problem, the next tick will try again.
func (s *Synchronizer) poll(ctx context.Context) {
	session, err := s.client.GetOnboarding(ctx, s.boardID)
	if err != nil {
		logger.Trace("[Onboarding] poll failed for board %s: %v", s.boardID, err)
		return
	}

	s.mu.Lock()
	s.applySessionLocked(session)
	s.mu.Unlock()
	s.notify()
}

// ToggleOption toggles membership of an option label in the pending
// answer. Removing an item preserves the relative order of the rest.
func (s *Synchronizer) ToggleOption(label string) {
	s.mu.Lock()
	found := false
	kept := s.selected[:0]
	for _, item := range s.selected {
		if item == label {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if found {
		s.selected = kept
	} else {
		s.selected = append(s.selected, label)
	}
	s.mu.Unlock()
	s.notify()
}

// SetOnChange registers the change callback after construction, for
// callers with a wiring cycle between the synchronizer and its surface.
func (s *Synchronizer) SetOnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SetOtherText replaces the free-text buffer.
func (s *Synchronizer) SetOtherText(text string) {
	s.mu.Lock()
	s.otherText = text
	s.mu.Unlock()
	s.notify()
}

// SubmitAnswer encodes the pending selection into the single-string
// answer protocol and submits it. With nothing selected and no free
// text the call is a no-op. Selected labels join with ", "; with none
// selected the answer is the literal "Other". Trimmed free text rides
// along as a separate field, never folded into the answer string.
func (s *Synchronizer) SubmitAnswer(ctx context.Context) {
	s.mu.Lock()
	if s.loading || s.done {
		s.mu.Unlock()
		return
	}
	trimmed := strings.TrimSpace(s.otherText)
	if len(s.selected) == 0 && trimmed == "" {
		s.mu.Unlock()
		return
	}
	answer := "Other"
	if len(s.selected) > 0 {
		answer = strings.Join(s.selected, ", ")
	}
	var otherText *string
	if trimmed != "" {
		otherText = &trimmed
	}
	s.loading = true
	s.errText = ""
	s.mu.Unlock()
	s.notify()

	session, err := s.client.AnswerOnboarding(ctx, s.boardID, api.AnswerRequest{
		Answer:    answer,
		OtherText: otherText,
	})

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errText = errorText(err, "Failed to submit answer.")
		s.mu.Unlock()
		s.notify()
		return
	}
	s.errText = ""
	s.otherText = ""
	s.applySessionLocked(session)
	s.mu.Unlock()

	if s.recorder != nil {
		if recErr := s.recorder.RecordEvent(s.boardID, "answer", answer); recErr != nil {
			logger.Warn("[Onboarding] transcript answer record failed: %v", recErr)
		}
	}
	s.notify()
}

// ConfirmDraft submits the normalized draft verbatim, with default
// fallbacks, to finalize onboarding. Without a draft it is a no-op. On
// success the confirmed callback fires with the finalized board and
// polling stops; on failure the flow stays in the confirmation phase so
// the operator can retry.
func (s *Synchronizer) ConfirmDraft(ctx context.Context) {
	s.mu.Lock()
	if s.loading || s.done || s.draft == nil {
		s.mu.Unlock()
		return
	}
	draft := s.draft
	boardType := draft.BoardType
	if boardType == "" {
		boardType = "goal"
	}
	req := api.ConfirmRequest{
		BoardType:      boardType,
		Objective:      draft.Objective,
		SuccessMetrics: draft.SuccessMetrics,
		TargetDate:     draft.TargetDate,
	}
	s.loading = true
	s.errText = ""
	s.mu.Unlock()
	s.notify()

	board, err := s.client.ConfirmOnboarding(ctx, s.boardID, req)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errText = errorText(err, "Failed to confirm board goal.")
		s.mu.Unlock()
		s.notify()
		return
	}
	s.errText = ""
	s.done = true
	s.board = board
	s.mu.Unlock()

	if s.recorder != nil {
		if recErr := s.recorder.RecordEvent(s.boardID, "confirm", board.Name); recErr != nil {
			logger.Warn("[Onboarding] transcript confirm record failed: %v", recErr)
		}
	}
	s.once.Do(func() { close(s.stopped) })
	if s.onConfirmed != nil {
		s.onConfirmed(*board)
	}
	s.notify()
}

// Snapshot returns the derived caller-facing view. Draft presence
// always wins over a decodable question.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Question: s.question,
		Draft:    s.draft,
		Selected: append([]string(nil), s.selected...),
		Loading:  s.loading,
		Error:    s.errText,
		Done:     s.done,
		Board:    s.board,
	}
	switch {
	case s.draft != nil:
		snap.Phase = PhaseDraft
	case s.question != nil:
		snap.Phase = PhaseQuestion
	default:
		snap.Phase = PhaseWaiting
	}
	return snap
}

// applySessionLocked replaces the cached session wholesale and
// recomputes the derived views. A changed question prompt invalidates
// the pending selection and free text. Caller holds s.mu.
func (s *Synchronizer) applySessionLocked(session *api.OnboardingSession) {
	s.session = session

	msgs := NormalizeMessages(session.Messages)
	s.question = ParseQuestion(msgs)
	s.draft = NormalizeDraft(session.DraftGoal)

	prompt := ""
	if s.question != nil {
		prompt = s.question.Question
	}
	if prompt != s.lastPrompt {
		s.lastPrompt = prompt
		s.selected = nil
		s.otherText = ""
	}

	if discards := rawTurnCount(session.Messages) - len(msgs); discards != s.lastDiscards {
		s.lastDiscards = discards
		if discards > 0 {
			logger.Debug("[Onboarding] dropped %d malformed turn(s) for board %s", discards, s.boardID)
			if s.recorder != nil {
				if err := s.recorder.RecordEvent(s.boardID, "discard", "malformed turns dropped"); err != nil {
					logger.Warn("[Onboarding] transcript discard record failed: %v", err)
				}
			}
		}
	}

	if s.recorder != nil {
		for _, msg := range msgs[min(s.recordedTurns, len(msgs)):] {
			if err := s.recorder.RecordTurn(s.boardID, msg.Role, msg.Content); err != nil {
				logger.Warn("[Onboarding] transcript turn record failed: %v", err)
			}
		}
	}
	if len(msgs) > s.recordedTurns {
		s.recordedTurns = len(msgs)
	}
}

func (s *Synchronizer) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.notify()
}

func (s *Synchronizer) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn(s.Snapshot())
	}
}

// errorText renders an action failure for the inline error region,
// falling back to a generic message when the transport produced none.
func errorText(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
