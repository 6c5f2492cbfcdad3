package api

import "encoding/json"

// OnboardingSession is the server-held state of one onboarding
// dialogue. Messages and DraftGoal stay raw on purpose: the lead agent
// writes them and the shapes are not trusted until the onboarding
// package projects them.
type OnboardingSession struct {
	ID         string          `json:"id"`
	BoardID    string          `json:"board_id"`
	SessionKey string          `json:"session_key"`
	Status     string          `json:"status"`
	Messages   json.RawMessage `json:"messages"`
	DraftGoal  json.RawMessage `json:"draft_goal"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

// Board is the dashboard board resource returned by confirm and the
// board list endpoints.
type Board struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	BoardType      string          `json:"board_type"`
	GoalConfirmed  bool            `json:"goal_confirmed"`
	Objective      *string         `json:"objective"`
	SuccessMetrics json.RawMessage `json:"success_metrics"`
	TargetDate     *string         `json:"target_date"`
	CreatedAt      string          `json:"created_at,omitempty"`
	UpdatedAt      string          `json:"updated_at,omitempty"`
}

// AnswerRequest advances the dialogue by one turn.
type AnswerRequest struct {
	Answer    string  `json:"answer"`
	OtherText *string `json:"other_text"`
}

// ConfirmRequest finalizes onboarding. All four keys are always sent;
// nil pointers marshal to explicit nulls.
type ConfirmRequest struct {
	BoardType      string         `json:"board_type"`
	Objective      *string        `json:"objective"`
	SuccessMetrics map[string]any `json:"success_metrics"`
	TargetDate     *string        `json:"target_date"`
}
