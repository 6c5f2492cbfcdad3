package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kayz/boardctl/internal/api"
	"github.com/kayz/boardctl/internal/logger"
	"github.com/kayz/boardctl/internal/onboarding"
	"github.com/kayz/boardctl/internal/transcript"
)

var (
	onboardPollMS       int
	onboardNoTranscript bool
)

var onboardCmd = &cobra.Command{
	Use:   "onboard <board-id>",
	Short: "Run the lead-agent onboarding dialogue for a board",
	Long: `Run the lead-agent onboarding dialogue for a board.

The lead agent asks a series of setup questions; answer by selecting
options, adding free text, or both. Once the agent proposes a goal
draft, review it and confirm to finalize the board.`,
	Args: cobra.ExactArgs(1),
	RunE: runOnboardFlow,
}

func init() {
	rootCmd.AddCommand(onboardCmd)

	onboardCmd.Flags().IntVar(&onboardPollMS, "poll-interval", 0,
		"Session refresh cadence in milliseconds (default from config)")
	onboardCmd.Flags().BoolVar(&onboardNoTranscript, "no-transcript", false,
		"Skip recording the dialogue to the local transcript store")
}

func runOnboardFlow(cmd *cobra.Command, args []string) error {
	boardID := args[0]
	cfg := loadConfig()

	pollMS := cfg.Onboarding.PollIntervalMS
	if onboardPollMS > 0 {
		pollMS = onboardPollMS
	}

	var recorder onboarding.Recorder
	if !onboardNoTranscript && !cfg.Transcript.Disabled {
		store, err := transcript.NewStore(cfg.Transcript.Path)
		if err != nil {
			logger.Warn("[Onboard] transcript store unavailable: %v", err)
		} else {
			defer store.Close()
			recorder = store
		}
	}

	changes := make(chan onboarding.Snapshot, 16)
	confirmed := make(chan api.Board, 1)

	sync := onboarding.NewSynchronizer(onboarding.Config{
		Client:       api.NewClient(cfg.API.BaseURL, cfg.API.Token),
		BoardID:      boardID,
		PollInterval: time.Duration(pollMS) * time.Millisecond,
		Recorder:     recorder,
		OnConfirmed:  func(b api.Board) { confirmed <- b },
		OnChange: func(snap onboarding.Snapshot) {
			select {
			case changes <- snap:
			default:
				// The loop reads a fresh snapshot anyway; dropping a
				// wake-up is harmless.
			}
		},
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	go sync.Run(ctx)

	fmt.Printf("=== board onboarding: %s ===\n", boardID)

	reader := bufio.NewReader(os.Stdin)
	renderedPrompt := ""
	draftShown := false
	waitingShown := false
	lastErr := ""

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case board := <-confirmed:
			printBoard(board)
			fmt.Println("Onboarding complete.")
			return nil
		case <-changes:
		}

		snap := sync.Snapshot()

		if snap.Error != "" && snap.Error != lastErr {
			fmt.Printf("Error: %s\n", snap.Error)
			// A failed submit leaves the phase unchanged; re-prompt so
			// the operator can retry.
			draftShown = false
			renderedPrompt = ""
		}
		lastErr = snap.Error

		if snap.Loading || snap.Done {
			continue
		}

		switch snap.Phase {
		case onboarding.PhaseQuestion:
			if snap.Question.Question == renderedPrompt {
				continue
			}
			renderedPrompt = snap.Question.Question
			draftShown = false
			if err := answerQuestion(ctx, sync, reader, snap.Question); err != nil {
				return err
			}
		case onboarding.PhaseDraft:
			if draftShown {
				continue
			}
			draftShown = true
			renderedPrompt = ""
			confirm, err := promptDraft(reader, snap.Draft)
			if err != nil {
				return err
			}
			if !confirm {
				fmt.Println("Draft left unconfirmed.")
				return nil
			}
			sync.ConfirmDraft(ctx)
		default:
			if !waitingShown {
				fmt.Println("Waiting for the lead agent...")
				waitingShown = true
			}
		}
	}
}

// answerFlow is the slice of the synchronizer the question prompt
// drives.
type answerFlow interface {
	Snapshot() onboarding.Snapshot
	ToggleOption(label string)
	SetOtherText(text string)
	SubmitAnswer(ctx context.Context)
}

// answerQuestion renders one question and keeps prompting until the
// operator provides a usable answer: option numbers, free text, or
// both.
func answerQuestion(ctx context.Context, sync answerFlow, reader *bufio.Reader, q *onboarding.Question) error {
	// A failed submit keeps the previous selection so the web panel can
	// retry in place, but here the operator re-enters numbers; start
	// from a clean slate so re-entered numbers select rather than
	// toggle off.
	for _, label := range sync.Snapshot().Selected {
		sync.ToggleOption(label)
	}

	fmt.Println()
	fmt.Println(q.Question)
	for i, opt := range q.Options {
		fmt.Printf("  %d) %s\n", i+1, opt.Label)
	}

	for {
		fmt.Print("Select option numbers (comma-separated, empty for none): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		labels, ok := parseSelection(strings.TrimSpace(line), q.Options)
		if !ok {
			fmt.Println("Invalid selection.")
			continue
		}
		for _, label := range labels {
			sync.ToggleOption(label)
		}

		fmt.Print("Other (optional): ")
		other, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		sync.SetOtherText(strings.TrimSpace(other))

		snap := sync.Snapshot()
		if len(snap.Selected) == 0 && strings.TrimSpace(other) == "" {
			fmt.Println("Pick at least one option or provide a custom answer.")
			continue
		}

		sync.SubmitAnswer(ctx)
		return nil
	}
}

// parseSelection turns "1,3" into the matching option labels. An empty
// input is a valid empty selection.
func parseSelection(input string, options []onboarding.QuestionOption) ([]string, bool) {
	if input == "" {
		return nil, true
	}
	var labels []string
	for _, part := range strings.Split(input, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > len(options) {
			return nil, false
		}
		labels = append(labels, options[n-1].Label)
	}
	return labels, true
}

func promptDraft(reader *bufio.Reader, draft *onboarding.Draft) (bool, error) {
	fmt.Println()
	fmt.Println("The lead agent proposed this goal draft:")
	fmt.Printf("  Board type:      %s\n", orDash(draft.BoardType))
	fmt.Printf("  Objective:       %s\n", orDashPtr(draft.Objective))
	fmt.Printf("  Target date:     %s\n", orDashPtr(draft.TargetDate))
	metrics := "-"
	if draft.SuccessMetrics != nil {
		if encoded, err := json.MarshalIndent(draft.SuccessMetrics, "                   ", "  "); err == nil {
			metrics = string(encoded)
		}
	}
	fmt.Printf("  Success metrics: %s\n", metrics)

	for {
		fmt.Print("Confirm this goal? (yes/no): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Println("Expected yes or no.")
		}
	}
}

func printBoard(board api.Board) {
	fmt.Println()
	fmt.Printf("Board confirmed: %s\n", board.Name)
	fmt.Printf("  ID:        %s\n", board.ID)
	fmt.Printf("  Type:      %s\n", board.BoardType)
	fmt.Printf("  Objective: %s\n", orDashPtr(board.Objective))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func orDashPtr(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
