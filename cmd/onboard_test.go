package cmd

import (
	"bufio"
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/kayz/boardctl/internal/onboarding"
)

type fakeAnswerFlow struct {
	selected  []string
	otherText string
	answered  bool
	submitted []string
}

func (f *fakeAnswerFlow) Snapshot() onboarding.Snapshot {
	return onboarding.Snapshot{
		Phase:    onboarding.PhaseQuestion,
		Selected: append([]string(nil), f.selected...),
	}
}

func (f *fakeAnswerFlow) ToggleOption(label string) {
	found := false
	kept := f.selected[:0]
	for _, item := range f.selected {
		if item == label {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if found {
		f.selected = kept
	} else {
		f.selected = append(f.selected, label)
	}
}

func (f *fakeAnswerFlow) SetOtherText(text string) { f.otherText = text }

func (f *fakeAnswerFlow) SubmitAnswer(_ context.Context) {
	f.answered = true
	f.submitted = append([]string(nil), f.selected...)
}

func focusQuestion() *onboarding.Question {
	return &onboarding.Question{
		Question: "Pick a focus",
		Options: []onboarding.QuestionOption{
			{ID: "1", Label: "Growth"},
			{ID: "2", Label: "Ops"},
		},
	}
}

func TestAnswerQuestionSelectsAndSubmits(t *testing.T) {
	flow := &fakeAnswerFlow{}
	reader := bufio.NewReader(strings.NewReader("1,2\nmore detail\n"))

	if err := answerQuestion(context.Background(), flow, reader, focusQuestion()); err != nil {
		t.Fatalf("answerQuestion: %v", err)
	}
	if !flow.answered {
		t.Fatalf("answer not submitted")
	}
	if !reflect.DeepEqual(flow.submitted, []string{"Growth", "Ops"}) {
		t.Fatalf("unexpected selection: %v", flow.submitted)
	}
	if flow.otherText != "more detail" {
		t.Fatalf("unexpected other text: %q", flow.otherText)
	}
}

// A failed submit keeps the prior selection in the synchronizer; the
// retry prompt must not let re-entered numbers toggle those options
// back off.
func TestAnswerQuestionRetryKeepsReenteredSelection(t *testing.T) {
	flow := &fakeAnswerFlow{selected: []string{"Growth"}}
	reader := bufio.NewReader(strings.NewReader("1\n\n"))

	if err := answerQuestion(context.Background(), flow, reader, focusQuestion()); err != nil {
		t.Fatalf("answerQuestion: %v", err)
	}
	if !flow.answered {
		t.Fatalf("retry did not submit")
	}
	if !reflect.DeepEqual(flow.submitted, []string{"Growth"}) {
		t.Fatalf("unexpected selection after retry: %v", flow.submitted)
	}
}

func TestParseSelection(t *testing.T) {
	options := focusQuestion().Options

	labels, ok := parseSelection("1,2", options)
	if !ok || !reflect.DeepEqual(labels, []string{"Growth", "Ops"}) {
		t.Fatalf("unexpected result: %v %v", labels, ok)
	}
	if labels, ok := parseSelection("", options); !ok || labels != nil {
		t.Fatalf("empty input should be a valid empty selection: %v %v", labels, ok)
	}
	if _, ok := parseSelection("3", options); ok {
		t.Fatalf("out-of-range number accepted")
	}
	if _, ok := parseSelection("x", options); ok {
		t.Fatalf("non-numeric input accepted")
	}
}

func TestPanelAddrBindsLoopback(t *testing.T) {
	if got := panelAddr(18090); got != "127.0.0.1:18090" {
		t.Fatalf("unexpected panel addr: %s", got)
	}
}
