package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStartOnboardingDecodesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/api/v1/boards/b-1/onboarding/start" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Fatalf("missing request id")
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Fatalf("missing bearer token")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"s-1","board_id":"b-1","status":"active","messages":[{"role":"assistant","content":"hi"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	session, err := c.StartOnboarding(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.ID != "s-1" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if string(session.Messages) != `[{"role":"assistant","content":"hi"}]` {
		t.Fatalf("messages not kept raw: %s", session.Messages)
	}
}

func TestNon200IsErrorWithDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"onboarding already confirmed"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.GetOnboarding(context.Background(), "b-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "onboarding already confirmed" {
		t.Fatalf("unexpected error text: %q", err.Error())
	}
}

func TestOther2xxIsStillError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.GetOnboarding(context.Background(), "b-1")
	if err == nil {
		t.Fatalf("expected error for 202")
	}
	if err.Error() != "request failed with status 202" {
		t.Fatalf("unexpected error text: %q", err.Error())
	}
}

func TestConfirmPayloadKeepsExplicitNulls(t *testing.T) {
	var captured map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"b-1","name":"Growth","board_type":"goal","goal_confirmed":true}`))
	}))
	defer srv.Close()

	objective := "Ship v1"
	c := NewClient(srv.URL, "")
	board, err := c.ConfirmOnboarding(context.Background(), "b-1", ConfirmRequest{
		BoardType: "goal",
		Objective: &objective,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !board.GoalConfirmed {
		t.Fatalf("expected confirmed board")
	}

	for _, key := range []string{"board_type", "objective", "success_metrics", "target_date"} {
		if _, ok := captured[key]; !ok {
			t.Fatalf("missing key %q in payload: %v", key, captured)
		}
	}
	if string(captured["success_metrics"]) != "null" || string(captured["target_date"]) != "null" {
		t.Fatalf("absent fields must serialize as null: %v", captured)
	}
}

func TestListBoardsNormalizesEnvelopes(t *testing.T) {
	bodies := []string{
		`[{"id":"b-1","name":"One"}]`,
		`{"data":[{"id":"b-1","name":"One"}]}`,
	}
	for _, body := range bodies {
		payload := body
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(payload))
		}))
		c := NewClient(srv.URL, "")
		boards, err := c.ListBoards(context.Background())
		srv.Close()
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(boards) != 1 || boards[0].ID != "b-1" {
			t.Fatalf("unexpected boards for %s: %+v", payload, boards)
		}
	}
}
