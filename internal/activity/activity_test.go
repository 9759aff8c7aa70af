package activity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, err := store.Log(ctx, Entry{
		Action:    ActionAsk,
		Documents: []string{"1_Requirements.gob.gz"},
		Question:  "Is data encrypted?",
		Answer:    "Yes, at rest.",
		Duration:  1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated ID")
	}

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Action != ActionAsk {
		t.Errorf("Action = %q, want %q", got.Action, ActionAsk)
	}
	if got.Status != StatusOK {
		t.Errorf("Status = %q, want %q", got.Status, StatusOK)
	}
	if got.Question != "Is data encrypted?" || got.Answer != "Yes, at rest." {
		t.Errorf("unexpected question/answer %q/%q", got.Question, got.Answer)
	}
	if len(got.Documents) != 1 || got.Documents[0] != "1_Requirements.gob.gz" {
		t.Errorf("Documents = %v", got.Documents)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v", got.Duration)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestGetByIDMissing(t *testing.T) {
	store := setupStore(t)
	_, err := store.GetByID(context.Background(), "nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entries := []Entry{
		{Action: ActionUpload, Documents: []string{"1_policy.gob.gz"}},
		{Action: ActionUpload, Status: StatusError, Detail: "duplicate"},
		{Action: ActionDelete, Documents: []string{"1_policy.gob.gz"}},
		{Action: ActionAsk, Question: "q"},
	}
	for _, e := range entries {
		if _, err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"all", QueryFilter{}, 4},
		{"uploads", QueryFilter{Action: ActionUpload}, 2},
		{"errors", QueryFilter{Status: StatusError}, 1},
		{"document", QueryFilter{Document: "policy"}, 2},
		{"limit", QueryFilter{Limit: 3}, 3},
		{"offset", QueryFilter{Offset: 3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestQueryNewestFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	for _, q := range []string{"first", "second"} {
		if _, err := store.Log(ctx, Entry{Action: ActionAsk, Question: q}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	got, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got[0].Question != "second" {
		t.Errorf("expected newest first, got %q", got[0].Question)
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	if _, err := store.Log(ctx, Entry{Action: ActionAsk}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	n, err := store.DeleteBefore(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d rows, want 1", n)
	}
}

func TestRoutes(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	id, _ := store.Log(ctx, Entry{Action: ActionUpload, Documents: []string{"1_a.gob.gz"}})
	store.Log(ctx, Entry{Action: ActionAsk, Question: "why?"})

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	req := httptest.NewRequest(http.MethodGet, "/api/activity/?action=ask", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Question != "why?" {
		t.Errorf("unexpected entries %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/activity/"+id, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("get by id status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/activity/missing", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", rec.Code)
	}
}
