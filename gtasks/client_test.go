package gtasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithBaseURL(srv.URL)}, opts...)
	return New(NewStaticToken("tok-1"), nil, opts...)
}

func TestListTasksRequestsCompletedAndHidden(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []Task{{ID: "t1", Title: "Milk", Status: StatusCompleted}},
		})
	})

	tasks, err := c.ListTasks(context.Background(), "L1")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if gotPath != "/lists/L1/tasks" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotQuery != "showCompleted=true&showHidden=true" {
		t.Fatalf("unexpected query: %s", gotQuery)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	want := []Task{{ID: "t1", Title: "Milk", Status: StatusCompleted}}
	if !reflect.DeepEqual(tasks, want) {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
}

func TestListTaskListsMissingItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	lists, err := c.ListTaskLists(context.Background())
	if err != nil {
		t.Fatalf("list task lists: %v", err)
	}
	if len(lists) != 0 {
		t.Fatalf("expected no lists, got %#v", lists)
	}
}

func TestUnauthorizedTriggersLogout(t *testing.T) {
	var loggedOut bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, WithLogoutHook(func() { loggedOut = true }))

	_, err := c.ListTaskLists(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if !loggedOut {
		t.Fatal("expected logout hook to fire")
	}
}

func TestMissingTokenFailsBeforeRequest(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(srv.Close)

	c := New(NewStaticToken(""), nil, WithBaseURL(srv.URL))
	_, err := c.ListTaskLists(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if called {
		t.Fatal("no request should be sent without a token")
	}
}

func TestRemoteErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid task list ID"}}`))
	})
	_, err := c.ListTasks(context.Background(), "nope")
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remoteErr.Status != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", remoteErr.Status)
	}
	if remoteErr.Message != "Invalid task list ID" {
		t.Fatalf("unexpected message: %q", remoteErr.Message)
	}
}

func TestDeleteTaskAcceptsEmptyBody(t *testing.T) {
	var gotMethod string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.DeleteTask(context.Background(), "L1", "T1"); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Fatalf("unexpected method: %s", gotMethod)
	}
}

func TestPatchTaskClearDueSendsExplicitNull(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Task{ID: "T1", Title: "Milk"})
	})

	title := "Milk"
	_, err := c.PatchTask(context.Background(), "L1", "T1", TaskPatch{Title: &title, ClearDue: true})
	if err != nil {
		t.Fatalf("patch task: %v", err)
	}
	if gotBody["title"] != "Milk" {
		t.Fatalf("unexpected title: %#v", gotBody["title"])
	}
	val, present := gotBody["due"]
	if !present || val != nil {
		t.Fatalf("expected explicit null due, got present=%v val=%#v", present, val)
	}
}

func TestMoveTaskQueryParams(t *testing.T) {
	var gotURL string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		_ = json.NewEncoder(w).Encode(Task{ID: "T1"})
	})
	_, err := c.MoveTask(context.Background(), "L1", "T1", MoveOptions{Previous: "T0"})
	if err != nil {
		t.Fatalf("move task: %v", err)
	}
	if gotURL != "/lists/L1/tasks/T1/move?previous=T0" {
		t.Fatalf("unexpected url: %s", gotURL)
	}
}

func TestTaskPatchMerge(t *testing.T) {
	a, b := "A", "B"
	due := "2026-01-02T00:00:00Z"

	p := TaskPatch{}.Merge(TaskPatch{Title: &a})
	p = p.Merge(TaskPatch{Title: &b, Due: &due})
	if p.Title == nil || *p.Title != "B" {
		t.Fatalf("expected last title to win, got %#v", p.Title)
	}
	if p.Due == nil || *p.Due != due {
		t.Fatalf("unexpected due: %#v", p.Due)
	}

	p = p.Merge(TaskPatch{ClearDue: true})
	if p.Due != nil || !p.ClearDue {
		t.Fatalf("expected clear-due to override due, got %#v clear=%v", p.Due, p.ClearDue)
	}

	p = p.Merge(TaskPatch{Due: &due})
	if p.ClearDue || p.Due == nil {
		t.Fatalf("expected due to override clear-due, got %#v clear=%v", p.Due, p.ClearDue)
	}
}
