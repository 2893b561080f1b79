package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// linearServer answers GraphQL requests by matching a substring of the query.
func linearServer(t *testing.T, responses map[string]string) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var seen []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "lin_key" {
			t.Errorf("Authorization = %q, want lin_key", got)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		seen = append(seen, body)
		q, _ := body["query"].(string)
		for match, resp := range responses {
			if strings.Contains(q, match) {
				w.Write([]byte(resp))
				return
			}
		}
		t.Errorf("unexpected query: %s", q)
		http.Error(w, "unexpected", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestLinear_FetchItems(t *testing.T) {
	srv, seen := linearServer(t, map[string]string{
		"assignedIssues": `{"data":{"viewer":{"assignedIssues":{"nodes":[
			{"id":"uuid-1","identifier":"ENG-1","title":"Fix login","description":"details",
			 "priority":2,"url":"https://linear.app/i/ENG-1",
			 "state":{"name":"Todo"},"team":{"name":"Engineering"},
			 "labels":{"nodes":[{"name":"bug"}]}},
			{"id":"uuid-2","identifier":"ENG-2","title":"No priority","priority":0}
		]}}}}`,
	})

	l := NewLinear("lin_key", srv.URL)
	items, err := l.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	first := items[0]
	if first.ID != "ENG-1" || first.SourceID != "uuid-1" {
		t.Errorf("ids = %q/%q, want ENG-1/uuid-1", first.ID, first.SourceID)
	}
	if first.Priority != "High" {
		t.Errorf("Priority = %q, want High", first.Priority)
	}
	if first.Status != "Todo" || first.Team != "Engineering" || first.Source != SourceLinear {
		t.Errorf("unexpected item: %+v", first)
	}
	if len(first.Labels) != 1 || first.Labels[0] != "bug" {
		t.Errorf("Labels = %v, want [bug]", first.Labels)
	}
	if items[1].Priority != "" || items[1].Labels == nil {
		t.Errorf("second item = %+v, want empty priority and non-nil labels", items[1])
	}

	if _, ok := (*seen)[0]["variables"]; ok {
		t.Error("unfiltered fetch should not send variables")
	}
}

func TestLinear_FetchItemsTeamFilter(t *testing.T) {
	srv, seen := linearServer(t, map[string]string{
		"assignedIssues": `{"data":{"viewer":{"assignedIssues":{"nodes":[]}}}}`,
	})

	l := NewLinear("lin_key", srv.URL)
	l.SetBoardFilter("team-9")
	if _, err := l.FetchItems(context.Background()); err != nil {
		t.Fatalf("FetchItems() error = %v", err)
	}

	q := (*seen)[0]["query"].(string)
	if !strings.Contains(q, "$teamId") {
		t.Errorf("query missing team filter: %s", q)
	}
	vars, _ := (*seen)[0]["variables"].(map[string]interface{})
	if vars["teamId"] != "team-9" {
		t.Errorf("teamId = %v, want team-9", vars["teamId"])
	}
}

func TestLinear_GraphQLError(t *testing.T) {
	srv, _ := linearServer(t, map[string]string{
		"assignedIssues": `{"errors":[{"message":"bad token"}]}`,
	})

	_, err := NewLinear("lin_key", srv.URL).FetchItems(context.Background())
	if err == nil || !strings.Contains(err.Error(), "bad token") {
		t.Errorf("FetchItems() error = %v, want graphql error", err)
	}
}

func TestLinear_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewLinear("lin_key", srv.URL).ListBoards(context.Background())
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("ListBoards() error = %v, want status 401", err)
	}
}

func TestLinear_MoveToDonePicksFirstCompletedState(t *testing.T) {
	srv, seen := linearServer(t, map[string]string{
		"states": `{"data":{"issue":{"team":{"states":{"nodes":[
			{"id":"s-archive","type":"completed","position":9},
			{"id":"s-todo","type":"unstarted","position":1},
			{"id":"s-done","type":"completed","position":5}
		]}}}}}`,
		"issueUpdate": `{"data":{"issueUpdate":{"success":true}}}`,
	})

	if err := NewLinear("lin_key", srv.URL).MoveToDone(context.Background(), "uuid-1"); err != nil {
		t.Fatalf("MoveToDone() error = %v", err)
	}
	if len(*seen) != 2 {
		t.Fatalf("got %d requests, want 2", len(*seen))
	}
	vars := (*seen)[1]["variables"].(map[string]interface{})
	if vars["stateId"] != "s-done" {
		t.Errorf("stateId = %v, want s-done", vars["stateId"])
	}
}

func TestLinear_MoveWithoutMatchingState(t *testing.T) {
	srv, _ := linearServer(t, map[string]string{
		"states": `{"data":{"issue":{"team":{"states":{"nodes":[{"id":"s1","type":"unstarted","position":0}]}}}}}`,
	})

	err := NewLinear("lin_key", srv.URL).MoveToInProgress(context.Background(), "uuid-1")
	if err == nil || !strings.Contains(err.Error(), "started") {
		t.Errorf("MoveToInProgress() error = %v, want missing state error", err)
	}
}

func TestLinear_CreateItem(t *testing.T) {
	srv, seen := linearServer(t, map[string]string{
		"viewer { id }": `{"data":{"viewer":{"id":"user-1"},"teams":{"nodes":[{"id":"team-1"}]}}}`,
		"issueCreate": `{"data":{"issueCreate":{"success":true,"issue":
			{"id":"uuid-7","identifier":"ENG-7","title":"New thing","priority":0,"state":{"name":"Backlog"}}}}}`,
	})

	item, err := NewLinear("lin_key", srv.URL).CreateItem(context.Background(), "New thing", "body")
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	if item == nil || item.ID != "ENG-7" || item.Status != "Backlog" {
		t.Fatalf("CreateItem() = %+v", item)
	}

	input := (*seen)[1]["variables"].(map[string]interface{})["input"].(map[string]interface{})
	if input["teamId"] != "team-1" || input["assigneeId"] != "user-1" || input["description"] != "body" {
		t.Errorf("issueCreate input = %v", input)
	}
}

func TestLinearPriority(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, ""},
		{1, "Urgent"},
		{2, "High"},
		{3, "Medium"},
		{4, "Low"},
		{7, ""},
	}
	for _, tt := range tests {
		if got := linearPriority(tt.in); got != tt.want {
			t.Errorf("linearPriority(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
