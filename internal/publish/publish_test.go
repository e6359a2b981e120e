package publish

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)
}

func TestPushTextCreatesNewFile(t *testing.T) {
	var putBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/repos/espresso/charts/contents/") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&putBody)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	u := NewGitHubUploader("tok", "espresso", "charts", "", WithGitHubBaseURL(srv.URL), WithGitHubClock(fixedClock))
	if err := u.PushText(context.Background(), "caption text", "prompts/caption.md"); err != nil {
		t.Fatalf("PushText: %v", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(putBody["content"])
	if err != nil {
		t.Fatalf("content not base64: %v", err)
	}
	if string(decoded) != "caption text" {
		t.Fatalf("content = %q", decoded)
	}
	if putBody["branch"] != "main" {
		t.Fatalf("branch = %q", putBody["branch"])
	}
	if want := "Save caption.md [2026-02-25]"; putBody["message"] != want {
		t.Fatalf("message = %q, want %q", putBody["message"], want)
	}
	if _, ok := putBody["sha"]; ok {
		t.Fatalf("new file should not carry a sha")
	}
}

func TestPushFileIncludesSHAForExisting(t *testing.T) {
	var putBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"sha":"abc123"}`))
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&putBody)
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "chart.png")
	if err := os.WriteFile(local, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	u := NewGitHubUploader("tok", "o", "r", "work", WithGitHubBaseURL(srv.URL), WithGitHubClock(fixedClock))
	if err := u.PushFile(context.Background(), local, ""); err != nil {
		t.Fatalf("PushFile: %v", err)
	}
	if putBody["sha"] != "abc123" {
		t.Fatalf("sha = %q, want abc123", putBody["sha"])
	}
	if putBody["branch"] != "work" {
		t.Fatalf("branch = %q", putBody["branch"])
	}
}

func TestPushStoryPackMixesFilesAndText(t *testing.T) {
	var dests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			dests = append(dests, strings.TrimPrefix(r.URL.Path, "/repos/o/r/contents/"))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "cover.png")
	if err := os.WriteFile(local, []byte("png"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	u := NewGitHubUploader("tok", "o", "r", "", WithGitHubBaseURL(srv.URL), WithGitHubClock(fixedClock))
	err := u.PushStoryPack(context.Background(), "2026", "02-buffett-indicator", map[string]string{
		"caption.md": "the caption",
		"cover.png":  local,
	})
	if err != nil {
		t.Fatalf("PushStoryPack: %v", err)
	}
	want := []string{
		"content/2026/02-buffett-indicator/caption.md",
		"content/2026/02-buffett-indicator/cover.png",
	}
	if len(dests) != len(want) {
		t.Fatalf("dests = %v", dests)
	}
	for i := range want {
		if dests[i] != want[i] {
			t.Fatalf("dest[%d] = %q, want %q", i, dests[i], want[i])
		}
	}
}

func TestSubstackScheduleFlow(t *testing.T) {
	var loginCount int
	var createBody map[string]string
	var scheduleBody map[string]string
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		loginCount++
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/api/v1/posts", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&createBody)
		w.Write([]byte(`{"id":42,"slug":"buffett-indicator"}`))
	})
	mux.HandleFunc("/api/v1/posts/42/schedule", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&scheduleBody)
		w.Write([]byte(`{}`))
	})

	p := NewSubstackPublisher(srv.URL, "me@example.com", "pw", WithSubstackLoginURL(srv.URL+"/login"))
	publishAt := time.Date(2026, 2, 25, 8, 0, 0, 0, time.UTC)
	post, err := p.PostScheduled(context.Background(), "The Buffett Indicator Just Hit 200%", "Valuation check", "**bold** body", publishAt)
	if err != nil {
		t.Fatalf("PostScheduled: %v", err)
	}
	if post.ID != 42 || post.Slug != "buffett-indicator" {
		t.Fatalf("post = %+v", post)
	}
	if loginCount != 1 {
		t.Fatalf("login called %d times", loginCount)
	}
	if createBody["type"] != "newsletter" || createBody["audience"] != "everyone" {
		t.Fatalf("create body = %v", createBody)
	}
	if !strings.Contains(createBody["draft_body"], "<strong>bold</strong>") {
		t.Fatalf("markdown not rendered: %q", createBody["draft_body"])
	}
	if scheduleBody["post_date"] != "2026-02-25T08:00:00Z" {
		t.Fatalf("post_date = %q", scheduleBody["post_date"])
	}
}

func TestSubstackLoginOnce(t *testing.T) {
	var loginCount int
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		loginCount++
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/api/v1/posts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":1,"slug":"a"}`))
	})

	p := NewSubstackPublisher(srv.URL, "me@example.com", "pw", WithSubstackLoginURL(srv.URL+"/login"))
	for i := 0; i < 2; i++ {
		if _, err := p.PostDraft(context.Background(), "t", "s", "body"); err != nil {
			t.Fatalf("PostDraft %d: %v", i, err)
		}
	}
	if loginCount != 1 {
		t.Fatalf("login called %d times, want 1", loginCount)
	}
}

func TestSubstackSurfacesCreateError(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/api/v1/posts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"not your publication"}`))
	})

	p := NewSubstackPublisher(srv.URL, "me@example.com", "pw", WithSubstackLoginURL(srv.URL+"/login"))
	_, err := p.PostDraft(context.Background(), "t", "s", "body")
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "not your publication") {
		t.Fatalf("expected create error, got %v", err)
	}
}
