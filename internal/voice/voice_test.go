package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/espresso-charts/studio/internal/week"
)

func testSettings() week.VoiceoverDefaults {
	return week.VoiceoverDefaults{
		VoiceName: "george",
		ModelName: "multilingual_v2",
		Stability: 0.5,
		Speed:     1.0,
	}
}

func TestSynthesizeWritesAudio(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Header.Get("xi-api-key") != "key-123" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	c := NewClient("key-123", WithBaseURL(srv.URL))
	out := filepath.Join(t.TempDir(), "vo.mp3")
	if err := c.Synthesize(context.Background(), "Coffee prices rose.", testSettings(), out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if want := "/v1/text-to-speech/JBFqnCBsd6RMkjVDRZzb"; gotPath != want {
		t.Fatalf("path = %q, want %q", gotPath, want)
	}
	if gotBody["model_id"] != "eleven_multilingual_v2" {
		t.Fatalf("model_id = %v", gotBody["model_id"])
	}
	vs, ok := gotBody["voice_settings"].(map[string]any)
	if !ok {
		t.Fatalf("voice_settings missing: %v", gotBody)
	}
	if vs["stability"] != 0.5 {
		t.Fatalf("stability = %v", vs["stability"])
	}
	if _, present := vs["speed"]; present {
		t.Fatalf("speed 1.0 should be omitted, got %v", vs["speed"])
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Fatalf("output = %q", data)
	}
}

func TestSynthesizeSendsNonDefaultSpeed(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	settings := testSettings()
	settings.Speed = 1.05
	c := NewClient("k", WithBaseURL(srv.URL))
	if err := c.Synthesize(context.Background(), "hi", settings, filepath.Join(t.TempDir(), "vo.mp3")); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	vs := gotBody["voice_settings"].(map[string]any)
	if vs["speed"] != 1.05 {
		t.Fatalf("speed = %v, want 1.05", vs["speed"])
	}
}

func TestSynthesizeRejectsUnknownVoice(t *testing.T) {
	c := NewClient("k")
	settings := testSettings()
	settings.VoiceName = "nobody"
	err := c.Synthesize(context.Background(), "hi", settings, "vo.mp3")
	if err == nil || !strings.Contains(err.Error(), `unknown voice "nobody"`) {
		t.Fatalf("expected unknown voice error, got %v", err)
	}
}

func TestSynthesizeSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid key"}`))
	}))
	defer srv.Close()

	c := NewClient("bad", WithBaseURL(srv.URL))
	err := c.Synthesize(context.Background(), "hi", testSettings(), filepath.Join(t.TempDir(), "vo.mp3"))
	if err == nil || !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "invalid key") {
		t.Fatalf("expected API error with body snippet, got %v", err)
	}
}

func TestMusicUsesPresetPrompt(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte("music"))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	out := filepath.Join(t.TempDir(), "music.mp3")
	if err := c.Music(context.Background(), "lofi_coffee", 25250, out); err != nil {
		t.Fatalf("Music: %v", err)
	}
	if gotPath != "/v1/music/stream" {
		t.Fatalf("path = %q", gotPath)
	}
	prompt, _ := gotBody["prompt"].(string)
	if !strings.Contains(prompt, "lo-fi hip-hop") {
		t.Fatalf("prompt = %q", prompt)
	}
	if gotBody["music_length_ms"] != float64(25250) {
		t.Fatalf("music_length_ms = %v", gotBody["music_length_ms"])
	}
	if gotBody["force_instrumental"] != true {
		t.Fatalf("force_instrumental = %v", gotBody["force_instrumental"])
	}
}

func TestMusicRejectsUnknownPreset(t *testing.T) {
	c := NewClient("k")
	err := c.Music(context.Background(), "dubstep", 10000, "music.mp3")
	if err == nil || !strings.Contains(err.Error(), `unknown music preset "dubstep"`) {
		t.Fatalf("expected preset error, got %v", err)
	}
}

func TestListVoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"voices":[{"name":"George","voice_id":"JBFqnCBsd6RMkjVDRZzb","labels":{"accent":"british"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	voices, err := c.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 1 || voices[0].VoiceID != "JBFqnCBsd6RMkjVDRZzb" {
		t.Fatalf("voices = %+v", voices)
	}
	if voices[0].Labels["accent"] != "british" {
		t.Fatalf("labels = %v", voices[0].Labels)
	}
}
