// internal/voice/voice.go
// Package voice generates voiceover narration and background music through
// the ElevenLabs HTTP API. The API surface used here is small enough that
// a raw net/http client beats carrying an SDK.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/espresso-charts/studio/internal/week"
)

const defaultBaseURL = "https://api.elevenlabs.io"

// Voices maps the short names used in week configs to the pre-made
// ElevenLabs voice IDs available to every account.
var Voices = map[string]string{
	"adam":   "pNInz6obpgDQGcFmaJgB",
	"rachel": "21m00Tcm4TlvDq8ikWAM",
	"clyde":  "2EiwWnXFnvU5JabPnv8n",
	"domi":   "AZnzlk1XvdvUeBnXmlld",
	"bella":  "EXAVITQu4vr4xnSDxMaL",
	"antoni": "ErXwobaYiN019PkySvjV",
	"josh":   "TxGEqnHWrfWFTfGW9XjX",
	"sam":    "yoZ06aMxZJJ28mfd3POQ",
	"george": "JBFqnCBsd6RMkjVDRZzb",
}

// Models maps model shortcuts to full TTS model IDs. Unknown names pass
// through untouched so configs can use full IDs directly.
var Models = map[string]string{
	"v3":              "eleven_v3",
	"multilingual_v2": "eleven_multilingual_v2",
	"turbo_v2.5":      "eleven_turbo_v2_5",
	"flash_v2.5":      "eleven_flash_v2_5",
}

// MusicPresets are house prompts for the background tracks behind reels.
var MusicPresets = map[string]string{
	"lofi_coffee": "Gentle lo-fi hip-hop instrumental, soft Rhodes piano chords, " +
		"warm vinyl crackle, slow tempo 75 BPM, relaxed coffee shop vibe, " +
		"no vocals, ambient and minimal",
	"editorial_minimal": "Minimal ambient instrumental, soft piano with subtle synth pads, " +
		"calm and professional tone, 80 BPM, no percussion, " +
		"suitable as background for news or data journalism",
	"upbeat_data": "Light upbeat instrumental, acoustic guitar and soft percussion, " +
		"positive and curious mood, 100 BPM, clean and modern, no vocals",
	"morning_news": "Warm jazz instrumental, brushed drums, upright bass walking line, " +
		"muted trumpet melody, 90 BPM, morning radio feel, no vocals",
}

// PresetNames returns the music preset keys in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(MusicPresets))
	for name := range MusicPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Client talks to the ElevenLabs TTS and Music endpoints.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// Option adjusts a Client at construction time.
type Option func(*Client)

// WithBaseURL points the client at a different API host, used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient returns a client authenticated with the given API key. Music
// generation can take over a minute, so the default timeout is generous.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 3 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VoiceInfo is one entry from the account voice listing.
type VoiceInfo struct {
	Name    string            `json:"name"`
	VoiceID string            `json:"voice_id"`
	Labels  map[string]string `json:"labels"`
}

// ListVoices fetches the voices available to the account.
func (c *Client) ListVoices(ctx context.Context) ([]VoiceInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("voice: build list request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice: list voices: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list voices", resp)
	}

	var body struct {
		Voices []VoiceInfo `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("voice: decode voice listing: %w", err)
	}
	return body.Voices, nil
}

type voiceSettings struct {
	Stability       float64  `json:"stability"`
	SimilarityBoost float64  `json:"similarity_boost"`
	Style           float64  `json:"style"`
	UseSpeakerBoost bool     `json:"use_speaker_boost"`
	Speed           *float64 `json:"speed,omitempty"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	OutputFormat  string        `json:"output_format"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize converts the narration script to an MP3 at outPath using the
// voice and model named in the settings.
func (c *Client) Synthesize(ctx context.Context, text string, settings week.VoiceoverDefaults, outPath string) error {
	voiceID, ok := Voices[strings.ToLower(settings.VoiceName)]
	if !ok {
		return fmt.Errorf("voice: unknown voice %q, options are %s",
			settings.VoiceName, strings.Join(voiceNames(), ", "))
	}
	modelID := settings.ModelName
	if full, ok := Models[modelID]; ok {
		modelID = full
	}

	payload := ttsRequest{
		Text:         text,
		ModelID:      modelID,
		OutputFormat: "mp3_44100_128",
		VoiceSettings: voiceSettings{
			Stability:       settings.Stability,
			SimilarityBoost: 0.75,
			Style:           0.0,
			UseSpeakerBoost: true,
		},
	}
	if settings.Speed != 1.0 {
		speed := settings.Speed
		payload.VoiceSettings.Speed = &speed
	}

	return c.postAudio(ctx, "/v1/text-to-speech/"+voiceID, payload, outPath, "synthesize voiceover")
}

// Music generates an instrumental background track from the named preset
// and writes the MP3 to outPath.
func (c *Client) Music(ctx context.Context, preset string, durationMS int, outPath string) error {
	prompt, ok := MusicPresets[preset]
	if !ok {
		return fmt.Errorf("voice: unknown music preset %q, options are %s",
			preset, strings.Join(PresetNames(), ", "))
	}
	payload := map[string]any{
		"prompt":             prompt,
		"music_length_ms":    durationMS,
		"force_instrumental": true,
		"output_format":      "mp3_44100_128",
	}
	return c.postAudio(ctx, "/v1/music/stream", payload, outPath, "generate music")
}

func (c *Client) postAudio(ctx context.Context, path string, payload any, outPath, op string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("voice: encode %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("voice: build %s request: %w", op, err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("voice: %s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(op, resp)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("voice: create %s: %w", outPath, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("voice: write %s: %w", outPath, err)
	}
	return nil
}

func apiError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
	return fmt.Errorf("voice: %s: API returned %d: %s", op, resp.StatusCode, strings.TrimSpace(string(snippet)))
}

func voiceNames() []string {
	names := make([]string, 0, len(Voices))
	for name := range Voices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
