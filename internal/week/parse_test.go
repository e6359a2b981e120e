package week

import (
	"errors"
	"strings"
	"testing"
)

const validWeekJSON = `{
  "week": {"year": "2026", "month": "03", "week_start": "02"},
  "defaults": {
    "face_color": "cream",
    "dpi": 200,
    "px_width": 1080,
    "px_height": 1350,
    "suptitle_font": "DejaVu Serif",
    "subtitle_font": "DejaVu Sans",
    "voiceover": {"voice_name": "george", "model_name": "multilingual_v2", "stability": 0.5, "speed": 1.0},
    "audio_mix": {"voice_delay": 0.5, "voice_volume": 1.0, "music_volume": 0.18, "fade_in": 1.0, "fade_out": 2.0}
  },
  "stories": [
    {
      "id": 1,
      "slug": "buffett-indicator",
      "cover": {"txt_suptitle": "The Buffett\nIndicator", "txt_subtitle": "Market cap vs GDP"},
      "charts": [
        {
          "type": "bar",
          "data": {"country": ["JP", "DE", "US"], "ratio": [105.0, 118.0, 195.0]},
          "params": {"txt_suptitle": "Priciest markets", "txt_subtitle": "Buffett ratio by country", "txt_label": "Source: World Bank"}
        }
      ],
      "reel": {
        "animated_charts": [
          {"type": "cover_animate", "params": {"duration": 4}},
          {"type": "bar_animate", "params": {"duration": 12, "hold_frames": 120}}
        ],
        "voiceover": "The Buffett indicator compares market cap to GDP.",
        "music": {"preset": "editorial_minimal", "duration_ms": 30000}
      },
      "story_files": [[1, 1, "cover", "png"], [2, 1, "chart", "png"], [3, 1, "reel_with_voice", "mp4"]],
      "copy": {
        "instagram_carousel": {"body": "Markets vs the real economy."},
        "instagram_reel": {"body": "Is the market expensive?"},
        "substack_article": {"title": "The Buffett Indicator", "body": ""},
        "substack_note": {"body": "A quick look at valuations."}
      }
    }
  ]
}`

func TestParseAcceptsValidConfig(t *testing.T) {
	cfg, err := Parse([]byte(validWeekJSON))
	if err != nil {
		t.Fatalf("unexpected error parsing valid config: %v", err)
	}
	if len(cfg.Stories) != 1 {
		t.Fatalf("expected 1 story, got %d", len(cfg.Stories))
	}
	story := cfg.Stories[0]
	if story.Slug != "buffett-indicator" {
		t.Fatalf("unexpected slug %q", story.Slug)
	}
	if len(story.StoryFiles) != 3 {
		t.Fatalf("expected 3 story files, got %d", len(story.StoryFiles))
	}
	if story.StoryFiles[2].FileType != FileReelWithVoice {
		t.Fatalf("unexpected file type %q", story.StoryFiles[2].FileType)
	}
	if cfg.Week.Label() != "2026-03-02" {
		t.Fatalf("unexpected week label %q", cfg.Week.Label())
	}
}

func TestParseRejectsColumnLengthMismatch(t *testing.T) {
	payload := strings.Replace(validWeekJSON,
		`"ratio": [105.0, 118.0, 195.0]`,
		`"ratio": [105.0, 118.0]`, 1)
	_, err := Parse([]byte(payload))
	if err == nil {
		t.Fatalf("expected error for mismatched column lengths")
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %T: %v", err, err)
	}
	if schemaErr.Path != "stories[0].charts[0].data" {
		t.Fatalf("unexpected error path %q", schemaErr.Path)
	}
	if !strings.Contains(err.Error(), "column length mismatch") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseRejectsUnknownChartType(t *testing.T) {
	payload := strings.Replace(validWeekJSON, `"type": "bar"`, `"type": "scatter"`, 1)
	_, err := Parse([]byte(payload))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for unknown chart type, got %v", err)
	}
	if !strings.Contains(err.Error(), `unknown chart type "scatter"`) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseRejectsDuplicateStoryIDs(t *testing.T) {
	second := strings.Replace(validWeekJSON, `"slug": "buffett-indicator"`, `"slug": "second-story"`, 1)
	start := strings.Index(second, `{
      "id": 1,`)
	storyBlock := second[start:strings.LastIndex(second, "]")]
	payload := validWeekJSON[:strings.LastIndex(validWeekJSON, "]")] + "," + storyBlock + "]}"
	_, err := Parse([]byte(payload))
	if err == nil {
		t.Fatalf("expected error for duplicate story ids")
	}
	if !strings.Contains(err.Error(), "duplicate story id 1") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseRejectsReelWithoutCoverAnimate(t *testing.T) {
	payload := strings.Replace(validWeekJSON,
		`{"type": "cover_animate", "params": {"duration": 4}},`, "", 1)
	_, err := Parse([]byte(payload))
	var reelErr *ReelStructureError
	if !errors.As(err, &reelErr) {
		t.Fatalf("expected ReelStructureError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "missing its cover_animate entry") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseRejectsReelWithTwoCoverAnimates(t *testing.T) {
	payload := strings.Replace(validWeekJSON,
		`{"type": "bar_animate", "params": {"duration": 12, "hold_frames": 120}}`,
		`{"type": "bar_animate", "params": {"duration": 12, "hold_frames": 120}},
         {"type": "cover_animate", "params": {"duration": 4}}`, 1)
	_, err := Parse([]byte(payload))
	var reelErr *ReelStructureError
	if !errors.As(err, &reelErr) {
		t.Fatalf("expected ReelStructureError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "must be the first reel entry") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseRejectsReelWithoutChartAnimation(t *testing.T) {
	payload := strings.Replace(validWeekJSON,
		`,
          {"type": "bar_animate", "params": {"duration": 12, "hold_frames": 120}}`, "", 1)
	_, err := Parse([]byte(payload))
	var reelErr *ReelStructureError
	if !errors.As(err, &reelErr) {
		t.Fatalf("expected ReelStructureError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "at least one chart animation") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseRejectsUnsafeSlug(t *testing.T) {
	payload := strings.Replace(validWeekJSON, `"slug": "buffett-indicator"`, `"slug": "Buffett Indicator!"`, 1)
	_, err := Parse([]byte(payload))
	if err == nil || !strings.Contains(err.Error(), "filesystem-safe slug") {
		t.Fatalf("expected slug error, got %v", err)
	}
}

func TestLintFlagsUnsortedBarMeasure(t *testing.T) {
	payload := strings.Replace(validWeekJSON,
		`"ratio": [105.0, 118.0, 195.0]`,
		`"ratio": [195.0, 118.0, 105.0]`, 1)
	cfg, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	warnings := cfg.Lint()
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %d: %v", len(warnings), warnings)
	}
	if warnings[0].Path != "stories[0].charts[0].data.ratio" {
		t.Fatalf("unexpected warning path %q", warnings[0].Path)
	}
	if !strings.Contains(warnings[0].Message, "not sorted ascending") {
		t.Fatalf("unexpected warning: %v", warnings[0])
	}
}

func TestLintPassesSortedBarMeasure(t *testing.T) {
	cfg, err := Parse([]byte(validWeekJSON))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if warnings := cfg.Lint(); len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
}
