// internal/week/week.go
//
// This package models one week of content configuration: week metadata,
// global defaults, and the stories that turn into carousels and reels.
// Raw JSON is converted here, at the boundary, into closed typed values
// so that missing-key surprises become parse-time failures.

package week

import (
	"fmt"
	"strings"
)

// ChartType enumerates the static chart renderers a story can reference.
type ChartType string

const (
	ChartBar   ChartType = "bar"
	ChartLine  ChartType = "line"
	ChartStem  ChartType = "stem"
	ChartDonut ChartType = "donut"
)

// KnownChartTypes lists every accepted ChartType in a stable order.
var KnownChartTypes = []ChartType{ChartBar, ChartLine, ChartStem, ChartDonut}

// Valid reports whether the tag is one of the closed chart types.
func (t ChartType) Valid() bool {
	switch t {
	case ChartBar, ChartLine, ChartStem, ChartDonut:
		return true
	}
	return false
}

// AnimationType enumerates the animated render units inside a reel.
type AnimationType string

const (
	AnimateCover AnimationType = "cover_animate"
	AnimateBar   AnimationType = "bar_animate"
	AnimateLine  AnimationType = "line_animate"
	AnimateStem  AnimationType = "stem_animate"
	AnimateDonut AnimationType = "donut_animate"
)

// Valid reports whether the tag is one of the closed animation types.
func (t AnimationType) Valid() bool {
	switch t {
	case AnimateCover, AnimateBar, AnimateLine, AnimateStem, AnimateDonut:
		return true
	}
	return false
}

// ChartType returns the static counterpart of a chart-animation tag.
// The cover animation has no static chart counterpart.
func (t AnimationType) ChartType() (ChartType, bool) {
	switch t {
	case AnimateBar:
		return ChartBar, true
	case AnimateLine:
		return ChartLine, true
	case AnimateStem:
		return ChartStem, true
	case AnimateDonut:
		return ChartDonut, true
	}
	return "", false
}

// Params is an open key/value parameter set. Keys use the config's
// snake_case names; values are whatever JSON produced (string, float64,
// bool, nested slices). The mapper translates keys for the renderer.
type Params map[string]any

// Clone returns a shallow copy. Parameter values are never mutated after
// parse, so a shallow copy is enough for resolution layering.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Float reads a numeric parameter. JSON numbers arrive as float64; ints
// written by Go callers are accepted too.
func (p Params) Float(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// String reads a string parameter.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Meta holds the week identity used for output directory naming.
type Meta struct {
	Year      string `json:"year"`
	Month     string `json:"month"`
	WeekStart string `json:"week_start"`
}

// Label renders the week identity as YYYY-MM-DD.
func (m Meta) Label() string {
	return fmt.Sprintf("%s-%s-%s", m.Year, m.Month, m.WeekStart)
}

// VoiceoverDefaults carries the global text-to-speech settings.
type VoiceoverDefaults struct {
	VoiceName string  `json:"voice_name"`
	ModelName string  `json:"model_name"`
	Stability float64 `json:"stability"`
	Speed     float64 `json:"speed"`
}

// AudioMixDefaults carries the global audio overlay settings, all seconds
// except the two volume multipliers.
type AudioMixDefaults struct {
	VoiceDelay  float64 `json:"voice_delay"`
	VoiceVolume float64 `json:"voice_volume"`
	MusicVolume float64 `json:"music_volume"`
	FadeIn      float64 `json:"fade_in"`
	FadeOut     float64 `json:"fade_out"`
}

// Defaults is the week-wide fallback block. It is read by the resolver
// and never mutated after parse.
type Defaults struct {
	FaceColor    string            `json:"face_color"`
	DPI          int               `json:"dpi"`
	PxWidth      int               `json:"px_width"`
	PxHeight     int               `json:"px_height"`
	SuptitleFont string            `json:"suptitle_font"`
	SubtitleFont string            `json:"subtitle_font"`
	Voiceover    VoiceoverDefaults `json:"voiceover"`
	AudioMix     AudioMixDefaults  `json:"audio_mix"`
}

// Chart is one static chart: a closed type tag, column data, and the
// type-specific parameters that ride on top of the defaults.
type Chart struct {
	Type   ChartType        `json:"type"`
	Data   map[string][]any `json:"data"`
	Params Params           `json:"params"`
}

// Music selects a background-music preset and its generated length.
type Music struct {
	Preset     string `json:"preset"`
	DurationMS int    `json:"duration_ms"`
}

// VoiceoverOverride lets one story adjust individual voiceover settings
// without restating the whole defaults block. Nil fields inherit.
type VoiceoverOverride struct {
	VoiceName *string  `json:"voice_name,omitempty"`
	ModelName *string  `json:"model_name,omitempty"`
	Stability *float64 `json:"stability,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
}

// AudioMixOverride mirrors VoiceoverOverride for the audio mix block.
type AudioMixOverride struct {
	VoiceDelay  *float64 `json:"voice_delay,omitempty"`
	VoiceVolume *float64 `json:"voice_volume,omitempty"`
	MusicVolume *float64 `json:"music_volume,omitempty"`
	FadeIn      *float64 `json:"fade_in,omitempty"`
	FadeOut     *float64 `json:"fade_out,omitempty"`
}

// AnimatedChart is one animated render unit inside a reel.
type AnimatedChart struct {
	Type   AnimationType    `json:"type"`
	Data   map[string][]any `json:"data,omitempty"`
	Params Params           `json:"params"`
}

// Reel describes the story's vertical video: one animated cover, one or
// more animated charts, the voiceover script, and the music selection.
type Reel struct {
	AnimatedCharts []AnimatedChart    `json:"animated_charts"`
	Voiceover      string             `json:"voiceover"`
	Music          Music              `json:"music"`
	Voice          *VoiceoverOverride `json:"voice,omitempty"`
	AudioMix       *AudioMixOverride  `json:"audio_mix,omitempty"`
}

// ChartAnimations returns the reel entries that are chart animations,
// skipping the cover.
func (r Reel) ChartAnimations() []AnimatedChart {
	var out []AnimatedChart
	for _, entry := range r.AnimatedCharts {
		if entry.Type != AnimateCover {
			out = append(out, entry)
		}
	}
	return out
}

// CoverAnimation returns the reel's cover entry, if present.
func (r Reel) CoverAnimation() (AnimatedChart, bool) {
	for _, entry := range r.AnimatedCharts {
		if entry.Type == AnimateCover {
			return entry, true
		}
	}
	return AnimatedChart{}, false
}

// CopyText is one editorial text package.
type CopyText struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

// CopyBundle groups the four per-story text packages. Length limits on
// these are editorial quality rules surfaced by Lint, never hard errors.
type CopyBundle struct {
	InstagramCarousel CopyText `json:"instagram_carousel"`
	InstagramReel     CopyText `json:"instagram_reel"`
	SubstackArticle   CopyText `json:"substack_article"`
	SubstackNote      CopyText `json:"substack_note"`
}

// Story is one content unit: cover, charts, reel, copy, and the declared
// output manifest. Constructed once from JSON and never mutated after
// validation.
type Story struct {
	ID         int              `json:"id"`
	Slug       string           `json:"slug"`
	Cover      Params           `json:"cover"`
	Charts     []Chart          `json:"charts"`
	Reel       Reel             `json:"reel"`
	StoryFiles []FileDescriptor `json:"story_files,omitempty"`
	Copy       CopyBundle       `json:"copy"`
}

// Config is the top-level week document.
type Config struct {
	Week     Meta     `json:"week"`
	Defaults Defaults `json:"defaults"`
	Stories  []Story  `json:"stories"`
}

// StoryBySlug looks a story up by its slug.
func (c *Config) StoryBySlug(slug string) (Story, bool) {
	for _, story := range c.Stories {
		if story.Slug == slug {
			return story, true
		}
	}
	return Story{}, false
}

// slugSafe reports whether a slug is usable as a directory name.
func slugSafe(slug string) bool {
	if slug == "" {
		return false
	}
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return !strings.HasPrefix(slug, "-")
}
