package week

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Parse decodes and validates a week configuration document. Structural
// problems return a SchemaError or ReelStructureError pointing at the
// offending path; a returned Config has passed every parse-time rule.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &SchemaError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses a week configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("week config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Validate enforces every structural rule on an already-decoded config.
func (c *Config) Validate() error {
	if c.Week.Year == "" || len(c.Week.Year) != 4 {
		return schemaErrorf("week.year", "must be a 4-digit year string, got %q", c.Week.Year)
	}
	if c.Week.Month == "" || len(c.Week.Month) != 2 {
		return schemaErrorf("week.month", "must be a 2-digit month string, got %q", c.Week.Month)
	}
	if c.Week.WeekStart == "" {
		return schemaErrorf("week.week_start", "is required")
	}
	if len(c.Stories) == 0 {
		return schemaErrorf("stories", "at least one story is required")
	}
	if s := c.Defaults.Voiceover.Stability; s < 0 || s > 1 {
		return schemaErrorf("defaults.voiceover.stability", "must be in [0,1], got %v", s)
	}
	if c.Defaults.Voiceover.Speed < 0 {
		return schemaErrorf("defaults.voiceover.speed", "must not be negative, got %v", c.Defaults.Voiceover.Speed)
	}

	seenIDs := map[int]int{}
	seenSlugs := map[string]int{}
	for idx, story := range c.Stories {
		path := fmt.Sprintf("stories[%d]", idx)
		if prev, dup := seenIDs[story.ID]; dup {
			return schemaErrorf(path+".id", "duplicate story id %d (also used by stories[%d])", story.ID, prev)
		}
		seenIDs[story.ID] = idx
		if !slugSafe(story.Slug) {
			return schemaErrorf(path+".slug", "must be a non-empty filesystem-safe slug, got %q", story.Slug)
		}
		if prev, dup := seenSlugs[story.Slug]; dup {
			return schemaErrorf(path+".slug", "duplicate slug %q (also used by stories[%d])", story.Slug, prev)
		}
		seenSlugs[story.Slug] = idx
		if err := validateStory(path, story); err != nil {
			return err
		}
	}
	return nil
}

func validateStory(path string, story Story) error {
	if len(story.Charts) == 0 {
		return schemaErrorf(path+".charts", "at least one chart is required")
	}
	for ci, chart := range story.Charts {
		chartPath := fmt.Sprintf("%s.charts[%d]", path, ci)
		if !chart.Type.Valid() {
			return schemaErrorf(chartPath+".type", "unknown chart type %q", string(chart.Type))
		}
		if err := validateChartData(chartPath+".data", chart.Data, true); err != nil {
			return err
		}
	}
	if err := validateReel(path+".reel", story.Reel); err != nil {
		return err
	}
	for fi, file := range story.StoryFiles {
		if !file.FileType.Valid() {
			return schemaErrorf(fmt.Sprintf("%s.story_files[%d]", path, fi),
				"unknown file type %q", string(file.FileType))
		}
	}
	return nil
}

// validateChartData checks that every column in one chart shares a single
// length. Static charts require data; animated entries may omit it and
// reuse the static chart's columns.
func validateChartData(path string, data map[string][]any, required bool) error {
	if len(data) == 0 {
		if required {
			return schemaErrorf(path, "chart data is required")
		}
		return nil
	}
	length := -1
	var ref string
	for _, col := range sortedKeys(data) {
		values := data[col]
		if length == -1 {
			length = len(values)
			ref = col
			continue
		}
		if len(values) != length {
			return schemaErrorf(path,
				"column length mismatch: %q has %d values, %q has %d", col, len(values), ref, length)
		}
	}
	return nil
}

func validateReel(path string, reel Reel) error {
	if len(reel.AnimatedCharts) == 0 {
		return reelErrorf(path+".animated_charts", "reel has no animated charts")
	}
	covers := 0
	chartAnims := 0
	for ai, entry := range reel.AnimatedCharts {
		entryPath := fmt.Sprintf("%s.animated_charts[%d]", path, ai)
		if !entry.Type.Valid() {
			return schemaErrorf(entryPath+".type", "unknown animation type %q", string(entry.Type))
		}
		if entry.Type == AnimateCover {
			covers++
			if ai != 0 {
				return reelErrorf(entryPath, "cover_animate must be the first reel entry")
			}
		} else {
			chartAnims++
		}
		if err := validateChartData(entryPath+".data", entry.Data, false); err != nil {
			return err
		}
	}
	if covers == 0 {
		return reelErrorf(path+".animated_charts", "reel is missing its cover_animate entry")
	}
	if covers > 1 {
		return reelErrorf(path+".animated_charts", "reel has %d cover_animate entries, want exactly 1", covers)
	}
	if chartAnims == 0 {
		return reelErrorf(path+".animated_charts", "reel needs at least one chart animation")
	}
	if reel.Voiceover == "" {
		return schemaErrorf(path+".voiceover", "voiceover text is required")
	}
	if reel.Music.DurationMS <= 0 {
		return schemaErrorf(path+".music.duration_ms", "must be a positive duration in milliseconds")
	}
	return nil
}

func sortedKeys(m map[string][]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
