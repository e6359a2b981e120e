package week

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Editorial limits. These are quality guidance, not platform hard caps,
// so Lint reports them as warnings for human review.
const (
	instagramCaptionMaxChars = 2200
	substackNoteMaxWords     = 280
	substackArticleMinWords  = 400
	substackArticleMaxWords  = 1400
)

// Lint runs the content-quality checks that must never block rendering:
// bar measure ordering and copy length guidance. Violations are flagged,
// not fixed, because the right correction is editorial.
func (c *Config) Lint() []Warning {
	var warnings []Warning
	for si, story := range c.Stories {
		path := fmt.Sprintf("stories[%d]", si)
		for ci, chart := range story.Charts {
			if chart.Type != ChartBar {
				continue
			}
			if col, ok := unsortedMeasure(chart); ok {
				warnings = append(warnings, Warning{
					Path:    fmt.Sprintf("%s.charts[%d].data.%s", path, ci, col),
					Message: "bar chart measure values are not sorted ascending",
				})
			}
		}
		warnings = append(warnings, lintCopy(path+".copy", story.Copy)...)
	}
	return warnings
}

// unsortedMeasure finds the first numeric column of a bar chart whose
// values are not ascending. Bar charts read top-down, so descending data
// renders as a visually inverted ranking.
func unsortedMeasure(chart Chart) (string, bool) {
	for _, col := range sortedKeys(chart.Data) {
		values, ok := numericColumn(chart.Data[col])
		if !ok {
			continue
		}
		for i := 1; i < len(values); i++ {
			if values[i] < values[i-1] {
				return col, true
			}
		}
	}
	return "", false
}

func numericColumn(values []any) ([]float64, bool) {
	if len(values) == 0 {
		return nil, false
	}
	out := make([]float64, 0, len(values))
	for _, v := range values {
		n, ok := v.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func lintCopy(path string, bundle CopyBundle) []Warning {
	var warnings []Warning
	if n := utf8.RuneCountInString(bundle.InstagramCarousel.Body); n > instagramCaptionMaxChars {
		warnings = append(warnings, Warning{
			Path:    path + ".instagram_carousel",
			Message: fmt.Sprintf("caption is %d characters, over the %d limit", n, instagramCaptionMaxChars),
		})
	}
	if n := utf8.RuneCountInString(bundle.InstagramReel.Body); n > instagramCaptionMaxChars {
		warnings = append(warnings, Warning{
			Path:    path + ".instagram_reel",
			Message: fmt.Sprintf("caption is %d characters, over the %d limit", n, instagramCaptionMaxChars),
		})
	}
	if w := len(strings.Fields(bundle.SubstackNote.Body)); w > substackNoteMaxWords {
		warnings = append(warnings, Warning{
			Path:    path + ".substack_note",
			Message: fmt.Sprintf("note is %d words, over the %d guideline", w, substackNoteMaxWords),
		})
	}
	if w := len(strings.Fields(bundle.SubstackArticle.Body)); w > 0 &&
		(w < substackArticleMinWords || w > substackArticleMaxWords) {
		warnings = append(warnings, Warning{
			Path: path + ".substack_article",
			Message: fmt.Sprintf("article is %d words, outside the %d-%d guideline",
				w, substackArticleMinWords, substackArticleMaxWords),
		})
	}
	return warnings
}
