// internal/prompts/prompts.go
// Package prompts holds the embedded LLM prompt templates the editorial
// flow pastes into a model: the week config builder, the posting
// calendar, and the per-story caption pack. Each template is markdown
// with a YAML frontmatter block describing the prompt.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/espresso-charts/studio/internal/palette"
	"github.com/espresso-charts/studio/internal/week"
)

//go:embed templates/*.md
var templateFS embed.FS

var (
	// ErrMissingFrontMatter indicates a template did not start with a YAML fence.
	ErrMissingFrontMatter = errors.New("prompts: missing frontmatter")
	// ErrMalformedFrontMatter indicates the YAML block could not be parsed.
	ErrMalformedFrontMatter = errors.New("prompts: malformed frontmatter")
)

// Meta describes one prompt template, taken from its frontmatter.
type Meta struct {
	Name        string
	Title       string
	Description string
	Output      string
}

type envelope struct {
	Prompt struct {
		Name        string `yaml:"name"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Output      string `yaml:"output"`
	} `yaml:"prompt"`
}

// Prompt is a parsed template ready to render.
type Prompt struct {
	Meta Meta
	tmpl *template.Template
}

// Data carries everything the templates can reference.
type Data struct {
	Year          string
	Month         string
	WeekStart     string
	Stories       []StoryRef
	StorySlug     string
	VoiceName     string
	PaletteTokens []string
}

// StoryRef is the id/slug pair templates iterate over.
type StoryRef struct {
	ID   string
	Slug string
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// Load parses the named embedded template, for example "config".
func Load(name string) (*Prompt, error) {
	raw, err := templateFS.ReadFile("templates/" + name + "_prompt.md")
	if err != nil {
		return nil, fmt.Errorf("prompts: unknown prompt %q", name)
	}
	meta, body, err := parseFrontMatter(raw)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Funcs(funcs).Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("prompts: parse template %q: %w", name, err)
	}
	return &Prompt{Meta: meta, tmpl: tmpl}, nil
}

// Names lists the available prompt names in sorted order.
func Names() []string {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), "_prompt.md")
		if name != entry.Name() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Render executes the template against the given data.
func (p *Prompt) Render(data Data) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompts: render %q: %w", p.Meta.Name, err)
	}
	return buf.String(), nil
}

// WeekData builds template data from a parsed week config. storySlug may
// be empty for week-level prompts.
func WeekData(cfg *week.Config, storySlug string) Data {
	data := Data{
		Year:          cfg.Week.Year,
		Month:         cfg.Week.Month,
		WeekStart:     cfg.Week.WeekStart,
		StorySlug:     storySlug,
		VoiceName:     cfg.Defaults.Voiceover.VoiceName,
		PaletteTokens: palette.Tokens(),
	}
	for _, story := range cfg.Stories {
		data.Stories = append(data.Stories, StoryRef{ID: fmt.Sprintf("%02d", story.ID), Slug: story.Slug})
	}
	return data
}

func parseFrontMatter(content []byte) (Meta, []byte, error) {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return Meta{}, nil, ErrMissingFrontMatter
	}
	rest := normalized[4:]
	parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return Meta{}, nil, ErrMalformedFrontMatter
	}
	var env envelope
	if err := yaml.Unmarshal(parts[0], &env); err != nil {
		return Meta{}, nil, fmt.Errorf("prompts: parse frontmatter: %w", err)
	}
	if env.Prompt.Name == "" || env.Prompt.Title == "" {
		return Meta{}, nil, ErrMalformedFrontMatter
	}
	meta := Meta{
		Name:        env.Prompt.Name,
		Title:       env.Prompt.Title,
		Description: env.Prompt.Description,
		Output:      env.Prompt.Output,
	}
	return meta, bytes.TrimLeft(parts[1], "\n"), nil
}
