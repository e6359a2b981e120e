// cmd/espresso/main.go
//
// This is the entry point for the Espresso Charts studio CLI.
//
// Flow:
// 1. Parse flags and load the week config
// 2. Validate (and stop there with -validate)
// 3. Short-circuit for -prompt (print a rendered LLM prompt), -push
//    (upload rendered assets to GitHub), or -article (Substack draft)
// 4. Wire the renderer, ffmpeg, and the ElevenLabs client
// 5. Run headless with -headless, or open the TUI console

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/espresso-charts/studio/internal/config"
	"github.com/espresso-charts/studio/internal/logbook"
	"github.com/espresso-charts/studio/internal/logging"
	"github.com/espresso-charts/studio/internal/mix"
	"github.com/espresso-charts/studio/internal/pipeline"
	"github.com/espresso-charts/studio/internal/prompts"
	"github.com/espresso-charts/studio/internal/publish"
	"github.com/espresso-charts/studio/internal/render"
	"github.com/espresso-charts/studio/internal/tui"
	"github.com/espresso-charts/studio/internal/voice"
	"github.com/espresso-charts/studio/internal/week"
)

func main() {
	weekPath := flag.String("week", "", "path to the week JSON config (required)")
	validateOnly := flag.Bool("validate", false, "validate and lint the week config, then exit")
	storyID := flag.Int("story", 0, "run only the story with this id")
	headless := flag.Bool("headless", false, "run the full pipeline without the TUI")
	promptName := flag.String("prompt", "", "print a rendered prompt (config, calendar, captions) and exit")
	push := flag.Bool("push", false, "push the week's rendered assets to the GitHub repo and exit")
	article := flag.String("article", "", "save a markdown file as a Substack draft and exit")
	flag.Parse()

	if *weekPath == "" {
		fmt.Fprintln(os.Stderr, "usage: espresso -week <week.json> [-validate] [-story N] [-headless] [-prompt NAME] [-push] [-article FILE]")
		os.Exit(2)
	}

	weekCfg, err := week.Load(*weekPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	warnings := weekCfg.Lint()
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.Path, w.Message)
	}
	if *validateOnly {
		fmt.Printf("Week %s is valid · %d stories · %d warning(s)\n",
			weekCfg.Week.Label(), len(weekCfg.Stories), len(warnings))
		return
	}

	if *storyID != 0 {
		trimmed, err := selectStory(weekCfg, *storyID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		weekCfg = trimmed
	}

	if *promptName != "" {
		text, err := renderPrompt(weekCfg, *promptName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(text)
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}
	if err := config.InitEspressoDir(cwd); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .espresso directory: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}

	if *push {
		if err := pushWeek(context.Background(), cfg, weekCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *article != "" {
		if err := draftArticle(context.Background(), cfg, weekCfg, *article); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	dispatcher, err := buildDispatcher(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store := pipeline.NewStore(cfg.StateDir())

	runner := func(ctx context.Context, wc *week.Config) pipeline.Report {
		report := dispatcher.RunWeek(ctx, wc)
		if _, err := store.Save(report); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save run report: %v\n", err)
		}
		return report
	}

	if *headless {
		report := runner(context.Background(), weekCfg)
		printReport(report)
		if !report.Completed() {
			os.Exit(1)
		}
		return
	}
	app, err := tui.NewApp(cfg, weekCfg, runner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// buildDispatcher wires the real collaborators: gg-based rendering,
// ffmpeg for encoding and mixing, and the ElevenLabs client for audio.
func buildDispatcher(cfg *config.Config) (*pipeline.Dispatcher, error) {
	logger, err := logging.New(cfg.ProjectDir)
	if err != nil {
		logger = logging.NewNop()
	}

	ffmpeg := mix.New(cfg.Settings.Tools.FFmpeg, cfg.Settings.Tools.FFprobe)

	renderer := render.New(ffmpeg,
		render.WithFonts(cfg.Settings.Fonts.Suptitle, cfg.Settings.Fonts.Subtitle))
	registry := pipeline.NewRegistry()
	if err := renderer.Register(registry); err != nil {
		return nil, err
	}

	apiKey := os.Getenv(cfg.Settings.Voice.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("voice API key missing: set %s", cfg.Settings.Voice.APIKeyEnv)
	}
	speech := voice.NewClient(apiKey)

	book, err := logbook.New(cfg.LogbookPath())
	if err != nil {
		book = nil
	}

	return pipeline.New(registry, speech, ffmpeg, cfg.AssetsDir(),
		pipeline.WithLogger(logger), pipeline.WithLogbook(book))
}

// renderPrompt prints one of the embedded LLM prompts filled in with the
// week's metadata. The captions prompt is per-story, so it needs -story.
func renderPrompt(weekCfg *week.Config, name string) (string, error) {
	prompt, err := prompts.Load(name)
	if err != nil {
		return "", err
	}
	slug := ""
	if len(weekCfg.Stories) == 1 {
		slug = weekCfg.Stories[0].Slug
	}
	if name == "captions" && slug == "" {
		return "", fmt.Errorf("the captions prompt is per-story: pass -story N")
	}
	return prompt.Render(prompts.WeekData(weekCfg, slug))
}

// pushWeek uploads every story's rendered assets to the configured
// GitHub repo as one story pack per slug.
func pushWeek(ctx context.Context, cfg *config.Config, weekCfg *week.Config) error {
	target := cfg.Settings.Publish.GitHub
	if target.Owner == "" || target.Repo == "" {
		return fmt.Errorf("publish.github is not configured in settings.yaml")
	}
	token := os.Getenv(target.TokenEnv)
	if token == "" {
		return fmt.Errorf("GitHub token missing: set %s", target.TokenEnv)
	}
	uploader := publish.NewGitHubUploader(token, target.Owner, target.Repo, target.Branch)

	for _, story := range weekCfg.Stories {
		storyDir := filepath.Join(cfg.AssetsDir(),
			fmt.Sprintf("%s-%s", weekCfg.Week.Label(), story.Slug), "assets")
		entries, err := os.ReadDir(storyDir)
		if err != nil {
			return fmt.Errorf("no rendered assets for %s (run the week first): %w", story.Slug, err)
		}
		files := make(map[string]string, len(entries))
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			files[entry.Name()] = filepath.Join(storyDir, entry.Name())
		}
		if err := uploader.PushStoryPack(ctx, weekCfg.Week.Year, story.Slug, files); err != nil {
			return err
		}
		fmt.Printf("Pushed %d file(s) for %s\n", len(files), story.Slug)
	}
	return nil
}

// draftArticle saves a markdown file as an unpublished Substack draft.
// The first "# " heading becomes the title; the rest is the body.
func draftArticle(ctx context.Context, cfg *config.Config, weekCfg *week.Config, path string) error {
	target := cfg.Settings.Publish.Substack
	if target.PublicationURL == "" {
		return fmt.Errorf("publish.substack is not configured in settings.yaml")
	}
	email := os.Getenv(target.EmailEnv)
	password := os.Getenv(target.PasswordEnv)
	if email == "" || password == "" {
		return fmt.Errorf("Substack credentials missing: set %s and %s", target.EmailEnv, target.PasswordEnv)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read article: %w", err)
	}
	title, body := splitArticle(string(data))
	if title == "" {
		title = fmt.Sprintf("Espresso Charts · week of %s", weekCfg.Week.Label())
	}

	publisher := publish.NewSubstackPublisher(target.PublicationURL, email, password)
	post, err := publisher.PostDraft(ctx, title, "", body)
	if err != nil {
		return err
	}
	fmt.Printf("Draft saved: %s (post %d)\n", post.Slug, post.ID)
	return nil
}

// splitArticle peels the leading "# " heading off a markdown document.
func splitArticle(doc string) (title, body string) {
	trimmed := strings.TrimLeft(doc, "\n")
	if !strings.HasPrefix(trimmed, "# ") {
		return "", doc
	}
	line, rest, _ := strings.Cut(trimmed, "\n")
	return strings.TrimSpace(strings.TrimPrefix(line, "# ")), strings.TrimLeft(rest, "\n")
}

// selectStory narrows the week to the single story with the given id.
func selectStory(cfg *week.Config, id int) (*week.Config, error) {
	for _, story := range cfg.Stories {
		if story.ID == id {
			narrowed := *cfg
			narrowed.Stories = []week.Story{story}
			return &narrowed, nil
		}
	}
	return nil, fmt.Errorf("no story with id %d in week %s", id, cfg.Week.Label())
}

func printReport(report pipeline.Report) {
	fmt.Printf("Run %s · week %s\n", report.RunID, report.Week)
	for _, story := range report.Stories {
		if story.Status == pipeline.StoryCompleted {
			fmt.Printf("  ✓ %s · %d asset(s) · reel %.1fs / voiceover %.1fs\n",
				story.Slug, len(story.Units), story.Estimate.ReelSeconds, story.Estimate.VoiceoverSeconds)
			continue
		}
		fmt.Printf("  ✗ %s · failed in %s: %s\n", story.Slug, story.FailedPhase, story.Err)
	}
}
