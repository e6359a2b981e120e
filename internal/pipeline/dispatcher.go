// internal/pipeline/dispatcher.go
//
// The dispatcher is the routing and sequencing layer. It owns no
// rendering logic: each unit's parameters are resolved, mapped, and
// handed to whatever the registry holds for the unit's tag. Order within
// a story is fixed because later phases consume earlier phases' files.
// A validation or render failure stops that story only; the rest of the
// week keeps going.

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/espresso-charts/studio/internal/logbook"
	"github.com/espresso-charts/studio/internal/logging"
	"github.com/espresso-charts/studio/internal/mapper"
	"github.com/espresso-charts/studio/internal/resolve"
	"github.com/espresso-charts/studio/internal/timing"
	"github.com/espresso-charts/studio/internal/week"
)

// Voice is the text-to-speech and music capability the audio phase
// delegates to.
type Voice interface {
	Synthesize(ctx context.Context, text string, settings week.VoiceoverDefaults, outPath string) error
	Music(ctx context.Context, preset string, durationMS int, outPath string) error
}

// Mixer is the external encoding capability: concatenating reel
// segments and overlaying the audio tracks.
type Mixer interface {
	Concatenate(ctx context.Context, inputs []string, outPath string) error
	AddAudio(ctx context.Context, videoPath, voicePath, musicPath, outPath string, mix week.AudioMixDefaults) error
}

// Dispatcher sequences a week's render units through the registry.
type Dispatcher struct {
	registry *Registry
	voice    Voice
	mixer    Mixer
	outRoot  string
	log      *logging.Logger
	book     *logbook.Logbook
	clock    func() time.Time
	newRunID func() string
}

// Option customizes the dispatcher.
type Option func(*Dispatcher)

// WithLogger attaches a structured logger.
func WithLogger(log *logging.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithLogbook attaches the human-readable run logbook.
func WithLogbook(book *logbook.Logbook) Option {
	return func(d *Dispatcher) { d.book = book }
}

// WithClock injects a deterministic clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(d *Dispatcher) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// WithRunID injects a deterministic run-id source for tests.
func WithRunID(gen func() string) Option {
	return func(d *Dispatcher) {
		if gen != nil {
			d.newRunID = gen
		}
	}
}

// New wires a dispatcher to its collaborators. outRoot is the directory
// per-story asset trees are created under.
func New(registry *Registry, voice Voice, mixer Mixer, outRoot string, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, fmt.Errorf("pipeline: registry is required")
	}
	if voice == nil {
		return nil, fmt.Errorf("pipeline: voice capability is required")
	}
	if mixer == nil {
		return nil, fmt.Errorf("pipeline: mixer capability is required")
	}
	if outRoot == "" {
		return nil, fmt.Errorf("pipeline: output root is required")
	}
	d := &Dispatcher{
		registry: registry,
		voice:    voice,
		mixer:    mixer,
		outRoot:  outRoot,
		log:      logging.NewNop(),
		clock:    time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// RunWeek processes every story in order. Stories are isolated: one
// story's failure is recorded and the next story still runs.
func (d *Dispatcher) RunWeek(ctx context.Context, cfg *week.Config) Report {
	report := Report{
		RunID:     d.newRunID(),
		Week:      cfg.Week.Label(),
		StartedAt: d.clock(),
	}
	d.log.Info("week run started", "run_id", report.RunID, "week", report.Week, "stories", len(cfg.Stories))
	d.book.Info("run %s started for week %s", report.RunID, report.Week)

	for _, story := range cfg.Stories {
		if ctx.Err() != nil {
			break
		}
		storyReport := d.runStory(ctx, cfg, story)
		report.Stories = append(report.Stories, storyReport)
		if storyReport.Status == StoryFailed {
			d.log.Error("story failed",
				"slug", story.Slug, "phase", string(storyReport.FailedPhase), "err", storyReport.Err)
			continue
		}
		d.log.Info("story completed", "slug", story.Slug, "units", len(storyReport.Units))
	}

	report.FinishedAt = d.clock()
	d.book.Info("run %s finished: %d/%d stories completed",
		report.RunID, len(report.Stories)-len(report.Failed()), len(report.Stories))
	return report
}

// runStory executes the fixed phase sequence for one story, stopping at
// the first failure.
func (d *Dispatcher) runStory(ctx context.Context, cfg *week.Config, story week.Story) StoryReport {
	report := StoryReport{StoryID: story.ID, Slug: story.Slug, Status: StoryCompleted}

	fail := func(phase Phase, err error) StoryReport {
		report.Status = StoryFailed
		report.FailedPhase = phase
		report.Err = err.Error()
		d.book.Story(logbook.LevelError, story.Slug, string(phase), err.Error())
		return report
	}

	// Validation runs first so a broken reel never pays for rendering.
	entries := resolvedEntries(cfg.Defaults, story.Reel)
	estimate, err := timing.Validate(story.Reel, entries)
	report.Estimate = estimate
	if err != nil {
		return fail(PhaseValidate, err)
	}
	d.book.Story(logbook.LevelInfo, story.Slug, string(PhaseValidate),
		fmt.Sprintf("reel %.2fs, voiceover %.2fs", estimate.ReelSeconds, estimate.VoiceoverSeconds))

	storyDir := filepath.Join(d.outRoot, fmt.Sprintf("%s-%s", cfg.Week.Label(), story.Slug), "assets")
	if err := os.MkdirAll(storyDir, 0o755); err != nil {
		return fail(PhaseCover, fmt.Errorf("create story dir: %w", err))
	}

	// Cover first: reel assembly references it as the thumbnail.
	coverPath := filepath.Join(storyDir, "cover.png")
	coverParams := mapper.MapCover(resolve.Cover(cfg.Defaults, story.Cover))
	if err := d.render(ctx, RenderRequest{
		Slug: story.Slug, Unit: "cover", Tag: "cover",
		Params: coverParams, OutputPath: coverPath,
	}, &report); err != nil {
		return fail(PhaseCover, err)
	}

	for i, chart := range story.Charts {
		mapped, err := mapper.MapChart(chart.Type, resolve.Chart(cfg.Defaults, chart))
		if err != nil {
			return fail(PhaseCharts, err)
		}
		path := filepath.Join(storyDir, fmt.Sprintf("chart%d_%s.png", i+1, chart.Type))
		if err := d.render(ctx, RenderRequest{
			Slug: story.Slug, Unit: fmt.Sprintf("charts[%d]", i), Tag: string(chart.Type),
			Data: chart.Data, Params: mapped, OutputPath: path,
		}, &report); err != nil {
			return fail(PhaseCharts, err)
		}
	}

	segments, err := d.renderReelSegments(ctx, storyDir, story, entries, &report)
	if err != nil {
		return fail(PhaseReel, err)
	}
	reelPath := filepath.Join(storyDir, fmt.Sprintf("reel_%s.mp4", story.Slug))
	if err := d.mixer.Concatenate(ctx, segments, reelPath); err != nil {
		return fail(PhaseReel, fmt.Errorf("concatenate reel: %w", err))
	}
	report.Units = append(report.Units, UnitReport{Unit: "reel", Tag: "reel", Path: reelPath})
	d.book.Story(logbook.LevelInfo, story.Slug, string(PhaseReel), "assembled "+filepath.Base(reelPath))

	if err := d.mixAudio(ctx, storyDir, cfg, story, reelPath, &report); err != nil {
		return fail(PhaseAudio, err)
	}
	return report
}

// renderReelSegments produces one silent video segment per animated
// entry, in reel order.
func (d *Dispatcher) renderReelSegments(ctx context.Context, storyDir string, story week.Story, entries []timing.Entry, report *StoryReport) ([]string, error) {
	var segments []string
	for i, entry := range story.Reel.AnimatedCharts {
		mapped, err := mapper.MapAnimation(entry.Type, entries[i].Params)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(storyDir, fmt.Sprintf("segment%d_%s.mp4", i+1, entry.Type))
		if err := d.render(ctx, RenderRequest{
			Slug: story.Slug, Unit: fmt.Sprintf("reel.animated_charts[%d]", i), Tag: string(entry.Type),
			Data: entry.Data, Params: mapped, OutputPath: path,
		}, report); err != nil {
			return nil, err
		}
		segments = append(segments, path)
	}
	return segments, nil
}

// mixAudio synthesizes the voiceover, generates music, and overlays both
// onto the assembled reel.
func (d *Dispatcher) mixAudio(ctx context.Context, storyDir string, cfg *week.Config, story week.Story, reelPath string, report *StoryReport) error {
	voiceSettings := resolve.Voiceover(cfg.Defaults.Voiceover, story.Reel.Voice)
	voicePath := filepath.Join(storyDir, "voiceover.mp3")
	if err := d.voice.Synthesize(ctx, story.Reel.Voiceover, voiceSettings, voicePath); err != nil {
		return fmt.Errorf("synthesize voiceover: %w", err)
	}
	musicPath := filepath.Join(storyDir, "music.mp3")
	if err := d.voice.Music(ctx, story.Reel.Music.Preset, story.Reel.Music.DurationMS, musicPath); err != nil {
		return fmt.Errorf("generate music: %w", err)
	}
	mix := resolve.AudioMix(cfg.Defaults.AudioMix, story.Reel.AudioMix)
	outPath := filepath.Join(storyDir, "reel_with_voice.mp4")
	if err := d.mixer.AddAudio(ctx, reelPath, voicePath, musicPath, outPath, mix); err != nil {
		return fmt.Errorf("mix audio: %w", err)
	}
	report.Units = append(report.Units, UnitReport{Unit: "reel_with_voice", Tag: "reel_with_voice", Path: outPath})
	d.book.Story(logbook.LevelInfo, story.Slug, string(PhaseAudio), "mixed reel_with_voice.mp4")
	return nil
}

// render routes one unit through the registry and records the output.
func (d *Dispatcher) render(ctx context.Context, req RenderRequest, report *StoryReport) error {
	fn, err := d.registry.Resolve(req.Tag)
	if err != nil {
		return err
	}
	if err := fn(ctx, req); err != nil {
		return fmt.Errorf("render %s: %w", req.Unit, err)
	}
	report.Units = append(report.Units, UnitReport{Unit: req.Unit, Tag: req.Tag, Path: req.OutputPath})
	d.book.Story(logbook.LevelInfo, req.Slug, "render", "produced "+filepath.Base(req.OutputPath))
	return nil
}

// resolvedEntries resolves parameters for every animated entry in order.
func resolvedEntries(defaults week.Defaults, reel week.Reel) []timing.Entry {
	entries := make([]timing.Entry, len(reel.AnimatedCharts))
	for i, entry := range reel.AnimatedCharts {
		entries[i] = timing.Entry{
			Type:   entry.Type,
			Params: resolve.Animation(defaults, entry),
		}
	}
	return entries
}
