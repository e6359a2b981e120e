// internal/tui/app.go
//
// This is the production console for Espresso Charts. It uses bubbletea,
// which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/espresso-charts/studio/internal/config"
	"github.com/espresso-charts/studio/internal/logbook"
	"github.com/espresso-charts/studio/internal/pipeline"
	"github.com/espresso-charts/studio/internal/week"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu  appState = iota // Main menu with "Run Week", etc.
	stateStoryList                 // Per-story validation and lint results
	stateRunning                   // Pipeline run in flight
	stateReport                    // Post-run report
)

// WeekRunner executes the pipeline for a loaded week. The CLI injects the
// real dispatcher; tests inject fakes.
type WeekRunner func(ctx context.Context, cfg *week.Config) pipeline.Report

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithWeekRunner overrides the pipeline runner used by the TUI.
func WithWeekRunner(runner WeekRunner) AppOption {
	return func(a *App) {
		if runner != nil {
			a.runner = runner
		}
	}
}

type runFinishedMsg struct {
	report pipeline.Report
}

// storyItem implements list.Item for the story review screen.
type storyItem struct {
	id       int
	slug     string
	charts   int
	reelLen  int
	warnings []string
}

func (i storyItem) Title() string {
	return fmt.Sprintf("%02d · %s", i.id, i.slug)
}

func (i storyItem) Description() string {
	desc := fmt.Sprintf("%d chart(s) · %d reel entries", i.charts, i.reelLen)
	if n := len(i.warnings); n > 0 {
		desc += fmt.Sprintf(" · ⚠ %d warning(s)", n)
	}
	return desc
}

func (i storyItem) FilterValue() string { return i.slug }

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	week    *week.Config
	logbook *logbook.Logbook
	runner  WeekRunner

	warnings []week.Warning
	report   *pipeline.Report

	// UI components
	mainMenu  list.Model
	storyMenu list.Model
	statusMsg string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp loads the week config at weekPath and builds the console. The
// week must already parse and validate; the CLI surfaces schema errors
// before the TUI starts.
func NewApp(cfg *config.Config, weekCfg *week.Config, runner WeekRunner, opts ...AppOption) (*App, error) {
	if cfg == nil || weekCfg == nil {
		return nil, fmt.Errorf("tui: config and week are required")
	}
	if runner == nil {
		return nil, fmt.Errorf("tui: week runner is required")
	}

	lb, err := logbook.New(cfg.LogbookPath())
	if err == nil {
		lb.Info("Console opened · week %s · %d stories", weekCfg.Week.Label(), len(weekCfg.Stories))
	}

	mainMenu := list.New(buildMainMenu(weekCfg), list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "☕ ESPRESSO CHARTS"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)

	warnings := weekCfg.Lint()
	storyMenu := list.New(buildStoryItems(weekCfg, warnings), list.NewDefaultDelegate(), 0, 0)
	storyMenu.Title = fmt.Sprintf("Stories · week %s", weekCfg.Week.Label())
	storyMenu.SetShowStatusBar(false)
	storyMenu.SetFilteringEnabled(false)

	app := &App{
		state:     stateMainMenu,
		config:    cfg,
		week:      weekCfg,
		logbook:   lb,
		runner:    runner,
		warnings:  warnings,
		mainMenu:  mainMenu,
		storyMenu: storyMenu,
		statusMsg: fmt.Sprintf("Week %s loaded · %d stories · %d warning(s)",
			weekCfg.Week.Label(), len(weekCfg.Stories), len(warnings)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app, nil
}

// buildMainMenu creates the main menu items for the loaded week
func buildMainMenu(weekCfg *week.Config) []list.Item {
	return []list.Item{
		menuItem{
			title: "Review Stories",
			desc:  fmt.Sprintf("Inspect the %d stories and their lint results", len(weekCfg.Stories)),
		},
		menuItem{
			title: "Run Week",
			desc:  "Render covers, charts, reels, and audio for every story",
		},
		menuItem{title: "View Report", desc: "Show the last run's results"},
		menuItem{title: "Exit", desc: "Quit the console"},
	}
}

func buildStoryItems(weekCfg *week.Config, warnings []week.Warning) []list.Item {
	items := make([]list.Item, 0, len(weekCfg.Stories))
	for idx, story := range weekCfg.Stories {
		prefix := fmt.Sprintf("stories[%d]", idx)
		var storyWarnings []string
		for _, w := range warnings {
			if strings.HasPrefix(w.Path, prefix+".") || w.Path == prefix {
				storyWarnings = append(storyWarnings, w.Message)
			}
		}
		items = append(items, storyItem{
			id:       story.ID,
			slug:     story.Slug,
			charts:   len(story.Charts),
			reelLen:  len(story.Reel.AnimatedCharts),
			warnings: storyWarnings,
		})
	}
	return items
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		a.storyMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		return a, nil

	case runFinishedMsg:
		return a.handleRunFinished(msg)

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateMainMenu {
				return a, tea.Quit
			}
		case "esc":
			if a.state != stateMainMenu && a.state != stateRunning {
				return a.returnToMainMenu()
			}
		case "enter":
			if a.state == stateMainMenu {
				return a.handleMainMenuSelection()
			}
		}
	}

	var cmds []tea.Cmd
	switch a.state {
	case stateMainMenu:
		var menuCmd tea.Cmd
		a.mainMenu, menuCmd = a.mainMenu.Update(msg)
		if menuCmd != nil {
			cmds = append(cmds, menuCmd)
		}
	case stateStoryList:
		var menuCmd tea.Cmd
		a.storyMenu, menuCmd = a.storyMenu.Update(msg)
		if menuCmd != nil {
			cmds = append(cmds, menuCmd)
		}
	}

	return a, tea.Batch(cmds...)
}

// handleMainMenuSelection processes menu item selection
func (a *App) handleMainMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}

	switch item.title {
	case "Review Stories":
		a.logInfo("Menu · Review Stories selected")
		a.state = stateStoryList
		if a.width > 0 && a.height > 0 {
			a.storyMenu.SetSize(max(0, a.width-6), max(0, a.height-10))
		}
		a.statusMsg = "Esc → back to menu"
		return a, nil

	case "Run Week":
		a.logInfo("Menu · Run Week selected")
		return a.startWeekRun()

	case "View Report":
		a.logInfo("Menu · View Report selected")
		if a.report == nil {
			a.statusMsg = "No run recorded yet"
			return a, nil
		}
		a.state = stateReport
		a.statusMsg = "Esc → back to menu"
		return a, nil

	case "Exit":
		a.logInfo("Menu · Exit selected")
		return a, tea.Quit
	}

	return a, nil
}

// startWeekRun launches the pipeline in a background command.
func (a *App) startWeekRun() (tea.Model, tea.Cmd) {
	a.state = stateRunning
	a.statusMsg = fmt.Sprintf("Rendering week %s...", a.week.Week.Label())
	runner := a.runner
	weekCfg := a.week
	return a, func() tea.Msg {
		return runFinishedMsg{report: runner(context.Background(), weekCfg)}
	}
}

func (a *App) handleRunFinished(msg runFinishedMsg) (tea.Model, tea.Cmd) {
	report := msg.report
	a.report = &report
	a.state = stateReport
	if report.Completed() {
		a.statusMsg = fmt.Sprintf("Run %s complete · %d stories", report.RunID, len(report.Stories))
		a.logInfo("Run %s complete", report.RunID)
	} else {
		failed := report.Failed()
		a.statusMsg = fmt.Sprintf("Run %s finished with %d failed story(ies)", report.RunID, len(failed))
		for _, story := range failed {
			a.logError("Story %s failed in %s: %s", story.Slug, story.FailedPhase, story.Err)
		}
	}
	return a, nil
}

// returnToMainMenu transitions back to the main menu
func (a *App) returnToMainMenu() (tea.Model, tea.Cmd) {
	a.state = stateMainMenu
	a.statusMsg = fmt.Sprintf("Week %s · %d stories", a.week.Week.Label(), len(a.week.Stories))
	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}

	var content string
	switch a.state {
	case stateMainMenu:
		content = a.mainMenu.View()
	case stateStoryList:
		content = a.renderStoryScreen()
	case stateRunning:
		content = fmt.Sprintf("Rendering week %s...\n\nCovers → charts → reels → audio, one story at a time.", a.week.Week.Label())
	case stateReport:
		content = a.renderReport()
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#DD6B20")).
		MarginBottom(1).
		Render("☕ ESPRESSO CHARTS")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#857052")).
		Padding(0, 1).
		Width(max(40, width-2)).
		Render(content)
	sections := []string{header, box}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderStoryScreen() string {
	view := a.storyMenu.View()
	selected, ok := a.storyMenu.SelectedItem().(storyItem)
	if !ok || len(selected.warnings) == 0 {
		return view
	}
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#DD6B20"))
	var lines []string
	for _, w := range selected.warnings {
		lines = append(lines, warnStyle.Render("⚠ "+w))
	}
	return lipgloss.JoinVertical(lipgloss.Left, view, "", strings.Join(lines, "\n"))
}

func (a *App) renderReport() string {
	report := a.report
	if report == nil {
		return "No run recorded yet."
	}
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#4D5523"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	lines := []string{
		fmt.Sprintf("Run %s · week %s", report.RunID, report.Week),
		fmt.Sprintf("Started %s · finished %s",
			report.StartedAt.Format("15:04:05"), report.FinishedAt.Format("15:04:05")),
		"",
	}
	for _, story := range report.Stories {
		if story.Status == pipeline.StoryCompleted {
			lines = append(lines, okStyle.Render(fmt.Sprintf("✓ %s · %d asset(s) · reel %.1fs / voiceover %.1fs",
				story.Slug, len(story.Units), story.Estimate.ReelSeconds, story.Estimate.VoiceoverSeconds)))
			continue
		}
		lines = append(lines, failStyle.Render(fmt.Sprintf("✗ %s · failed in %s: %s",
			story.Slug, story.FailedPhase, story.Err)))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(8)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#CDAF7B")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}
