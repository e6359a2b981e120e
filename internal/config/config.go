// internal/config/config.go
//
// This package handles the studio's settings and the .espresso directory
// structure. Every project that runs the studio gets a .espresso/ folder
// created in its root: logs, run state, and rendered assets live there.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// EspressoDir is the name of the directory created in each project.
	EspressoDir = ".espresso"

	settingsFile = "settings.yaml"
)

const defaultSettingsYAML = `# espresso studio settings
version: 1

# Font files used by the chart renderer.
fonts:
  suptitle: /usr/share/fonts/truetype/dejavu/DejaVuSerif.ttf
  subtitle: /usr/share/fonts/truetype/dejavu/DejaVuSans.ttf

# External tools for encoding and probing media.
tools:
  ffmpeg: ffmpeg
  ffprobe: ffprobe

# Environment variable that holds the ElevenLabs API key.
voice:
  api_key_env: ELEVENLABS_API_KEY

# Optional publishing targets. Tokens come from the named env vars.
publish:
  github:
    owner: ""
    repo: ""
    branch: main
    token_env: GITHUB_TOKEN
  substack:
    publication_url: ""
    email_env: SUBSTACK_EMAIL
    password_env: SUBSTACK_PASSWORD
`

// FontSettings names the font files the renderer loads.
type FontSettings struct {
	Suptitle string `yaml:"suptitle"`
	Subtitle string `yaml:"subtitle"`
}

// ToolSettings names the external media binaries.
type ToolSettings struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
}

// VoiceSettings configures how the speech client authenticates.
type VoiceSettings struct {
	APIKeyEnv string `yaml:"api_key_env"`
}

// GitHubTarget identifies the asset repository.
type GitHubTarget struct {
	Owner    string `yaml:"owner"`
	Repo     string `yaml:"repo"`
	Branch   string `yaml:"branch"`
	TokenEnv string `yaml:"token_env"`
}

// SubstackTarget identifies the newsletter publication. Credentials come
// from the named environment variables.
type SubstackTarget struct {
	PublicationURL string `yaml:"publication_url"`
	EmailEnv       string `yaml:"email_env"`
	PasswordEnv    string `yaml:"password_env"`
}

// PublishSettings groups the optional publishing targets.
type PublishSettings struct {
	GitHub   GitHubTarget   `yaml:"github"`
	Substack SubstackTarget `yaml:"substack"`
}

// Settings models .espresso/settings.yaml.
type Settings struct {
	Version int             `yaml:"version"`
	Fonts   FontSettings    `yaml:"fonts"`
	Tools   ToolSettings    `yaml:"tools"`
	Voice   VoiceSettings   `yaml:"voice"`
	Publish PublishSettings `yaml:"publish"`
}

// Config holds the runtime configuration for one studio session.
type Config struct {
	// ProjectDir is the directory where the user ran `espresso` from.
	ProjectDir string

	// EspressoProjectDir is ProjectDir/.espresso.
	EspressoProjectDir string

	Settings Settings
}

// AssetsDir is where rendered output lands, keyed later by week and slug.
func (c *Config) AssetsDir() string {
	return filepath.Join(c.EspressoProjectDir, "assets")
}

// LogbookPath is the per-project run logbook file.
func (c *Config) LogbookPath() string {
	return filepath.Join(c.EspressoProjectDir, "logs", "runs.log")
}

// StateDir is where per-run reports are persisted.
func (c *Config) StateDir() string {
	return filepath.Join(c.EspressoProjectDir, "state")
}

// InitEspressoDir creates the .espresso directory structure in the given
// project directory and seeds settings.yaml on first run.
//
// Structure created:
// .espresso/
// ├── logs/     <- structured log + run logbook
// ├── state/    <- run reports
// ├── assets/   <- rendered covers, charts, reels
// └── settings.yaml
func InitEspressoDir(projectDir string) error {
	espressoDir := filepath.Join(projectDir, EspressoDir)
	dirs := []string{
		filepath.Join(espressoDir, "logs"),
		filepath.Join(espressoDir, "state"),
		filepath.Join(espressoDir, "assets"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	settingsPath := filepath.Join(espressoDir, settingsFile)
	if _, err := os.Stat(settingsPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(settingsPath, []byte(defaultSettingsYAML), 0o644); err != nil {
			return fmt.Errorf("config: seed settings: %w", err)
		}
	}
	return nil
}

// Load initializes the .espresso directory and reads settings.yaml.
func Load(projectDir string) (*Config, error) {
	if err := InitEspressoDir(projectDir); err != nil {
		return nil, err
	}
	espressoDir := filepath.Join(projectDir, EspressoDir)
	data, err := os.ReadFile(filepath.Join(espressoDir, settingsFile))
	if err != nil {
		return nil, fmt.Errorf("config: read settings: %w", err)
	}
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("config: parse settings: %w", err)
	}
	applySettingsDefaults(&settings)
	return &Config{
		ProjectDir:         projectDir,
		EspressoProjectDir: espressoDir,
		Settings:           settings,
	}, nil
}

func applySettingsDefaults(s *Settings) {
	if s.Tools.FFmpeg == "" {
		s.Tools.FFmpeg = "ffmpeg"
	}
	if s.Tools.FFprobe == "" {
		s.Tools.FFprobe = "ffprobe"
	}
	if s.Voice.APIKeyEnv == "" {
		s.Voice.APIKeyEnv = "ELEVENLABS_API_KEY"
	}
	if s.Publish.GitHub.Branch == "" {
		s.Publish.GitHub.Branch = "main"
	}
	if s.Publish.GitHub.TokenEnv == "" {
		s.Publish.GitHub.TokenEnv = "GITHUB_TOKEN"
	}
}
