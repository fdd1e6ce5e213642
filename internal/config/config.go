package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dgallion1/guidenav/internal/depcheck"
	"github.com/dgallion1/guidenav/internal/document"
	"github.com/dgallion1/guidenav/internal/normalize"
	"github.com/dgallion1/guidenav/internal/pager"
	"github.com/dgallion1/guidenav/internal/tocsource"
)

// EnvPrefix prefixes every environment override, e.g. GUIDENAV_SERVER_PORT.
const EnvPrefix = "GUIDENAV"

type Config struct {
	Workspace string         `mapstructure:"workspace"`
	Guide     GuideConfig    `mapstructure:"guide"`
	Server    ServerConfig   `mapstructure:"server"`
	Watch     WatchConfig    `mapstructure:"watch"`
	DepCheck  DepCheckConfig `mapstructure:"depcheck"`
	Notebook  NotebookConfig `mapstructure:"notebook"`
	Markdown  MarkdownConfig `mapstructure:"markdown"`
	Pager     PagerConfig    `mapstructure:"pager"`
	Log       LogConfig      `mapstructure:"log"`
}

type GuideConfig struct {
	Dir              string `mapstructure:"dir"`
	TOC              string `mapstructure:"toc"`
	Assignments      string `mapstructure:"assignments"`
	AssignmentsTitle string `mapstructure:"assignments_title"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type DepCheckConfig struct {
	Terminal string     `mapstructure:"terminal"`
	Banner   string     `mapstructure:"banner"`
	Commands [][]string `mapstructure:"commands"`
}

type NotebookConfig struct {
	// Opener is the argv used to open a notebook; the notebook path is
	// appended. Empty means preview only.
	Opener []string `mapstructure:"opener"`
}

type MarkdownConfig struct {
	Extensions []string `mapstructure:"extensions"`
	UnsafeHTML bool     `mapstructure:"unsafe_html"`
}

type PagerConfig struct {
	PageWords int `mapstructure:"page_words"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workspace", ".")

	v.SetDefault("guide.dir", tocsource.DefaultGuideDir)
	v.SetDefault("guide.toc", tocsource.DefaultTOCFile)
	v.SetDefault("guide.assignments", tocsource.DefaultAssignmentsFile)
	v.SetDefault("guide.assignments_title", normalize.DefaultAssignmentsTitle)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)

	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce", 250*time.Millisecond)

	v.SetDefault("depcheck.terminal", depcheck.DefaultTerminal)
	v.SetDefault("depcheck.banner", depcheck.DefaultBanner)
	v.SetDefault("depcheck.commands", depcheck.DefaultCommands())

	v.SetDefault("notebook.opener", []string{})

	v.SetDefault("markdown.extensions", []string{})
	v.SetDefault("markdown.unsafe_html", false)

	v.SetDefault("pager.page_words", 400)

	v.SetDefault("log.level", "info")
	// Empty selects JSON for serve and text for the other commands.
	v.SetDefault("log.format", "")
}

// Load builds the configuration from defaults, an optional YAML file,
// GUIDENAV_* environment variables and overrides, in increasing priority.
// With an empty cfgFile, guidenav.yaml is looked up in the working
// directory and ~/.guidenav; a missing file is not an error.
func Load(cfgFile string, overrides map[string]any) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("guidenav")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".guidenav"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.clamp()

	if cfg.Workspace != "" {
		abs, err := filepath.Abs(cfg.Workspace)
		if err != nil {
			return Config{}, fmt.Errorf("resolve workspace: %w", err)
		}
		cfg.Workspace = abs
	}
	return cfg, nil
}

// clamp replaces invalid numeric values and empty names with defaults.
func (c *Config) clamp() {
	if c.Guide.Dir == "" {
		c.Guide.Dir = tocsource.DefaultGuideDir
	}
	if c.Guide.TOC == "" {
		c.Guide.TOC = tocsource.DefaultTOCFile
	}
	if c.Guide.Assignments == "" {
		c.Guide.Assignments = tocsource.DefaultAssignmentsFile
	}
	if strings.TrimSpace(c.Guide.AssignmentsTitle) == "" {
		c.Guide.AssignmentsTitle = normalize.DefaultAssignmentsTitle
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 8090
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 250 * time.Millisecond
	}
	if c.DepCheck.Terminal == "" {
		c.DepCheck.Terminal = depcheck.DefaultTerminal
	}
	if c.Pager.PageWords <= 0 {
		c.Pager.PageWords = 400
	}
}

func (c Config) Validate() error {
	if c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	for _, name := range []string{c.Guide.Dir, c.Guide.TOC, c.Guide.Assignments} {
		if !fs.ValidPath(name) {
			return fmt.Errorf("guide path %q must be relative to the workspace", name)
		}
	}
	for i, argv := range c.DepCheck.Commands {
		if len(argv) == 0 || argv[0] == "" {
			return fmt.Errorf("depcheck.commands[%d] is empty", i)
		}
	}
	return nil
}

// Addr is the web host listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// WorkspaceFS returns the workspace root as a filesystem, or nil when no
// workspace directory exists.
func (c Config) WorkspaceFS() fs.FS {
	if c.Workspace == "" {
		return nil
	}
	info, err := os.Stat(c.Workspace)
	if err != nil || !info.IsDir() {
		return nil
	}
	return os.DirFS(c.Workspace)
}

// SourceConfig names the guide documents for tocsource.
func (c Config) SourceConfig() tocsource.Config {
	return tocsource.Config{
		GuideDir:        c.Guide.Dir,
		TOCFile:         c.Guide.TOC,
		AssignmentsFile: c.Guide.Assignments,
	}
}

// DepCheckRunnerConfig returns the runner configuration rooted at the workspace.
func (c Config) DepCheckRunnerConfig() depcheck.Config {
	return depcheck.Config{
		Terminal: c.DepCheck.Terminal,
		Banner:   c.DepCheck.Banner,
		Commands: c.DepCheck.Commands,
		Dir:      c.Workspace,
	}
}

func (c Config) PagerConfig() pager.Config {
	return pager.Config{PageWords: c.Pager.PageWords}
}

// RenderOptions configures the HTML renderer from the markdown section.
func (c Config) RenderOptions() document.RenderOptions {
	return document.RenderOptions{
		Extensions: c.Markdown.Extensions,
		UnsafeHTML: c.Markdown.UnsafeHTML,
	}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
