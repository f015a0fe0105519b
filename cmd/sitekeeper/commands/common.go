package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
)

// Global carries state shared by every subcommand.
type Global struct {
	Out      io.Writer
	Recorder metrics.Recorder
	registry *prometheus.Registry
}

// NewGlobal prepares shared state. A Prometheus registry is only created
// when metrics will be written somewhere.
func NewGlobal(out io.Writer, withMetrics bool) *Global {
	g := &Global{Out: out, Recorder: metrics.NoopRecorder{}}
	if withMetrics {
		g.registry = prometheus.NewRegistry()
		g.Recorder = metrics.NewPrometheusRecorder(g.registry)
	}
	return g
}

// FlushMetrics writes the collected metrics to path in textfile format.
func (g *Global) FlushMetrics(path string) error {
	if g.registry == nil || path == "" {
		return nil
	}
	if err := metrics.WriteTextfile(path, g.registry); err != nil {
		return err
	}
	slog.Debug("Wrote metrics textfile", logfields.Path(path))
	return nil
}

// CLI definition and global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path" default:"sitekeeper.yaml"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	MetricsFile string           `name:"metrics-file" help:"Write Prometheus metrics to this file after the command (textfile collector format)"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Build   BuildCmd   `cmd:"" help:"Rewrite every HTML page of the site in place"`
	Audit   AuditCmd   `cmd:"" help:"Audit the site for SEO problems without modifying it"`
	Sitemap SitemapCmd `cmd:"" help:"Generate the sitemap files and the sitemap index"`
	Submit  SubmitCmd  `cmd:"" help:"Submit sitemap URLs to search engines"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild when the master layout or configuration changes"`
	Resolve ResolveCmd `cmd:"" help:"Print clean URLs for files, or resolve hrefs as seen from a file"`
}

// AfterApply runs after flag parsing and installs the default logger.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	setupLogging(level, config.LogFormatText)
	return nil
}

// LoadConfig reads the configuration named by --config and applies its
// logging section. --verbose always wins over the configured level.
func LoadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	level := parseLevel(cfg.Logging.Level)
	if root.Verbose {
		level = slog.LevelDebug
	}
	setupLogging(level, cfg.Logging.Format)
	return cfg, nil
}

func parseLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogging(level slog.Level, format config.LogFormat) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
