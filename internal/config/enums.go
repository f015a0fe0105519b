package config

import "git.home.luguber.info/inful/sitekeeper/internal/foundation/normalization"

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = normalization.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) LogLevel { return logLevels.Normalize(raw) }

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

var logFormats = normalization.NewNormalizer(map[string]LogFormat{
	"text": LogFormatText,
	"json": LogFormatJSON,
}, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat { return logFormats.Normalize(raw) }

// RetryBackoffMode enumerates supported backoff strategies for submissions.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffs = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, "")

// NormalizeRetryBackoff returns the empty mode for unknown input so
// validation can report it.
func NormalizeRetryBackoff(raw string) RetryBackoffMode { return retryBackoffs.Normalize(raw) }

// Changefreq is the sitemaps.org change frequency hint.
type Changefreq string

const (
	ChangefreqAlways  Changefreq = "always"
	ChangefreqHourly  Changefreq = "hourly"
	ChangefreqDaily   Changefreq = "daily"
	ChangefreqWeekly  Changefreq = "weekly"
	ChangefreqMonthly Changefreq = "monthly"
	ChangefreqYearly  Changefreq = "yearly"
	ChangefreqNever   Changefreq = "never"
)

var changefreqs = normalization.NewNormalizer(map[string]Changefreq{
	"always":  ChangefreqAlways,
	"hourly":  ChangefreqHourly,
	"daily":   ChangefreqDaily,
	"weekly":  ChangefreqWeekly,
	"monthly": ChangefreqMonthly,
	"yearly":  ChangefreqYearly,
	"never":   ChangefreqNever,
}, "")

func NormalizeChangefreq(raw string) Changefreq { return changefreqs.Normalize(raw) }
