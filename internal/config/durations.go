package config

import "time"

// parseOr parses raw and falls back to def. Inputs have passed Validate.
func parseOr(raw string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func (r RetryConfig) InitialDelayDuration() time.Duration { return parseOr(r.InitialDelay, time.Second) }
func (r RetryConfig) MaxDelayDuration() time.Duration     { return parseOr(r.MaxDelay, 30*time.Second) }
func (s SubmitConfig) TimeoutDuration() time.Duration     { return parseOr(s.Timeout, 10*time.Second) }
func (w WatchConfig) DebounceDuration() time.Duration     { return parseOr(w.Debounce, 500*time.Millisecond) }
