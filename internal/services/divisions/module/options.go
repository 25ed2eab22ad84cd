package module

import (
	"time"

	"opengov/internal/platform/config"
	"opengov/internal/platform/logger"
	"opengov/internal/services/divisions/guardrails"
)

const (
	defaultPassTimeout = 50 * time.Second

	// lockMargin keeps the Redis lease alive past the pass deadline so
	// release, not expiry, ends every claim
	lockMargin = 10 * time.Second
)

// Options is the DIVISIONS_ configuration
type Options struct {
	SourceBaseURL    string
	SourceMaxRetries int
	RetryBase        time.Duration

	HubChannelID   string
	ArchiveMinutes int

	Interval   time.Duration
	RunOnStart bool
	LockTTL    time.Duration

	Timeouts guardrails.Timeouts
}

// OptionsFromConfig reads DIVISIONS_* from cfg. A non-positive
// DIVISIONS_PASS_TIMEOUT panics: an unbounded pass would outlive its lease
func OptionsFromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("DIVISIONS_")
	o := Options{
		SourceBaseURL:    c.MayString("SOURCE_BASE_URL", "https://commonsvotes-api.parliament.uk/data"),
		SourceMaxRetries: c.MayInt("SOURCE_MAX_RETRIES", 2),
		RetryBase:        c.MayDuration("RETRY_BASE", 500*time.Millisecond),

		HubChannelID:   c.MayString("HUB_CHANNEL_ID", "1092090816178171935"),
		ArchiveMinutes: c.MayInt("THREAD_ARCHIVE_MINUTES", 10080),

		Interval:   c.MayDuration("INTERVAL", time.Minute),
		RunOnStart: c.MayBool("RUN_ON_START", false),
		LockTTL:    c.MayDuration("LOCK_TTL", 2*time.Minute),

		Timeouts: guardrails.Timeouts{
			Pass:     c.MayDuration("PASS_TIMEOUT", defaultPassTimeout),
			Source:   c.MayDuration("SOURCE_TIMEOUT", 10*time.Second),
			Store:    c.MayDuration("STORE_TIMEOUT", 5*time.Second),
			Platform: c.MayDuration("PLATFORM_TIMEOUT", 10*time.Second),
		},
	}
	if o.Timeouts.Pass <= 0 {
		logger.Get().Panic().Str("key", "DIVISIONS_PASS_TIMEOUT").Dur("value", o.Timeouts.Pass).Msg("pass timeout must be positive")
	}
	return o.normalized(*logger.Get())
}

// normalized fills a missing pass budget and stretches LockTTL to cover
// the pass plus lockMargin, so a lease never lapses under a running pass
func (o Options) normalized(log logger.Logger) Options {
	if o.Timeouts.Pass <= 0 {
		o.Timeouts.Pass = defaultPassTimeout
	}
	if floor := o.Timeouts.Pass + lockMargin; o.LockTTL < floor {
		if o.LockTTL > 0 {
			log.Warn().Dur("lock_ttl", o.LockTTL).Dur("pass_timeout", o.Timeouts.Pass).Dur("using", floor).
				Msg("lock ttl shorter than the pass; raised")
		}
		o.LockTTL = floor
	}
	return o
}
