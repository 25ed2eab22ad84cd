// Package discord drives division threads on Discord and answers the ping command
package discord

import (
	"context"
	"errors"
	"net/http"

	"opengov/internal/core/threadname"
	perr "opengov/internal/platform/errors"
	"opengov/internal/platform/logger"
	"opengov/internal/services/divisions/domain"

	"github.com/bwmarrin/discordgo"
)

// Session is the slice of *discordgo.Session the driver calls
type Session interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageThreadStart(channelID, messageID, name string, archiveDuration int, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Options configures the Driver
type Options struct {
	// HubChannelID is the channel that announcements and threads hang off
	HubChannelID string

	// ArchiveMinutes is the thread auto archive duration: 60, 1440, 4320 or 10080
	ArchiveMinutes int
}

// Driver implements domain.ThreadPort. It never retries; the caller owns retry policy
type Driver struct {
	s    Session
	opts Options
	log  logger.Logger
}

var _ domain.ThreadPort = (*Driver)(nil)

// NewDriver builds a Driver over s
func NewDriver(s Session, o Options) *Driver {
	switch o.ArchiveMinutes {
	case 60, 1440, 4320, 10080:
	default:
		o.ArchiveMinutes = 10080
	}
	return &Driver{s: s, opts: o, log: *logger.Named("discord")}
}

// CreateThread announces title in the hub channel and opens a public thread on it
func (d *Driver) CreateThread(ctx context.Context, title string) (domain.ThreadID, error) {
	msg, err := d.s.ChannelMessageSend(d.opts.HubChannelID, threadname.Clip(title, threadname.MaxMessageRunes), discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err, false, "announce division")
	}

	ch, err := d.s.MessageThreadStart(d.opts.HubChannelID, msg.ID, threadname.Normalize(title), d.opts.ArchiveMinutes, discordgo.WithContext(ctx))
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("message_id", msg.ID).Msg("announcement left without a thread")
		return "", classify(err, false, "start thread")
	}
	return domain.ThreadID(ch.ID), nil
}

// PostUpdate sends content into an existing thread
func (d *Driver) PostUpdate(ctx context.Context, threadID domain.ThreadID, content string) error {
	if _, err := d.s.ChannelMessageSend(string(threadID), threadname.Clip(content, threadname.MaxMessageRunes), discordgo.WithContext(ctx)); err != nil {
		return classify(err, true, "post update")
	}
	return nil
}

// classify maps a discordgo failure onto the platform error kinds.
// inThread marks calls addressed to a division thread rather than the hub
func classify(err error, inThread bool, msg string) error {
	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		return domain.Mark(domain.ErrPlatformRejected, perr.Wrap(err, perr.ErrorCodeTooManyRequests, msg))
	}

	var re *discordgo.RESTError
	if !errors.As(err, &re) {
		// transport failure or cancelled context
		return domain.Mark(domain.ErrPlatformUnavailable, perr.Wrap(err, perr.ErrorCodeUnavailable, msg))
	}

	status := 0
	if re.Response != nil {
		status = re.Response.StatusCode
	}
	apiCode := 0
	if re.Message != nil {
		apiCode = re.Message.Code
	}

	switch {
	case apiCode == discordgo.ErrCodeUnknownChannel || (inThread && status == http.StatusNotFound):
		return domain.Mark(domain.ErrThreadNotFound, perr.Wrap(err, perr.ErrorCodeNotFound, msg))
	case status == http.StatusUnauthorized || status >= 500:
		return domain.Mark(domain.ErrPlatformUnavailable, perr.Wrap(err, perr.ErrorCodeUnavailable, msg))
	case status == http.StatusTooManyRequests:
		return domain.Mark(domain.ErrPlatformRejected, perr.Wrap(err, perr.ErrorCodeTooManyRequests, msg))
	case status == http.StatusForbidden:
		return domain.Mark(domain.ErrPlatformRejected, perr.Wrap(err, perr.ErrorCodeForbidden, msg))
	default:
		return domain.Mark(domain.ErrPlatformRejected, perr.Wrap(err, perr.ErrorCodeInvalidArgument, msg))
	}
}
