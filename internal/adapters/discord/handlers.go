package discord

import (
	"strings"

	"opengov/internal/platform/logger"

	"github.com/bwmarrin/discordgo"
)

// Intents are the gateway intents the bot needs to read commands
const Intents = discordgo.IntentGuildMessages | discordgo.IntentMessageContent

// Register attaches the ready and ping handlers to s
func Register(s *discordgo.Session) {
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) { onReady(r) })
	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) { onMessage(s, m.Message) })
}

func onReady(r *discordgo.Ready) {
	name := ""
	if r != nil && r.User != nil {
		name = r.User.Username
	}
	logger.Named("discord").Info().Str("user", name).Msg("connected to gateway")
}

// onMessage answers "!ping" with "Pong!". Runs on discordgo's event goroutines
func onMessage(s Session, m *discordgo.Message) {
	if m == nil || (m.Author != nil && m.Author.Bot) {
		return
	}
	if strings.TrimSpace(m.Content) != "!ping" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, "Pong!"); err != nil {
		logger.Named("discord").Warn().Err(err).Str("channel_id", m.ChannelID).Msg("ping reply failed")
	}
}
