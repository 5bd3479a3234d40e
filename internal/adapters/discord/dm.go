package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"rotabot/internal/infrastructure/notify"
)

var _ notify.Sink = (*NotifySink)(nil)

// NotifySink delivers change messages to a channel when one is configured,
// otherwise as a DM to every admin.
type NotifySink struct {
	session   *discordgo.Session
	channelID string
	adminIDs  []string
}

func NewNotifySink(s *discordgo.Session, channelID string, adminIDs []string) *NotifySink {
	return &NotifySink{session: s, channelID: channelID, adminIDs: adminIDs}
}

func (n *NotifySink) Send(_ context.Context, text string) error {
	if n.channelID != "" {
		if _, err := n.session.ChannelMessageSend(n.channelID, text); err != nil {
			return fmt.Errorf("send to channel %s: %w", n.channelID, err)
		}
		return nil
	}
	var errs []error
	for _, id := range n.adminIDs {
		if err := sendDM(n.session, id, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sendDM(s *discordgo.Session, userID string, content string) error {
	ch, err := s.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open DM with %s: %w", userID, err)
	}
	if _, err := s.ChannelMessageSend(ch.ID, content); err != nil {
		return fmt.Errorf("DM %s: %w", userID, err)
	}
	return nil
}
