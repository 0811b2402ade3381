package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// decisionControls returns the approve/deny button row attached to
// approver notices.
func decisionControls() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Approve",
					Style:    discordgo.SuccessButton,
					CustomID: "approve",
				},
				discordgo.Button{
					Label:    "Deny",
					Style:    discordgo.DangerButton,
					CustomID: "deny",
				},
			},
		},
	}
}

func (b *Bot) liveSession() (*discordgo.Session, error) {
	b.mu.RLock()
	s := b.session
	running := b.running
	b.mu.RUnlock()
	if !running || s == nil {
		return nil, fmt.Errorf("discord bot not running")
	}
	return s, nil
}

// Post implements transfer.Messenger.
func (b *Bot) Post(ctx context.Context, channelID, content string, withControls bool) (string, error) {
	s, err := b.liveSession()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(channelID) == "" {
		return "", fmt.Errorf("channel id is empty")
	}

	send := &discordgo.MessageSend{Content: content}
	if withControls {
		send.Components = decisionControls()
	}

	type postResult struct {
		messageID string
		err       error
	}
	done := make(chan postResult, 1)
	go func() {
		msg, err := s.ChannelMessageSendComplex(channelID, send)
		if err != nil {
			done <- postResult{err: err}
			return
		}
		done <- postResult{messageID: msg.ID}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-done:
		if result.err != nil {
			return "", fmt.Errorf("send discord message: %w", result.err)
		}
		return result.messageID, nil
	}
}

// Edit implements transfer.Messenger. With clearControls the message's
// button row is removed so stale controls cannot fire again.
func (b *Bot) Edit(ctx context.Context, channelID, messageID, content string, clearControls bool) error {
	s, err := b.liveSession()
	if err != nil {
		return err
	}

	edit := &discordgo.MessageEdit{
		Channel: channelID,
		ID:      messageID,
		Content: &content,
	}
	if clearControls {
		empty := []discordgo.MessageComponent{}
		edit.Components = &empty
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.ChannelMessageEditComplex(edit)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("edit discord message: %w", err)
		}
		return nil
	}
}

// HasRole implements transfer.Directory.
func (b *Bot) HasRole(ctx context.Context, userID, roleID string) (bool, error) {
	s, err := b.liveSession()
	if err != nil {
		return false, err
	}

	member, err := s.GuildMember(b.cfg.Discord.GuildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("fetch guild member: %w", err)
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true, nil
		}
	}
	return false, nil
}

// AddRole implements transfer.Directory.
func (b *Bot) AddRole(ctx context.Context, userID, roleID string) error {
	s, err := b.liveSession()
	if err != nil {
		return err
	}
	if err := s.GuildMemberRoleAdd(b.cfg.Discord.GuildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add guild role: %w", err)
	}
	return nil
}

// RemoveRole implements transfer.Directory.
func (b *Bot) RemoveRole(ctx context.Context, userID, roleID string) error {
	s, err := b.liveSession()
	if err != nil {
		return err
	}
	if err := s.GuildMemberRoleRemove(b.cfg.Discord.GuildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("remove guild role: %w", err)
	}
	return nil
}
