// Package discord posts announcement drafts for human review and delivers
// approved announcements. The banner travels as an opaque PNG attachment;
// nothing here inspects pixels.
package discord

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jamesthegreati/WishlistOps-sub001/pkg/banner"
	"github.com/jamesthegreati/WishlistOps-sub001/pkg/draft"
)

// Reaction emoji for the approval gate.
const (
	ApproveEmoji = "✅"
	RejectEmoji  = "❌"
)

// Session abstracts the discordgo calls the notifier uses, so tests can
// substitute a mock.
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string) error
	MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string) ([]*discordgo.User, error)
}

// DiscordSession adapts discordgo.Session to the Session interface.
type DiscordSession struct {
	*discordgo.Session
}

func (s *DiscordSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return s.Session.ChannelMessageSendComplex(channelID, data)
}

func (s *DiscordSession) MessageReactionAdd(channelID, messageID, emojiID string) error {
	return s.Session.MessageReactionAdd(channelID, messageID, emojiID)
}

func (s *DiscordSession) MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string) ([]*discordgo.User, error) {
	return s.Session.MessageReactions(channelID, messageID, emojiID, limit, beforeID, afterID)
}

// Notifier owns the review and announcement channels.
type Notifier struct {
	session         Session
	reviewChannel   string
	announceChannel string
}

// NewNotifier creates a Notifier.
func NewNotifier(session Session, reviewChannel, announceChannel string) *Notifier {
	return &Notifier{
		session:         session,
		reviewChannel:   reviewChannel,
		announceChannel: announceChannel,
	}
}

// PostDraft sends the draft with its banner to the review channel and seeds
// the approval reactions. It returns the review message ID.
func (n *Notifier) PostDraft(ann *draft.Announcement, res *banner.Result) (string, error) {
	content := fmt.Sprintf("**%s**\n\n%s\n\nReact %s to publish or %s to discard.",
		ann.Title, ann.Body, ApproveEmoji, RejectEmoji)

	data := &discordgo.MessageSend{Content: content}
	if res != nil {
		if res.CropFallback || res.EnhanceFallback {
			log.Printf("banner degraded: crop_fallback=%v enhance_fallback=%v", res.CropFallback, res.EnhanceFallback)
		}
		data.Files = []*discordgo.File{{
			Name:        "banner.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(res.PNG),
		}}
	}

	msg, err := n.session.ChannelMessageSendComplex(n.reviewChannel, data)
	if err != nil {
		return "", fmt.Errorf("post draft: %w", err)
	}

	for _, emoji := range []string{ApproveEmoji, RejectEmoji} {
		if err := n.session.MessageReactionAdd(n.reviewChannel, msg.ID, emoji); err != nil {
			log.Printf("seed reaction %s failed: %v", emoji, err)
		}
	}
	return msg.ID, nil
}

// AwaitApproval polls the review message's reactions until a human vote
// lands or the context expires. The bot's own seed reaction counts as one
// user, so a second reactor decides.
func (n *Notifier) AwaitApproval(ctx context.Context, messageID string, poll time.Duration) (bool, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		approved, decided, err := n.checkVotes(messageID)
		if err != nil {
			return false, err
		}
		if decided {
			return approved, nil
		}

		select {
		case <-ctx.Done():
			return false, fmt.Errorf("approval wait: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (n *Notifier) checkVotes(messageID string) (approved, decided bool, err error) {
	rejects, err := n.session.MessageReactions(n.reviewChannel, messageID, RejectEmoji, 100, "", "")
	if err != nil {
		return false, false, fmt.Errorf("read reactions: %w", err)
	}
	if len(rejects) > 1 {
		return false, true, nil
	}

	approves, err := n.session.MessageReactions(n.reviewChannel, messageID, ApproveEmoji, 100, "", "")
	if err != nil {
		return false, false, fmt.Errorf("read reactions: %w", err)
	}
	if len(approves) > 1 {
		return true, true, nil
	}
	return false, false, nil
}

// Publish delivers the approved announcement to the announcement channel.
func (n *Notifier) Publish(ann *draft.Announcement, res *banner.Result) error {
	content := fmt.Sprintf("**%s**\n\n%s", ann.Title, ann.Body)
	data := &discordgo.MessageSend{Content: content}
	if res != nil {
		data.Files = []*discordgo.File{{
			Name:        "banner.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(res.PNG),
		}}
	}
	if _, err := n.session.ChannelMessageSendComplex(n.announceChannel, data); err != nil {
		return fmt.Errorf("publish announcement: %w", err)
	}
	return nil
}
