// Package notify informs members about role decisions by direct message
// and mirrors the decision to an operations webhook.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wajed-network/bridge/internal/logger"
	"github.com/wajed-network/bridge/pkg/quiz"
	"github.com/wajed-network/bridge/pkg/roles"
)

const (
	colorSuccess = 0x22c55e
	colorFailure = 0xef4444
	footerText   = "Fury Town CFW"
)

// ErrInvalidWebhookURL is returned when a webhook url has no id and token
var ErrInvalidWebhookURL = errors.New("invalid webhook url")

// Session is the part of the discord session the notifier needs
type Session interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notification describes a role decision
type Notification struct {
	Guild   *discordgo.Guild
	Member  *discordgo.Member
	Role    *discordgo.Role
	Action  roles.Action
	Success bool
	// Quiz is set when the decision is the result of a graded quiz
	Quiz *quiz.Result
}

// Notifier sends notifications. It never fails its caller.
type Notifier struct {
	session      Session
	webhookID    string
	webhookToken string
	now          func() time.Time
	metrics      metrics
}

// NewNotifier creates a new Notifier. An empty webhook url disables the webhook copy.
func NewNotifier(session Session, webhookURL string) (*Notifier, error) {
	n := &Notifier{
		session: session,
		now:     time.Now,
		metrics: newMetrics(),
	}
	if webhookURL == "" {
		return n, nil
	}
	id, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	n.webhookID, n.webhookToken = id, token
	return n, nil
}

// ParseWebhookURL extracts id and token of a url like
// https://discord.com/api/webhooks/{id}/{token}
func ParseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidWebhookURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "webhooks" && i+2 < len(parts) && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", ErrInvalidWebhookURL
}

// Notify sends the direct message and then the webhook copy.
// Either may fail without affecting the other; failures are only logged.
func (n *Notifier) Notify(ctx context.Context, msg Notification) {
	log := logger.FromContext(ctx).With(logger.Data("member", memberID(msg.Member), "role", roleID(msg.Role), "action", string(msg.Action)))
	now := n.now()

	if err := n.sendDM(ctx, msg, now); err != nil {
		log.ErrorContext(ctx, err.Error(), logger.Type("NOTIFICATION_ERROR"))
		n.metrics.sent.WithLabelValues(targetDM, outcomeFailed).Inc()
	} else {
		log.InfoContext(ctx, fmt.Sprintf("Sent %s notification to %s", msg.Action, memberTag(msg.Member)), logger.Type("NOTIFICATION_SENT"))
		n.metrics.sent.WithLabelValues(targetDM, outcomeSent).Inc()
	}

	if n.webhookID == "" {
		return
	}
	if err := n.sendWebhook(ctx, msg, now); err != nil {
		log.ErrorContext(ctx, err.Error(), logger.Type("NOTIFICATION_ERROR"))
		n.metrics.sent.WithLabelValues(targetWebhook, outcomeFailed).Inc()
		return
	}
	log.InfoContext(ctx, fmt.Sprintf("Sent webhook notification for %s", memberTag(msg.Member)), logger.Type("WEBHOOK_SENT"))
	n.metrics.sent.WithLabelValues(targetWebhook, outcomeSent).Inc()
}

// GetMetricCollectors returns all metric collectors of the notifier
func (n *Notifier) GetMetricCollectors() []prometheus.Collector {
	return n.metrics.collectors()
}

func (n *Notifier) sendDM(ctx context.Context, msg Notification, now time.Time) error {
	if msg.Member == nil || msg.Member.User == nil {
		return errors.New("notification has no member")
	}
	ch, err := n.session.UserChannelCreate(msg.Member.User.ID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open direct message channel: %w", err)
	}
	_, err = n.session.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{DirectEmbed(msg, now)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send direct message: %w", err)
	}
	return nil
}

func (n *Notifier) sendWebhook(ctx context.Context, msg Notification, now time.Time) error {
	_, err := n.session.WebhookExecute(n.webhookID, n.webhookToken, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{WebhookEmbed(msg, now)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to execute webhook: %w", err)
	}
	return nil
}
