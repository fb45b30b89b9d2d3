// bridge
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package status

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wajed-network/bridge/internal/logger"
	"github.com/wajed-network/bridge/pkg/checks"
	"github.com/wajed-network/bridge/pkg/config"
	"github.com/wajed-network/bridge/pkg/db"
)

const (
	// purgeLimit is the amount of messages fetched when the channel is cleaned up
	purgeLimit = 100
	// bulkDeleteMaxAge is the age limit of bulk deletion, with an hour of slack
	bulkDeleteMaxAge = 14*24*time.Hour - time.Hour
)

// Session is the part of the discord session the refresher needs
type Session interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Prober runs one round of checks
type Prober interface {
	Snapshot(ctx context.Context) checks.Snapshot
}

// Refresher owns the single status message of the status channel.
//
// Refresh and the channel guard run under one mutex, so concurrent
// triggers are serialized and never create a second message.
type Refresher struct {
	session   Session
	prober    Prober
	builder   *Builder
	store     db.DB
	guildID   string
	channelID string
	interval  time.Duration
	metrics   metrics
	now       func() time.Time

	mu sync.Mutex
	// handle is the currently displayed status message, nil when absent
	handle *discordgo.Message
}

// NewRefresher creates a new Refresher for the configured status channel
func NewRefresher(session Session, prober Prober, store db.DB, dcfg config.DiscordConfig, scfg config.StatusConfig) *Refresher {
	return &Refresher{
		session:   session,
		prober:    prober,
		builder:   NewBuilder(scfg),
		store:     store,
		guildID:   dcfg.StatusGuildID,
		channelID: dcfg.StatusChannelID,
		interval:  scfg.Interval,
		metrics:   newMetrics(),
		now:       time.Now,
	}
}

// Run refreshes the status message once and then on every interval.
// Blocks until the context is done.
func (r *Refresher) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx, "status")
	defer cancel()
	log := logger.FromContext(ctx)

	log.InfoContext(ctx, "Starting status refresher", "interval", r.interval.String(), "channel", r.channelID)
	r.Refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "Status refresher stopped", "err", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh rebuilds the status message. Failures are logged, never returned.
func (r *Refresher) Refresh(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh(ctx)
}

// HandleMessage guards the status channel: messages of non-bot authors are
// deleted and the status message is recreated.
func (r *Refresher) HandleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.ChannelID != r.channelID {
		return
	}
	if m.Author == nil || m.Author.Bot {
		return
	}
	log := logger.FromContext(ctx).With("channel", r.channelID)

	if err := r.session.ChannelMessageDelete(m.ChannelID, m.ID, discordgo.WithContext(ctx)); err != nil {
		log.ErrorContext(ctx, "Failed to delete user message in status channel", logger.Type("STATUS_ERROR"), logger.Data("error", err.Error(), "message", m.ID))
	} else {
		log.InfoContext(ctx, "User message in status channel deleted", logger.Type("STATUS_MESSAGE_DELETED"), logger.Data("message", m.ID, "author", m.Author.ID))
	}
	r.metrics.guarded.Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handle != nil {
		if err := r.session.ChannelMessageDelete(r.channelID, r.handle.ID, discordgo.WithContext(ctx)); err != nil {
			log.WarnContext(ctx, "Failed to delete status message", logger.Type("STATUS_ERROR"), logger.Data("error", err.Error(), "message", r.handle.ID))
		}
		r.handle = nil
	}
	r.refresh(ctx)
}

// Current returns the id of the displayed status message
func (r *Refresher) Current() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handle == nil {
		return "", false
	}
	return r.handle.ID, true
}

// GetMetricCollectors returns all metric collectors of the refresher
func (r *Refresher) GetMetricCollectors() []prometheus.Collector {
	return r.metrics.collectors()
}

// refresh must be called with r.mu held
func (r *Refresher) refresh(ctx context.Context) {
	log := logger.FromContext(ctx).With("channel", r.channelID)

	if _, err := r.session.Guild(r.guildID, discordgo.WithContext(ctx)); err != nil {
		log.ErrorContext(ctx, "Status guild not found", logger.Type("STATUS_ERROR"), logger.Data("guild", r.guildID, "error", err.Error()))
		r.metrics.refreshes.WithLabelValues(outcomeFailed).Inc()
		return
	}
	ch, err := r.session.Channel(r.channelID, discordgo.WithContext(ctx))
	if err != nil || ch.GuildID != r.guildID {
		log.ErrorContext(ctx, "Status channel not found", logger.Type("STATUS_ERROR"), logger.Data("guild", r.guildID))
		r.metrics.refreshes.WithLabelValues(outcomeFailed).Inc()
		return
	}

	snap := r.prober.Snapshot(ctx)
	r.store.Save(r.channelID, snap)
	payload := r.builder.Build(snap, snap.Timestamp)

	if r.handle != nil {
		msg, err := r.session.ChannelMessageEditComplex(payload.MessageEdit(r.channelID, r.handle.ID), discordgo.WithContext(ctx))
		if err == nil {
			r.handle = msg
			log.InfoContext(ctx, "Status message updated", logger.Type("STATUS_UPDATED"))
			r.metrics.refreshes.WithLabelValues(outcomeEdited).Inc()
			return
		}
		if !isUnknownMessage(err) {
			log.ErrorContext(ctx, "Error updating status message", logger.Type("STATUS_ERROR"), logger.Data("error", err.Error()))
			r.metrics.refreshes.WithLabelValues(outcomeFailed).Inc()
			return
		}
		log.WarnContext(ctx, "Status message was deleted, recreating", logger.Type("STATUS_ERROR"), logger.Data("message", r.handle.ID))
		r.handle = nil
	}

	if err := r.purge(ctx); err != nil {
		log.ErrorContext(ctx, "Error deleting old status messages", logger.Type("STATUS_ERROR"), logger.Data("error", err.Error()))
		r.metrics.refreshes.WithLabelValues(outcomeFailed).Inc()
		return
	}
	log.InfoContext(ctx, "Old status messages deleted", logger.Type("STATUS_CLEANUP"))

	msg, err := r.session.ChannelMessageSendComplex(r.channelID, payload.MessageSend(), discordgo.WithContext(ctx))
	if err != nil {
		log.ErrorContext(ctx, "Error sending status message", logger.Type("STATUS_ERROR"), logger.Data("error", err.Error()))
		r.metrics.refreshes.WithLabelValues(outcomeFailed).Inc()
		return
	}
	r.handle = msg
	log.InfoContext(ctx, "New status message created", logger.Type("STATUS_CREATED"), logger.Data("message", msg.ID))
	r.metrics.refreshes.WithLabelValues(outcomeCreated).Inc()
}

// purge deletes the recent messages of the status channel.
// Discord only bulk deletes messages younger than two weeks, older ones are deleted one by one.
func (r *Refresher) purge(ctx context.Context) error {
	msgs, err := r.session.ChannelMessages(r.channelID, purgeLimit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to fetch messages: %w", err)
	}

	cutoff := r.now().Add(-bulkDeleteMaxAge)
	recent := make([]string, 0, len(msgs))
	var old []string
	for _, m := range msgs {
		created, err := discordgo.SnowflakeTimestamp(m.ID)
		if err != nil || created.Before(cutoff) {
			old = append(old, m.ID)
			continue
		}
		recent = append(recent, m.ID)
	}

	var errs []error
	switch len(recent) {
	case 0:
	case 1:
		// bulk delete requires at least two messages
		old = append(old, recent[0])
	default:
		if err := r.session.ChannelMessagesBulkDelete(r.channelID, recent, discordgo.WithContext(ctx)); err != nil {
			errs = append(errs, fmt.Errorf("failed to bulk delete messages: %w", err))
		}
	}
	for _, id := range old {
		if err := r.session.ChannelMessageDelete(r.channelID, id, discordgo.WithContext(ctx)); err != nil && !isUnknownMessage(err) {
			errs = append(errs, fmt.Errorf("failed to delete message %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func isUnknownMessage(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
