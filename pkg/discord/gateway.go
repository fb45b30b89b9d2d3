// Package discord owns the gateway session of the bot.
package discord

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"github.com/wajed-network/bridge/internal/helper"
	"github.com/wajed-network/bridge/internal/logger"
	"github.com/wajed-network/bridge/pkg/config"
)

// Intents requested on the gateway
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// ReadyFunc is called once, after the first ready event
type ReadyFunc func(ctx context.Context)

// MessageFunc is called for every created message
type MessageFunc func(ctx context.Context, m *discordgo.MessageCreate)

// connection is the part of the discordgo session the gateway drives
type connection interface {
	Open() error
	Close() error
	AddHandler(handler any) func()
}

// Gateway wraps the discordgo session and tracks its readiness
type Gateway struct {
	session *discordgo.Session
	conn    connection
	retry   helper.RetryConfig

	ready     atomic.Bool
	botID     atomic.Value
	readyOnce sync.Once
	onReady   []ReadyFunc
	onMessage []MessageFunc
	removers  []func()
}

// New creates a new gateway for the configured bot token. It does not connect.
func New(cfg config.DiscordConfig) (*Gateway, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = Intents

	g := &Gateway{
		session: session,
		conn:    session,
		retry:   cfg.Retry,
	}
	g.botID.Store("")
	return g, nil
}

// Session returns the underlying REST and gateway session
func (g *Gateway) Session() *discordgo.Session {
	return g.session
}

// OnReady registers a function run once the bot is ready. Must be called before Open.
func (g *Gateway) OnReady(fn ReadyFunc) {
	g.onReady = append(g.onReady, fn)
}

// OnMessage registers a message handler. Must be called before Open.
func (g *Gateway) OnMessage(fn MessageFunc) {
	g.onMessage = append(g.onMessage, fn)
}

// Open connects to the gateway, retrying with exponential backoff.
// The handlers receive ctx, so they stop working once it is done.
func (g *Gateway) Open(ctx context.Context) error {
	log := logger.FromContext(ctx)

	g.removers = append(g.removers,
		g.conn.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) { g.handleReady(ctx, r) }),
		g.conn.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) { g.handleMessage(ctx, m) }),
		g.conn.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) { g.handleDisconnect(ctx) }),
		g.conn.AddHandler(func(_ *discordgo.Session, _ *discordgo.Resumed) { g.ready.Store(true) }),
	)

	open := helper.Retry(func(ctx context.Context) error {
		if err := g.conn.Open(); err != nil {
			return fmt.Errorf("discord open connection: %w", err)
		}
		return nil
	}, g.retry)

	if err := open(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to start bot", logger.Type("FATAL_ERROR"), logger.Data("error", err.Error()))
		return err
	}
	return nil
}

// Ready reports whether the gateway has received its ready event
func (g *Gateway) Ready() bool {
	return g.ready.Load()
}

// BotID returns the user id of the bot, empty before the ready event
func (g *Gateway) BotID() string {
	return g.botID.Load().(string)
}

// Close removes the handlers and closes the gateway connection
func (g *Gateway) Close(ctx context.Context) error {
	log := logger.FromContext(ctx)
	for _, remove := range g.removers {
		remove()
	}
	g.removers = nil
	g.ready.Store(false)

	if err := g.conn.Close(); err != nil {
		log.ErrorContext(ctx, "Failed to close discord session", "error", err)
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (g *Gateway) handleReady(ctx context.Context, r *discordgo.Ready) {
	if r.User != nil {
		g.botID.Store(r.User.ID)
	}
	g.ready.Store(true)

	g.readyOnce.Do(func() {
		tag := ""
		if r.User != nil {
			tag = r.User.Username
		}
		logger.FromContext(ctx).InfoContext(ctx, fmt.Sprintf("Bot is ready! Logged in as %s", tag), logger.Type("BOT_READY"))
		for _, fn := range g.onReady {
			fn(ctx)
		}
	})
}

// handleDisconnect marks the gateway as not ready until discord sends ready or resumed again
func (g *Gateway) handleDisconnect(ctx context.Context) {
	if g.ready.Swap(false) {
		logger.FromContext(ctx).WarnContext(ctx, "Bot disconnected from gateway", logger.Type("BOT_ERROR"))
	}
}

func (g *Gateway) handleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if ctx.Err() != nil {
		return
	}
	for _, fn := range g.onMessage {
		fn(ctx, m)
	}
}
