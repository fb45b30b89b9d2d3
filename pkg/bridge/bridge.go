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

package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wajed-network/bridge/internal/logger"
	"github.com/wajed-network/bridge/pkg/api"
	"github.com/wajed-network/bridge/pkg/checks"
	"github.com/wajed-network/bridge/pkg/config"
	"github.com/wajed-network/bridge/pkg/db"
	"github.com/wajed-network/bridge/pkg/discord"
	"github.com/wajed-network/bridge/pkg/metrics"
	"github.com/wajed-network/bridge/pkg/notify"
	"github.com/wajed-network/bridge/pkg/roles"
	"github.com/wajed-network/bridge/pkg/status"
)

// gateway is the connection to discord
type gateway interface {
	OnReady(fn discord.ReadyFunc)
	OnMessage(fn discord.MessageFunc)
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	Ready() bool
	BotID() string
}

// roleManager resolves guild entities and changes roles
type roleManager interface {
	Guild(ctx context.Context, guildID string) (*discordgo.Guild, error)
	Member(ctx context.Context, guildID, userID string) (*discordgo.Member, error)
	Role(ctx context.Context, guildID, roleID string) (*discordgo.Role, error)
	SetRole(ctx context.Context, guild *discordgo.Guild, member *discordgo.Member, roleID string, action roles.Action) error
}

type notifier interface {
	Notify(ctx context.Context, msg notify.Notification)
}

// refresher keeps the status message up to date
type refresher interface {
	Run(ctx context.Context) error
	HandleMessage(ctx context.Context, m *discordgo.MessageCreate)
}

// Bridge connects the http api with discord
type Bridge struct {
	cfg       *config.Config
	gateway   gateway
	roles     roleManager
	notifier  notifier
	refresher refresher
	db        db.DB
	api       api.API
	metrics   metrics.Metrics
	now       func() time.Time

	wg sync.WaitGroup
}

// New creates a new Bridge from the given config
func New(cfg *config.Config) (*Bridge, error) {
	gw, err := discord.New(cfg.Discord)
	if err != nil {
		return nil, err
	}
	session := gw.Session()

	notifier, err := notify.NewNotifier(session, cfg.Discord.WebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}
	checker := checks.New(cfg.Checks)
	store := db.NewInMemory()
	ref := status.NewRefresher(session, checker, store, cfg.Discord, cfg.Status)
	mgr := roles.NewManager(session, gw.BotID)

	collectors := checker.GetMetricCollectors()
	collectors = append(collectors, ref.GetMetricCollectors()...)
	collectors = append(collectors, mgr.GetMetricCollectors()...)
	collectors = append(collectors, notifier.GetMetricCollectors()...)

	return &Bridge{
		cfg:       cfg,
		gateway:   gw,
		roles:     mgr,
		notifier:  notifier,
		refresher: ref,
		db:        store,
		api:       api.New(cfg.Api),
		metrics:   metrics.NewMetrics(collectors...),
		now:       time.Now,
	}, nil
}

// Run connects to discord and serves the api.
// Blocks until the context is done or the api fails.
func (b *Bridge) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx, "bridge")
	defer cancel()
	log := logger.FromContext(ctx)

	b.gateway.OnReady(func(ctx context.Context) {
		log.InfoContext(ctx, "Serving guilds", "roles", b.cfg.Discord.RolesGuildID, "status", b.cfg.Discord.StatusGuildID)
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			if err := b.refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.ErrorContext(ctx, "Status refresher stopped", "error", err)
			}
		}()
	})
	b.gateway.OnMessage(b.refresher.HandleMessage)

	if err := b.gateway.Open(ctx); err != nil {
		return fmt.Errorf("failed to connect to discord: %w", err)
	}

	if err := b.api.RegisterRoutes(ctx, b.routes()...); err != nil {
		log.ErrorContext(ctx, "Failed to register routes", "error", err)
		cancel()
		return errors.Join(err, b.shutdown(ctx))
	}

	cErr := make(chan error, 1)
	go func() {
		cErr <- b.api.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.InfoContext(ctx, "Shutting down bridge", "reason", ctx.Err())
		return b.shutdown(ctx)
	case err := <-cErr:
		log.ErrorContext(ctx, "Api stopped", "error", err)
		cancel()
		return errors.Join(err, b.shutdown(ctx))
	}
}

// shutdown stops the api and the gateway and waits for the refresher.
// The run context must be done before calling it.
func (b *Bridge) shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	sCtx := context.WithoutCancel(ctx)

	var err error
	if sErr := b.api.Shutdown(sCtx); sErr != nil {
		err = errors.Join(err, sErr)
	}
	if gErr := b.gateway.Close(sCtx); gErr != nil {
		err = errors.Join(err, gErr)
	}
	b.wg.Wait()

	if err != nil {
		log.ErrorContext(ctx, "Failed to shutdown gracefully", "error", err)
		return fmt.Errorf("failed to shutdown gracefully: %w", err)
	}
	return nil
}
