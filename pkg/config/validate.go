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

package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/wajed-network/bridge/internal/logger"
)

const (
	minStatusInterval = 5 * time.Second
	minCheckTimeout   = time.Second
	maxRetryCount     = 5
)

// Validate validates the config.
// Every invalid field is logged; the returned error joins all of them.
func (c *Config) Validate(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx, "configValidation")
	defer cancel()
	log := logger.FromContext(ctx)

	var errs []error
	invalid := func(err error, msg string, args ...any) {
		log.ErrorContext(ctx, msg, args...)
		errs = append(errs, err)
	}

	if c.Discord.Token == "" {
		invalid(ErrMissingToken, "The discord bot token is required", "env", envBindings[KeyDiscordToken])
	}
	for key, id := range map[string]string{
		KeyDiscordRolesGuildID:  c.Discord.RolesGuildID,
		KeyDiscordStatusGuildID: c.Discord.StatusGuildID,
	} {
		if id == "" {
			invalid(fmt.Errorf("%w: %s", ErrMissingGuild, key), "A guild id is required", "key", key, "env", envBindings[key])
		}
	}
	if c.Discord.StatusChannelID == "" {
		invalid(ErrMissingChannel, "The status channel id is required", "env", envBindings[KeyDiscordStatusChannelID])
	}
	if c.Discord.Retry.Count < 0 || c.Discord.Retry.Count > maxRetryCount {
		invalid(ErrInvalidRetryCount, "The amount of gateway retries should be between 0 and 5", KeyDiscordRetryCount, c.Discord.Retry.Count)
	}

	if c.Status.Interval < minStatusInterval {
		invalid(ErrInvalidInterval, "The status interval is too short", KeyStatusInterval, c.Status.Interval.String(), "min", minStatusInterval.String())
	}
	if _, err := time.LoadLocation(c.Status.Timezone); err != nil {
		invalid(ErrInvalidTimezone, "The status timezone is unknown", KeyStatusTimezone, c.Status.Timezone)
	}
	if c.Checks.Timeout < minCheckTimeout {
		invalid(ErrInvalidTimeout, "The check timeout is too short", KeyChecksTimeout, c.Checks.Timeout.String(), "min", minCheckTimeout.String())
	}

	for key, u := range map[string]string{
		KeyStatusPageURL:    c.Status.PageURL,
		KeyUptimeURL:        c.Checks.Uptime.URL,
		KeyDomainURL:        c.Checks.Domain.URL,
		KeyScreenshotURL:    c.Checks.Screenshot.URL,
		KeyScreenshotTarget: c.Checks.Screenshot.Target,
	} {
		if _, err := url.ParseRequestURI(u); err != nil {
			invalid(fmt.Errorf("%w: %s", ErrInvalidURL, key), "The url is not valid", key, u)
		}
	}
	if c.Discord.WebhookURL != "" {
		if _, err := url.ParseRequestURI(c.Discord.WebhookURL); err != nil {
			invalid(fmt.Errorf("%w: %s", ErrInvalidURL, KeyDiscordWebhookURL), "The webhook url is not valid")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation of configuration failed: %w", errors.Join(errs...))
	}
	return nil
}
