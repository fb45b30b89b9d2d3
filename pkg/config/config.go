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
	"net"
	"time"

	"github.com/wajed-network/bridge/internal/helper"
)

// EnvDevelopment enables verbose error details in API responses
const EnvDevelopment = "development"

type Config struct {
	Api         ApiConfig     `mapstructure:"api"`
	Discord     DiscordConfig `mapstructure:"discord"`
	Status      StatusConfig  `mapstructure:"status"`
	Checks      ChecksConfig  `mapstructure:"checks"`
	Environment string        `mapstructure:"environment"`
}

// ApiConfig is the configuration for the bridge API
type ApiConfig struct {
	ListeningAddress string `mapstructure:"address"`
	// Port overrides the port of the listening address when set
	Port string `mapstructure:"port"`
}

// DiscordConfig is the configuration of the gateway session
// and the guilds the bridge operates on
type DiscordConfig struct {
	Token      string `mapstructure:"token"`
	WebhookURL string `mapstructure:"webhookUrl"`
	// RolesGuildID is the guild managed through /assign-role
	RolesGuildID string `mapstructure:"rolesGuildId"`
	// DefaultGuildID is the guild used by /process-qcm
	DefaultGuildID  string             `mapstructure:"guildId"`
	StatusGuildID   string             `mapstructure:"statusGuildId"`
	StatusChannelID string             `mapstructure:"statusChannelId"`
	Retry           helper.RetryConfig `mapstructure:"retry"`
}

// StatusConfig is the configuration of the status message
type StatusConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	PageURL  string        `mapstructure:"pageUrl"`
	Timezone string        `mapstructure:"timezone"`
}

// ChecksConfig is the configuration of the external checkers
type ChecksConfig struct {
	Timeout    time.Duration    `mapstructure:"timeout"`
	Uptime     UptimeConfig     `mapstructure:"uptime"`
	Domain     DomainConfig     `mapstructure:"domain"`
	Screenshot ScreenshotConfig `mapstructure:"screenshot"`
}

// UptimeConfig is the configuration of the uptime monitor API
type UptimeConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"apiKey"`
}

// DomainConfig is the configuration of the public site probe
type DomainConfig struct {
	URL string `mapstructure:"url"`
}

// ScreenshotConfig is the configuration of the screenshot renderer
type ScreenshotConfig struct {
	URL       string `mapstructure:"url"`
	Target    string `mapstructure:"target"`
	AccessKey string `mapstructure:"accessKey"`
	// SecretKey signs the render URL when set
	SecretKey string `mapstructure:"secretKey"`
}

// NewConfig creates a new Config holding the defaults
func NewConfig() *Config {
	return &Config{
		Api: ApiConfig{ListeningAddress: DefaultApiAddress},
		Discord: DiscordConfig{
			Retry: helper.RetryConfig{Count: DefaultRetryCount, Delay: DefaultRetryDelay},
		},
		Status: StatusConfig{
			Interval: DefaultStatusInterval,
			PageURL:  DefaultStatusPageURL,
			Timezone: DefaultTimezone,
		},
		Checks: ChecksConfig{
			Timeout: DefaultCheckTimeout,
			Uptime:  UptimeConfig{URL: DefaultUptimeURL},
			Domain:  DomainConfig{URL: DefaultDomainURL},
			Screenshot: ScreenshotConfig{
				URL:    DefaultScreenshotURL,
				Target: DefaultStatusPageURL,
			},
		},
	}
}

// Address returns the address the API listens on
func (a ApiConfig) Address() string {
	if a.Port == "" {
		return a.ListeningAddress
	}
	host, _, err := net.SplitHostPort(a.ListeningAddress)
	if err != nil {
		host = ""
	}
	return net.JoinHostPort(host, a.Port)
}

// QuizGuildID returns the guild graded quizzes apply to.
// Falls back to the roles guild when no default guild is set.
func (d DiscordConfig) QuizGuildID() string {
	if d.DefaultGuildID != "" {
		return d.DefaultGuildID
	}
	return d.RolesGuildID
}

// IsDevelopment reports whether the bridge runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Location returns the time zone used for the status footer.
// Unknown zones fall back to UTC.
func (s StatusConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
