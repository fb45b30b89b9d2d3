package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/wajed-network/bridge/internal/helper"
)

// Configuration keys as used by viper
const (
	KeyApiAddress = "api.address"
	KeyApiPort    = "api.port"

	KeyDiscordToken           = "discord.token"
	KeyDiscordWebhookURL      = "discord.webhookUrl"
	KeyDiscordRolesGuildID    = "discord.rolesGuildId"
	KeyDiscordDefaultGuildID  = "discord.guildId"
	KeyDiscordStatusGuildID   = "discord.statusGuildId"
	KeyDiscordStatusChannelID = "discord.statusChannelId"
	KeyDiscordRetryCount      = "discord.retry.count"
	KeyDiscordRetryDelay      = "discord.retry.delay"

	KeyStatusInterval = "status.interval"
	KeyStatusPageURL  = "status.pageUrl"
	KeyStatusTimezone = "status.timezone"

	KeyChecksTimeout       = "checks.timeout"
	KeyUptimeURL           = "checks.uptime.url"
	KeyUptimeAPIKey        = "checks.uptime.apiKey"
	KeyDomainURL           = "checks.domain.url"
	KeyScreenshotURL       = "checks.screenshot.url"
	KeyScreenshotTarget    = "checks.screenshot.target"
	KeyScreenshotAccessKey = "checks.screenshot.accessKey"
	KeyScreenshotSecretKey = "checks.screenshot.secretKey"

	KeyEnvironment = "environment"
)

// Defaults of the bridge
const (
	DefaultApiAddress     = ":3000"
	DefaultRetryCount     = 3
	DefaultRetryDelay     = time.Second
	DefaultStatusInterval = 30 * time.Second
	DefaultStatusPageURL  = "http://status.wajed.network/?i=1"
	DefaultTimezone       = "Asia/Riyadh"
	DefaultCheckTimeout   = 10 * time.Second
	DefaultUptimeURL      = "https://api.uptimerobot.com/v2/getMonitors"
	DefaultDomainURL      = "https://wajed.network"
	DefaultScreenshotURL  = "https://api.screenshotone.com/take"
)

// RunFlagsNameMapping maps the cli flags of the run command
type RunFlagsNameMapping struct {
	ApiAddress        string
	StatusInterval    string
	StatusTimezone    string
	CheckTimeout      string
	GatewayRetryCount string
	GatewayRetryDelay string
}

// envBindings maps configuration keys to the environment variables they are read from
var envBindings = map[string]string{
	KeyApiPort:                "PORT",
	KeyDiscordToken:           "DISCORD_BOT_TOKEN",
	KeyDiscordWebhookURL:      "WEBHOOK_URL",
	KeyDiscordRolesGuildID:    "ROLES_GUILD_ID",
	KeyDiscordDefaultGuildID:  "GUILD_ID",
	KeyDiscordStatusGuildID:   "STATUS_GUILD_ID",
	KeyDiscordStatusChannelID: "STATUS_CHANNEL_ID",
	KeyStatusInterval:         "STATUS_INTERVAL",
	KeyStatusPageURL:          "STATUS_PAGE_URL",
	KeyStatusTimezone:         "STATUS_TIMEZONE",
	KeyChecksTimeout:          "CHECK_TIMEOUT",
	KeyUptimeURL:              "UPTIME_API_URL",
	KeyUptimeAPIKey:           "UPTIME_API_KEY",
	KeyDomainURL:              "DOMAIN_URL",
	KeyScreenshotURL:          "SCREENSHOT_API_URL",
	KeyScreenshotTarget:       "SCREENSHOT_TARGET_URL",
	KeyScreenshotAccessKey:    "SCREENSHOT_ACCESS_KEY",
	KeyScreenshotSecretKey:    "SCREENSHOT_SECRET_KEY",
	KeyEnvironment:            "NODE_ENV",
}

// BindEnv registers the defaults and environment bindings of all configuration keys
func BindEnv(v *viper.Viper) error {
	defaults := NewConfig()
	v.SetDefault(KeyApiAddress, defaults.Api.ListeningAddress)
	v.SetDefault(KeyDiscordRetryCount, defaults.Discord.Retry.Count)
	v.SetDefault(KeyDiscordRetryDelay, defaults.Discord.Retry.Delay)
	v.SetDefault(KeyStatusInterval, defaults.Status.Interval)
	v.SetDefault(KeyStatusPageURL, defaults.Status.PageURL)
	v.SetDefault(KeyStatusTimezone, defaults.Status.Timezone)
	v.SetDefault(KeyChecksTimeout, defaults.Checks.Timeout)
	v.SetDefault(KeyUptimeURL, defaults.Checks.Uptime.URL)
	v.SetDefault(KeyDomainURL, defaults.Checks.Domain.URL)
	v.SetDefault(KeyScreenshotURL, defaults.Checks.Screenshot.URL)
	v.SetDefault(KeyScreenshotTarget, defaults.Checks.Screenshot.Target)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}
	return nil
}

// Load decodes the settings known to viper into a Config
func Load(v *viper.Viper) (*Config, error) {
	cfg, err := helper.Decode[Config](v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}
