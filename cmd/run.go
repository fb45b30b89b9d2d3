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

package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wajed-network/bridge/internal/logger"
	"github.com/wajed-network/bridge/pkg/bridge"
	"github.com/wajed-network/bridge/pkg/config"
)

// NewCmdRun creates a new run command
func NewCmdRun() *cobra.Command {
	flagMapping := config.RunFlagsNameMapping{
		ApiAddress:        "apiAddress",
		StatusInterval:    "statusInterval",
		StatusTimezone:    "statusTimezone",
		CheckTimeout:      "checkTimeout",
		GatewayRetryCount: "gatewayRetryCount",
		GatewayRetryDelay: "gatewayRetryDelay",
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bridge",
		Long: "The bridge connects to discord and serves the api. Secrets and identifiers are read from\n" +
			"the environment (DISCORD_BOT_TOKEN, ROLES_GUILD_ID, ...); a .env file in the working directory is loaded first.",
		RunE: run(),
	}

	NewFlag(config.KeyApiAddress, flagMapping.ApiAddress).StringP("a").Bind(cmd, config.DefaultApiAddress, "api: The address the server is listening on, PORT overrides its port")
	NewFlag(config.KeyStatusInterval, flagMapping.StatusInterval).Duration().Bind(cmd, config.DefaultStatusInterval, "status: The interval the status message is refreshed in")
	NewFlag(config.KeyStatusTimezone, flagMapping.StatusTimezone).String().Bind(cmd, config.DefaultTimezone, "status: The time zone of the last update footer")
	NewFlag(config.KeyChecksTimeout, flagMapping.CheckTimeout).Duration().Bind(cmd, config.DefaultCheckTimeout, "checks: The timeout of every request to the monitored services")
	NewFlag(config.KeyDiscordRetryCount, flagMapping.GatewayRetryCount).Int().Bind(cmd, config.DefaultRetryCount, "discord: Amount of retries trying to connect to the gateway")
	NewFlag(config.KeyDiscordRetryDelay, flagMapping.GatewayRetryDelay).Duration().Bind(cmd, config.DefaultRetryDelay, "discord: The initial delay between gateway connection retries")

	return cmd
}

// run is the entry point to start the bridge
func run() func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log := logger.NewLogger()
		ctx, cancel := signal.NotifyContext(logger.IntoContext(context.Background(), log), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("Failed to load .env file", "error", err)
		}

		if err := config.BindEnv(viper.GetViper()); err != nil {
			log.Error("Failed to bind environment", "error", err)
			return err
		}
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			log.Error("Failed to load the config", "error", err)
			return err
		}
		if err = cfg.Validate(ctx); err != nil {
			log.Error("Error while validating the config", "error", err)
			return err
		}

		b, err := bridge.New(cfg)
		if err != nil {
			log.Error("Failed to create the bridge", logger.Type("FATAL_ERROR"), "error", err)
			return err
		}

		log.Info("Running bridge")
		if err = b.Run(ctx); err != nil {
			log.Error("Bridge stopped with an error", logger.Type("FATAL_ERROR"), "error", err)
			return err
		}
		log.Info("Bridge stopped")
		return nil
	}
}
