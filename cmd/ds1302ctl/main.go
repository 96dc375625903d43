package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajanata/simplertc/internal/config"
	"github.com/ajanata/simplertc/internal/ntp"
	"github.com/ajanata/simplertc/internal/publish"
	"github.com/ajanata/simplertc/internal/shell"
	"github.com/ajanata/simplertc/rtctime"
)

const defaultConfigPath = "ds1302ctl.toml"

var (
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command) (*env, error) {
	return newEnv(cmd.Flags().Changed("config"))
}

var rootCmd = &cobra.Command{
	Use:          "ds1302ctl",
	Short:        "Drive a simulated DS1302 real-time clock",
	SilenceUsage: true,
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Print the current chip time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		t, err := e.dev.ReadTime()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), t)
		return nil
	},
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run commands against the chip, one per line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		return shell.New(e.dev, cmd.OutOrStdout(), e.log).Run(cmd.InOrStdin())
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Set the chip from an NTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		server := e.cfg.NTP.Server
		if s, _ := cmd.Flags().GetString("server"); s != "" {
			server = s
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.NTP.Timeout.Duration)
		defer cancel()

		now, err := ntp.Query(ctx, server)
		if err != nil {
			return err
		}
		t := rtctime.FromTime(now)
		if err := e.dev.SetTime(t); err != nil {
			return fmt.Errorf("setting chip: %w", err)
		}
		e.log.Infow("clock synced", "server", server, "time", t.String())
		fmt.Fprintln(cmd.OutOrStdout(), t)
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the chip time to MQTT at every interval",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		count, _ := cmd.Flags().GetInt("count")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		p, err := publish.New(ctx, e.cfg.MQTT)
		if err != nil {
			return err
		}
		defer p.Close()

		return publishLoop(ctx, e, p, count)
	},
}

// publishLoop publishes one reading right away and then one per interval, until ctx is done or count readings have
// gone out. A count of zero means no limit.
func publishLoop(ctx context.Context, e *env, p publish.Publisher, count int) error {
	ticker := time.NewTicker(e.cfg.MQTT.Interval.Duration)
	defer ticker.Stop()

	for sent := 0; count == 0 || sent < count; sent++ {
		if sent > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
		t, err := e.dev.ReadTime()
		if err != nil {
			return err
		}
		running, err := e.dev.Running()
		if err != nil {
			return err
		}
		payload, err := publish.Payload(t, running)
		if err != nil {
			return err
		}
		if err := p.Publish(e.cfg.MQTT.Topic, payload); err != nil {
			return err
		}
		e.log.Debugw("published", "topic", e.cfg.MQTT.Topic, "time", t.String())
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath, config.Default()); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration initialized at %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().String("server", "", "NTP server (host:port), overriding the configured one")
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().IntP("count", "n", 0, "Stop after this many readings (0 runs until interrupted)")
	rootCmd.AddCommand(configCmd)
}
