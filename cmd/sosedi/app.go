package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"pkt.systems/pslog"

	"github.com/sosedi-hub/sosedi"
)

func submain(ctx context.Context) int {
	baseLogger := pslog.LoggerFromEnv(
		pslog.WithEnvPrefix("SOSEDI_LOG_"),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.InfoLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "sosedi")
	cmd := newRootCommand(baseLogger)
	ctx = withSignalCancel(ctx)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if err != context.Canceled {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(logger pslog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sosedi",
		Short: "Operational tooling for the community-portal document store",
		Long: strings.TrimSpace(`
sosedi inspects and maintains the flat-JSON data directory behind the
community portal: collection status, storage diagnostics, parking-spot
configuration and the reservation expiry sweep.
`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	registerGlobalFlags(flags)

	viper.SetEnvPrefix("SOSEDI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlags(flags)

	cmd.AddCommand(newStatusCommand(logger))
	cmd.AddCommand(newVerifyCommand(logger))
	cmd.AddCommand(newParkingCommand(logger))
	cmd.AddCommand(newWatchCommand(logger))

	return cmd
}

func registerGlobalFlags(flags *pflag.FlagSet) {
	flags.String("data-dir", sosedi.DefaultDataDir, "directory holding the JSON documents")
	flags.String("admins", "", "comma-separated apartment ids with admin rights")
	flags.String("telegram-token", "", "Telegram bot token for notifications")
	flags.Bool("allow-phone-fallback", false, "permit phone-number login while a PIN is set")
}

func bindConfig(cfg *sosedi.Config, logger pslog.Logger) error {
	cfg.DataDir = viper.GetString("data-dir")
	cfg.AdminApartments = sosedi.ParseAdminApartments(viper.GetString("admins"))
	cfg.TelegramBotToken = viper.GetString("telegram-token")
	cfg.AllowPhoneFallback = viper.GetBool("allow-phone-fallback")
	cfg.Logger = logger
	return cfg.Validate()
}

func openPortal(logger pslog.Logger) (*sosedi.Portal, error) {
	var cfg sosedi.Config
	if err := bindConfig(&cfg, logger); err != nil {
		return nil, err
	}
	return sosedi.New(cfg)
}
