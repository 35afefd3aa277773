package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"zkpass/internal/app"
)

var (
	cfgFile string
	home    string
	wire    *app.Wire
)

func Execute() error {
	v := viper.New()
	root := &cobra.Command{
		Use:          "zkpass",
		Short:        "Sign in with OAuth and submit sponsored registry transactions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(v, cfgFile)
			if err != nil {
				return err
			}
			app.ConfigureLogging(cfg.Log.Level, cfg.Log.Pretty)
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}
			wire, err = app.NewWire(cfg, nil)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire == nil {
				return nil
			}
			return wire.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.StringVar(&home, "home", "", "session dir (default ~/.zkpass)")
	flags.String("relay", "", "gateway base URL (e.g. http://127.0.0.1:8080)")
	flags.String("rpc", "", "ledger JSON-RPC endpoint")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("home", flags.Lookup("home"))
	_ = v.BindPFlag("relay_url", flags.Lookup("relay"))
	_ = v.BindPFlag("rpc_url", flags.Lookup("rpc"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))

	root.AddCommand(loginCmd(), logoutCmd(), sessionCmd(), txCmd(), carsCmd(), partnersCmd())
	return root.Execute()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
