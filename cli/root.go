// Package cli implements the docchat terminal client.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"docchat/client"
	"docchat/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type ctxKey string

const appKey ctxKey = "app"

const defaultServerURL = "http://localhost:8000"

// App holds what every subcommand needs.
type App struct {
	Client *client.Client
	Logger *zap.Logger
	Config *viper.Viper
}

// Execute builds the root command and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "docchat",
		Short:         "Chat with a PDF, TXT or MD document from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadConfig(cmd, cfgPath)
			if err != nil {
				return err
			}

			logger := newLogger(v.GetString("log_level"), cmd.ErrOrStderr())

			app := &App{
				Client: client.New(v.GetString("server_url"),
					client.WithLogger(logger),
					client.WithTimeout(v.GetDuration("timeout"))),
				Logger: logger,
				Config: v,
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, app))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (yaml)")
	cmd.PersistentFlags().String("server", defaultServerURL, "docchat server URL (env DOCCHAT_SERVER_URL)")
	cmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	cmd.PersistentFlags().Duration("timeout", 3*time.Minute, "HTTP timeout per request")

	cmd.AddCommand(newModelsCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newFormatCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func loadConfig(cmd *cobra.Command, cfgPath string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCCHAT")
	v.AutomaticEnv()
	v.SetDefault("server_url", defaultServerURL)
	v.SetDefault("log_level", "warn")
	v.SetDefault("timeout", 3*time.Minute)

	flags := cmd.Flags()
	for key, flag := range map[string]string{
		"server_url": "server",
		"log_level":  "log-level",
		"timeout":    "timeout",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
	}
	return v, nil
}

// newLogger builds a logger writing to w at level. Stderr gets the shared
// development logger so Cleanup flushes it.
func newLogger(level string, w io.Writer) *zap.Logger {
	if f, ok := w.(*os.File); ok && f == os.Stderr {
		if logger, err := config.InitLogger(level); err == nil {
			return logger
		}
	}
	return config.NewWriterLogger(level, w)
}

func getApp(cmd *cobra.Command) *App {
	v := cmd.Context().Value(appKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return v.(*App)
}
