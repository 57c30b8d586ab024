// Command nvgrid attaches to a Neovim instance as an external UI and serves
// the reconciled UI state as a 9P file tree.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cptaffe/nvgrid/internal/config"
	"github.com/cptaffe/nvgrid/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		zap.L().Error("nvgrid failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "nvgrid:", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	srv        string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "nvgrid",
		Short:         "Neovim external UI state served over 9P",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/nvgrid/config.yaml)")
	root.PersistentFlags().StringVar(&g.srv, "srv", "", "unix socket path (default: $NAMESPACE/nvgrid)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(newRunCmd(g))
	root.AddCommand(newDumpCmd(g))
	root.AddCommand(newInputCmd(g))
	root.AddCommand(newResizeCmd(g))
	root.AddCommand(newQuitCmd(g))
	root.AddCommand(newConfigCmd(g))
	return root
}

// load reads the configuration and applies the global flags.
func (g *globalFlags) load(cmd *cobra.Command, bind func(*viper.Viper) error) (config.Config, error) {
	overrides := []func(*viper.Viper) error{func(v *viper.Viper) error {
		if err := v.BindPFlag("srv", cmd.Flags().Lookup("srv")); err != nil {
			return err
		}
		return v.BindPFlag("log.verbose", cmd.Flags().Lookup("verbose"))
	}}
	if bind != nil {
		overrides = append(overrides, bind)
	}
	return config.Load(g.configPath, overrides...)
}

// setupLogger installs the global logger and returns a context carrying it.
func setupLogger(ctx context.Context, verbose bool) (context.Context, *zap.Logger, error) {
	var l *zap.Logger
	var err error
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(l)
	return logger.NewContext(ctx, l), l, nil
}

func newConfigCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd, nil)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
