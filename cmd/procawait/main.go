package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/CZERTAINLY/procawait/internal/log"
	"github.com/CZERTAINLY/procawait/internal/model"
	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"
)

const configEnv = "PROCAWAITCONFIG"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			if exitErr.err != nil {
				slog.Error("procawait failed", "err", exitErr.err)
			}
			os.Exit(exitErr.code)
		}
		slog.Error("procawait failed", "err", err)
		os.Exit(1)
	}
}

// app holds the state shared by all subcommands.
type app struct {
	userConfigPath string // /default/config/path/procawait on given OS
	configPath     string // actual config file used (if loaded)
	config         model.Config

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
}

func newRootCmd() *cobra.Command {
	a := &app{config: model.DefaultConfig()}
	if d, err := os.UserConfigDir(); err == nil {
		a.userConfigPath = filepath.Join(d, "procawait")
	}

	rootCmd := &cobra.Command{
		Use:          "procawait",
		Short:        "Runs a command and waits for it, streaming its output",
		SilenceUsage: true,
		// never print messages
		SilenceErrors: true,
		// parse a config, setup logging
		PersistentPreRunE: a.init,
	}
	rootCmd.PersistentFlags().StringVar(&a.flagConfigFilePath, "config", "", "Config file to load - default is procawait.yaml in current directory or in "+a.userConfigPath)
	rootCmd.PersistentFlags().BoolVar(&a.flagVerbose, "verbose", false, "verbose logging")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(a.configCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "config prints the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.configPath != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", a.configPath)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer func() {
				_ = enc.Close()
			}()
			return enc.Encode(a.config)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "version provide version of a procawait",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			info, ok := debug.ReadBuildInfo()
			if !ok {
				_, _ = fmt.Fprintln(out, "procawait: version info not available")
				return
			}

			_, _ = fmt.Fprintf(out, "procawait: %s\n", info.Main.Version)
			_, _ = fmt.Fprintf(out, "go:        %s\n", info.GoVersion)
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					_, _ = fmt.Fprintf(out, "commit:    %s\n", s.Value)
				case "vcs.time":
					_, _ = fmt.Fprintf(out, "date:      %s\n", s.Value)
				case "vcs.modified":
					_, _ = fmt.Fprintf(out, "dirty:     %s\n", s.Value)
				}
			}
		},
	}
}

func (a *app) init(_ *cobra.Command, _ []string) error {
	// --config wins over $PROCAWAITCONFIG, an empty variable disables the lookup
	if a.flagConfigFilePath != "" {
		a.configPath = a.flagConfigFilePath
	} else if envConfig, ok := os.LookupEnv(configEnv); ok {
		a.configPath = envConfig
	} else {
		for _, d := range []string{".", a.userConfigPath} {
			if d == "" {
				continue
			}
			path := filepath.Join(d, "procawait.yaml")
			if exists(path) {
				a.configPath = path
				break
			}
		}
	}

	if a.configPath != "" {
		f, err := os.Open(a.configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		a.config, err = model.LoadConfig(f)
		if err != nil {
			for _, d := range model.CueErrDetails(err) {
				slog.Error("invalid config", d.Attr("detail"))
			}
			return fmt.Errorf("parsing config %s: %w", a.configPath, err)
		}
	}

	// --verbose has a precedence over config file
	if a.flagVerbose {
		a.config.Verbose = true
	}

	slog.SetDefault(log.New(os.Stderr, a.config.Verbose))
	slog.Debug("procawait run", "configPath", a.configPath)
	slog.Debug("procawait run", "config", a.config)
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
