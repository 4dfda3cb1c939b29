// CLIcafe - a coffee shop in the terminal.
//
// Sub-commands:
//
//	clicafe [shell]     Interactive shop (default)
//	clicafe login       Sign in and save the session
//	clicafe logout      Forget the saved session
//	clicafe callback    Payment outcome callback server
//	clicafe catalog     Print the catalog
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clicafe/clicafe/internal/config"
)

// flags are the persistent overrides shared by every sub-command.
type flags struct {
	apiURL   string
	offline  bool
	color    string
	logLevel string
	logFile  string
	metrics  string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "clicafe",
		Short:         "A coffee shop in your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, f)
		},
	}

	addPersistentFlags(root, f)

	root.AddCommand(
		&cobra.Command{
			Use:   "shell",
			Short: "Open the interactive shop (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runShell(cmd, f)
			},
		},
		newLoginCommand(f),
		newLogoutCommand(f),
		newCallbackCommand(f),
		newCatalogCommand(f),
	)
	return root
}

func addPersistentFlags(cmd *cobra.Command, f *flags) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.apiURL, "api-url", "", "API root URL (\"off\" for offline mode)")
	pf.BoolVar(&f.offline, "offline", false, "Run without a server: static catalog and local cart")
	pf.StringVar(&f.color, "color", "", "Terminal colour (green, blue, red, yellow, purple)")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&f.logFile, "log-file", "", "Log output (stdout, stderr or a file path)")
	pf.StringVar(&f.metrics, "metrics-addr", "", "Serve Prometheus metrics on this address")
}

// loadConfig loads the configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	changed := cmd.Flags().Changed
	if changed("api-url") {
		cfg.APIURL = f.apiURL
		cfg.Offline = false
	}
	if changed("offline") {
		cfg.Offline = f.offline
	}
	if changed("color") {
		cfg.Color = f.color
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-file") {
		cfg.LogOutput = f.logFile
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = f.metrics
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
