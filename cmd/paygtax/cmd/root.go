// Package cmd provides the CLI commands for paygtax.
package cmd

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/manageitwa/payg-tax/factory"
	"github.com/manageitwa/payg-tax/internal/config"
	"github.com/manageitwa/payg-tax/internal/logging"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

type rootOptions struct {
	cfgFile string
	verbose bool
	cfg     *config.Config
}

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "paygtax",
		Short: "Australian PAYG withholding calculator",
		Long: `paygtax calculates the amount to withhold from one payment using the
ATO published coefficient tables (NAT 1004, NAT 3539, NAT 4466, NAT 75331).

Examples:
  paygtax calculate --gross 1000 --date 2024-10-15 --cycle weekly
  paygtax calculate --gross 625 --threshold --adjust medicare_levy_reduction:spouse=true
  paygtax batch payroll.yaml --format json
  paygtax tables nat1004.scale2`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := cfg.ApplyEnv(); err != nil {
				return err
			}
			if opts.verbose {
				cfg.Logging.Level = "debug"
			}
			opts.cfg = cfg
			return logging.Initialize(cfg.Logging)
		},
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newCalculateCmd())
	root.AddCommand(newBatchCmd(opts))
	root.AddCommand(newScalesCmd())
	root.AddCommand(newTablesCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "paygtax version %s\n", Version)
		},
	}
}

func loadCatalog() (*factory.Catalog, error) {
	catalog, err := factory.NewDefaultCatalog()
	if err != nil {
		return nil, fmt.Errorf("building scale catalog: %w", err)
	}
	return catalog, nil
}

func checkFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
