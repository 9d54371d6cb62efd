package main

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/obatxn/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [command]",
		Short: "configuration commands",
	}
	cmd.AddCommand(newConfigCheckCmd(), newConfigShowCmd())
	return cmd
}

func newConfigCheckCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigCheck(cmd.OutOrStdout(), cmd.ErrOrStderr(), file)
		},
	}
	cmd.Flags().StringVar(&file, "config", "", "path to the configuration file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runConfigCheck(out, errOut io.Writer, file string) error {
	cfg, err := config.LoadConfig(file)
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(errOut, "  - %v\n", e)
		}
		return errors.Errorf("configuration has %d error(s)", len(errs))
	}

	fmt.Fprintln(out, "Configuration is valid")
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "print the effective configuration",
		Long: `
  Prints the configuration as TOML after defaults and environment variable
  substitution. Without --config the defaults are printed.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if file != "" {
				var err error
				if cfg, err = config.LoadConfig(file); err != nil {
					return err
				}
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
	cmd.Flags().StringVar(&file, "config", "", "path to the configuration file")
	return cmd
}
