package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"artify/internal/catalog"
	"artify/internal/classify"
	"artify/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Add [[sources]] entries, then run `artify config validate`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	var skipCatalog bool
	var skipLLM bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and check the catalog is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderStatusLine("Config path", statusInfo, ctx.configPath, colorize))
			enabled := len(cfg.EnabledSources())
			kind := statusOK
			if enabled == 0 {
				kind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Sources", kind,
				fmt.Sprintf("%d configured, %d enabled", len(cfg.Sources), enabled), colorize))
			fmt.Fprintln(out, renderStatusLine("Classifier", statusInfo, cfg.Classifier.Mode, colorize))
			if cfg.Classifier.Mode == "llm" && !skipLLM {
				if err := classify.CheckLLM(cmd.Context(), cfg); err != nil {
					fmt.Fprintln(out, renderStatusLine("LLM", statusError, err.Error(), colorize))
					return err
				}
				fmt.Fprintln(out, renderStatusLine("LLM", statusOK, cfg.GetLLM().Model+" answered", colorize))
			}
			if !skipCatalog {
				err := ctx.withStore(cmd.Context(), func(store *catalog.Store) error {
					return store.Ping(cmd.Context())
				})
				if err != nil {
					fmt.Fprintln(out, renderStatusLine("Catalog", statusError, err.Error(), colorize))
					return err
				}
				fmt.Fprintln(out, renderStatusLine("Catalog", statusOK, cfg.Catalog.Driver+" reachable", colorize))
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipCatalog, "skip-catalog", false, "Do not open the catalog")
	cmd.Flags().BoolVar(&skipLLM, "skip-llm", false, "Do not contact the classifier model")
	return cmd
}
