package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"clibundle/internal/app"
	"clibundle/internal/catalog"
	"clibundle/internal/installer"
	"clibundle/internal/ui"
	"github.com/spf13/cobra"
)

// environment is filled in by the root command's PersistentPreRunE once
// flags are parsed.
type environment struct {
	configPath string
	logLevel   string
	noColor    bool

	svc          *app.Service
	installerFor func(installType string) (installer.Installer, error)
}

func (e *environment) catalog() (*catalog.Catalog, error) {
	cat, err := catalog.Load(e.svc.Paths().CatalogPath)
	if err != nil {
		return nil, app.WrapExit(app.ExitIOFailure, err)
	}
	return cat, nil
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(installer.For)
}

func newRootCommand(installerFor func(string) (installer.Installer, error)) *cobra.Command {
	env := &environment{installerFor: installerFor}

	root := &cobra.Command{
		Use:           "clibundle",
		Short:         "Install AI CLI tools and sync provider credentials into their settings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(firstNonEmpty(env.logLevel, os.Getenv("CLIBUNDLE_LOG_LEVEL")), cmd.ErrOrStderr())
			if env.noColor {
				ui.SetColor(false)
			}
			paths, err := app.ResolvePaths(env.configPath)
			if err != nil {
				return app.WrapExit(app.ExitIOFailure, err)
			}
			env.svc = app.NewService(paths)
			slog.Debug("resolved paths", "registry", paths.RegistryPath, "catalog", paths.CatalogPath)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&env.configPath, "config", "", "Registry file (default $CLIBUNDLE_HOME/ai.json)")
	root.PersistentFlags().StringVar(&env.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&env.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newInitCommand(env))
	root.AddCommand(newListCommand(env))
	root.AddCommand(newPackageCommand(env, actionInstall))
	root.AddCommand(newPackageCommand(env, actionUpdate))
	root.AddCommand(newPackageCommand(env, actionUninstall))
	root.AddCommand(newApplyCommand(env))
	root.AddCommand(newStatusCommand(env))
	root.AddCommand(newProviderCommand(env))
	root.AddCommand(newToolCommand(env))
	root.AddCommand(newTargetCommand(env))

	return root
}

func configureLogging(level string, w io.Writer) {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)}))
	slog.SetDefault(logger)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func newInitCommand(env *environment) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default provider registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := env.svc.Paths().RegistryPath
			wrote, err := env.svc.Init(force)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !wrote {
				fmt.Fprintf(out, "%s registry already exists: %s (use --force to overwrite)\n", ui.WarnIcon(), path)
				return nil
			}
			fmt.Fprintf(out, "%s wrote %s\n", ui.StatusIcon(true), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing registry")
	return cmd
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
