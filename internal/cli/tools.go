package cli

import (
	"fmt"
	"strings"

	"clibundle/internal/app"
	"clibundle/internal/ui"
	"github.com/spf13/cobra"
)

func newToolCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Bind tools to providers",
	}
	cmd.AddCommand(newToolSetCommand(env))
	cmd.AddCommand(newToolToggleCommand(env, true))
	cmd.AddCommand(newToolToggleCommand(env, false))
	return cmd
}

func newToolSetCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "set <tool> <provider>",
		Short: "Bind a tool to a provider and enable it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := strings.TrimSpace(args[0])
			provider := strings.TrimSpace(args[1])
			if err := env.svc.SetToolProvider(tool, provider); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", ui.StatusIcon(true), tool, provider)
			return nil
		},
	}
}

func newToolToggleCommand(env *environment, enabled bool) *cobra.Command {
	use, verb := "disable", "disabled"
	if enabled {
		use, verb = "enable", "enabled"
	}
	return &cobra.Command{
		Use:   use + " <tool>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a tool binding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := strings.TrimSpace(args[0])
			if err := env.svc.EnableTool(tool, enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.StatusIcon(true), tool, verb)
			return nil
		},
	}
}

func newTargetCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Manage custom settings-file targets",
	}
	cmd.AddCommand(newTargetAddCommand(env))
	return cmd
}

func newTargetAddCommand(env *environment) *cobra.Command {
	var target app.CustomTarget
	var format string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Declare a custom settings file to receive provider fields",
		Long: "Each --map entry is source=target, where source is a provider field (apiKey, baseUrl,\n" +
			"model, proxy, extra.<key>) and target is a dotted path inside the file.",
		Example: "  clibundle target add my-tool --path ~/.my-tool/config.json --map apiKey=auth.key --map model=llm.model",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target.Name = strings.TrimSpace(args[0])
			target.Type = app.Format(strings.ToLower(strings.TrimSpace(format)))
			if err := env.svc.AddTarget(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s added target %s (%s, %s)\n", ui.StatusIcon(true), target.Name, target.Type, target.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&target.Path, "path", "", "Settings file path (~ and ${VAR} are expanded)")
	cmd.Flags().StringVar(&format, "type", string(app.FormatJSON), "File format: json or toml")
	cmd.Flags().StringVar(&target.ToolID, "tool", "", "Tool id reported in apply results (defaults to the name)")
	cmd.Flags().StringToStringVar(&target.Mapping, "map", nil, "Field mapping as source=target")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}
