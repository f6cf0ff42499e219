package cli

import (
	"fmt"
	"sort"
	"strings"

	"clibundle/internal/app"
	"clibundle/internal/ui"
	"github.com/spf13/cobra"
)

func newApplyCommand(env *environment) *cobra.Command {
	var opts app.ApplyOptions
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Write provider settings into every managed tool",
		Long: "Without flags every enabled tool receives its bound provider. --profile broadcasts one\n" +
			"provider to all tools of its type plus custom targets; --tool applies a single tool.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := env.svc.Apply(opts)
			if err != nil {
				return err
			}
			failed := summary.Failed()
			if jsonOut {
				if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
					return err
				}
			} else {
				printApplySummary(cmd, summary)
			}
			if failed > 0 {
				return app.WrapExit(app.ExitPartial, fmt.Errorf("%d of %d targets failed", failed, len(summary.Results)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "Broadcast one provider to all matching tools")
	cmd.Flags().StringVar(&opts.Tool, "tool", "", "Apply only this tool's binding")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Compute changes without writing files")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	cmd.MarkFlagsMutuallyExclusive("profile", "tool")
	return cmd
}

func printApplySummary(cmd *cobra.Command, summary app.ApplySummary) {
	out := cmd.OutOrStdout()
	switch {
	case summary.Profile != "":
		fmt.Fprintf(out, "provider %s\n", ui.Brand.Sprint(summary.Profile))
	case len(summary.Tools) > 0:
		tools := make([]string, 0, len(summary.Tools))
		for tool, provider := range summary.Tools {
			tools = append(tools, tool+"="+provider)
		}
		sort.Strings(tools)
		fmt.Fprintf(out, "tools %s\n", strings.Join(tools, ", "))
	}
	if len(summary.Results) == 0 {
		fmt.Fprintln(out, ui.Subtle.Sprint("nothing to apply"))
		return
	}
	for _, r := range summary.Results {
		line := fmt.Sprintf("%s %s  %s", ui.StatusIcon(r.OK), r.Target, ui.Subtle.Sprint(r.File))
		if !r.OK {
			line += ": " + ui.Bad.Sprint(r.Error)
		}
		fmt.Fprintln(out, line)
	}
	if summary.DryRun {
		fmt.Fprintln(out, ui.Warn.Sprint("dry run: no files were written"))
	}
}

func newStatusCommand(env *environment) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tool bindings and the settings files they write",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := env.svc.Status()
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "registry: %s\n", report.Paths.RegistryPath)
			fmt.Fprintf(out, "active provider: %s\n", ui.Dash(report.ActiveProvider))
			for _, item := range report.Tools {
				state := "enabled"
				if !item.Enabled {
					state = "disabled"
				}
				if !item.Resolved {
					state += ", provider missing"
				}
				fmt.Fprintf(out, "%s %s -> %s (%s)\n", ui.StatusIcon(item.Enabled && item.Resolved), item.Tool, ui.Dash(item.Provider), state)
				for _, target := range item.Targets {
					printTargetStatus(cmd, target)
				}
			}
			if len(report.Custom) > 0 {
				fmt.Fprintln(out, "custom targets:")
				for _, target := range report.Custom {
					printTargetStatus(cmd, target)
				}
			}
			if report.LastApply.LastApplyAt != "" {
				fmt.Fprintf(out, "last apply: %s (%s, %d ok, %d failed)\n",
					report.LastApply.LastApplyAt, report.LastApply.LastScope,
					report.LastApply.Succeeded, report.LastApply.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func printTargetStatus(cmd *cobra.Command, target app.TargetStatus) {
	exists := "missing"
	if target.Exists {
		exists = "present"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "    %s [%s] %s\n", target.File, target.Format, ui.Subtle.Sprint(exists))
}
