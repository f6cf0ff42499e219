package cli

import (
	"errors"
	"fmt"
	"strings"

	"clibundle/internal/app"
	"clibundle/internal/catalog"
	"clibundle/internal/ui"
	"github.com/spf13/cobra"
)

type packageAction string

const (
	actionInstall   packageAction = "install"
	actionUpdate    packageAction = "update"
	actionUninstall packageAction = "uninstall"
)

func newListCommand(env *environment) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog tools, install state and provider binding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := env.catalog()
			if err != nil {
				return err
			}
			reg, err := env.svc.Registry()
			if err != nil {
				return err
			}
			type listItem struct {
				catalog.Tool
				Installed bool   `json:"installed"`
				Path      string `json:"path,omitempty"`
				Provider  string `json:"provider,omitempty"`
				Bound     bool   `json:"bound"`
			}
			items := []listItem{}
			for _, tool := range cat.All() {
				path, installed := catalog.Detect(tool)
				item := listItem{Tool: tool, Installed: installed, Path: path}
				if binding, ok := reg.Binding(tool.ID); ok {
					item.Provider = binding.Provider
					item.Bound = binding.Enabled
				}
				items = append(items, item)
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), items)
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				name := item.Name
				if !item.Enabled {
					name += " (disabled)"
				}
				provider := ui.Dash(item.Provider)
				if item.Provider != "" && !item.Bound {
					provider += " (off)"
				}
				rows = append(rows, []string{ui.StatusIcon(item.Installed), item.ID, name, item.PackageName, provider})
			}
			ui.Table(cmd.OutOrStdout(), []string{"", "ID", "NAME", "PACKAGE", "PROVIDER"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newPackageCommand(env *environment, action packageAction) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   string(action) + " [tool]",
		Short: strings.ToUpper(string(action[:1])) + string(action[1:]) + " catalog tools through their package manager",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := env.catalog()
			if err != nil {
				return err
			}
			tools, err := selectTools(cat, action, args, all)
			if err != nil {
				return app.WrapExit(app.ExitUserError, err)
			}
			out := cmd.OutOrStdout()
			if len(tools) == 0 {
				fmt.Fprintln(out, ui.Subtle.Sprintf("nothing to %s", action))
				return nil
			}

			failed := 0
			for _, tool := range tools {
				err := runPackageAction(cmd, env, action, tool)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s %s: %s\n", ui.StatusIcon(false), tool.ID, ui.Bad.Sprint(err))
					continue
				}
				fmt.Fprintf(out, "%s %s (%s)\n", ui.StatusIcon(true), tool.ID, tool.PackageName)
			}
			if failed > 0 {
				return app.WrapExit(app.ExitPartial, fmt.Errorf("%s failed for %d of %d tools", action, failed, len(tools)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Apply to every eligible enabled tool")
	return cmd
}

// selectTools picks one named tool, or with --all the tools the action can
// act on: uninstalled ones for install, installed ones otherwise.
func selectTools(cat *catalog.Catalog, action packageAction, args []string, all bool) ([]catalog.Tool, error) {
	if all {
		if len(args) > 0 {
			return nil, errors.New("pass either a tool id or --all")
		}
		if action == actionInstall {
			return cat.Uninstalled(), nil
		}
		return cat.Installed(), nil
	}
	if len(args) == 0 {
		return nil, errors.New("specify a tool id or --all")
	}
	id := strings.TrimSpace(args[0])
	tool, ok := cat.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", id)
	}
	return []catalog.Tool{tool}, nil
}

func runPackageAction(cmd *cobra.Command, env *environment, action packageAction, tool catalog.Tool) error {
	inst, err := env.installerFor(tool.InstallType)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	switch action {
	case actionInstall:
		return inst.Install(ctx, tool.PackageName)
	case actionUpdate:
		return inst.Update(ctx, tool.PackageName)
	default:
		return inst.Uninstall(ctx, tool.PackageName)
	}
}
