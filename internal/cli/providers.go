package cli

import (
	"fmt"
	"strings"

	"clibundle/internal/app"
	"clibundle/internal/ui"
	"github.com/spf13/cobra"
)

func newProviderCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "provider",
		Aliases: []string{"providers"},
		Short:   "Manage provider profiles",
	}
	cmd.AddCommand(newProviderListCommand(env))
	cmd.AddCommand(newProviderAddCommand(env))
	cmd.AddCommand(newProviderRemoveCommand(env))
	cmd.AddCommand(newProviderUseCommand(env))
	return cmd
}

type providerView struct {
	Name    string            `json:"name"`
	Type    string            `json:"type"`
	APIKey  string            `json:"apiKey,omitempty"`
	BaseURL string            `json:"baseUrl,omitempty"`
	Model   string            `json:"model,omitempty"`
	Proxy   string            `json:"proxy,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
	Active  bool              `json:"active"`
}

func newProviderListCommand(env *environment) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List providers with redacted keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := env.svc.Registry()
			if err != nil {
				return err
			}
			active := reg.ActiveProviderName()
			views := make([]providerView, 0, len(reg.Providers()))
			for _, p := range reg.Providers() {
				views = append(views, providerView{
					Name:    p.Name,
					Type:    p.Type,
					APIKey:  app.RedactSecret(p.APIKey),
					BaseURL: p.BaseURL,
					Model:   p.Model,
					Proxy:   p.Proxy,
					Extra:   p.Extra,
					Active:  p.Name == active,
				})
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no providers configured (run `clibundle init`)")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				marker := ""
				if v.Active {
					marker = "*"
				}
				rows = append(rows, []string{marker, v.Name, v.Type, ui.Dash(v.APIKey), ui.Dash(v.BaseURL), ui.Dash(v.Model)})
			}
			ui.Table(cmd.OutOrStdout(), []string{"", "NAME", "TYPE", "API KEY", "BASE URL", "MODEL"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newProviderAddCommand(env *environment) *cobra.Command {
	var p app.Provider
	var extra map[string]string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace a provider",
		Long: "Values may reference environment variables as ${NAME}; they are resolved at apply\n" +
			"time and never written back.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Name = strings.TrimSpace(args[0])
			if len(extra) > 0 {
				p.Extra = extra
			}
			if err := env.svc.AddProvider(p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s saved provider %s (%s)\n", ui.StatusIcon(true), p.Name, p.Type)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Type, "type", "", "Provider type: openai, anthropic, google, iflow")
	cmd.Flags().StringVar(&p.APIKey, "api-key", "", "API key or ${ENV_VAR} placeholder")
	cmd.Flags().StringVar(&p.BaseURL, "base-url", "", "API base URL")
	cmd.Flags().StringVar(&p.Model, "model", "", "Default model")
	cmd.Flags().StringVar(&p.Proxy, "proxy", "", "HTTP proxy")
	cmd.Flags().StringToStringVar(&extra, "extra", nil, "Extra fields as key=value")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newProviderRemoveCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a provider and disable the tools bound to it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if err := env.svc.RemoveProvider(name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed provider %s\n", ui.StatusIcon(true), name)
			return nil
		},
	}
}

func newProviderUseCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Set the active provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if err := env.svc.UseProvider(name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s active provider is now %s\n", ui.StatusIcon(true), name)
			return nil
		},
	}
}
