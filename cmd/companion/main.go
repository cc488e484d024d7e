package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-companion/internal/app"
	"github.com/yungbote/neurobridge-companion/internal/platform/envutil"
	"github.com/yungbote/neurobridge-companion/internal/platform/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "companion",
		Short:         "Study companion for uploaded course materials",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), loginCmd(), logoutCmd(), whoamiCmd(), materialsCmd())
	return root
}

// withApp wires the application, resumes any stored session and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	a.Start(ctx)
	return fn(ctx, a)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the companion UI API on the configured address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Run(ctx)
			})
		},
	}
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = envutil.String("COMPANION_PASSWORD", "")
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("--email and --password (or COMPANION_PASSWORD) are required")
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Services.Identity.Login(ctx, email, password); err != nil {
					return err
				}
				p, _ := a.Services.Identity.Principal()
				fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", p.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				a.Services.Identity.Logout(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(_ context.Context, a *app.App) error {
				p, ok := a.Services.Identity.Principal()
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", p.FullName, p.Email)
				return nil
			})
		},
	}
}

func materialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "materials [query]",
		Short: "List uploaded materials, optionally filtered by title",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if !a.Services.Identity.Authenticated() {
					return errors.New("not signed in; run `companion login` first")
				}
				query := ""
				if len(args) == 1 {
					query = args[0]
				}
				items, err := a.Services.Library.Search(ctx, query)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tUPLOADED")
				for _, m := range items {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Title, m.FileKind, m.UploadedAt.Time.Format("2006-01-02"))
				}
				return tw.Flush()
			})
		},
	}
}
