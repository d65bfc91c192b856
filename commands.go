package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"promptforge/internal/archive"
	"promptforge/internal/auth"
	"promptforge/internal/config"
	"promptforge/internal/events"
	"promptforge/internal/server"
	"promptforge/internal/services"
	"promptforge/internal/utils"
)

// withApp runs fn with a started App and always shuts it down.
func withApp(ctx context.Context, cfg *config.Config, fn func(*App) error) error {
	app := NewApp(cfg)
	if err := app.startup(ctx); err != nil {
		app.shutdown()
		return err
	}
	defer app.shutdown()
	return fn(app)
}

func serveCmd(cfg *config.Config) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if port != "" {
				cfg.Port = port
			}
			return withApp(ctx, cfg, func(app *App) error {
				srv := &http.Server{
					Addr:              ":" + cfg.Port,
					Handler:           server.New(cfg, app.svc, app.logger, app.subscriber()).Router(),
					ReadHeaderTimeout: 10 * time.Second,
				}

				errCh := make(chan error, 1)
				go func() {
					app.logger.Info().Str("addr", srv.Addr).Msg("server starting")
					errCh <- srv.ListenAndServe()
				}()

				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-ctx.Done():
				}

				app.logger.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default $PORT or 8080)")
	return cmd
}

func generateCmd(cfg *config.Config) *cobra.Command {
	var (
		user  string
		model string
	)

	cmd := &cobra.Command{
		Use:   "generate <projectID> <prompt>",
		Short: "Run one generation and print its events",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return withApp(ctx, cfg, func(app *App) error {
				project, err := app.svc.Projects.Lookup(ctx, projectID)
				if err != nil {
					return err
				}
				if user != "" {
					u, err := app.svc.Users.Ensure(ctx, user)
					if err != nil {
						return err
					}
					if u.ID != project.UserID {
						return fmt.Errorf("project %s is not owned by %s", projectID, user)
					}
				}

				summary, err := app.svc.Orchestrator.Run(ctx, services.GenerationRequest{
					ProjectID: project.ID,
					UserID:    project.UserID,
					Prompt:    args[1],
					Model:     model,
				}, events.SinkFunc(printEvent))
				if err != nil {
					return err
				}
				fmt.Printf("generation %s: %d files in %s\n", summary.GenerationID, len(summary.Files), summary.ThinkingDuration.Round(time.Millisecond))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "require the project to belong to this user")
	cmd.Flags().StringVar(&model, "model", "", "model key, provider id or API name")
	return cmd
}

func printEvent(_ context.Context, evt events.Event) error {
	switch evt.Type {
	case events.EventFile:
		fmt.Printf("  %s %s\n", color.New(color.FgGreen).Sprint("+"), evt.File.Path)
	case events.EventError:
		fmt.Printf("%s %s\n", color.New(color.FgRed).Sprint("error:"), evt.Message)
	case events.EventThinkingLonger:
		fmt.Println(color.New(color.FgYellow).Sprint("still thinking..."))
	case events.EventComplete:
		fmt.Printf("%s %d files\n", color.New(color.FgGreen).Sprint("complete:"), *evt.TotalFiles)
	default:
		fmt.Println(evt.Message)
	}
	return nil
}

func exportCmd(cfg *config.Config) *cobra.Command {
	var (
		out   string
		asGit bool
	)

	cmd := &cobra.Command{
		Use:   "export <projectID>",
		Short: "Write a project's latest generated files to a zip or a git repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			ctx := cmd.Context()

			return withApp(ctx, cfg, func(app *App) error {
				project, err := app.svc.Projects.Lookup(ctx, projectID)
				if err != nil {
					return err
				}

				if asGit {
					_, files, err := app.svc.Archives.ProjectFiles(ctx, project.ID, project.UserID)
					if err != nil {
						return err
					}
					if len(files) == 0 {
						return fmt.Errorf("no files to export for %s", project.Name)
					}
					dir := out
					if dir == "" {
						dir = archive.SanitizeName(project.Name)
					}
					if !utils.CanExportInto(dir) {
						return fmt.Errorf("%s is not empty and not a git repository", dir)
					}
					hash, err := archive.ExportGitRepository(dir, files, archive.GitExportOptions{
						Message: "Generated project: " + project.Name,
					})
					if err != nil {
						return err
					}
					fmt.Printf("%s %d files to %s (%s)\n", color.New(color.FgGreen).Sprint("exported"), len(files), dir, hash[:7])
					return nil
				}

				bundle, err := app.svc.Archives.BuildProjectArchive(ctx, project.ID, project.UserID)
				if err != nil {
					return err
				}
				target := out
				if target == "" {
					target = bundle.Filename
				}
				if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
					return err
				}
				if err := os.WriteFile(target, bundle.Data, 0644); err != nil {
					return err
				}
				fmt.Printf("%s %d files to %s\n", color.New(color.FgGreen).Sprint("exported"), bundle.Files, target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output zip file, or directory with --git")
	cmd.Flags().BoolVar(&asGit, "git", false, "write files to a directory and commit them")
	return cmd
}

func tokenCmd(cfg *config.Config) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <username>",
		Short: "Create the user if needed and print an API access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, cfg, func(app *App) error {
				user, err := app.svc.Users.Ensure(ctx, args[0])
				if err != nil {
					return err
				}
				if ttl <= 0 {
					ttl = cfg.JWTExpiry
				}
				token, err := auth.GenerateToken(cfg.JWTSecret, user.ID, user.Name, ttl)
				if err != nil {
					return err
				}
				fmt.Println(token)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default $JWT_EXPIRY)")
	return cmd
}

func keysCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage provider API keys in the OS keyring",
	}

	credentials := func() (services.CredentialService, error) {
		ring, err := services.OpenKeyring()
		if err != nil {
			return nil, fmt.Errorf("open keyring: %w", err)
		}
		return services.NewCredentialService(nil, ring), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <provider> <apiKey>",
		Short: "Store a provider API key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := credentials()
			if err != nil {
				return err
			}
			if err := creds.Store(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("%s key for %s\n", color.New(color.FgGreen).Sprint("stored"), args[0])
			if !cfg.KeyringEnabled {
				fmt.Println(color.New(color.FgYellow).Sprint("note: set KEYRING_ENABLED=true for the server to read it"))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <provider>",
		Short: "Remove a stored provider API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := credentials()
			if err != nil {
				return err
			}
			if err := creds.Delete(strings.TrimSpace(args[0])); err != nil {
				return err
			}
			fmt.Printf("%s key for %s\n", color.New(color.FgRed).Sprint("deleted"), args[0])
			return nil
		},
	})

	return cmd
}
