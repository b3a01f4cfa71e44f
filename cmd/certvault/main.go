package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dharanvel/certvault/internal/certfile"
	"github.com/dharanvel/certvault/internal/client"
	"github.com/dharanvel/certvault/internal/dashboard"
	"github.com/dharanvel/certvault/internal/session"
	"github.com/dharanvel/certvault/internal/submit"
	"github.com/dharanvel/certvault/internal/verdict"
)

const defaultAPIURL = "http://localhost:8000"

var apiURL string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "certvault: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certvault",
		Short: "Certificate authenticity validator CLI",
		Long: `certvault submits certificates for registration or verification and renders
the resulting verdicts and dashboard analytics.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (overrides session and CERTVAULT_API_URL)")
	cmd.AddCommand(
		newUploadCmd(),
		newVerifyCmd(),
		newDashboardCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
	)
	return cmd
}

// resolveAPIURL picks the API base: explicit flag, then environment, then the
// saved session, then the local default.
func resolveAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if env := os.Getenv("CERTVAULT_API_URL"); env != "" {
		return env
	}
	if store, err := sessionStore(); err == nil {
		if sess, err := store.Load(); err == nil && sess != nil && sess.APIBaseURL != "" {
			return sess.APIBaseURL
		}
	}
	return defaultAPIURL
}

func sessionStore() (*session.Store, error) {
	path, err := session.DefaultPath()
	if err != nil {
		return nil, err
	}
	return session.NewStore(path), nil
}

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Register a certificate",
	}
	cmd.AddCommand(newUploadLegacyCmd(), newUploadDigitalCmd())
	return cmd
}

func newUploadLegacyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "legacy <file>",
		Short: "Upload a scanned PDF certificate for text extraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmission(cmd.Context(), args[0], certfile.IntentLegacyUpload)
		},
	}
}

func newUploadDigitalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digital <file>",
		Short: "Upload a digital certificate and generate its QR artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmission(cmd.Context(), args[0], certfile.IntentDigitalUpload)
		},
	}
}

func newVerifyCmd() *cobra.Command {
	var byID string
	cmd := &cobra.Command{
		Use:   "verify [file]",
		Short: "Verify a certificate file, or look one up with --id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if byID != "" {
				if len(args) != 0 {
					return fmt.Errorf("--id and a file argument are mutually exclusive")
				}
				return runVerifyByID(ctx, byID)
			}
			if len(args) == 0 {
				return fmt.Errorf("provide a file to verify or --id")
			}
			return runSubmission(ctx, args[0], certfile.IntentVerify)
		},
	}
	cmd.Flags().StringVar(&byID, "id", "", "Verify by certificate id instead of file contents")
	return cmd
}

// runSubmission drives the full submission cycle for a local file: load,
// select, submit, then render the artifact or verdict.
func runSubmission(ctx context.Context, path string, intent certfile.Intent) error {
	f, err := certfile.FromPath(path)
	if err != nil {
		return err
	}
	api := client.New(resolveAPIURL())
	orch := submit.New(api)
	if err := orch.Select(f); err != nil {
		return err
	}
	outcome, err := orch.Submit(ctx, intent)
	if err != nil {
		return err
	}
	out := os.Stdout
	if outcome.Verdict != nil {
		result, err := verdict.Normalize(outcome.Verdict)
		if err != nil {
			return fmt.Errorf("unable to interpret verification result")
		}
		renderVerdict(out, result)
		return nil
	}
	renderArtifact(out, intent, outcome.Artifact)
	return nil
}

func runVerifyByID(ctx context.Context, certificateID string) error {
	api := client.New(resolveAPIURL())
	raw, err := api.VerifyByID(ctx, certificateID)
	if err != nil {
		return err
	}
	result, err := verdict.Normalize(raw)
	if err != nil {
		return fmt.Errorf("unable to interpret verification result")
	}
	renderVerdict(os.Stdout, result)
	return nil
}

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show aggregate upload and verification analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := client.New(resolveAPIURL())
			raw, err := api.Analytics(cmd.Context())
			if err != nil {
				return err
			}
			renderDashboard(os.Stdout, dashboard.Summarize(raw))
			return nil
		},
	}
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <user>",
		Short: "Save a local session with the current API base URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sessionStore()
			if err != nil {
				return err
			}
			base := apiURL
			if base == "" {
				base = resolveAPIURL()
			}
			sess := &session.Session{
				User:       args[0],
				APIBaseURL: base,
				LoggedInAt: time.Now().UTC(),
			}
			if err := store.Save(sess); err != nil {
				return err
			}
			fmt.Printf("logged in as %s (%s)\n", sess.User, sess.APIBaseURL)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sessionStore()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sessionStore()
			if err != nil {
				return err
			}
			sess, err := store.Load()
			if err != nil {
				return err
			}
			if sess == nil {
				fmt.Println("not logged in")
				return nil
			}
			fmt.Printf("%s (%s) since %s\n", sess.User, sess.APIBaseURL, sess.LoggedInAt.Format(time.RFC3339))
			return nil
		},
	}
}
