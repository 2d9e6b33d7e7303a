package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civil-quiz/internal/app"
	"civil-quiz/internal/transport/terminal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewPlayCmd runs the quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Take a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runPlay(ctx, *configPath)
		},
	}
}

func runPlay(ctx context.Context, configPath string) error {
	s, err := newStack(configPath)
	if err != nil {
		return err
	}
	defer s.close()
	// keep info logs off the quiz screen
	s.log = s.log.WithOptions(zap.IncreaseLevel(zap.WarnLevel))

	kv, err := s.identityKV()
	if err != nil {
		return err
	}
	catalog, err := s.catalog(ctx)
	if err != nil {
		return err
	}

	identities := app.NewIdentityStore(kv, "")
	view := terminal.NewView(os.Stdout)
	controller := app.NewController(view, app.Deps{
		Auth:          app.NewAuthenticator(s.authClient(), identities, s.log),
		Identities:    identities,
		Catalog:       catalog,
		Reporter:      s.reporter(),
		Log:           s.log,
		RedirectDelay: s.redirectDelay(),
		// the input loop waits for the dashboard before prompting again
		Schedule: func(d time.Duration, f func()) {
			time.Sleep(d)
			f()
		},
	})
	return terminal.NewRunner(controller, view, os.Stdin).Run(ctx)
}
