package cli

import (
	"context"
	"fmt"
	"io"

	"civil-quiz/internal/app"
	"github.com/spf13/cobra"
)

// NewWhoamiCmd prints the stored identity.
func NewWhoamiCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the remembered user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context(), *configPath, cmd.OutOrStdout())
		},
	}
}

// NewLogoutCmd forgets the stored identity.
func NewLogoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.Context(), *configPath, cmd.OutOrStdout())
		},
	}
}

func identityStore(configPath string) (*app.IdentityStore, func(), error) {
	s, err := newStack(configPath)
	if err != nil {
		return nil, nil, err
	}
	kv, err := s.identityKV()
	if err != nil {
		s.close()
		return nil, nil, err
	}
	return app.NewIdentityStore(kv, ""), s.close, nil
}

func runWhoami(ctx context.Context, configPath string, out io.Writer) error {
	store, done, err := identityStore(configPath)
	if err != nil {
		return err
	}
	defer done()

	user, ok, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "not logged in")
		return nil
	}
	if user.Qualification != "" {
		fmt.Fprintf(out, "%s (%s)\n", user.Name, user.Qualification)
		return nil
	}
	fmt.Fprintln(out, user.Name)
	return nil
}

func runLogout(ctx context.Context, configPath string, out io.Writer) error {
	store, done, err := identityStore(configPath)
	if err != nil {
		return err
	}
	defer done()

	if err := store.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "logged out")
	return nil
}
