package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paghive/paghive/pkg/client"
	"github.com/paghive/paghive/pkg/client/session"
	"github.com/paghive/paghive/pkg/logger"
)

// app is the per-invocation state shared by subcommands.
type app struct {
	v       *viper.Viper
	log     zerolog.Logger
	api     *client.Client
	storage *session.BoltStorage
	session *session.Store
}

// run executes one CLI invocation. The session database is always closed
// afterwards, including when the command fails.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root, a := newRootCmd()
	defer a.close()

	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "paghive",
		Short:         "Share and browse book recommendations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("api-url", "http://localhost:3000/api", "Base URL of the paghive API")
	flags.String("session-file", defaultSessionFile(), "Where the signed-in identity is kept")
	flags.Int("page-size", 2, "Books fetched per page")
	flags.Duration("timeout", 15*time.Second, "Per-request timeout")
	flags.Bool("remote-auth", false, "Verify credentials with the server and keep its session token")
	flags.String("log-level", "warn", "Log level: trace, debug, info, warn, error")

	a.v.SetEnvPrefix("PAGHIVE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		newSignUpCmd(a),
		newLogInCmd(a),
		newLogOutCmd(a),
		newWhoAmICmd(a),
		newFeedCmd(a),
		newMineCmd(a),
		newPostCmd(a),
		newDeleteCmd(a),
	)
	return root, a
}

func (a *app) open(cmd *cobra.Command) error {
	a.log = logger.Init(logger.Options{
		Level:   a.v.GetString("log-level"),
		Pretty:  true,
		Output:  cmd.ErrOrStderr(),
		Service: "paghive-cli",
	})

	path := a.v.GetString("session-file")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}
	storage, err := session.OpenBolt(path)
	if err != nil {
		return err
	}
	a.storage = storage

	api, err := client.New(a.v.GetString("api-url"),
		client.WithTimeout(a.v.GetDuration("timeout")),
		client.WithUnauthorizedHook(a.expire),
	)
	if err != nil {
		return err
	}
	a.api = api

	opts := []session.Option{session.WithLogger(a.log)}
	if a.v.GetBool("remote-auth") {
		opts = append(opts, session.WithAuthenticator(session.RemoteAuthenticator{API: api}))
	}
	a.session = session.NewStore(storage, opts...)
	if err := a.session.Initialize(cmd.Context()); err != nil {
		return err
	}
	api.SetToken(a.session.Token())
	return nil
}

// expire drops a session the server no longer accepts.
func (a *app) expire() {
	if a.session == nil || a.session.State() != session.Authenticated {
		return
	}
	a.log.Warn().Msg("session rejected by server, signing out")
	if err := a.session.Forget(context.Background()); err != nil {
		a.log.Error().Err(err).Msg("failed to clear session")
	}
}

func (a *app) close() error {
	if a.storage == nil {
		return nil
	}
	err := a.storage.Close()
	a.storage = nil
	return err
}

// requireUser returns the signed-in identity or a hint to log in.
func (a *app) requireUser() (*session.User, error) {
	u := a.session.User()
	if u == nil {
		return nil, fmt.Errorf("not signed in; run `paghive login` first")
	}
	return u, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "paghive", "session.db")
}
