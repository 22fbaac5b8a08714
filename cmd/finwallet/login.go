package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"finwallet/internal/backend"
	"finwallet/internal/cli"
	"finwallet/internal/config"
	"finwallet/internal/remote/httpapi"
)

const loginTimeout = 5 * time.Minute

// newLoginCmd runs the OAuth authorization code flow against the REST
// backend and saves the token the http mirror refreshes from.
func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in to the REST backend and save a refreshable token",
		Args:  cobra.NoArgs,
		// Logging in needs neither the database nor a mirror.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			return login(cmd, cfg)
		},
	}
}

func login(cmd *cobra.Command, cfg *config.Config) error {
	if !cfg.OAuthEnabled() {
		return errors.New("set REMOTE_OAUTH_CLIENT_ID (and unset REMOTE_TOKEN) to log in")
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	oc := bcfg.OAuth.Config()

	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	state := uuid.NewString()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "OAuth error: "+e, http.StatusBadRequest)
			select {
			case errCh <- fmt.Errorf("authorization denied: %s", e):
			default:
			}
			return
		}
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case codeCh <- q.Get("code"):
		default:
		}
	})

	ln, err := net.Listen("tcp", net.JoinHostPort("localhost", strconv.Itoa(cfg.RemoteOAuthRedirectPort)))
	if err != nil {
		return fmt.Errorf("listen for callback: %w", err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Open this URL to authorize:\n%s\n", oc.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case code := <-codeCh:
		tok, err := oc.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("token exchange: %w", err)
		}
		if err := httpapi.SaveToken(cfg.RemoteTokenFile, tok); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved token to %s\n", cfg.RemoteTokenFile)
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return fmt.Errorf("authorization not completed: %w", ctx.Err())
	}
}
