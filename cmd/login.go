package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/aria-player/aria/internal/server"
	"github.com/aria-player/aria/internal/shared"
)

// loginAddr is the loopback address the temporary callback server binds to.
// The hosted store must have http://127.0.0.1:8802/callback registered as a
// redirect URL for the application.
const loginAddr = "127.0.0.1:8802"

// Login signs the user in to the hosted profile/likes store and persists the
// access token to the config file. Later sessions pick up the token and sync
// likes and listening minutes remotely.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	remote := r.config.Credentials.Remote
	if remote.BaseURL == "" {
		return fmt.Errorf("%w: set credentials.remote.base_url in config.toml", shared.ErrMissingConfig)
	}

	token, err := r.doSignIn(ctx, remote)
	if err != nil {
		return err
	}

	r.config.Credentials.Remote.AccessToken = token.AccessToken

	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}
	if err := shared.SaveConfig(configPath, r.config); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	r.logger.Infof("access token saved to %s", configPath)
	r.writePlain("✓ Signed in\n")
	r.writePlain("  Likes and listening time now sync to your profile.\n")
	return nil
}

// Logout clears the stored access token, returning the player to anonymous
// local-only operation.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if r.config.Credentials.Remote.AccessToken == "" {
		r.writePlain("Already signed out.\n")
		return nil
	}

	r.config.Credentials.Remote.AccessToken = ""

	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}
	if err := shared.SaveConfig(configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlain("✓ Signed out. Likes stay in the local database.\n")
	return nil
}

// signInConfig builds the OAuth2 client configuration for the hosted store.
// The store's API key doubles as the public client identifier.
func signInConfig(remote shared.RemoteConfig) *oauth2.Config {
	base := strings.TrimRight(remote.BaseURL, "/")
	return &oauth2.Config{
		ClientID:    remote.APIKey,
		RedirectURL: fmt.Sprintf("http://%s/callback", loginAddr),
		Scopes:      []string{"profile", "likes", "playlists"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/auth/authorize",
			TokenURL: base + "/auth/token",
		},
	}
}

// doSignIn executes the authorization code flow with a local HTTP server.
func (r *Runner) doSignIn(ctx context.Context, remote shared.RemoteConfig) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	oauthConfig := signInConfig(remote)
	authURL := oauthConfig.AuthCodeURL(state)

	handler := server.NewSignInHandler(oauthConfig, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogging(r.logger))
	router.Handler(handler)

	httpServer := &http.Server{
		Addr:    loginAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting sign-in callback server at %v", loginAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser to sign in...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.SignInResult

	select {
	case result = <-handler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("sign-in failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
