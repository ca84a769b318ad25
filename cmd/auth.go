package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/auxd/internal/models"
	"github.com/desertthunder/auxd/internal/server"
	"github.com/desertthunder/auxd/internal/shared"
	"github.com/desertthunder/auxd/internal/spotify"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin performs the OAuth2 authorization code flow and links the
// resulting Spotify account as a host.
//
// Starts a local HTTP server, opens the browser for user authorization,
// exchanges the auth code for tokens, and stores them in the database.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	d, err := r.buildDeps(cmd.String("config"))
	if err != nil {
		return err
	}
	defer d.Close()

	oauthConfig := spotify.OAuthConfig(
		d.config.Credentials.Spotify.ClientID,
		d.config.Credentials.Spotify.ClientSecret,
		d.config.Credentials.Spotify.RedirectURI,
	)

	token, err := r.doOAuth(d.config, oauthConfig)
	if err != nil {
		return err
	}

	client := spotify.NewClient(token.AccessToken, token.TokenType, spotify.WithHTTPClient(r.httpClient))
	profile, err := client.UserProfile(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch user profile: %w", err)
	}

	scope, _ := token.Extra("scope").(string)

	account, err := d.accounts.Find(profile.ID)
	switch {
	case err == nil:
		if err := d.accounts.UpdateToken(profile.ID, token.AccessToken, token.TokenType, token.RefreshToken, scope, token.Expiry); err != nil {
			return fmt.Errorf("failed to update tokens: %w", err)
		}
		r.logger.Info("relinked account", "host", profile.ID)
	case errors.Is(err, shared.ErrCredentialMissing):
		account = models.NewAccount(0, profile.ID, profile.DisplayName)
		account.SetToken(token.AccessToken, token.TokenType, token.RefreshToken, scope, token.Expiry)
		if err := d.accounts.Create(account); err != nil {
			return fmt.Errorf("failed to store account: %w", err)
		}
		r.logger.Info("linked account", "host", profile.ID)
	default:
		return fmt.Errorf("failed to look up account: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Linked Spotify account: %s (%s)\n\n", profile.DisplayName, profile.ID)
	r.writePlain("You can now use: auxd session create --name \"Living Room\" --password <pw>\n")

	return nil
}

// AuthStatus lists linked accounts and whether their tokens are complete.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	d, err := r.buildDeps(cmd.String("config"))
	if err != nil {
		return err
	}
	defer d.Close()

	accounts, err := d.accounts.List(nil)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		return r.writePlain("No linked accounts. Run 'auxd auth login' first.\n")
	}

	r.writePlainHeader("Linked accounts")
	for _, account := range accounts {
		r.writePlain("%s (%s)\n", account.DisplayName(), account.HostID())
		if !account.Complete() {
			r.writePlain("   Credentials: ✗ incomplete (missing %v)\n", account.MissingFields())
			continue
		}
		if account.ExpiresAt().Before(time.Now()) {
			r.writePlain("   Credentials: ⚠ access token expired %s\n", account.ExpiresAt().Format(time.RFC3339))
		} else {
			r.writePlain("   Credentials: ✓ valid until %s\n", account.ExpiresAt().Format(time.RFC3339))
		}
	}

	return nil
}

// AuthCheck probes the upstream API with the host's token and triggers a
// coordinated refresh when the probe fails.
func (r *Runner) AuthCheck(ctx context.Context, cmd *cli.Command) error {
	d, err := r.buildDeps(cmd.String("config"))
	if err != nil {
		return err
	}
	defer d.Close()

	hostID, err := r.resolveHost(d, cmd.String("host"))
	if err != nil {
		return err
	}

	verdict, err := d.auth.CheckExpiration(ctx, hostID)
	if err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}

	if verdict.Expired {
		r.writePlain("✗ Token expired and recovery failed: %v\n", verdict.Err)
		return nil
	}

	r.writePlain("✓ Token is live for host %s\n", hostID)
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(config *shared.Config, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	oauthHandler := server.NewOAuthHandler(oauthConfig, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrAuthFailed)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
