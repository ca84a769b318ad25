package spotify

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Scopes are the user grants auxd asks for when a host links their account.
var Scopes = []string{
	"user-read-private",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-recently-played",
	"user-library-read",
	"user-library-modify",
}

// OAuthConfig builds the authorization-code flow config for host account
// linking.
func OAuthConfig(clientID, clientSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
	}
}

// AppTokenSource mints client-credentials tokens for catalog endpoints
// (search, albums, artists) that need no user context. [clientcredentials]
// caches and refreshes the token internally.
type AppTokenSource struct {
	config *clientcredentials.Config
	opts   []ClientOption
}

// NewAppTokenSource creates a token source from the application's client
// credentials.
func NewAppTokenSource(clientID, clientSecret string, opts ...ClientOption) *AppTokenSource {
	return &AppTokenSource{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     TokenURL,
		},
		opts: opts,
	}
}

// Client returns an upstream client bound to a valid app token.
func (s *AppTokenSource) Client(ctx context.Context) (*Client, error) {
	token, err := s.config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get app token: %w", err)
	}
	return NewClient(token.AccessToken, token.TokenType, s.opts...), nil
}
