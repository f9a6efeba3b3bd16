package workspace

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Credentials selects how requests are authenticated. Token takes precedence over the
// OAuth client credentials of a service principal.
type Credentials struct {
	Token        string
	ClientID     string
	ClientSecret string
}

func (c Credentials) tokenSource(ctx context.Context, host string) (oauth2.TokenSource, error) {
	if c.Token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token}), nil
	}
	if c.ClientID != "" && c.ClientSecret != "" {
		cc := clientcredentials.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			TokenURL:     strings.TrimSuffix(host, "/") + "/oidc/v1/token",
			Scopes:       []string{"all-apis"},
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		return cc.TokenSource(ctx), nil
	}
	return nil, fmt.Errorf("no credentials: a token or a client id and secret are required")
}
