package server

import (
	"context"
	"fmt"
	"strings"

	"civicsnap/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// JWKSVerifier validates Cognito access tokens against the user pool's
// published key set.
type JWKSVerifier struct {
	cache    *jwk.Cache
	jwksURL  string
	issuer   string
	clientID string
}

func NewJWKSVerifier(cache *jwk.Cache, issuer, clientID string) *JWKSVerifier {
	issuer = strings.TrimRight(issuer, "/")
	return &JWKSVerifier{
		cache:    cache,
		jwksURL:  JWKSURL(issuer),
		issuer:   issuer,
		clientID: clientID,
	}
}

func JWKSURL(issuer string) string {
	return fmt.Sprintf("%s/.well-known/jwks.json", strings.TrimRight(issuer, "/"))
}

func (v *JWKSVerifier) Verify(ctx context.Context, accessToken string) (*types.Identity, error) {
	set, err := v.cache.Lookup(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	return identityFromToken(accessToken, v.clientID,
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
	)
}

// identityFromToken parses an access token and checks the Cognito specific
// claims. clientID is only compared when set.
func identityFromToken(accessToken, clientID string, opts ...jwt.ParseOption) (*types.Identity, error) {
	token, err := jwt.Parse([]byte(accessToken), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrUnauthorized, err)
	}

	var tokenUse string
	if err := token.Get("token_use", &tokenUse); err != nil || tokenUse != "access" {
		return nil, fmt.Errorf("%w: not an access token", types.ErrUnauthorized)
	}

	if clientID != "" {
		var got string
		if err := token.Get("client_id", &got); err != nil || got != clientID {
			return nil, fmt.Errorf("%w: token issued to another client", types.ErrUnauthorized)
		}
	}

	userID, ok := token.Subject()
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: no subject claim", types.ErrUnauthorized)
	}

	// email is optional; Cognito access tokens only carry it on ID tokens
	var email string
	_ = token.Get("email", &email)

	return &types.Identity{UserID: userID, Email: email}, nil
}
