package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"

	"github.com/carconnectivity/vag-auth/pkg/pkce"
)

// newNonce returns 16 random bytes, hex encoded.
func newNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// buildAuthorizationURL constructs the identity-provider entry URL. PKCE
// brands get the standard authorize URL; the session-redirect brand performs
// a round trip through the brand API and follows its 303.
func (a *Authenticator) buildAuthorizationURL(ctx context.Context, pair pkce.Pair) (string, error) {
	if a.strategy.UsePKCE {
		q := url.Values{}
		q.Set("client_id", a.strategy.ClientID)
		q.Set("redirect_uri", a.strategy.RedirectURI)
		q.Set("response_type", "code")
		q.Set("scope", a.strategy.Scope)
		q.Set("nonce", newNonce())
		q.Set("prompt", "login")
		q.Set("code_challenge", pair.Challenge)
		q.Set("code_challenge_method", pkce.Method)
		return a.strategy.AuthBase + "/oidc/v1/authorize?" + q.Encode(), nil
	}

	q := url.Values{}
	q.Set("nonce", newNonce())
	q.Set("redirect_uri", a.strategy.RedirectURI)
	entry := a.strategy.APIBase + "/user-login/v1/authorize?" + q.Encode()

	resp, err := a.get(ctx, entry)
	if err != nil {
		return "", &AuthorizationURLError{Detail: "authorize round trip failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		return "", &AuthorizationURLError{
			Detail: fmt.Sprintf("expected 303 from %s, got %d", entry, resp.StatusCode),
		}
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", &AuthorizationURLError{Detail: "303 response without Location header"}
	}
	resolved, err := a.resolveLocation(loc)
	if err != nil {
		return "", &AuthorizationURLError{Detail: "unparseable Location header", Cause: err}
	}
	return resolved, nil
}
