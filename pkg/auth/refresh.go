package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/carconnectivity/vag-auth/pkg/brand"
)

// tryRefresh attempts to renew the stored token set with the brand's refresh
// transport. Refresh is strictly best-effort: every failure is logged,
// recorded for inspection, and swallowed so the caller falls back to the full
// login flow. A nil, nil return means "do the full flow".
func (a *Authenticator) tryRefresh(ctx context.Context, token *TokenStore) (*TokenStore, error) {
	if token == nil || token.RefreshToken == "" {
		return nil, nil
	}

	var (
		refreshed *TokenStore
		err       error
	)
	switch a.strategy.Refresh {
	case brand.RefreshJSON:
		refreshed, err = a.refreshJSON(ctx, token)
	case brand.RefreshTokenEndpoint:
		refreshed, err = a.refreshTokenEndpoint(ctx, token)
	default:
		refreshed, err = a.refreshService(ctx, token)
	}
	a.mu.Lock()
	a.lastRefreshErr = err
	a.mu.Unlock()
	if err != nil {
		a.log.Debug("token refresh failed, falling back to full login",
			"brand", a.strategy.Name, "err", err)
		return nil, nil
	}
	return refreshed, nil
}

// refreshService posts the shared form-encoded refresh grant to the token
// service.
func (a *Authenticator) refreshService(ctx context.Context, token *TokenStore) (*TokenStore, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", token.RefreshToken)
	form.Set("client_id", a.strategy.ClientID)
	return a.postTokenForm(ctx, a.strategy.RefreshURL, form)
}

// refreshJSON asks the brand backend for a fresh set, authenticating with the
// refresh token itself as a bearer credential.
func (a *Authenticator) refreshJSON(ctx context.Context, token *TokenStore) (*TokenStore, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.strategy.RefreshURL, nil)
	if err != nil {
		return nil, &TokenExchangeError{Detail: "building refresh request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+token.RefreshToken)
	req.Header.Set("Accept", "application/json")
	a.setCommonHeaders(req)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, &TokenExchangeError{Detail: "refresh endpoint unreachable", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &TokenExchangeError{Detail: "refresh endpoint returned " + resp.Status}
	}

	var tokens tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, &TokenExchangeError{Detail: "decoding refresh response", Cause: err}
	}
	return a.buildTokenStore(tokens.IDToken, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresIn)
}

// refreshTokenEndpoint runs the standard refresh grant against the brand's
// token endpoint, including the client secret when the brand requires one.
func (a *Authenticator) refreshTokenEndpoint(ctx context.Context, token *TokenStore) (*TokenStore, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", token.RefreshToken)
	form.Set("client_id", a.strategy.ClientID)
	if a.strategy.ClientSecret != "" {
		form.Set("client_secret", a.strategy.ClientSecret)
	}
	return a.postTokenForm(ctx, a.strategy.TokenURL, form)
}
