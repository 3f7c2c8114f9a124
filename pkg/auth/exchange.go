package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carconnectivity/vag-auth/pkg/brand"
	"github.com/carconnectivity/vag-auth/pkg/pkce"
)

// tokenResponse covers the snake_case body shape shared by the form and
// hybrid exchange endpoints.
type tokenResponse struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// serviceTokenResponse is the camelCase shape the JSON token service returns.
type serviceTokenResponse struct {
	IDToken      string `json:"idToken"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// exchangeCode turns the authorization result into a token set using the
// brand's exchange style.
func (a *Authenticator) exchangeCode(ctx context.Context, result *authorizationResult, pair pkce.Pair) (*TokenStore, error) {
	switch a.strategy.Exchange {
	case brand.ExchangeJSON:
		return a.exchangeJSON(ctx, result, pair)
	case brand.ExchangeHybrid:
		return a.exchangeHybrid(ctx, result)
	default:
		return a.exchangeForm(ctx, result, pair)
	}
}

func (a *Authenticator) exchangeForm(ctx context.Context, result *authorizationResult, pair pkce.Pair) (*TokenStore, error) {
	form := url.Values{}
	form.Set("state", result.State)
	form.Set("id_token", result.IDToken)
	form.Set("redirect_uri", a.strategy.RedirectURI)
	form.Set("client_id", a.strategy.ClientID)
	form.Set("code", result.Code)
	form.Set("code_verifier", pair.Verifier)
	form.Set("grant_type", "authorization_code")
	if a.strategy.ClientSecret != "" {
		form.Set("client_secret", a.strategy.ClientSecret)
	}
	return a.postTokenForm(ctx, a.strategy.TokenURL, form)
}

// exchangeHybrid finalizes the hybrid brand's tokens: the fragment tokens go
// back to the brand API as JSON alongside the code. No PKCE verifier is
// involved at this step.
func (a *Authenticator) exchangeHybrid(ctx context.Context, result *authorizationResult) (*TokenStore, error) {
	body, err := json.Marshal(map[string]string{
		"state":             result.State,
		"id_token":          result.IDToken,
		"access_token":      result.AccessToken,
		"redirect_uri":      a.strategy.RedirectURI,
		"region":            a.strategy.Region,
		"authorizationCode": result.Code,
	})
	if err != nil {
		return nil, &TokenExchangeError{Detail: "encoding exchange request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.strategy.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, &TokenExchangeError{Detail: "building exchange request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	a.setCommonHeaders(req)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, &TokenExchangeError{Detail: "token service unreachable", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &TokenExchangeError{Detail: fmt.Sprintf("token service returned %d", resp.StatusCode)}
	}

	var tokens tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, &TokenExchangeError{Detail: "decoding token response", Cause: err}
	}
	return a.buildTokenStore(tokens.IDToken, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresIn)
}

func (a *Authenticator) exchangeJSON(ctx context.Context, result *authorizationResult, pair pkce.Pair) (*TokenStore, error) {
	body, err := json.Marshal(map[string]string{
		"redirectUri": a.strategy.RedirectURI,
		"code":        result.Code,
		"verifier":    pair.Verifier,
	})
	if err != nil {
		return nil, &TokenExchangeError{Detail: "encoding exchange request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.strategy.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, &TokenExchangeError{Detail: "building exchange request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	a.setCommonHeaders(req)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, &TokenExchangeError{Detail: "token service unreachable", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &TokenExchangeError{Detail: fmt.Sprintf("token service returned %d", resp.StatusCode)}
	}

	var tokens serviceTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, &TokenExchangeError{Detail: "decoding token response", Cause: err}
	}
	return a.buildTokenStore(tokens.IDToken, tokens.AccessToken, tokens.RefreshToken, 0)
}

// postTokenForm submits a form-encoded token request and decodes the
// snake_case response shared by the form and hybrid styles.
func (a *Authenticator) postTokenForm(ctx context.Context, rawURL string, form url.Values) (*TokenStore, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TokenExchangeError{Detail: "building exchange request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	a.setCommonHeaders(req)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, &TokenExchangeError{Detail: "token endpoint unreachable", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &TokenExchangeError{
			Detail: fmt.Sprintf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var tokens tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, &TokenExchangeError{Detail: "decoding token response", Cause: err}
	}
	return a.buildTokenStore(tokens.IDToken, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresIn)
}

// buildTokenStore derives the expiry from the access token's exp claim,
// falling back to the advertised lifetime. A store without an expiry would
// never look expired, so both failing is an error.
func (a *Authenticator) buildTokenStore(idToken, accessToken, refreshToken string, expiresIn int64) (*TokenStore, error) {
	expiresAt, err := decodeExpiry(accessToken)
	if err != nil {
		if expiresIn <= 0 {
			return nil, &TokenExchangeError{Detail: "token carries no usable expiry", Cause: err}
		}
		expiresAt = a.now().Add(time.Duration(expiresIn) * time.Second).Unix()
	}
	return &TokenStore{
		IDToken:      idToken,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
