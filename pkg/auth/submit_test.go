package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carconnectivity/vag-auth/pkg/brand"
)

func TestParseTerminalFragment(t *testing.T) {
	a := newTestAuthenticator(brand.Seat())

	result, err := a.parseTerminal("seatconnect://identity-kit/login#state=st1&code=AUTH1")
	require.NoError(t, err)
	assert.Equal(t, "AUTH1", result.Code)
	assert.Equal(t, "st1", result.State)
}

func TestParseTerminalQuery(t *testing.T) {
	a := newTestAuthenticator(brand.Skoda())

	result, err := a.parseTerminal("myskoda://redirect/login/?code=AUTH2&state=st2")
	require.NoError(t, err)
	assert.Equal(t, "AUTH2", result.Code)
	assert.Equal(t, "st2", result.State)
}

func TestParseTerminalHybridFragment(t *testing.T) {
	a := newTestAuthenticator(brand.Volkswagen())

	terminal := "weconnect://authenticated#state=st3&id_token=idt3&access_token=at3&code=AUTH3"
	result, err := a.parseTerminal(terminal)
	require.NoError(t, err)
	assert.Equal(t, "AUTH3", result.Code)
	assert.Equal(t, "st3", result.State)
	assert.Equal(t, "idt3", result.IDToken)
	assert.Equal(t, "at3", result.AccessToken)
}

func TestParseTerminalMissingCode(t *testing.T) {
	a := newTestAuthenticator(brand.Seat())

	_, err := a.parseTerminal("seatconnect://identity-kit/login#state=st1")
	var submitErr *PasswordSubmissionError
	require.ErrorAs(t, err, &submitErr)
	assert.Contains(t, err.Error(), "no code")
}

func TestSubmitPasswordPostsCredentialPayload(t *testing.T) {
	strategy := brand.Seat()
	terminal := strategy.TerminalPrefix + "#state=st&code=AUTH9"

	var posted url.Values
	var postPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		posted = r.PostForm
		postPath = r.URL.Path
		w.Header().Set("Location", terminal)
		w.WriteHeader(http.StatusSeeOther)
	}))
	defer server.Close()

	strategy.AuthBase = server.URL
	a := newTestAuthenticator(strategy)

	form := passwordForm{RelayState: "rs", Hmac: "hm", PostAction: "login/authenticate"}
	result, err := a.submitPassword(context.Background(), "csrf-1", form)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("/signin-service/v1/%s/login/authenticate", strategy.ClientID), postPath)
	assert.Equal(t, "csrf-1", posted.Get("_csrf"))
	assert.Equal(t, "rs", posted.Get("relayState"))
	assert.Equal(t, "hm", posted.Get("hmac"))
	assert.Equal(t, "driver@example.com", posted.Get("email"))
	assert.Equal(t, "hunter2", posted.Get("password"))
	assert.Equal(t, "AUTH9", result.Code)
}

func TestWalkToTerminalHandlesInterstitial(t *testing.T) {
	strategy := brand.Seat()
	terminal := strategy.TerminalPrefix + "#state=st&code=AUTH5"

	var consentPosted url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/terms-and-conditions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><form action="/terms-and-conditions/submit">
			<input type="hidden" name="relayState" value="rs9">
		</form></body></html>`)
	})
	mux.HandleFunc("/terms-and-conditions/submit", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		consentPosted = r.PostForm
		w.Header().Set("Location", terminal)
		w.WriteHeader(http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	strategy.AuthBase = server.URL
	a := newTestAuthenticator(strategy)

	got, err := a.walkToTerminal(context.Background(), "/terms-and-conditions")
	require.NoError(t, err)
	assert.Equal(t, terminal, got)
	assert.Equal(t, "rs9", consentPosted.Get("relayState"))
}

func TestWalkToTerminalBounded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/loop")
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	strategy := brand.Seat()
	strategy.AuthBase = server.URL
	a := newTestAuthenticator(strategy)

	_, err := a.walkToTerminal(context.Background(), "/loop")
	var submitErr *PasswordSubmissionError
	require.ErrorAs(t, err, &submitErr)
	assert.Contains(t, err.Error(), "no terminal redirect")
}

func TestWalkToTerminalEmptyLocation(t *testing.T) {
	a := newTestAuthenticator(brand.Seat())

	_, err := a.walkToTerminal(context.Background(), "")
	var submitErr *PasswordSubmissionError
	require.ErrorAs(t, err, &submitErr)
}
