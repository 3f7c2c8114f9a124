package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// sessionTimeout bounds every HTTP request the engine issues. There is no
// retry at any layer; a failed request surfaces immediately.
const sessionTimeout = 30 * time.Second

// newSessionClient returns the cookie-jar-bearing HTTP client that drives one
// authenticator's scripted flow. Redirects are never followed automatically:
// the engine inspects every hop itself. The jar accumulates identity-provider
// session cookies and must not be shared between authenticators holding
// different credentials.
func newSessionClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout: sessionTimeout,
		Jar:     jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// setCommonHeaders applies the brand user agent and any extra headers the
// brand's backend insists on.
func (a *Authenticator) setCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", a.strategy.UserAgent)
	for k, v := range a.strategy.Headers {
		req.Header.Set(k, v)
	}
}

// get issues a GET with the brand user agent set.
func (a *Authenticator) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.strategy.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return a.http.Do(req)
}

// postForm issues a form-encoded POST with the brand user agent set.
func (a *Authenticator) postForm(ctx context.Context, rawURL string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.strategy.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.http.Do(req)
}

// readBody drains and closes a response body.
func readBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// resolveLocation turns a possibly relative Location header value into an
// absolute URL against the identity-provider origin.
func (a *Authenticator) resolveLocation(loc string) (string, error) {
	u, err := url.Parse(loc)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return loc, nil
	}
	base, err := url.Parse(a.strategy.AuthBase)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}
