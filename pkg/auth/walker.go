package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// maxRedirectHops bounds every redirect-following loop in the engine so a
// misbehaving or redesigned upstream flow cannot spin it forever. Exhausting
// the bound is a fatal failure, never a silent truncation.
const maxRedirectHops = 10

// followRedirects walks Location headers from resp until a response without
// one, resolving relative locations against the identity-provider origin.
// The final response is returned with its body still open.
func (a *Authenticator) followRedirects(ctx context.Context, resp *http.Response) (*http.Response, error) {
	for hops := 0; ; hops++ {
		loc := resp.Header.Get("Location")
		if loc == "" {
			return resp, nil
		}
		if hops >= maxRedirectHops {
			resp.Body.Close()
			return nil, fmt.Errorf("redirect chain exceeded %d hops", maxRedirectHops)
		}
		next, err := a.resolveLocation(loc)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		resp.Body.Close()
		a.log.Debug("following redirect", "brand", a.strategy.Name, "hop", hops+1, "url", next)
		resp, err = a.get(ctx, next)
		if err != nil {
			return nil, err
		}
	}
}

// An interstitial handler recognizes an optional consent/terms page injected
// between password submission and the terminal redirect, and pushes the flow
// past it by scraping and reposting the page's form.
type interstitialHandler struct {
	name   string
	match  func(url string) bool
	handle func(ctx context.Context, a *Authenticator, resp *http.Response, pageURL string) (string, error)
}

var interstitialHandlers = []interstitialHandler{
	{
		name:   "marketing consent",
		match:  func(u string) bool { return strings.Contains(u, "/consent/marketing/") },
		handle: handleMarketingConsent,
	},
	{
		name:   "terms and conditions",
		match:  func(u string) bool { return strings.Contains(u, "terms-and-conditions") },
		handle: handleTermsAndConditions,
	},
}

func matchInterstitial(url string) *interstitialHandler {
	for i := range interstitialHandlers {
		if interstitialHandlers[i].match(url) {
			return &interstitialHandlers[i]
		}
	}
	return nil
}

// handleMarketingConsent reposts the consent form with marketingConsent
// forced to "false"; all other fields are forwarded unchanged.
func handleMarketingConsent(ctx context.Context, a *Authenticator, resp *http.Response, pageURL string) (string, error) {
	form, action, err := a.scrapeFirstForm(resp, pageURL)
	if err != nil {
		return "", err
	}
	if form.Has("marketingConsent") {
		form.Set("marketingConsent", "false")
	}
	return a.repostForm(ctx, action, form)
}

// handleTermsAndConditions reposts the form unchanged, which the provider
// treats as acceptance.
func handleTermsAndConditions(ctx context.Context, a *Authenticator, resp *http.Response, pageURL string) (string, error) {
	form, action, err := a.scrapeFirstForm(resp, pageURL)
	if err != nil {
		return "", err
	}
	return a.repostForm(ctx, action, form)
}

// repostForm posts scraped fields back and hands the resulting Location to
// the walker.
func (a *Authenticator) repostForm(ctx context.Context, action string, form url.Values) (string, error) {
	resp, err := a.postForm(ctx, action, form)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return resp.Header.Get("Location"), nil
}
