package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// submitEmail locates the login form on the page carried by resp, harvests
// its hidden inputs, injects the account email and posts it. The response of
// the post is redirect-walked to the password page, whose body is returned.
func (a *Authenticator) submitEmail(ctx context.Context, resp *http.Response, pageURL string) (string, error) {
	body, err := readBody(resp)
	if err != nil {
		return "", &EmailSubmissionError{Detail: "reading login page", Cause: err}
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", &EmailSubmissionError{Detail: "parsing login page", Cause: err}
	}
	form := findLoginForm(doc)
	if form == nil {
		return "", &EmailSubmissionError{Detail: "no form on login page"}
	}

	fields := collectInputs(form)
	fields.Set("email", a.creds.Email)

	action, err := a.resolveFormAction(getAttr(form, "action"), pageURL)
	if err != nil {
		return "", &EmailSubmissionError{Detail: "resolving form action", Cause: err}
	}

	post, err := a.postForm(ctx, action, fields)
	if err != nil {
		return "", &EmailSubmissionError{Detail: "posting email", Cause: err}
	}
	final, err := a.followRedirects(ctx, post)
	if err != nil {
		return "", &EmailSubmissionError{Detail: "walking to password page", Cause: err}
	}
	page, err := readBody(final)
	if err != nil {
		return "", &EmailSubmissionError{Detail: "reading password page", Cause: err}
	}
	return page, nil
}

// findLoginForm resolves the login form in order: element with id
// emailPasswordForm, then a form named emailPasswordForm, then the first form
// on the page.
func findLoginForm(doc *html.Node) *html.Node {
	if n := findNodeByAttr(doc, "form", "id", "emailPasswordForm"); n != nil {
		return n
	}
	if n := findNodeByAttr(doc, "form", "name", "emailPasswordForm"); n != nil {
		return n
	}
	return findNode(doc, "form")
}

// collectInputs harvests every input's name/value under a form node.
func collectInputs(form *html.Node) url.Values {
	fields := url.Values{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			if name := getAttr(n, "name"); name != "" {
				fields.Set(name, getAttr(n, "value"))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(form)
	return fields
}

// resolveFormAction resolves a form's action against the page it came from,
// falling back to the identity-provider origin.
func (a *Authenticator) resolveFormAction(action, pageURL string) (string, error) {
	if action == "" {
		return pageURL, nil
	}
	u, err := url.Parse(action)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return action, nil
	}
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return a.resolveLocation(action)
	}
	return base.ResolveReference(u).String(), nil
}

// scrapeFirstForm parses the page carried by resp and returns its first
// form's fields and resolved action. Used by the interstitial handlers.
func (a *Authenticator) scrapeFirstForm(resp *http.Response, pageURL string) (url.Values, string, error) {
	body, err := readBody(resp)
	if err != nil {
		return nil, "", err
	}
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	form := findNode(doc, "form")
	if form == nil {
		return nil, "", errors.New("interstitial page has no form")
	}
	action, err := a.resolveFormAction(getAttr(form, "action"), pageURL)
	if err != nil {
		return nil, "", err
	}
	return collectInputs(form), action, nil
}

// passwordForm is the state the password page embeds in a client-side script
// instead of a server-rendered form.
type passwordForm struct {
	RelayState string `json:"relayState"`
	Hmac       string `json:"hmac"`
	PostAction string `json:"postAction"`
}

var csrfTokenPattern = regexp.MustCompile(`csrf_token\s*:\s*['"]([^'"]+)['"]`)

// extractPasswordForm recovers the templateModel object literal and the CSRF
// token from raw page markup. The page embeds both in a script, so this is
// text-pattern extraction, not DOM work; keeping it in one function localizes
// breakage when the upstream markup changes.
func extractPasswordForm(body string) (string, passwordForm, error) {
	var form passwordForm

	m := csrfTokenPattern.FindStringSubmatch(body)
	if m == nil {
		return "", form, &PasswordFormParseError{Detail: "csrf_token not found in page"}
	}
	csrf := m[1]

	literal, ok := extractObjectLiteral(body, "templateModel")
	if !ok {
		return "", form, &PasswordFormParseError{Detail: "templateModel not found in page"}
	}
	if err := json.Unmarshal([]byte(literal), &form); err != nil {
		return "", form, &PasswordFormParseError{Detail: "templateModel is not valid JSON", Cause: err}
	}
	if form.PostAction == "" {
		return "", form, &PasswordFormParseError{Detail: "templateModel has no postAction"}
	}
	return csrf, form, nil
}

// extractObjectLiteral finds `key : { ... }` in raw markup and returns the
// balanced object literal, honoring braces inside string values.
func extractObjectLiteral(body, key string) (string, bool) {
	idx := strings.Index(body, key)
	if idx < 0 {
		return "", false
	}
	rest := body[idx+len(key):]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return "", false
	}
	rest = strings.TrimLeft(rest[colon+1:], " \t\r\n")
	if len(rest) == 0 || rest[0] != '{' {
		return "", false
	}

	depth := 0
	inString := false
	var quote byte
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if inString {
			switch c {
			case '\\':
				i++
			case quote:
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[:i+1], true
			}
		}
	}
	return "", false
}

// findNodeByAttr returns the first element with the given tag and attribute.
func findNodeByAttr(n *html.Node, tag, key, val string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		if getAttr(n, key) == val {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNodeByAttr(c, tag, key, val); found != nil {
			return found
		}
	}
	return nil
}

// findNode returns the first element matching the tag name.
func findNode(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// getAttr returns the value of the named attribute on a node.
func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
