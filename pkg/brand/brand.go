// Package brand captures the per-manufacturer differences in the VW-group
// login protocol as plain configuration values.
//
// All four brands authenticate against the same identity provider but differ
// in client registration, scopes, token-exchange body shape, and refresh
// transport. A Strategy value parameterizes a single engine implementation
// instead of four near-identical authenticators.
package brand

// ExchangeStyle selects the body shape of the code-for-token exchange.
type ExchangeStyle int

const (
	// ExchangeForm posts a form-encoded grant_type=authorization_code body,
	// optionally with a client secret.
	ExchangeForm ExchangeStyle = iota
	// ExchangeJSON posts {"redirectUri","code","verifier"} to a JSON token
	// service.
	ExchangeJSON
	// ExchangeHybrid posts the state, id_token and access_token already
	// extracted from the terminal redirect fragment alongside the
	// authorization code. No PKCE verifier is involved at this step.
	ExchangeHybrid
)

// RefreshStyle selects the transport used for silent token refresh.
type RefreshStyle int

const (
	// RefreshService is a form POST to the shared token-refresh microservice.
	RefreshService RefreshStyle = iota
	// RefreshJSON is a brand-hosted JSON refresh endpoint authenticated with
	// the refresh token as a bearer credential.
	RefreshJSON
	// RefreshTokenEndpoint is the brand token endpoint with
	// grant_type=refresh_token.
	RefreshTokenEndpoint
)

// Strategy holds everything brand-specific the authentication engine needs.
// Values are copied per authenticator; tests rebase the URL fields onto local
// fixtures.
type Strategy struct {
	Name string

	// AuthBase is the identity-provider origin; relative redirect locations
	// are resolved against it.
	AuthBase string
	// APIBase is the brand API origin consumed by the authenticated client.
	APIBase string
	// TokenURL receives the code-for-token exchange.
	TokenURL string
	// RefreshURL receives silent refresh attempts.
	RefreshURL string

	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string

	// UsePKCE selects the PKCE authorize entry; when false the engine performs
	// the session-redirect round trip against APIBase instead.
	UsePKCE bool

	// TerminalPrefix is the custom URI scheme that marks the end of the
	// redirect chain. It is a sentinel only and never dereferenced.
	TerminalPrefix string
	// CodeInQuery is set for the brand whose terminal URL carries its
	// parameters after "?" instead of "#".
	CodeInQuery bool

	Exchange ExchangeStyle
	Refresh  RefreshStyle

	// Region is sent in the hybrid exchange body.
	Region string

	// UserAgent and Headers are required by the brand APIs on every request.
	UserAgent string
	Headers   map[string]string
}

// Volkswagen is the session-redirect brand: the authorize entry is a round
// trip through the brand API, and the terminal redirect fragment already
// carries tokens alongside the code (hybrid implicit+code flow).
func Volkswagen() Strategy {
	return Strategy{
		Name:           "volkswagen",
		AuthBase:       "https://identity.vwgroup.io",
		APIBase:        "https://emea.bff.cariad.digital",
		TokenURL:       "https://emea.bff.cariad.digital/user-login/login/v1",
		RefreshURL:     "https://emea.bff.cariad.digital/user-login/refresh/v1",
		ClientID:       "a24fba63-34b3-4d43-b181-942111e6bda8@apps_vw-dilab_com",
		RedirectURI:    "weconnect://authenticated",
		Scope:          "openid profile badge cars dealers vin",
		UsePKCE:        false,
		TerminalPrefix: "weconnect://authenticated",
		Exchange:       ExchangeHybrid,
		Refresh:        RefreshJSON,
		Region:         "emea",
		UserAgent:      "WeConnect/5 CFNetwork/1206 Darwin/20.1.0",
	}
}

// Skoda exchanges its code at a JSON token service and is the one brand whose
// terminal URL carries the authorization code in the query rather than the
// fragment.
func Skoda() Strategy {
	return Strategy{
		Name:           "skoda",
		AuthBase:       "https://identity.vwgroup.io",
		APIBase:        "https://mysmob.api.connect.skoda-auto.cz",
		TokenURL:       "https://mysmob.api.connect.skoda-auto.cz/api/v1/authentication/exchange-authorization-code",
		RefreshURL:     "https://tokenrefreshservice.apps.emea.vwapps.io/refreshTokens",
		ClientID:       "7f045eee-7003-4379-9968-9355ed2adb06@apps_vw-dilab_com",
		RedirectURI:    "myskoda://redirect/login/",
		Scope:          "openid profile phone address cars email birthdate badge dealers driversLicense mbb",
		UsePKCE:        true,
		TerminalPrefix: "myskoda://redirect/login/",
		CodeInQuery:    true,
		Exchange:       ExchangeJSON,
		Refresh:        RefreshService,
		UserAgent:      "MySkoda/5.4.0 (Android 12)",
	}
}

// Seat uses the plain form-encoded exchange against the shared token service.
func Seat() Strategy {
	return Strategy{
		Name:           "seat",
		AuthBase:       "https://identity.vwgroup.io",
		APIBase:        "https://ola.prod.code.seat.cloud.vwgroup.com",
		TokenURL:       "https://tokenrefreshservice.apps.emea.vwapps.io/exchangeAuthCode",
		RefreshURL:     "https://tokenrefreshservice.apps.emea.vwapps.io/refreshTokens",
		ClientID:       "99a5b77d-bd88-4d53-b4e5-a539c60694a3@apps_vw-dilab_com",
		RedirectURI:    "seatconnect://identity-kit/login",
		Scope:          "openid profile mbb cars birthdate nickname address phone",
		UsePKCE:        true,
		TerminalPrefix: "seatconnect://identity-kit/login",
		Exchange:       ExchangeForm,
		Refresh:        RefreshService,
		UserAgent:      "SEATConnect/2.1.0 (Android 12)",
	}
}

// Cupra is a confidential client: its form-encoded exchange and refresh both
// carry a client secret against the brand token endpoint.
func Cupra() Strategy {
	return Strategy{
		Name:           "cupra",
		AuthBase:       "https://identity.vwgroup.io",
		APIBase:        "https://ola.prod.code.seat.cloud.vwgroup.com",
		TokenURL:       "https://identity.vwgroup.io/oidc/v1/token",
		RefreshURL:     "https://identity.vwgroup.io/oidc/v1/token",
		ClientID:       "3c756d46-f1ba-4d78-9f9a-cff0d5292d51@apps_vw-dilab_com",
		ClientSecret:   "eb8814e641c81a2640ad62eeccec11c98effc9bc",
		RedirectURI:    "cupraconnect://identity-kit/login",
		Scope:          "openid profile nickname birthdate phone",
		UsePKCE:        true,
		TerminalPrefix: "cupraconnect://identity-kit/login",
		Exchange:       ExchangeForm,
		Refresh:        RefreshTokenEndpoint,
		UserAgent:      "CUPRAConnect/2.1.0 (Android 12)",
	}
}

// All returns the supported strategies keyed by name.
func All() map[string]Strategy {
	return map[string]Strategy{
		"volkswagen": Volkswagen(),
		"skoda":      Skoda(),
		"seat":       Seat(),
		"cupra":      Cupra(),
	}
}
