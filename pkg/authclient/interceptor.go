package authclient

import (
	"net/http"
	"strings"
)

// prefixTable maps request path prefixes to the domain whose token should
// authenticate them. Staff is deliberately absent: the staff client
// injects its token at construction, so unmatched paths pass through
// unmodified. Longer prefixes are listed first and matched first.
var prefixTable = []struct {
	prefix string
	domain DomainConfig
}{
	{"/api/v1/portal", PortalDomain},
	{"/api/v1/tech", TechnicianDomain},
	{"/api/v1/platform", PlatformDomain},
}

// TokenLookup fetches the stored access token for a domain, if any.
type TokenLookup func(domain DomainConfig) (string, bool)

// StoreLookup adapts a KeyValue into a TokenLookup.
func StoreLookup(store KeyValue) TokenLookup {
	return func(domain DomainConfig) (string, bool) {
		return store.Get(domain.accessKey())
	}
}

// ResolveToken decides, from the request path alone, which domain's token
// to attach. Pure and synchronous: no I/O, no blocking. Returns false
// when the path matches no domain or the matched domain has no token.
func ResolveToken(path string, lookup TokenLookup) (string, bool) {
	for _, entry := range prefixTable {
		if strings.HasPrefix(path, entry.prefix) {
			return lookup(entry.domain)
		}
	}
	return "", false
}

// Transport is an http.RoundTripper that bearer-authenticates outbound
// requests per ResolveToken, so one shared HTTP client can serve several
// domains without leaking tokens across them.
type Transport struct {
	Base  http.RoundTripper
	Store KeyValue
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	token, ok := ResolveToken(req.URL.Path, StoreLookup(t.Store))
	if !ok {
		return base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(clone)
}
