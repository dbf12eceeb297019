package jwksauth

import (
	"errors"
	"net/http"
	"strings"
)

// TokenExtractor pulls a raw token out of an incoming request. An empty
// string with a nil error means no credential was presented, which is not
// an error; the check engine decides whether that is acceptable. An error
// means a credential was presented but is malformed.
type TokenExtractor func(r *http.Request) (string, error)

// AuthHeaderTokenExtractor reads the token from the Authorization header,
// expecting the "Bearer <token>" scheme (case-insensitive).
func AuthHeaderTokenExtractor(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}
	return parseBearer(header)
}

// parseBearer splits an Authorization header value and returns the bearer
// credential.
func parseBearer(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.New("Authorization header format must be Bearer {token}")
	}
	return parts[1], nil
}

// CookieTokenExtractor reads the token from the named cookie. An absent
// cookie yields an empty token, not an error.
func CookieTokenExtractor(cookieName string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if err == http.ErrNoCookie {
			return "", nil
		}
		return cookie.Value, nil
	}
}

// ParameterTokenExtractor reads the token from the named query string
// parameter.
func ParameterTokenExtractor(param string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		return r.URL.Query().Get(param), nil
	}
}

// MultiTokenExtractor tries the given extractors in order and returns the
// first non-empty token. An extractor error stops the chain immediately.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, extract := range extractors {
			token, err := extract(r)
			if err != nil {
				return "", err
			}
			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
