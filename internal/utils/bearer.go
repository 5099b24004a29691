package utils

import "strings"

// AccessTokenCookie carries "Bearer <token>".
const AccessTokenCookie = "access_token"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// ExtractBearerToken reads the access_token cookie from a bare cookie map and
// returns the token when the scheme is bearer (any case).
func ExtractBearerToken(cookies map[string]string) (string, bool) {
	value, ok := cookies[AccessTokenCookie]
	if !ok || value == "" {
		return "", false
	}
	scheme, param, _ := strings.Cut(value, " ")
	if !strings.EqualFold(scheme, BearerScheme) {
		return "", false
	}
	param = strings.TrimSpace(param)
	if param == "" {
		return "", false
	}
	return param, true
}

// BearerValue formats a token for the access_token cookie.
func BearerValue(token string) string {
	return BearerScheme + " " + token
}
