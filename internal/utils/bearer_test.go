package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name    string
		cookies map[string]string
		want    string
		ok      bool
	}{
		{"nil map", nil, "", false},
		{"no cookie", map[string]string{"other": "Bearer abc"}, "", false},
		{"empty", map[string]string{AccessTokenCookie: ""}, "", false},
		{"bearer", map[string]string{AccessTokenCookie: "Bearer abc"}, "abc", true},
		{"lowercase", map[string]string{AccessTokenCookie: "bearer abc"}, "abc", true},
		{"uppercase", map[string]string{AccessTokenCookie: "BEARER abc"}, "abc", true},
		{"basic scheme", map[string]string{AccessTokenCookie: "Basic abc"}, "", false},
		{"no scheme", map[string]string{AccessTokenCookie: "abc"}, "", false},
		{"scheme only", map[string]string{AccessTokenCookie: "Bearer"}, "", false},
		{"scheme and space", map[string]string{AccessTokenCookie: "Bearer   "}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractBearerToken(tc.cookies)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBearerValue_RoundTrip(t *testing.T) {
	got, ok := ExtractBearerToken(map[string]string{AccessTokenCookie: BearerValue("0123abcd")})
	assert.True(t, ok)
	assert.Equal(t, "0123abcd", got)
}
