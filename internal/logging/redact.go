// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package logging

import (
	"net/url"
	"regexp"
)

// tokenParam matches the X-Plex-Token query parameter in URLs embedded in
// error strings (dial errors quote the full notification URL).
var tokenParam = regexp.MustCompile(`(?i)(X-Plex-Token=)[^&\s"]+`)

// RedactToken masks a token, showing only the first and last 4 characters.
// Short tokens are fully masked.
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// RedactURL returns rawURL with userinfo and any X-Plex-Token parameter masked.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url"
	}
	q := u.Query()
	if q.Has("X-Plex-Token") {
		q.Set("X-Plex-Token", "xxxxx")
		u.RawQuery = q.Encode()
	}
	return u.Redacted()
}

// RedactError returns err's message with X-Plex-Token values masked.
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	return tokenParam.ReplaceAllString(err.Error(), "${1}xxxxx")
}
