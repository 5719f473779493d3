package client

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Kind is a Spotify catalog object type.
type Kind string

const (
	KindTrack    Kind = "track"
	KindPlaylist Kind = "playlist"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9]{22}$`)

// ParseID extracts a catalog ID from a Spotify URI
// (spotify:track:ID), an open.spotify.com link, or a bare ID.
func ParseID(kind Kind, s string) (string, error) {
	s = strings.TrimSpace(s)

	if rest, ok := strings.CutPrefix(s, "spotify:"); ok {
		parts := strings.Split(rest, ":")
		// spotify:user:NAME:playlist:ID is the pre-2018 playlist form.
		if len(parts) >= 2 && Kind(parts[len(parts)-2]) == kind && idPattern.MatchString(parts[len(parts)-1]) {
			return parts[len(parts)-1], nil
		}
		return "", fmt.Errorf("%q is not a %s uri", s, kind)
	}

	if strings.Contains(s, "spotify.com/") {
		if !strings.Contains(s, "://") {
			s = "https://" + s
		}
		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("invalid url: %w", err)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, part := range parts {
			if Kind(part) == kind && i+1 < len(parts) && idPattern.MatchString(parts[i+1]) {
				return parts[i+1], nil
			}
		}
		return "", fmt.Errorf("no %s id found in %q", kind, s)
	}

	if idPattern.MatchString(s) {
		return s, nil
	}
	return "", fmt.Errorf("%q is not a spotify %s id", s, kind)
}

// URI returns the spotify: URI of a catalog object.
func URI(kind Kind, id string) string {
	return "spotify:" + string(kind) + ":" + id
}
