// Package fediuri encodes and decodes fedi: deep links for chat rooms and
// users, plus the legacy member and group forms.
//
// A link has the shape "fedi:<kind>:<id>:::". "fedi://" is accepted in
// place of "fedi:" when decoding.
package fediuri

import (
	"regexp"
	"strings"

	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// Kind is the target type of a fedi: link.
type Kind string

// Supported kinds.
const (
	KindRoom   Kind = "room"
	KindUser   Kind = "user"
	KindMember Kind = "member"
	KindGroup  Kind = "group"
)

const (
	scheme      = "fedi:"
	schemeSlash = "fedi://"
	terminator  = ":::"
)

//nolint:gochecknoglobals // compiled once
var (
	roomIDRe = regexp.MustCompile(`^![^:\s]+:\S+$`)
	userIDRe = regexp.MustCompile(`^@[^:\s]+:\S+$`)
	legacyRe = regexp.MustCompile(`^[^:\s]+$`)
)

// IsFediURI reports whether s starts with a fedi: scheme.
func IsFediURI(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, scheme)
}

func encode(kind Kind, id string) string {
	return scheme + string(kind) + ":" + id + terminator
}

// EncodeRoom builds the link for a Matrix room id such as "!abc:m1.8fa.in".
func EncodeRoom(roomID string) string {
	return encode(KindRoom, roomID)
}

// EncodeUser builds the link for a Matrix user id such as "@bob:m1.8fa.in".
func EncodeUser(userID string) string {
	return encode(KindUser, userID)
}

// body returns the id part of a link of the given kind.
func body(uri string, kind Kind) (string, error) {
	s := strings.TrimSpace(uri)
	lower := strings.ToLower(s)

	var rest string
	switch {
	case strings.HasPrefix(lower, schemeSlash):
		rest = s[len(schemeSlash):]
	case strings.HasPrefix(lower, scheme):
		rest = s[len(scheme):]
	default:
		return "", invalid(uri, "missing fedi scheme")
	}

	prefix := string(kind) + ":"
	if len(rest) < len(prefix) || !strings.EqualFold(rest[:len(prefix)], prefix) {
		return "", invalid(uri, "not a "+string(kind)+" link")
	}
	rest = rest[len(prefix):]

	if !strings.HasSuffix(rest, terminator) {
		return "", invalid(uri, "missing terminator")
	}
	return strings.TrimSuffix(rest, terminator), nil
}

func invalid(uri, reason string) error {
	return fedierr.WithDetails(fedierr.ErrInvalidURI, map[string]string{
		"uri":    uri,
		"reason": reason,
	})
}

// DecodeRoom extracts the room id from a room link.
func DecodeRoom(uri string) (string, error) {
	id, err := body(uri, KindRoom)
	if err != nil {
		return "", err
	}
	if !roomIDRe.MatchString(id) {
		return "", invalid(uri, "malformed room id")
	}
	return id, nil
}

// DecodeUser extracts the user id from a user link.
func DecodeUser(uri string) (string, error) {
	id, err := body(uri, KindUser)
	if err != nil {
		return "", err
	}
	if !userIDRe.MatchString(id) {
		return "", invalid(uri, "malformed user id")
	}
	return id, nil
}

// DecodeMember extracts the member name from a legacy member link.
func DecodeMember(uri string) (string, error) {
	id, err := body(uri, KindMember)
	if err != nil {
		return "", err
	}
	if !legacyRe.MatchString(id) {
		return "", invalid(uri, "malformed member id")
	}
	return id, nil
}

// DecodeGroup extracts the group id from a legacy group link.
func DecodeGroup(uri string) (string, error) {
	id, err := body(uri, KindGroup)
	if err != nil {
		return "", err
	}
	if !legacyRe.MatchString(id) {
		return "", invalid(uri, "malformed group id")
	}
	return id, nil
}

// Decode tries room, user, member and group in that order and returns the
// first kind that decodes.
func Decode(uri string) (Kind, string, error) {
	decoders := []struct {
		kind   Kind
		decode func(string) (string, error)
	}{
		{KindRoom, DecodeRoom},
		{KindUser, DecodeUser},
		{KindMember, DecodeMember},
		{KindGroup, DecodeGroup},
	}
	for _, d := range decoders {
		if id, err := d.decode(uri); err == nil {
			return d.kind, id, nil
		}
	}
	return "", "", invalid(uri, "unrecognised link")
}
