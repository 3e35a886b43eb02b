// Package room encodes chat room identifiers. A two-party room name carries
// exactly the identities allowed to read and write in it, so membership can be
// checked without a lookup.
package room

import "strings"

const (
	// Global is the shared room every authenticated user may join.
	Global = "global"

	prefix    = "chat_"
	separator = "-"
)

// ValidIdentity reports whether id can be encoded in a two-party room name.
// Identities containing the separator would make the name ambiguous.
func ValidIdentity(id string) bool {
	return id != "" && !strings.Contains(id, separator)
}

// IDFor returns the canonical room for two participants. The result does not
// depend on argument order. For identities rejected by ValidIdentity the
// result is not a valid room and admits no one.
func IDFor(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return prefix + a + separator + b
}

// Members returns the identities encoded in roomID. unrestricted is true for
// the global room. Malformed identifiers yield no members.
func Members(roomID string) (members []string, unrestricted bool) {
	if roomID == Global {
		return nil, true
	}
	if !strings.HasPrefix(roomID, prefix) {
		return nil, false
	}

	parts := strings.Split(strings.TrimPrefix(roomID, prefix), separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, false
	}
	return parts, false
}

// IsMember reports whether identity may operate on roomID.
func IsMember(roomID, identity string) bool {
	if !ValidIdentity(identity) {
		return false
	}
	members, unrestricted := Members(roomID)
	if unrestricted {
		return true
	}
	for _, m := range members {
		if m == identity {
			return true
		}
	}
	return false
}

// Valid reports whether roomID is the global room or a well-formed two-party room.
func Valid(roomID string) bool {
	members, unrestricted := Members(roomID)
	return unrestricted || len(members) == 2
}

// Partner returns the other participant of a two-party room, or "" when
// identity is not one of its two members.
func Partner(roomID, identity string) string {
	members, _ := Members(roomID)
	if len(members) != 2 {
		return ""
	}
	switch identity {
	case members[0]:
		return members[1]
	case members[1]:
		return members[0]
	}
	return ""
}
