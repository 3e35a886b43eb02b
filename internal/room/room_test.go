package room_test

import (
	"testing"

	"regimath/backend/internal/room"

	"github.com/stretchr/testify/assert"
)

func TestIDFor_IsCommutative(t *testing.T) {
	pairs := [][2]string{
		{"7", "12"},
		{"alice", "bob"},
		{"a1b2", "9"},
		{"u_100", "u_99"},
	}

	for _, p := range pairs {
		assert.Equal(t, room.IDFor(p[0], p[1]), room.IDFor(p[1], p[0]), "pair %v", p)
	}
}

func TestIDFor_UsesStringOrder(t *testing.T) {
	// "12" sorts before "7" as strings.
	assert.Equal(t, "chat_12-7", room.IDFor("7", "12"))
	assert.Equal(t, "chat_12-7", room.IDFor("12", "7"))
}

func TestIsMember_TwoPartyRoom(t *testing.T) {
	id := room.IDFor("7", "12")

	assert.True(t, room.IsMember(id, "7"))
	assert.True(t, room.IsMember(id, "12"))
	assert.False(t, room.IsMember(id, "1"))
	assert.False(t, room.IsMember(id, "127"))
	assert.False(t, room.IsMember(id, ""))
}

func TestIsMember_GlobalRoom(t *testing.T) {
	assert.True(t, room.IsMember(room.Global, "anyone"))
	assert.False(t, room.IsMember(room.Global, ""), "an empty identity is never authenticated")
}

func TestIsMember_MalformedRooms(t *testing.T) {
	malformed := []string{
		"",
		"chat_",
		"chat_7",
		"chat_7-",
		"chat_-7",
		"chat_1-2-3",
		"room_1-2",
		"1-2",
		"GLOBAL",
	}

	for _, id := range malformed {
		t.Run(id, func(t *testing.T) {
			assert.False(t, room.IsMember(id, "1"))
			assert.False(t, room.IsMember(id, "2"))
			assert.False(t, room.Valid(id))
		})
	}
}

func TestMembers(t *testing.T) {
	members, unrestricted := room.Members("chat_12-7")
	assert.False(t, unrestricted)
	assert.ElementsMatch(t, []string{"7", "12"}, members)

	members, unrestricted = room.Members(room.Global)
	assert.True(t, unrestricted)
	assert.Empty(t, members)
}

func TestPartner(t *testing.T) {
	id := room.IDFor("ana", "bruno")

	assert.Equal(t, "bruno", room.Partner(id, "ana"))
	assert.Equal(t, "ana", room.Partner(id, "bruno"))
	assert.Empty(t, room.Partner(id, "carla"))
	assert.Empty(t, room.Partner(room.Global, "ana"))
}

func TestIDFor_IdentityWithSeparator(t *testing.T) {
	id := room.IDFor("ab-cd", "zz")

	assert.False(t, room.Valid(id))
	assert.False(t, room.IsMember(id, "ab-cd"))
	assert.False(t, room.IsMember(id, "zz"))
	assert.False(t, room.IsMember(id, "ab"))
	assert.False(t, room.IsMember(id, "cd-zz"))
}

func TestValidIdentity(t *testing.T) {
	assert.True(t, room.ValidIdentity("7"))
	assert.True(t, room.ValidIdentity("u_100"))
	assert.False(t, room.ValidIdentity(""))
	assert.False(t, room.ValidIdentity("ab-cd"))
	assert.False(t, room.ValidIdentity("-"))
}

func TestIsMember_HoldsForValidIdentities(t *testing.T) {
	ids := []string{"7", "12", "alice", "u_99", "a1b2", "0"}

	for _, a := range ids {
		for _, b := range ids {
			if a == b {
				continue
			}
			id := room.IDFor(a, b)
			assert.True(t, room.IsMember(id, a), "%s in %s", a, id)
			assert.True(t, room.IsMember(id, b), "%s in %s", b, id)
		}
	}
}
