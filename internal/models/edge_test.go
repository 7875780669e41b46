package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, "u1_u2", RoomKey("u2", "u1"))
	assert.Equal(t, RoomKey("a", "b"), RoomKey("b", "a"))
}

func TestRoomKeyDistinguishesSeparatorIDs(t *testing.T) {
	assert.NotEqual(t, RoomKey("a", "b_c"), RoomKey("a_b", "c"))
	assert.NotEqual(t, RoomKey(`a\`, "b"), RoomKey("a", `\b`))
	assert.NotEqual(t, RoomKey(`a\_`, "b"), RoomKey(`a\`, "_b"))
}

func TestNewPairKeySorts(t *testing.T) {
	assert.Equal(t, PairKey{Low: "a_b", High: "c"}, NewPairKey("c", "a_b"))
	assert.NotEqual(t, NewPairKey("a", "b_c"), NewPairKey("a_b", "c"))
}

func TestEdgeStateValid(t *testing.T) {
	assert.True(t, EdgePending.Valid())
	assert.True(t, EdgeApproved.Valid())
	assert.False(t, EdgeState("rejected").Valid())
	assert.False(t, EdgeState("").Valid())
}
