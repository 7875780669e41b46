package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EdgeState is the lifecycle state of a directed follow edge.
// An absent edge has no row at all; rejection is modelled as removal.
type EdgeState string

const (
	EdgePending  EdgeState = "pending"
	EdgeApproved EdgeState = "approved"
)

// Valid reports whether s is a known state.
func (s EdgeState) Valid() bool {
	switch s {
	case EdgePending, EdgeApproved:
		return true
	}
	return false
}

// Edge is one entry of a user's following or followers list. PeerID is the
// target for following entries and the source for followers entries.
type Edge struct {
	OwnerID   string    `db:"user_id" json:"-"`
	PeerID    string    `db:"peer_id" json:"user"`
	State     EdgeState `db:"state" json:"state"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Approved mirrors the boolean flag clients already understand.
func (e Edge) Approved() bool {
	return e.State == EdgeApproved
}

// MarshalJSON keeps the {user, approved} shape alongside the explicit state.
func (e Edge) MarshalJSON() ([]byte, error) {
	type view struct {
		User      string    `json:"user"`
		Approved  bool      `json:"approved"`
		State     EdgeState `json:"state"`
		CreatedAt time.Time `json:"createdAt"`
	}
	return json.Marshal(view{User: e.PeerID, Approved: e.Approved(), State: e.State, CreatedAt: e.CreatedAt})
}

// UserEdges is the edge-bearing snapshot of a user returned by follow operations.
type UserEdges struct {
	ID        string `json:"_id"`
	Following []Edge `json:"following"`
	Followers []Edge `json:"followers"`
}

// FindFollowing returns the following entry towards peerID.
func (u UserEdges) FindFollowing(peerID string) (Edge, bool) {
	return findEdge(u.Following, peerID)
}

// FindFollower returns the followers entry from peerID.
func (u UserEdges) FindFollower(peerID string) (Edge, bool) {
	return findEdge(u.Followers, peerID)
}

func findEdge(edges []Edge, peerID string) (Edge, bool) {
	for _, e := range edges {
		if e.PeerID == peerID {
			return e, true
		}
	}
	return Edge{}, false
}

var roomKeyEscaper = strings.NewReplacer(`\`, `\\`, "_", `\_`)

// RoomKey is the broadcast scope shared by two users: their ids sorted and
// joined with "_". Backslashes and underscores inside an id are escaped so
// distinct pairs never share a room.
func RoomKey(a, b string) string {
	low, high := SortedPair(a, b)
	return roomKeyEscaper.Replace(low) + "_" + roomKeyEscaper.Replace(high)
}

// PairKey identifies an unordered user pair as a comparable map key.
type PairKey struct {
	Low, High string
}

// NewPairKey orders a and b into a PairKey.
func NewPairKey(a, b string) PairKey {
	low, high := SortedPair(a, b)
	return PairKey{Low: low, High: high}
}

// SortedPair orders two ids the way chats store their participants.
func SortedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
