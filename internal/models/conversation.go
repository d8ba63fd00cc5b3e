package models

import "time"

// Conversation is the two-party chat record. Its id is the pair-key of the
// participants, so it exists at most once per unordered pair.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	User1ID   string    `db:"user1_id" json:"user1_id"`
	User2ID   string    `db:"user2_id" json:"user2_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PairKey returns the canonical conversation id for two user ids: the
// lexicographically smaller id first, joined with "_". Both argument orders
// yield the same key, so conversations are pair-identified rather than
// sender/receiver-identified. The format is shared with stored data and must
// not change.
func PairKey(a, b string) string {
	if a < b {
		return a + "_" + b
	}
	return b + "_" + a
}

// PairParticipants returns the two ids in pair-key order.
func PairParticipants(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}
