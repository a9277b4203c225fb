package models

import "time"

// Friendship statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusBlocked  = "blocked"
)

// Friendship is a directed edge from requester to addressee.
type Friendship struct {
	RequesterID int64     `json:"requester_id"`
	AddresseeID int64     `json:"addressee_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FriendEntry is one row of the friends listing.
type FriendEntry struct {
	UserID   int64   `json:"user_id"`
	Username string  `json:"username"`
	Wallet   *string `json:"wallet_address,omitempty"`
}

// FriendsResponse groups the three relationship buckets.
type FriendsResponse struct {
	Friends  []FriendEntry `json:"friends"`
	Incoming []FriendEntry `json:"incoming"`
	Outgoing []FriendEntry `json:"outgoing"`
}

type FriendRequestBody struct {
	UserID int64 `json:"user_id" binding:"required"`
}
