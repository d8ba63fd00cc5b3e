package models

import "time"

// RequestStatus is the stored lifecycle state of a connection request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is one of the closed set of statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the status can no longer change.
func (s RequestStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// ConnectionRequest is a directional request to converse. Created by the
// sender, resolved exactly once by the recipient.
type ConnectionRequest struct {
	ID        string        `db:"id" json:"id"`
	PairKey   string        `db:"pair_key" json:"-"`
	FromID    string        `db:"from_id" json:"from_id"`
	ToID      string        `db:"to_id" json:"to_id"`
	Status    RequestStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// Direction is how a request reads from one endpoint's point of view.
// It is derived from the viewer id, never stored.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// DirectionFor projects the request onto the viewer: the sender sees it as
// sent, the recipient as received.
func (r ConnectionRequest) DirectionFor(viewerID string) Direction {
	if r.FromID == viewerID {
		return DirectionSent
	}
	return DirectionReceived
}

// RequestView is the API shape of a request as seen by one viewer.
type RequestView struct {
	ConnectionRequest
	Direction Direction `json:"direction"`
}

// ViewsFor projects a result set onto a viewer.
func ViewsFor(viewerID string, requests []ConnectionRequest) []RequestView {
	views := make([]RequestView, 0, len(requests))
	for _, r := range requests {
		views = append(views, RequestView{ConnectionRequest: r, Direction: r.DirectionFor(viewerID)})
	}
	return views
}
