package types

import (
	"time"
)

type User struct {
	Username  string    `json:"username"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type Basecamp struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// TrustStatus reports the directional trust facts between the querying
// user and a partner, as seen from the querying user's side.
type TrustStatus struct {
	MeTrustsPartner bool `json:"me_trusts_partner"`
	PartnerTrustsMe bool `json:"partner_trusts_me"`
	Mutual          bool `json:"mutual"`
}

type RoomMessage struct {
	Id        int       `json:"id,omitempty"`
	Username  string    `json:"username"`
	Basecamp  string    `json:"basecamp,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type PrivateMessage struct {
	Id        int       `json:"id,omitempty"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read,omitempty"`
}

type OnlineUser struct {
	Username    string    `json:"username"`
	ConnectedAt time.Time `json:"connected_at"`
}
