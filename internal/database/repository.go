package database

type NexusRepository interface {
	Ping() error
	GetCredential(username string) (Credential, error)
	CreateCredential(params CreateCredentialParams) (Credential, error)
	UpdateCredential(username, scheme, secret string) error
	GetBasecamp(id string) (Basecamp, error)
	ListBasecamps() ([]Basecamp, error)
	CreateBasecamp(params CreateBasecampParams) (Basecamp, error)
	SetPairingCode(username, codeHash string) error
	GetPairingCode(username string) (PairingCode, error)
	GetTrustPair(pairKey string) (TrustPair, error)
	SetTrustDirection(pairKey, a, b string, aTrustsB bool) error
	CreateRoomMessage(msg RoomMessage) (RoomMessage, error)
	GetRecentRoomMessages(basecamp string, limit int) ([]RoomMessage, error)
	CreatePrivateMessage(msg PrivateMessage) (PrivateMessage, error)
	GetPrivateHistory(sessionKey string, limit int) ([]PrivateMessage, error)
	MarkPrivateRead(sessionKey, recipient string) error
	GetUnreadCounts(recipient string) (map[string]int, error)
	UpsertOnlineMembership(username, basecamp string) error
	DeleteOnlineMembership(username, basecamp string) error
	GetOnlineUsers(basecamp string) ([]OnlineUser, error)
}
