package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/YahSeh/Nexus-terminal/internal/types"
)

// Client → server event names.
const (
	EvLeaveRoom           = "leave_room"
	EvSendRoomMessage     = "send_room_message"
	EvSendPrivateMessage  = "send_private_message"
	EvFetchPrivateHistory = "fetch_private_history"
	EvMarkPrivateRead     = "mark_private_read"
	EvGetUnreadCounts     = "get_unread_counts"
	EvGetOnlineUsers      = "get_online_users"
	EvRequestTrustStatus  = "request_trust_status"
	EvSubmitPartnerCode   = "submit_partner_code"
)

// Server → client event names.
const (
	EvUserJoined        = "user_joined"
	EvUserLeft          = "user_left"
	EvSystemMessage     = "system_message"
	EvNewMessage        = "new_message"
	EvPrivateMessage    = "private_message"
	EvPrivateHistory    = "private_history"
	EvTrustStatus       = "trust_status"
	EvTrustRequired     = "trust_required"
	EvOnlineUsersUpdate = "online_users_update"
	EvUnreadCounts      = "unread_counts"
	EvError             = "error"
)

type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type SendRoomMessageData struct {
	Message string `json:"message"`
}

type SendPrivateMessageData struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type PartnerData struct {
	With string `json:"with"`
}

type SubmitPartnerCodeData struct {
	With string `json:"with"`
	Code string `json:"code"`
}

type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type PresencePayload struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type SystemMessagePayload struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type RoomMessagePayload struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type PrivateMessagePayload struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type PrivateHistoryPayload struct {
	With     string                  `json:"with"`
	Messages []PrivateMessagePayload `json:"messages"`
	Trust    types.TrustStatus       `json:"trust"`
}

type TrustStatusPayload struct {
	With string `json:"with"`
	types.TrustStatus
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type TrustRequiredPayload struct {
	With string `json:"with"`
	types.TrustStatus
	Message string `json:"message"`
}

type OnlineUsersPayload struct {
	Users []types.OnlineUser `json:"users"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Timestamps in event payloads are wall-clock formatted for direct
// terminal display.
func formatTimestamp(t time.Time) string {
	return t.Local().Format("15:04:05")
}

func NewUserJoined(username string) *ServerEvent {
	return &ServerEvent{
		Event: EvUserJoined,
		Data: PresencePayload{
			Username:  username,
			Message:   fmt.Sprintf("%s has connected to the network", username),
			Timestamp: formatTimestamp(time.Now()),
		},
	}
}

func NewUserLeft(username, reason string) *ServerEvent {
	return &ServerEvent{
		Event: EvUserLeft,
		Data: PresencePayload{
			Username:  username,
			Message:   fmt.Sprintf("%s %s", username, reason),
			Timestamp: formatTimestamp(time.Now()),
		},
	}
}

func NewSystemMessage(text string) *ServerEvent {
	return &ServerEvent{
		Event: EvSystemMessage,
		Data: SystemMessagePayload{
			Message:   text,
			Timestamp: formatTimestamp(time.Now()),
		},
	}
}

func NewRoomMessage(msg types.RoomMessage) *ServerEvent {
	return &ServerEvent{
		Event: EvNewMessage,
		Data: RoomMessagePayload{
			Username:  msg.Username,
			Message:   msg.Message,
			Timestamp: formatTimestamp(msg.Timestamp),
		},
	}
}

func NewPrivateMessage(msg types.PrivateMessage) *ServerEvent {
	return &ServerEvent{
		Event: EvPrivateMessage,
		Data: PrivateMessagePayload{
			From:      msg.From,
			To:        msg.To,
			Message:   msg.Message,
			Timestamp: formatTimestamp(msg.Timestamp),
		},
	}
}

func NewPrivateHistory(with string, msgs []types.PrivateMessage, status types.TrustStatus) *ServerEvent {
	payload := PrivateHistoryPayload{
		With:     with,
		Messages: make([]PrivateMessagePayload, len(msgs)),
		Trust:    status,
	}
	for i, msg := range msgs {
		payload.Messages[i] = PrivateMessagePayload{
			From:      msg.From,
			To:        msg.To,
			Message:   msg.Message,
			Timestamp: formatTimestamp(msg.Timestamp),
		}
	}

	return &ServerEvent{Event: EvPrivateHistory, Data: payload}
}

func NewTrustStatus(with string, status types.TrustStatus, ok bool, errTag string) *ServerEvent {
	return &ServerEvent{
		Event: EvTrustStatus,
		Data: TrustStatusPayload{
			With:        with,
			TrustStatus: status,
			OK:          ok,
			Error:       errTag,
		},
	}
}

func NewTrustRequired(with string, status types.TrustStatus) *ServerEvent {
	return &ServerEvent{
		Event: EvTrustRequired,
		Data: TrustRequiredPayload{
			With:        with,
			TrustStatus: status,
			Message:     fmt.Sprintf("mutual trust with %s is required before private messaging", with),
		},
	}
}

func NewOnlineUsers(users []types.OnlineUser) *ServerEvent {
	return &ServerEvent{
		Event: EvOnlineUsersUpdate,
		Data:  OnlineUsersPayload{Users: users},
	}
}

func NewUnreadCounts(counts map[string]int) *ServerEvent {
	if counts == nil {
		counts = map[string]int{}
	}
	return &ServerEvent{Event: EvUnreadCounts, Data: counts}
}

func ErrInvalidEvent() *ServerEvent {
	return newError("invalid_event", "invalid event format")
}

func ErrSendFailed() *ServerEvent {
	return newError("send_failed", "message could not be delivered")
}

func ErrInternalError() *ServerEvent {
	return newError("internal_error", "internal server error")
}

func ErrSessionExpired() *ServerEvent {
	return newError("session_expired", "session has expired due to inactivity")
}

func newError(code, text string) *ServerEvent {
	return &ServerEvent{
		Event: EvError,
		Data: ErrorPayload{
			Code:      code,
			Message:   text,
			Timestamp: formatTimestamp(time.Now()),
		},
	}
}
