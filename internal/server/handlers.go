package server

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/YahSeh/Nexus-terminal/internal/message"
	"github.com/YahSeh/Nexus-terminal/internal/stats"
	"github.com/YahSeh/Nexus-terminal/internal/types"
)

// handleEvent dispatches one client event. It runs on the connection's
// read goroutine; anything sent to other connections goes through the
// non-blocking queue so a slow peer cannot stall this handler. The
// inactivity check is lazy: a session idle past the timeout is rejected
// and disconnected by its next event.
func (cs *ChatServer) handleEvent(c *Client, ev *ClientEvent) {
	if !cs.sessions.CheckActivity(c.user.Username) {
		c.queueEvent(ErrSessionExpired())
		cs.Deregister(c, "has disconnected due to inactivity")
		c.stopClient()
		return
	}
	cs.sessions.Touch(c.user.Username)

	switch ev.Event {
	case EvLeaveRoom:
		cs.Deregister(c, "has left the basecamp")
	case EvSendRoomMessage:
		var data SendRoomMessageData
		if !decode(c, ev.Data, &data) {
			return
		}
		cs.handleRoomMessage(c, data)
	case EvSendPrivateMessage:
		var data SendPrivateMessageData
		if !decode(c, ev.Data, &data) {
			return
		}
		cs.handlePrivateMessage(c, data)
	case EvFetchPrivateHistory:
		var data PartnerData
		if !decode(c, ev.Data, &data) {
			return
		}
		cs.handlePrivateHistory(c, data)
	case EvMarkPrivateRead:
		var data PartnerData
		if !decode(c, ev.Data, &data) {
			return
		}
		cs.handleMarkPrivateRead(c, data)
	case EvGetUnreadCounts:
		cs.handleUnreadCounts(c)
	case EvGetOnlineUsers:
		cs.handleOnlineUsers(c)
	case EvRequestTrustStatus:
		var data PartnerData
		if !decode(c, ev.Data, &data) {
			return
		}
		cs.handleTrustStatus(c, data)
	case EvSubmitPartnerCode:
		var data SubmitPartnerCodeData
		if !decode(c, ev.Data, &data) {
			return
		}
		cs.handleSubmitPartnerCode(c, data)
	default:
		cs.log.Printf("unknown event %q from %q", ev.Event, c.user.Username)
		c.queueEvent(ErrInvalidEvent())
	}
}

func decode(c *Client, raw json.RawMessage, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		c.log.Println("error parsing event data:", err)
		c.queueEvent(ErrInvalidEvent())
		return false
	}

	return true
}

// handleRoomMessage persists a room message and broadcasts it to the
// whole room, sender included, so every device renders the same order.
func (cs *ChatServer) handleRoomMessage(c *Client, data SendRoomMessageData) {
	if c.left {
		return
	}

	msg, err := cs.messages.AppendRoom(c.user.Username, c.camp.Id, data.Message)
	if err != nil {
		if errors.Is(err, message.ErrEmptyMessage) {
			return
		}
		cs.log.Println("append room message:", err)
		c.queueEvent(ErrSendFailed())
		return
	}

	cs.stats.Incr(stats.NumRoomMessages)
	cs.broadcastToRoom(c.camp.Id, NewRoomMessage(msg))
}

// handlePrivateMessage is the trust gate for private sends: without
// current mutual trust nothing is persisted or delivered and only the
// sender hears about it.
func (cs *ChatServer) handlePrivateMessage(c *Client, data SendPrivateMessageData) {
	recipient := strings.TrimSpace(data.To)
	if recipient == "" {
		return
	}

	status, err := cs.trust.Status(c.user.Username, recipient)
	if err != nil {
		cs.log.Println("trust status:", err)
		c.queueEvent(ErrSendFailed())
		return
	}

	if !status.Mutual {
		c.queueEvent(NewTrustRequired(recipient, status))
		return
	}

	msg, err := cs.messages.AppendPrivate(c.user.Username, recipient, data.Message)
	if err != nil {
		if errors.Is(err, message.ErrEmptyMessage) {
			return
		}
		cs.log.Println("append private message:", err)
		c.queueEvent(ErrSendFailed())
		return
	}

	cs.stats.Incr(stats.NumPrivateMessages)

	ev := NewPrivateMessage(msg)
	cs.sendToIdentity(c.user.Username, ev)
	cs.sendToIdentity(recipient, ev)

	counts, err := cs.messages.UnreadCounts(recipient)
	if err != nil {
		cs.log.Println("unread counts:", err)
		return
	}
	cs.sendToIdentity(recipient, NewUnreadCounts(counts))
}

// handlePrivateHistory withholds history unless trust is currently
// mutual, even if messages exist from an earlier mutually-trusted
// period.
func (cs *ChatServer) handlePrivateHistory(c *Client, data PartnerData) {
	partner := strings.TrimSpace(data.With)
	if partner == "" {
		return
	}

	status, err := cs.trust.Status(c.user.Username, partner)
	if err != nil {
		cs.log.Println("trust status:", err)
		c.queueEvent(ErrInternalError())
		return
	}

	if !status.Mutual {
		c.queueEvent(NewPrivateHistory(partner, nil, status))
		return
	}

	history, err := cs.messages.History(c.user.Username, partner, 200)
	if err != nil {
		cs.log.Println("private history:", err)
		c.queueEvent(ErrInternalError())
		return
	}

	c.queueEvent(NewPrivateHistory(partner, history, status))
}

func (cs *ChatServer) handleMarkPrivateRead(c *Client, data PartnerData) {
	partner := strings.TrimSpace(data.With)
	if partner == "" {
		return
	}

	if err := cs.messages.MarkRead(c.user.Username, partner); err != nil {
		cs.log.Println("mark private read:", err)
		c.queueEvent(ErrInternalError())
		return
	}

	cs.handleUnreadCounts(c)
}

func (cs *ChatServer) handleUnreadCounts(c *Client) {
	counts, err := cs.messages.UnreadCounts(c.user.Username)
	if err != nil {
		cs.log.Println("unread counts:", err)
		c.queueEvent(ErrInternalError())
		return
	}

	c.queueEvent(NewUnreadCounts(counts))
}

func (cs *ChatServer) handleOnlineUsers(c *Client) {
	users, err := cs.onlineUsers(c.camp.Id)
	if err != nil {
		cs.log.Println("online users:", err)
		c.queueEvent(ErrInternalError())
		return
	}

	c.queueEvent(NewOnlineUsers(users))
}

func (cs *ChatServer) handleTrustStatus(c *Client, data PartnerData) {
	partner := strings.TrimSpace(data.With)
	if partner == "" {
		return
	}

	status, err := cs.trust.Status(c.user.Username, partner)
	if err != nil {
		cs.log.Println("trust status:", err)
		c.queueEvent(ErrInternalError())
		return
	}

	c.queueEvent(NewTrustStatus(partner, status, true, ""))
}

// handleSubmitPartnerCode runs one direction of the trust handshake and
// notifies both sides of the outcome if they are online.
func (cs *ChatServer) handleSubmitPartnerCode(c *Client, data SubmitPartnerCodeData) {
	partner := strings.TrimSpace(data.With)
	code := strings.TrimSpace(data.Code)
	if partner == "" || code == "" {
		return
	}

	res, err := cs.trust.SubmitCode(c.user.Username, partner, code)
	if err != nil {
		cs.log.Println("submit partner code:", err)
		c.queueEvent(ErrInternalError())
		return
	}

	if res.OK {
		cs.stats.Incr(stats.NumTrustHandshakes)
	}

	cs.sendToIdentity(c.user.Username, NewTrustStatus(partner, res.Status, res.OK, res.Err))

	partnerStatus, err := cs.trust.Status(partner, c.user.Username)
	if err != nil {
		cs.log.Println("trust status:", err)
		return
	}
	cs.sendToIdentity(partner, NewTrustStatus(c.user.Username, partnerStatus, true, ""))
}

func (cs *ChatServer) onlineUsers(basecamp string) ([]types.OnlineUser, error) {
	dbUsers, err := cs.db.GetOnlineUsers(basecamp)
	if err != nil {
		return nil, err
	}

	users := make([]types.OnlineUser, len(dbUsers))
	for i, u := range dbUsers {
		users[i] = types.OnlineUser{
			Username:    u.Username,
			ConnectedAt: u.ConnectedAt,
		}
	}

	return users, nil
}
