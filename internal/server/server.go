package server

import (
	"context"
	"log"

	"github.com/YahSeh/Nexus-terminal/internal/database"
	"github.com/YahSeh/Nexus-terminal/internal/message"
	"github.com/YahSeh/Nexus-terminal/internal/session"
	"github.com/YahSeh/Nexus-terminal/internal/stats"
	"github.com/YahSeh/Nexus-terminal/internal/trust"
)

const joinHistoryLimit = 50

// ChatServer composes the registry, the stores and the session guard
// into the chat protocol. Every incoming event is handled on its
// connection's read goroutine; the stores are the shared state.
type ChatServer struct {
	log      *log.Logger
	db       database.NexusRepository
	trust    *trust.Store
	messages *message.Store
	sessions *session.Guard
	registry *ConnectionRegistry
	stats    stats.StatsProvider
}

func NewChatServer(logger *log.Logger, db database.NexusRepository, trustStore *trust.Store, msgStore *message.Store, guard *session.Guard, su stats.StatsProvider) (*ChatServer, error) {
	return &ChatServer{
		log:      logger,
		db:       db,
		trust:    trustStore,
		messages: msgStore,
		sessions: guard,
		registry: NewConnectionRegistry(),
		stats:    su,
	}, nil
}

// Register adds an authenticated, room-selected connection: announce the
// join to the room (excluding the new connection), then give the joining
// connection its private acknowledgement, recent room history and unread
// snapshot. Presence is per-identity, so a second device joining the
// same room announces nothing.
func (cs *ChatServer) Register(c *Client) {
	firstInRoom := cs.registry.Add(c)
	cs.stats.Incr(stats.NumConnections)
	cs.log.Printf("registered connection %s for %q in %q", c.id, c.user.Username, c.camp.Id)

	if err := cs.db.UpsertOnlineMembership(c.user.Username, c.camp.Id); err != nil {
		cs.log.Println("upsert online membership:", err)
	}

	if firstInRoom {
		cs.stats.Incr(stats.NumOnlineUsers)
		cs.broadcastToRoomExcept(c.camp.Id, c, NewUserJoined(c.user.Username))
	}

	recent, err := cs.messages.RecentRoom(c.camp.Id, joinHistoryLimit)
	if err != nil {
		cs.log.Println("recent room messages:", err)
	}
	for _, msg := range recent {
		c.queueEvent(NewRoomMessage(msg))
	}

	c.queueEvent(NewSystemMessage("Connected to " + c.camp.Name + ". Communication channel open."))

	counts, err := cs.messages.UnreadCounts(c.user.Username)
	if err != nil {
		cs.log.Println("unread counts:", err)
		return
	}
	c.queueEvent(NewUnreadCounts(counts))
}

// Deregister removes a connection on explicit leave or transport close.
// The room is told the identity left only when this was its last
// connection there.
func (cs *ChatServer) Deregister(c *Client, reason string) {
	if c.left {
		return
	}
	c.left = true

	lastInRoom := cs.registry.Remove(c)
	cs.stats.Decr(stats.NumConnections)
	cs.log.Printf("deregistered connection %s for %q", c.id, c.user.Username)

	if lastInRoom {
		if err := cs.db.DeleteOnlineMembership(c.user.Username, c.camp.Id); err != nil {
			cs.log.Println("delete online membership:", err)
		}
		cs.stats.Decr(stats.NumOnlineUsers)
		cs.broadcastToRoomExcept(c.camp.Id, c, NewUserLeft(c.user.Username, reason))
	}
}

// toRoom delivers an event to every connection in a basecamp.
func (cs *ChatServer) broadcastToRoom(basecamp string, ev *ServerEvent) {
	for _, c := range cs.registry.RoomConnections(basecamp) {
		c.queueEvent(ev)
	}
}

// toRoomExcept delivers an event to a basecamp, skipping one connection.
func (cs *ChatServer) broadcastToRoomExcept(basecamp string, skip *Client, ev *ServerEvent) {
	for _, c := range cs.registry.RoomConnections(basecamp) {
		if c == skip {
			continue
		}
		c.queueEvent(ev)
	}
}

// toIdentity fans an event out to every live connection of an identity.
func (cs *ChatServer) sendToIdentity(username string, ev *ServerEvent) {
	for _, c := range cs.registry.UserConnections(username) {
		c.queueEvent(ev)
	}
}

// CloseIdentity tears down every live connection for a username, used
// when the user logs out or their session is invalidated.
func (cs *ChatServer) CloseIdentity(username string) {
	for _, c := range cs.registry.UserConnections(username) {
		c.stopClient()
	}
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Println("closing client connections")
	for _, c := range cs.registry.Connections() {
		c.stopClient()
	}

	return nil
}
