package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/YahSeh/Nexus-terminal/internal/database"
	"github.com/YahSeh/Nexus-terminal/internal/message"
	"github.com/YahSeh/Nexus-terminal/internal/session"
	"github.com/YahSeh/Nexus-terminal/internal/stats"
	"github.com/YahSeh/Nexus-terminal/internal/testutil"
	"github.com/YahSeh/Nexus-terminal/internal/trust"
	"github.com/YahSeh/Nexus-terminal/internal/types"
)

// newTestChatServer creates a ChatServer wired to the given mocks.
func newTestChatServer(t *testing.T, db database.NexusRepository, su *stats.MockStatsUpdater) *ChatServer {
	logger := testutil.TestLogger(t)
	cs, err := NewChatServer(logger, db,
		trust.NewStore(logger, db),
		message.NewStore(logger, db),
		session.NewGuard(session.DefaultTimeout),
		su,
	)
	if err != nil {
		t.Fatalf("failed to create test ChatServer: %v", err)
	}
	return cs
}

// newTestClient builds a client without a live websocket; events queued
// for it are inspected through its send channel.
func newTestClient(cs *ChatServer, id, username, basecamp string) *Client {
	return &Client{
		id:         id,
		chatServer: cs,
		log:        cs.log,
		user:       types.User{Username: username},
		camp:       types.Basecamp{Id: basecamp, Name: "Base " + basecamp},
		send:       make(chan *ServerEvent, 256),
		stop:       make(chan struct{}),
	}
}

// drainEvents collects everything queued for a client so far.
func drainEvents(c *Client) []*ServerEvent {
	var evs []*ServerEvent
	for {
		select {
		case ev := <-c.send:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func eventNames(evs []*ServerEvent) []string {
	names := make([]string, len(evs))
	for i, ev := range evs {
		names[i] = ev.Event
	}
	return names
}

func TestNewChatServer(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, db, su)
	assert.NotNil(t, cs, "expected ChatServer to be non-nil")
	assert.NotNil(t, cs.registry, "expected registry to be initialized")
	assert.NotNil(t, cs.trust, "expected trust store to be set")
	assert.NotNil(t, cs.messages, "expected message store to be set")
}

func TestRegister_FirstConnection(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("Incr", stats.NumConnections).Once()
	su.On("Incr", stats.NumOnlineUsers).Once()

	db.On("UpsertOnlineMembership", "alice", "alpha").Return(nil).Once()
	db.On("GetRecentRoomMessages", "alpha", joinHistoryLimit).Return([]database.RoomMessage{
		{Id: 1, Username: "bob", Basecamp: "alpha", Message: "earlier", CreatedAt: message.Now()},
	}, nil).Once()
	db.On("GetUnreadCounts", "alice").Return(map[string]int{"bob": 2}, nil).Once()

	cs := newTestChatServer(t, db, su)

	bystander := newTestClient(cs, "conn-0", "bob", "alpha")
	cs.registry.Add(bystander)

	c := newTestClient(cs, "conn-1", "alice", "alpha")
	cs.Register(c)

	// the joining connection gets history, the connect banner and its
	// unread snapshot, but not its own join announcement
	names := eventNames(drainEvents(c))
	assert.Equal(t, []string{EvNewMessage, EvSystemMessage, EvUnreadCounts}, names)

	// the rest of the room hears the join
	bystanderNames := eventNames(drainEvents(bystander))
	assert.Equal(t, []string{EvUserJoined}, bystanderNames)
}

func TestRegister_SecondDeviceIsSilent(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("Incr", stats.NumConnections).Once()

	db.On("UpsertOnlineMembership", "alice", "alpha").Return(nil).Once()
	db.On("GetRecentRoomMessages", "alpha", joinHistoryLimit).Return([]database.RoomMessage{}, nil).Once()
	db.On("GetUnreadCounts", "alice").Return(map[string]int{}, nil).Once()

	cs := newTestChatServer(t, db, su)

	laptop := newTestClient(cs, "conn-1", "alice", "alpha")
	cs.registry.Add(laptop)

	phone := newTestClient(cs, "conn-2", "alice", "alpha")
	cs.Register(phone)

	// no join announcement and no online-user increment for a second device
	su.AssertNotCalled(t, "Incr", stats.NumOnlineUsers)
	assert.Empty(t, drainEvents(laptop), "expected no announcement on the first device")
}

func TestDeregister_LastConnection(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("Decr", stats.NumConnections).Once()
	su.On("Decr", stats.NumOnlineUsers).Once()

	db.On("DeleteOnlineMembership", "alice", "alpha").Return(nil).Once()

	cs := newTestChatServer(t, db, su)

	bystander := newTestClient(cs, "conn-0", "bob", "alpha")
	cs.registry.Add(bystander)

	c := newTestClient(cs, "conn-1", "alice", "alpha")
	cs.registry.Add(c)

	cs.Deregister(c, "has left the basecamp")
	assert.True(t, c.left, "expected client to be marked left")

	names := eventNames(drainEvents(bystander))
	assert.Equal(t, []string{EvUserLeft}, names)
}

func TestDeregister_Idempotent(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("Decr", stats.NumConnections).Once()
	su.On("Decr", stats.NumOnlineUsers).Once()

	db.On("DeleteOnlineMembership", "alice", "alpha").Return(nil).Once()

	cs := newTestChatServer(t, db, su)
	c := newTestClient(cs, "conn-1", "alice", "alpha")
	cs.registry.Add(c)

	// an explicit leave followed by the transport-close cleanup must only
	// deregister once
	cs.Deregister(c, "has left the basecamp")
	cs.Deregister(c, "has disconnected from the network")
}

func TestDeregister_OtherDeviceStillOnline(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("Decr", stats.NumConnections).Once()

	cs := newTestChatServer(t, db, su)

	laptop := newTestClient(cs, "conn-1", "alice", "alpha")
	phone := newTestClient(cs, "conn-2", "alice", "alpha")
	cs.registry.Add(laptop)
	cs.registry.Add(phone)

	cs.Deregister(laptop, "has disconnected from the network")

	su.AssertNotCalled(t, "Decr", stats.NumOnlineUsers)
	db.AssertNotCalled(t, "DeleteOnlineMembership", mock.Anything, mock.Anything)
	assert.Empty(t, drainEvents(phone), "expected no user_left while a device remains")
}

func TestCloseIdentity(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, db, su)

	laptop := newTestClient(cs, "conn-1", "alice", "alpha")
	phone := newTestClient(cs, "conn-2", "alice", "alpha")
	other := newTestClient(cs, "conn-3", "bob", "alpha")
	cs.registry.Add(laptop)
	cs.registry.Add(phone)
	cs.registry.Add(other)

	cs.CloseIdentity("alice")

	for _, c := range []*Client{laptop, phone} {
		select {
		case <-c.stop:
		default:
			t.Errorf("expected connection %s to be stopped", c.id)
		}
	}

	select {
	case <-other.stop:
		t.Error("expected bob's connection to stay open")
	default:
	}
}

func TestShutdown(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, db, su)
	c := newTestClient(cs, "conn-1", "alice", "alpha")
	cs.registry.Add(c)

	err := cs.Shutdown(context.Background())
	assert.NoError(t, err, "expected no error shutting down")

	select {
	case <-c.stop:
	default:
		t.Error("expected client to be stopped on shutdown")
	}
}
