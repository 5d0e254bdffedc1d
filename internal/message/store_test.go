package message

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/YahSeh/Nexus-terminal/internal/database"
	"github.com/YahSeh/Nexus-terminal/internal/testutil"
)

func TestAppendRoom(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	db.On("CreateRoomMessage", mock.MatchedBy(func(msg database.RoomMessage) bool {
		return msg.Username == "alice" && msg.Basecamp == "alpha" &&
			msg.Message == "hello" && !msg.CreatedAt.IsZero()
	})).Return(database.RoomMessage{
		Id:        7,
		Username:  "alice",
		Basecamp:  "alpha",
		Message:   "hello",
		CreatedAt: Now(),
	}, nil).Once()

	s := NewStore(testutil.TestLogger(t), db)
	msg, err := s.AppendRoom("alice", "alpha", "  hello  ")
	assert.NoError(t, err, "expected no error appending room message")
	assert.Equal(t, 7, msg.Id)
	assert.Equal(t, "hello", msg.Message, "expected message to be trimmed")
}

func TestAppendRoom_EmptyMessage(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	s := NewStore(testutil.TestLogger(t), db)

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := s.AppendRoom("alice", "alpha", text)
		assert.ErrorIs(t, err, ErrEmptyMessage, "expected empty-after-trim message to be rejected")
	}

	db.AssertNotCalled(t, "CreateRoomMessage", mock.Anything)
}

func TestRecentRoom(t *testing.T) {
	now := time.Now().UTC()
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	db.On("GetRecentRoomMessages", "alpha", 50).Return([]database.RoomMessage{
		{Id: 1, Username: "alice", Basecamp: "alpha", Message: "first", CreatedAt: now},
		{Id: 2, Username: "bob", Basecamp: "alpha", Message: "second", CreatedAt: now},
	}, nil).Once()

	s := NewStore(testutil.TestLogger(t), db)
	msgs, err := s.RecentRoom("alpha", 50)
	assert.NoError(t, err, "expected no error fetching recent messages")
	assert.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Message, "expected oldest message first")
	assert.Equal(t, "second", msgs[1].Message)
}

func TestAppendPrivate(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	db.On("CreatePrivateMessage", mock.MatchedBy(func(msg database.PrivateMessage) bool {
		return msg.SessionKey == "alice||zoe" && msg.Sender == "zoe" && msg.Recipient == "alice"
	})).Return(database.PrivateMessage{
		Id:         3,
		SessionKey: "alice||zoe",
		Sender:     "zoe",
		Recipient:  "alice",
		Message:    "psst",
		CreatedAt:  Now(),
	}, nil).Once()

	s := NewStore(testutil.TestLogger(t), db)
	msg, err := s.AppendPrivate("zoe", "alice", "psst")
	assert.NoError(t, err, "expected no error appending private message")
	assert.Equal(t, "zoe", msg.From)
	assert.Equal(t, "alice", msg.To)
	assert.False(t, msg.Read, "expected new message to be unread")
}

func TestAppendPrivate_EmptyMessage(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	s := NewStore(testutil.TestLogger(t), db)
	_, err := s.AppendPrivate("zoe", "alice", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage, "expected empty private message to be rejected")
	db.AssertNotCalled(t, "CreatePrivateMessage", mock.Anything)
}

func TestHistory_SessionKeyIsOrderIndependent(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	db.On("GetPrivateHistory", "alice||zoe", 200).Return([]database.PrivateMessage{
		{Id: 1, SessionKey: "alice||zoe", Sender: "zoe", Recipient: "alice", Message: "hi"},
	}, nil).Twice()

	s := NewStore(testutil.TestLogger(t), db)

	fromZoe, err := s.History("zoe", "alice", 200)
	assert.NoError(t, err)
	fromAlice, err := s.History("alice", "zoe", 200)
	assert.NoError(t, err)
	assert.Equal(t, fromZoe, fromAlice, "expected the same history regardless of argument order")
}

func TestMarkRead(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	db.On("MarkPrivateRead", "alice||zoe", "alice").Return(nil).Once()

	s := NewStore(testutil.TestLogger(t), db)
	assert.NoError(t, s.MarkRead("alice", "zoe"), "expected no error marking read")
}

func TestUnreadCounts(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	expected := map[string]int{"zoe": 2, "bob": 1}
	db.On("GetUnreadCounts", "alice").Return(expected, nil).Once()

	s := NewStore(testutil.TestLogger(t), db)
	counts, err := s.UnreadCounts("alice")
	assert.NoError(t, err)
	assert.Equal(t, expected, counts)
}

func TestUnreadCounts_Error(t *testing.T) {
	db := &database.MockNexusRepository{}
	defer db.AssertExpectations(t)

	db.On("GetUnreadCounts", "alice").Return(map[string]int(nil), errors.New("db error")).Once()

	s := NewStore(testutil.TestLogger(t), db)
	_, err := s.UnreadCounts("alice")
	assert.Error(t, err, "expected db error to propagate")
}
