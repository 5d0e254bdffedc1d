package message

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/YahSeh/Nexus-terminal/internal/database"
	"github.com/YahSeh/Nexus-terminal/internal/trust"
	"github.com/YahSeh/Nexus-terminal/internal/types"
)

var ErrEmptyMessage = errors.New("message is empty")

// Store persists room and private messages. It is trust-agnostic: the
// chat service gates private sends on mutual trust before calling in
// here, which keeps this layer independently testable.
type Store struct {
	log *log.Logger
	db  database.NexusRepository
}

func NewStore(logger *log.Logger, db database.NexusRepository) *Store {
	return &Store{
		log: logger,
		db:  db,
	}
}

// AppendRoom persists a room-broadcast message with a server timestamp.
// Empty-after-trim text is rejected.
func (s *Store) AppendRoom(sender, basecamp, text string) (types.RoomMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.RoomMessage{}, ErrEmptyMessage
	}

	saved, err := s.db.CreateRoomMessage(database.RoomMessage{
		Username:  sender,
		Basecamp:  basecamp,
		Message:   text,
		CreatedAt: Now(),
	})
	if err != nil {
		return types.RoomMessage{}, err
	}

	return types.RoomMessage{
		Id:        saved.Id,
		Username:  saved.Username,
		Basecamp:  saved.Basecamp,
		Message:   saved.Message,
		Timestamp: saved.CreatedAt,
	}, nil
}

// RecentRoom returns up to limit messages for a basecamp, oldest first.
func (s *Store) RecentRoom(basecamp string, limit int) ([]types.RoomMessage, error) {
	dbMsgs, err := s.db.GetRecentRoomMessages(basecamp, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]types.RoomMessage, len(dbMsgs))
	for i, msg := range dbMsgs {
		messages[i] = types.RoomMessage{
			Id:        msg.Id,
			Username:  msg.Username,
			Basecamp:  msg.Basecamp,
			Message:   msg.Message,
			Timestamp: msg.CreatedAt,
		}
	}

	return messages, nil
}

// AppendPrivate persists a private message under the pair's session key.
// The caller must already have confirmed mutual trust.
func (s *Store) AppendPrivate(sender, recipient, text string) (types.PrivateMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.PrivateMessage{}, ErrEmptyMessage
	}

	_, _, key := trust.PairKey(sender, recipient)
	saved, err := s.db.CreatePrivateMessage(database.PrivateMessage{
		SessionKey: key,
		Sender:     sender,
		Recipient:  recipient,
		Message:    text,
		CreatedAt:  Now(),
	})
	if err != nil {
		return types.PrivateMessage{}, err
	}

	return types.PrivateMessage{
		Id:        saved.Id,
		From:      saved.Sender,
		To:        saved.Recipient,
		Message:   saved.Message,
		Timestamp: saved.CreatedAt,
		Read:      saved.Read,
	}, nil
}

// History returns the pair's private messages oldest first, irrespective
// of current trust state. Read-path trust gating happens above.
func (s *Store) History(userA, userB string, limit int) ([]types.PrivateMessage, error) {
	_, _, key := trust.PairKey(userA, userB)

	dbMsgs, err := s.db.GetPrivateHistory(key, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]types.PrivateMessage, len(dbMsgs))
	for i, msg := range dbMsgs {
		messages[i] = types.PrivateMessage{
			Id:        msg.Id,
			From:      msg.Sender,
			To:        msg.Recipient,
			Message:   msg.Message,
			Timestamp: msg.CreatedAt,
			Read:      msg.Read,
		}
	}

	return messages, nil
}

// MarkRead flips the read flag on all unread messages addressed to
// reader from partner. Idempotent.
func (s *Store) MarkRead(reader, partner string) error {
	_, _, key := trust.PairKey(reader, partner)
	return s.db.MarkPrivateRead(key, reader)
}

// UnreadCounts maps partner → count of unread messages addressed to
// user. Partners with nothing unread are omitted.
func (s *Store) UnreadCounts(user string) (map[string]int, error) {
	return s.db.GetUnreadCounts(user)
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
