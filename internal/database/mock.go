package database

import (
	"github.com/stretchr/testify/mock"
)

type MockNexusRepository struct {
	mock.Mock
}

func (m *MockNexusRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockNexusRepository) GetCredential(username string) (Credential, error) {
	args := m.Called(username)
	return args.Get(0).(Credential), args.Error(1)
}
func (m *MockNexusRepository) CreateCredential(params CreateCredentialParams) (Credential, error) {
	args := m.Called(params)
	return args.Get(0).(Credential), args.Error(1)
}
func (m *MockNexusRepository) UpdateCredential(username, scheme, secret string) error {
	args := m.Called(username, scheme, secret)
	return args.Error(0)
}
func (m *MockNexusRepository) GetBasecamp(id string) (Basecamp, error) {
	args := m.Called(id)
	return args.Get(0).(Basecamp), args.Error(1)
}
func (m *MockNexusRepository) ListBasecamps() ([]Basecamp, error) {
	args := m.Called()
	return args.Get(0).([]Basecamp), args.Error(1)
}
func (m *MockNexusRepository) CreateBasecamp(params CreateBasecampParams) (Basecamp, error) {
	args := m.Called(params)
	return args.Get(0).(Basecamp), args.Error(1)
}
func (m *MockNexusRepository) SetPairingCode(username, codeHash string) error {
	args := m.Called(username, codeHash)
	return args.Error(0)
}
func (m *MockNexusRepository) GetPairingCode(username string) (PairingCode, error) {
	args := m.Called(username)
	return args.Get(0).(PairingCode), args.Error(1)
}
func (m *MockNexusRepository) GetTrustPair(pairKey string) (TrustPair, error) {
	args := m.Called(pairKey)
	return args.Get(0).(TrustPair), args.Error(1)
}
func (m *MockNexusRepository) SetTrustDirection(pairKey, a, b string, aTrustsB bool) error {
	args := m.Called(pairKey, a, b, aTrustsB)
	return args.Error(0)
}
func (m *MockNexusRepository) CreateRoomMessage(msg RoomMessage) (RoomMessage, error) {
	args := m.Called(msg)
	return args.Get(0).(RoomMessage), args.Error(1)
}
func (m *MockNexusRepository) GetRecentRoomMessages(basecamp string, limit int) ([]RoomMessage, error) {
	args := m.Called(basecamp, limit)
	return args.Get(0).([]RoomMessage), args.Error(1)
}
func (m *MockNexusRepository) CreatePrivateMessage(msg PrivateMessage) (PrivateMessage, error) {
	args := m.Called(msg)
	return args.Get(0).(PrivateMessage), args.Error(1)
}
func (m *MockNexusRepository) GetPrivateHistory(sessionKey string, limit int) ([]PrivateMessage, error) {
	args := m.Called(sessionKey, limit)
	return args.Get(0).([]PrivateMessage), args.Error(1)
}
func (m *MockNexusRepository) MarkPrivateRead(sessionKey, recipient string) error {
	args := m.Called(sessionKey, recipient)
	return args.Error(0)
}
func (m *MockNexusRepository) GetUnreadCounts(recipient string) (map[string]int, error) {
	args := m.Called(recipient)
	return args.Get(0).(map[string]int), args.Error(1)
}
func (m *MockNexusRepository) UpsertOnlineMembership(username, basecamp string) error {
	args := m.Called(username, basecamp)
	return args.Error(0)
}
func (m *MockNexusRepository) DeleteOnlineMembership(username, basecamp string) error {
	args := m.Called(username, basecamp)
	return args.Error(0)
}
func (m *MockNexusRepository) GetOnlineUsers(basecamp string) ([]OnlineUser, error) {
	args := m.Called(basecamp)
	return args.Get(0).([]OnlineUser), args.Error(1)
}
