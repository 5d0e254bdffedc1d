package database

import (
	"time"
)

func (db *PgNexusRepository) GetCredential(username string) (Credential, error) {
	row := db.conn.QueryRow(
		"SELECT username, scheme, secret, created_at, updated_at FROM credentials "+
			"WHERE username = $1 LIMIT 1",
		username,
	)

	var cred Credential
	err := row.Scan(
		&cred.Username,
		&cred.Scheme,
		&cred.Secret,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)

	return cred, err
}

func (db *PgNexusRepository) CreateCredential(params CreateCredentialParams) (Credential, error) {
	res := db.conn.QueryRow(
		"INSERT INTO credentials (username, scheme, secret, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) RETURNING username, scheme, secret",
		params.Username,
		params.Scheme,
		params.Secret,
		time.Now().UTC(),
	)

	var cred Credential
	err := res.Scan(
		&cred.Username,
		&cred.Scheme,
		&cred.Secret,
	)

	return cred, err
}

// UpdateCredential rewrites a credential's scheme and secret in place. The
// previous material is overwritten, not retained.
func (db *PgNexusRepository) UpdateCredential(username, scheme, secret string) error {
	_, err := db.conn.Exec(
		"UPDATE credentials SET scheme = $2, secret = $3, updated_at = $4 WHERE username = $1",
		username,
		scheme,
		secret,
		time.Now().UTC(),
	)

	return err
}

func (db *PgNexusRepository) GetBasecamp(id string) (Basecamp, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, secret_hash, COALESCE(legacy_code, ''), created_at FROM basecamps "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var bc Basecamp
	err := row.Scan(
		&bc.Id,
		&bc.Name,
		&bc.SecretHash,
		&bc.LegacyCode,
		&bc.CreatedAt,
	)

	return bc, err
}

func (db *PgNexusRepository) ListBasecamps() ([]Basecamp, error) {
	rows, err := db.conn.Query(
		"SELECT id, name, secret_hash, COALESCE(legacy_code, ''), created_at FROM basecamps ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var basecamps []Basecamp
	for rows.Next() {
		var bc Basecamp
		if err = rows.Scan(&bc.Id, &bc.Name, &bc.SecretHash, &bc.LegacyCode, &bc.CreatedAt); err != nil {
			break
		}

		basecamps = append(basecamps, bc)
	}

	return basecamps, err
}

func (db *PgNexusRepository) CreateBasecamp(params CreateBasecampParams) (Basecamp, error) {
	res := db.conn.QueryRow(
		"INSERT INTO basecamps (id, name, secret_hash, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, name, secret_hash, created_at",
		params.Id,
		params.Name,
		params.SecretHash,
		time.Now().UTC(),
	)

	var bc Basecamp
	err := res.Scan(
		&bc.Id,
		&bc.Name,
		&bc.SecretHash,
		&bc.CreatedAt,
	)

	return bc, err
}

func (db *PgNexusRepository) SetPairingCode(username, codeHash string) error {
	_, err := db.conn.Exec(
		"INSERT INTO pairing_codes (username, code_hash, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (username) DO UPDATE SET code_hash = EXCLUDED.code_hash",
		username,
		codeHash,
		time.Now().UTC(),
	)

	return err
}

func (db *PgNexusRepository) GetPairingCode(username string) (PairingCode, error) {
	row := db.conn.QueryRow(
		"SELECT username, code_hash, created_at FROM pairing_codes WHERE username = $1 LIMIT 1",
		username,
	)

	var pc PairingCode
	err := row.Scan(
		&pc.Username,
		&pc.CodeHash,
		&pc.CreatedAt,
	)

	return pc, err
}

func (db *PgNexusRepository) GetTrustPair(pairKey string) (TrustPair, error) {
	row := db.conn.QueryRow(
		"SELECT pair_key, a, b, a_trusts_b, b_trusts_a, created_at FROM trust_pairs "+
			"WHERE pair_key = $1 LIMIT 1",
		pairKey,
	)

	var tp TrustPair
	err := row.Scan(
		&tp.PairKey,
		&tp.A,
		&tp.B,
		&tp.ATrustsB,
		&tp.BTrustsA,
		&tp.CreatedAt,
	)

	return tp, err
}

// SetTrustDirection records one directional trust fact in a single atomic
// statement. The ORs keep a concurrent submit for the opposite direction
// from clearing a flag that is already set.
func (db *PgNexusRepository) SetTrustDirection(pairKey, a, b string, aTrustsB bool) error {
	_, err := db.conn.Exec(
		"INSERT INTO trust_pairs (pair_key, a, b, a_trusts_b, b_trusts_a, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) "+
			"ON CONFLICT (pair_key) DO UPDATE SET "+
			"a_trusts_b = trust_pairs.a_trusts_b OR EXCLUDED.a_trusts_b, "+
			"b_trusts_a = trust_pairs.b_trusts_a OR EXCLUDED.b_trusts_a",
		pairKey,
		a,
		b,
		aTrustsB,
		!aTrustsB,
		time.Now().UTC(),
	)

	return err
}

func (db *PgNexusRepository) CreateRoomMessage(msg RoomMessage) (RoomMessage, error) {
	res := db.conn.QueryRow(
		"INSERT INTO room_messages (username, basecamp, message, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, username, basecamp, message, created_at",
		msg.Username,
		msg.Basecamp,
		msg.Message,
		msg.CreatedAt,
	)

	var saved RoomMessage
	err := res.Scan(
		&saved.Id,
		&saved.Username,
		&saved.Basecamp,
		&saved.Message,
		&saved.CreatedAt,
	)

	return saved, err
}

// GetRecentRoomMessages returns up to limit messages for a basecamp,
// oldest first. Insertion order breaks timestamp ties.
func (db *PgNexusRepository) GetRecentRoomMessages(basecamp string, limit int) ([]RoomMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.Query(
		"SELECT id, username, basecamp, message, created_at FROM room_messages "+
			"WHERE basecamp = $1 ORDER BY id DESC LIMIT $2",
		basecamp,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]RoomMessage, 0, limit)
	for rows.Next() {
		var msg RoomMessage
		if err = rows.Scan(&msg.Id, &msg.Username, &msg.Basecamp, &msg.Message, &msg.CreatedAt); err != nil {
			return nil, err
		}

		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// query is newest-first for the LIMIT, flip to oldest-first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (db *PgNexusRepository) CreatePrivateMessage(msg PrivateMessage) (PrivateMessage, error) {
	res := db.conn.QueryRow(
		"INSERT INTO private_messages (session_key, sender, recipient, message, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) "+
			"RETURNING id, session_key, sender, recipient, message, created_at, read_by_recipient",
		msg.SessionKey,
		msg.Sender,
		msg.Recipient,
		msg.Message,
		msg.CreatedAt,
	)

	var saved PrivateMessage
	err := res.Scan(
		&saved.Id,
		&saved.SessionKey,
		&saved.Sender,
		&saved.Recipient,
		&saved.Message,
		&saved.CreatedAt,
		&saved.Read,
	)

	return saved, err
}

func (db *PgNexusRepository) GetPrivateHistory(sessionKey string, limit int) ([]PrivateMessage, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := db.conn.Query(
		"SELECT id, session_key, sender, recipient, message, created_at, read_by_recipient "+
			"FROM private_messages WHERE session_key = $1 ORDER BY id DESC LIMIT $2",
		sessionKey,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]PrivateMessage, 0, limit)
	for rows.Next() {
		var msg PrivateMessage
		err = rows.Scan(
			&msg.Id,
			&msg.SessionKey,
			&msg.Sender,
			&msg.Recipient,
			&msg.Message,
			&msg.CreatedAt,
			&msg.Read,
		)
		if err != nil {
			return nil, err
		}

		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (db *PgNexusRepository) MarkPrivateRead(sessionKey, recipient string) error {
	_, err := db.conn.Exec(
		"UPDATE private_messages SET read_by_recipient = TRUE "+
			"WHERE session_key = $1 AND recipient = $2 AND read_by_recipient = FALSE",
		sessionKey,
		recipient,
	)

	return err
}

func (db *PgNexusRepository) GetUnreadCounts(recipient string) (map[string]int, error) {
	rows, err := db.conn.Query(
		"SELECT sender, COUNT(*) FROM private_messages "+
			"WHERE recipient = $1 AND read_by_recipient = FALSE GROUP BY sender",
		recipient,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var partner string
		var count int
		if err = rows.Scan(&partner, &count); err != nil {
			return nil, err
		}

		counts[partner] = count
	}

	return counts, rows.Err()
}

func (db *PgNexusRepository) UpsertOnlineMembership(username, basecamp string) error {
	_, err := db.conn.Exec(
		"INSERT INTO online_membership (username, basecamp, connected_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (username, basecamp) DO UPDATE SET connected_at = EXCLUDED.connected_at",
		username,
		basecamp,
		time.Now().UTC(),
	)

	return err
}

func (db *PgNexusRepository) DeleteOnlineMembership(username, basecamp string) error {
	_, err := db.conn.Exec(
		"DELETE FROM online_membership WHERE username = $1 AND basecamp = $2",
		username,
		basecamp,
	)

	return err
}

func (db *PgNexusRepository) GetOnlineUsers(basecamp string) ([]OnlineUser, error) {
	rows, err := db.conn.Query(
		"SELECT username, basecamp, connected_at FROM online_membership "+
			"WHERE basecamp = $1 ORDER BY connected_at ASC",
		basecamp,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users = make([]OnlineUser, 0)
	for rows.Next() {
		var u OnlineUser
		if err = rows.Scan(&u.Username, &u.Basecamp, &u.ConnectedAt); err != nil {
			return nil, err
		}

		users = append(users, u)
	}

	return users, rows.Err()
}

// ClearStaleMemberships removes membership rows older than the cutoff.
// Presence is process-local; rows left behind by a crash are reaped here
// on startup rather than trusted.
func (db *PgNexusRepository) ClearStaleMemberships(cutoff time.Time) error {
	_, err := db.conn.Exec(
		"DELETE FROM online_membership WHERE connected_at < $1",
		cutoff,
	)

	return err
}
