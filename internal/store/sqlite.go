package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	room        TEXT NOT NULL,
	sender_id   TEXT NOT NULL,
	username    TEXT NOT NULL,
	role        TEXT NOT NULL,
	country     TEXT NOT NULL DEFAULT '',
	recipient   TEXT NOT NULL DEFAULT '',
	text        TEXT NOT NULL DEFAULT '',
	image_json  TEXT NOT NULL DEFAULT '',
	quote_json  TEXT NOT NULL DEFAULT '',
	timestamp   TEXT NOT NULL,
	edited      INTEGER NOT NULL DEFAULT 0,
	edit_time   TEXT NOT NULL DEFAULT '',
	edit_by     TEXT NOT NULL DEFAULT '',
	revoked     INTEGER NOT NULL DEFAULT 0,
	revoke_time TEXT NOT NULL DEFAULT '',
	revoked_by  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room);

CREATE TABLE IF NOT EXISTS scores (
	room            TEXT NOT NULL,
	judge_id        TEXT NOT NULL,
	target_id       TEXT NOT NULL,
	id              TEXT NOT NULL,
	role            TEXT NOT NULL,
	dimensions_json TEXT NOT NULL,
	comments        TEXT NOT NULL DEFAULT '',
	timestamp       TEXT NOT NULL,
	PRIMARY KEY (room, judge_id, target_id)
);
`

// SQLiteStore is the durable backend, selected with db_driver "sqlite".
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AddMessage(m *domain.ChatMessage) error {
	imageJSON, quoteJSON, err := encodeMessageBlobs(m)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO messages
		(id, room, sender_id, username, role, country, recipient, text, image_json, quote_json, timestamp, edited, edit_time, edit_by, revoked, revoke_time, revoked_by)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.ID, string(m.Room), string(m.SenderID), m.Username, string(m.Role), m.Country,
		string(m.Recipient), m.Text, imageJSON, quoteJSON, m.Timestamp,
		boolToInt(m.Edited), m.EditTime, m.EditBy, boolToInt(m.Revoked), m.RevokeTime, m.RevokedBy)
	return err
}

func (s *SQLiteStore) UpdateMessage(m *domain.ChatMessage) error {
	imageJSON, quoteJSON, err := encodeMessageBlobs(m)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE messages SET
		text=?, image_json=?, quote_json=?, edited=?, edit_time=?, edit_by=?, revoked=?, revoke_time=?, revoked_by=?
		WHERE id=? AND room=?`,
		m.Text, imageJSON, quoteJSON,
		boolToInt(m.Edited), m.EditTime, m.EditBy, boolToInt(m.Revoked), m.RevokeTime, m.RevokedBy,
		m.ID, string(m.Room))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) FindMessageByID(room domain.RoomID, id string) (*domain.ChatMessage, error) {
	row := s.db.QueryRow(messageSelect+` WHERE id=? AND room=?`, id, string(room))
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

func (s *SQLiteStore) GetMessages(room domain.RoomID, limit, offset int) ([]*domain.ChatMessage, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(messageSelect+` WHERE room=? AND recipient='' ORDER BY rowid LIMIT ? OFFSET ?`,
		string(room), limit, offset)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *SQLiteStore) GetThread(room domain.RoomID, a, b domain.UserID) ([]*domain.ChatMessage, error) {
	rows, err := s.db.Query(messageSelect+` WHERE room=? AND ((sender_id=? AND recipient=?) OR (sender_id=? AND recipient=?)) ORDER BY rowid`,
		string(room), string(a), string(b), string(b), string(a))
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *SQLiteStore) SearchMessages(room domain.RoomID, keyword string) ([]*domain.ChatMessage, error) {
	pattern := "%" + strings.ReplaceAll(keyword, "%", `\%`) + "%"
	rows, err := s.db.Query(messageSelect+` WHERE room=? AND recipient='' AND revoked=0 AND text LIKE ? ESCAPE '\' ORDER BY rowid`,
		string(room), pattern)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *SQLiteStore) UpsertScore(e *domain.ScoreEntry) error {
	dims, err := json.Marshal(e.DimensionScores)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO scores (room, judge_id, target_id, id, role, dimensions_json, comments, timestamp)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(room, judge_id, target_id) DO UPDATE SET
		role=excluded.role, dimensions_json=excluded.dimensions_json, comments=excluded.comments, timestamp=excluded.timestamp`,
		string(e.Room), string(e.JudgeID), string(e.TargetUserID), e.ID, string(e.Role), string(dims), e.Comments, e.Timestamp)
	return err
}

func (s *SQLiteStore) GetScores(room domain.RoomID) ([]*domain.ScoreEntry, error) {
	rows, err := s.db.Query(`SELECT room, judge_id, target_id, id, role, dimensions_json, comments, timestamp FROM scores WHERE room=? ORDER BY timestamp`,
		string(room))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.ScoreEntry, 0)
	for rows.Next() {
		var e domain.ScoreEntry
		var room, judge, target, role, dims string
		if err := rows.Scan(&room, &judge, &target, &e.ID, &role, &dims, &e.Comments, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Room = domain.RoomID(room)
		e.JudgeID = domain.UserID(judge)
		e.TargetUserID = domain.UserID(target)
		e.Role = domain.Role(role)
		if err := json.Unmarshal([]byte(dims), &e.DimensionScores); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

const messageSelect = `SELECT id, room, sender_id, username, role, country, recipient, text, image_json, quote_json, timestamp, edited, edit_time, edit_by, revoked, revoke_time, revoked_by FROM messages`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	var room, sender, role, recipient, imageJSON, quoteJSON string
	var edited, revoked int
	if err := row.Scan(&m.ID, &room, &sender, &m.Username, &role, &m.Country, &recipient,
		&m.Text, &imageJSON, &quoteJSON, &m.Timestamp,
		&edited, &m.EditTime, &m.EditBy, &revoked, &m.RevokeTime, &m.RevokedBy); err != nil {
		return nil, err
	}
	m.Room = domain.RoomID(room)
	m.SenderID = domain.UserID(sender)
	m.Role = domain.Role(role)
	m.Recipient = domain.UserID(recipient)
	m.Edited = edited != 0
	m.Revoked = revoked != 0
	if imageJSON != "" {
		m.Image = &domain.ImagePayload{}
		if err := json.Unmarshal([]byte(imageJSON), m.Image); err != nil {
			return nil, err
		}
	}
	if quoteJSON != "" {
		m.Quote = &domain.Quote{}
		if err := json.Unmarshal([]byte(quoteJSON), m.Quote); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func scanMessages(rows *sql.Rows) ([]*domain.ChatMessage, error) {
	defer rows.Close()
	out := make([]*domain.ChatMessage, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func encodeMessageBlobs(m *domain.ChatMessage) (imageJSON, quoteJSON string, err error) {
	if m.Image != nil {
		b, err := json.Marshal(m.Image)
		if err != nil {
			return "", "", err
		}
		imageJSON = string(b)
	}
	if m.Quote != nil {
		b, err := json.Marshal(m.Quote)
		if err != nil {
			return "", "", err
		}
		quoteJSON = string(b)
	}
	return imageJSON, quoteJSON, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
