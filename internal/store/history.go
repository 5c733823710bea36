package store

import (
	"database/sql"

	_ "github.com/glebarez/go-sqlite"
)

// HistoryStore persists session histories in sqlite. Turns are append-only;
// the id column preserves causal order. Use ":memory:" as the path for an
// ephemeral process-lifetime store.
type HistoryStore struct {
	DB *sql.DB
}

func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// Every pooled connection to ":memory:" would get its own empty database;
	// a single connection also serializes writers per session.
	db.SetMaxOpenConns(1)

	query := `CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT,
		tool_name TEXT,
		tool_args TEXT,
		tool_result TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, err
	}

	return &HistoryStore{DB: db}, nil
}

func (h *HistoryStore) AppendTurn(sessionID string, turn Turn) error {
	query := `INSERT INTO turns (session_id, role, content, tool_name, tool_args, tool_result)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := h.DB.Exec(query, sessionID, string(turn.Role), turn.Content,
		turn.ToolName, turn.ToolArgs, turn.ToolResult)
	return err
}

// Turns returns the full history of a session in causal (append) order.
func (h *HistoryStore) Turns(sessionID string) ([]Turn, error) {
	query := `SELECT role, content, tool_name, tool_args, tool_result
		FROM turns WHERE session_id = ? ORDER BY id ASC`
	rows, err := h.DB.Query(query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var role string
		var turn Turn
		if err := rows.Scan(&role, &turn.Content, &turn.ToolName, &turn.ToolArgs, &turn.ToolResult); err != nil {
			return nil, err
		}
		turn.Role = Role(role)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

func (h *HistoryStore) TurnCount(sessionID string) (int, error) {
	var n int
	err := h.DB.QueryRow(`SELECT COUNT(*) FROM turns WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

func (h *HistoryStore) Close() error {
	return h.DB.Close()
}
