package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS decision_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	instance_id TEXT NOT NULL,
	scenario_id TEXT NOT NULL,
	action      TEXT NOT NULL,
	from_phase  TEXT NOT NULL,
	to_phase    TEXT NOT NULL,
	accepted    INTEGER NOT NULL,
	detail_json TEXT,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_log_instance ON decision_log(instance_id);
`

// EnsureSchema creates the decision_log table if it does not exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create decision_log: %w", err)
	}
	return nil
}

// #endregion schema

// #region log-transition
// LogTransition writes one entry to the decision_log table.
func LogTransition(db *sql.DB, entry TransitionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (instance_id, scenario_id, action, from_phase, to_phase, accepted, detail_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.InstanceID,
		entry.ScenarioID,
		entry.Action,
		entry.FromPhase,
		entry.ToPhase,
		boolToInt(entry.Accepted),
		nullIfEmpty(entry.DetailJSON),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log transition: %w", err)
	}
	return nil
}

// #endregion log-transition

// #region list-transitions
// ListTransitions returns the most recent entries in insertion order.
// limit <= 0 returns every entry.
func ListTransitions(db *sql.DB, limit int) ([]TransitionEntry, error) {
	query := `SELECT instance_id, scenario_id, action, from_phase, to_phase, accepted, detail_json, created_at
		FROM decision_log ORDER BY id`
	args := []interface{}{}
	if limit > 0 {
		query = `SELECT * FROM (
			SELECT id, instance_id, scenario_id, action, from_phase, to_phase, accepted, detail_json, created_at
			FROM decision_log ORDER BY id DESC LIMIT ?
		) ORDER BY id`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decision_log: %w", err)
	}
	defer rows.Close()

	var entries []TransitionEntry
	for rows.Next() {
		var (
			e         TransitionEntry
			id        int64
			accepted  int
			detail    sql.NullString
			createdAt string
		)
		dest := []interface{}{&e.InstanceID, &e.ScenarioID, &e.Action, &e.FromPhase, &e.ToPhase, &accepted, &detail, &createdAt}
		if limit > 0 {
			dest = append([]interface{}{&id}, dest...)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan decision_log: %w", err)
		}
		e.Accepted = accepted != 0
		e.DetailJSON = detail.String
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision_log: %w", err)
	}
	return entries, nil
}

// #endregion list-transitions

// #region recorder
// Recorder writes flow transitions to the decision log. Write failures are
// logged and swallowed so a broken log never blocks the participant.
type Recorder struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRecorder ensures the schema exists and returns a recorder bound to db.
func NewRecorder(db *sql.DB, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &Recorder{db: db, log: logger}, nil
}

// Record implements flow.Recorder.
func (r *Recorder) Record(entry TransitionEntry) {
	if err := LogTransition(r.db, entry); err != nil {
		r.log.Error("decision log write failed", "action", entry.Action, "err", err)
	}
}

// #endregion recorder

// #region helpers
// EncodeDetail serializes d, returning "" for an empty detail.
func EncodeDetail(d Detail) string {
	if d.OptionID == "" && d.Answer == nil && d.Basis == "" && len(d.Order) == 0 &&
		d.Tier == "" && d.Reason == "" && d.Message == "" {
		return ""
	}
	b, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeDetail parses a detail_json column; empty input yields a zero Detail.
func DecodeDetail(s string) (Detail, error) {
	var d Detail
	if s == "" {
		return d, nil
	}
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return d, fmt.Errorf("decode detail: %w", err)
	}
	return d, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
