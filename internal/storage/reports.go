package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"debuggenie/internal/models"
)

// ErrAmbiguousID is returned when a short id matches more than one report.
var ErrAmbiguousID = errors.New("report id is ambiguous")

// Report is one archived debug run.
type Report struct {
	ID          string             `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	Signature   string             `json:"signature"`
	ContextType string             `json:"context_type"`
	ErrorText   string             `json:"error_text"`
	Result      models.DebugResult `json:"result"`
}

// Summary is the list view of a report.
type Summary struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Signature  string    `json:"signature"`
	RootCause  string    `json:"root_cause"`
	Confidence float64   `json:"confidence"`
	Solutions  int       `json:"solutions"`
}

// NewReport builds an archive entry for a finished run. The run id is
// reused as the report id when present.
func NewReport(ec models.ErrorContext, res models.DebugResult) Report {
	id := res.RunID
	if id == "" {
		id = uuid.NewString()
	}
	return Report{
		ID:          id,
		CreatedAt:   time.Now(),
		Signature:   GenerateErrorSignature(ec.ErrorText),
		ContextType: string(ec.ContextKind()),
		ErrorText:   ec.ErrorText,
		Result:      res,
	}
}

// SaveReport persists r, replacing any report with the same id.
func SaveReport(db *sql.DB, r Report) error {
	resultJSON, err := json.Marshal(r.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	query := `INSERT OR REPLACE INTO reports
		(id, created_at, signature, context_type, error_text, root_cause, confidence, solutions, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = db.Exec(query,
		r.ID,
		r.CreatedAt.Unix(),
		r.Signature,
		r.ContextType,
		r.ErrorText,
		r.Result.RootCause,
		r.Result.ConfidenceScore,
		len(r.Result.Solutions),
		string(resultJSON),
	)
	return err
}

// GetReport looks a report up by id or unique id prefix. It returns nil
// when nothing matches.
func GetReport(db *sql.DB, id string) (*Report, error) {
	if id == "" {
		return nil, nil
	}
	query := `SELECT id, created_at, signature, COALESCE(context_type, ''), COALESCE(error_text, ''), result
		FROM reports WHERE id = ? OR id LIKE ? ORDER BY (id = ?) DESC, created_at DESC LIMIT 2`

	rows, err := db.Query(query, id, stripWildcards(id)+"%", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []Report
	for rows.Next() {
		var r Report
		var ts int64
		var resultJSON string
		if err := rows.Scan(&r.ID, &ts, &r.Signature, &r.ContextType, &r.ErrorText, &resultJSON); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(ts, 0)
		if err := json.Unmarshal([]byte(resultJSON), &r.Result); err != nil {
			return nil, fmt.Errorf("decode report %s: %w", r.ID, err)
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(found) == 0:
		return nil, nil
	case found[0].ID == id || len(found) == 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

// RecentReports lists the newest reports first.
func RecentReports(db *sql.DB, limit int) ([]Summary, error) {
	query := `SELECT id, created_at, signature, COALESCE(root_cause, ''), COALESCE(confidence, 0), COALESCE(solutions, 0)
		FROM reports ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Summary
	for rows.Next() {
		var s Summary
		var ts int64
		if err := rows.Scan(&s.ID, &ts, &s.Signature, &s.RootCause, &s.Confidence, &s.Solutions); err != nil {
			return nil, err
		}
		s.CreatedAt = time.Unix(ts, 0)
		items = append(items, s)
	}
	return items, rows.Err()
}

// CountBySignature reports how many archived runs share signature.
func CountBySignature(db *sql.DB, signature string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM reports WHERE signature = ?`, signature).Scan(&n)
	return n, err
}

var (
	hexPattern    = regexp.MustCompile(`0x[0-9a-fA-F]+`)
	numberPattern = regexp.MustCompile(`\d+`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// GenerateErrorSignature hashes the first non-empty line of an error with
// addresses and numbers masked, so the same failure at another line or
// pid maps to the same signature.
func GenerateErrorSignature(errorText string) string {
	var first string
	for _, line := range strings.Split(errorText, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			first = line
			break
		}
	}
	first = hexPattern.ReplaceAllString(first, "0x#")
	first = numberPattern.ReplaceAllString(first, "#")
	first = spacePattern.ReplaceAllString(strings.ToLower(first), " ")
	if len(first) > 100 {
		first = first[:100]
	}
	return hashString(first)
}

// hashString creates a hex hash string using FNV-1a.
func hashString(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s))
	return fmt.Sprintf("%016x", h.Sum64())
}

func stripWildcards(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}
