package db

import (
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/hpungsan/vaultd/internal/content"
	"github.com/hpungsan/vaultd/internal/errors"
)

// Counter names tracked by the ledger.
const (
	CounterQueries  = "queries"
	CounterStaged   = "staged"
	CounterApproved = "approved_contributions"
)

// Contribution lifecycle states.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// pendingPageSize caps how many pending records a listing returns.
const pendingPageSize = 20

// Counters is a snapshot of the usage ledger.
type Counters struct {
	Queries  int64 `json:"queries"`
	Staged   int64 `json:"staged"`
	Approved int64 `json:"approved_contributions"`
}

// Contribution is one record in the contribution ledger.
type Contribution struct {
	ID              string                   `json:"id"`
	Status          string                   `json:"status"`
	OriginalLength  int                      `json:"original_length"`
	Sanitised       string                   `json:"sanitised"`
	StrippedTerms   []string                 `json:"stripped_terms"`
	Report          []content.PatternMatch   `json:"redaction_report"`
	Classifications []content.Classification `json:"classifications"`
	StagedAt        time.Time                `json:"staged_at"`
	ApprovedAt      *time.Time               `json:"approved_at,omitempty"`
}

// IncrementCounter bumps a named counter by one, creating it at 1 if absent.
func IncrementCounter(db *sql.DB, name string) error {
	_, err := db.Exec(`
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
	`, name)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetCounters reads the full counters snapshot. Missing counters read as zero.
func GetCounters(db *sql.DB) (Counters, error) {
	rows, err := db.Query(`SELECT name, value FROM counters`)
	if err != nil {
		return Counters{}, errors.NewInternal(err)
	}
	defer rows.Close()

	var c Counters
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return Counters{}, errors.NewInternal(err)
		}
		switch name {
		case CounterQueries:
			c.Queries = value
		case CounterStaged:
			c.Staged = value
		case CounterApproved:
			c.Approved = value
		}
	}
	if err := rows.Err(); err != nil {
		return Counters{}, errors.NewInternal(err)
	}
	return c, nil
}

// StageContribution inserts a new pending record and bumps the staged
// counter in one transaction. The caller supplies ID and StagedAt.
func StageContribution(db *sql.DB, c *Contribution) error {
	stripped, err := json.Marshal(c.StrippedTerms)
	if err != nil {
		return errors.NewInternal(err)
	}
	report, err := json.Marshal(c.Report)
	if err != nil {
		return errors.NewInternal(err)
	}
	classifications, err := json.Marshal(c.Classifications)
	if err != nil {
		return errors.NewInternal(err)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO contributions (
			id, status, original_length, sanitised_text,
			stripped_json, report_json, classifications_json, staged_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, StatusPending, c.OriginalLength, c.Sanitised,
		string(stripped), string(report), string(classifications), c.StagedAt.Unix())
	if err != nil {
		return errors.NewInternal(err)
	}

	_, err = tx.Exec(`
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
	`, CounterStaged)
	if err != nil {
		return errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	c.Status = StatusPending
	return nil
}

// GetContribution fetches one record by ID.
func GetContribution(db *sql.DB, id string) (*Contribution, error) {
	row := db.QueryRow(`
		SELECT id, status, original_length, sanitised_text,
			stripped_json, report_json, classifications_json, staged_at, approved_at
		FROM contributions
		WHERE id = ?
	`, id)
	c, err := scanContribution(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("contribution", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// ListPending returns the newest pending records (capped) plus the total
// pending count.
func ListPending(db *sql.DB) ([]Contribution, int, error) {
	var total int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM contributions WHERE status = ?`, StatusPending,
	).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	rows, err := db.Query(`
		SELECT id, status, original_length, sanitised_text,
			stripped_json, report_json, classifications_json, staged_at, approved_at
		FROM contributions
		WHERE status = ?
		ORDER BY staged_at DESC, id DESC
		LIMIT ?
	`, StatusPending, pendingPageSize)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var items []Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return items, total, nil
}

// ApproveContribution moves a pending record to approved and bumps the
// approved counter, atomically. Only approval makes a contribution count
// toward the access ratio.
func ApproveContribution(db *sql.DB, id string, now time.Time) (*Contribution, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE contributions SET status = ?, approved_at = ?
		WHERE id = ? AND status = ?
	`, StatusApproved, now.Unix(), id, StatusPending)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if affected == 0 {
		return nil, errors.NewNotFound("pending contribution", id)
	}

	_, err = tx.Exec(`
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
	`, CounterApproved)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return GetContribution(db, id)
}

// RejectContribution deletes a pending record outright.
func RejectContribution(db *sql.DB, id string) error {
	res, err := db.Exec(
		`DELETE FROM contributions WHERE id = ? AND status = ?`, id, StatusPending,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected == 0 {
		return errors.NewNotFound("pending contribution", id)
	}
	return nil
}

// ListApprovedCategories returns the distinct top-classification categories
// across all approved contributions, sorted.
func ListApprovedCategories(db *sql.DB) ([]string, error) {
	rows, err := db.Query(
		`SELECT classifications_json FROM contributions WHERE status = ?`, StatusApproved,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.NewInternal(err)
		}
		if !raw.Valid {
			continue
		}
		var classifications []content.Classification
		if err := json.Unmarshal([]byte(raw.String), &classifications); err != nil {
			continue
		}
		if len(classifications) > 0 {
			set[classifications[0].Category] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	categories := make([]string, 0, len(set))
	for c := range set {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanContribution.
type scanner interface {
	Scan(dest ...any) error
}

func scanContribution(row scanner) (*Contribution, error) {
	var c Contribution
	var stripped, report, classifications sql.NullString
	var stagedAt int64
	var approvedAt sql.NullInt64

	err := row.Scan(&c.ID, &c.Status, &c.OriginalLength, &c.Sanitised,
		&stripped, &report, &classifications, &stagedAt, &approvedAt)
	if err != nil {
		return nil, err
	}

	if stripped.Valid {
		if err := json.Unmarshal([]byte(stripped.String), &c.StrippedTerms); err != nil {
			return nil, err
		}
	}
	if report.Valid {
		if err := json.Unmarshal([]byte(report.String), &c.Report); err != nil {
			return nil, err
		}
	}
	if classifications.Valid {
		if err := json.Unmarshal([]byte(classifications.String), &c.Classifications); err != nil {
			return nil, err
		}
	}
	c.StagedAt = time.Unix(stagedAt, 0).UTC()
	if approvedAt.Valid {
		t := time.Unix(approvedAt.Int64, 0).UTC()
		c.ApprovedAt = &t
	}
	return &c, nil
}
