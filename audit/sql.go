package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/raid-guild/x402-payment-gate-go/types"
	"github.com/raid-guild/x402-payment-gate-go/utils"
)

const createPostgres = `
CREATE TABLE IF NOT EXISTS payment_audit (
  id          VARCHAR(64)  PRIMARY KEY,
  operation   VARCHAR(128) NOT NULL,
  path        VARCHAR(256) NOT NULL,
  nonce       VARCHAR(66)  NOT NULL,
  payer       TEXT         NOT NULL,
  recipient   VARCHAR(64)  NOT NULL,
  asset       VARCHAR(64)  NOT NULL,
  network     VARCHAR(64)  NOT NULL,
  amount      TEXT         NOT NULL,
  required    VARCHAR(80)  NOT NULL,
  outcome     VARCHAR(32)  NOT NULL,
  category    VARCHAR(32)  NOT NULL,
  reason      VARCHAR(128) NOT NULL,
  tx_hash     VARCHAR(80)  NOT NULL,
  occurred_at TIMESTAMPTZ  NOT NULL
)`

const createMySQL = `
CREATE TABLE IF NOT EXISTS payment_audit (
  id            VARCHAR(64)  PRIMARY KEY,
  operation     VARCHAR(128) NOT NULL,
  path          VARCHAR(256) NOT NULL,
  nonce         VARCHAR(66)  NOT NULL,
  payer         TEXT         NOT NULL,
  recipient     VARCHAR(64)  NOT NULL,
  asset         VARCHAR(64)  NOT NULL,
  network       VARCHAR(64)  NOT NULL,
  amount        TEXT         NOT NULL,
  required      VARCHAR(80)  NOT NULL,
  outcome       VARCHAR(32)  NOT NULL,
  category      VARCHAR(32)  NOT NULL,
  reason        VARCHAR(128) NOT NULL,
  tx_hash       VARCHAR(80)  NOT NULL,
  occurred_at   DATETIME(6)  NOT NULL,
  INDEX (occurred_at)
)`

const insertEntry = `
INSERT INTO payment_audit
  (id, operation, path, nonce, payer, recipient, asset, network, amount, required, outcome, category, reason, tx_hash, occurred_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRecent = `
SELECT id, operation, path, nonce, payer, recipient, asset, network, amount, required, outcome, category, reason, tx_hash, occurred_at
FROM payment_audit
ORDER BY occurred_at DESC
LIMIT ?`

// MaxRecent caps the number of entries returned by Recent.
const MaxRecent = 500

// SQLRecorder stores entries in a payment_audit table.
type SQLRecorder struct {
	db     *sql.DB
	driver string
}

// NewSQLRecorder returns a recorder for db using the given driver dialect.
func NewSQLRecorder(db *sql.DB, driver string) (*SQLRecorder, error) {
	if !utils.ValidDriver(driver) {
		return nil, fmt.Errorf("unsupported audit driver %q", driver)
	}
	return &SQLRecorder{db: db, driver: driver}, nil
}

// InitSchema creates the audit table when it does not exist.
func (s *SQLRecorder) InitSchema(ctx context.Context) error {
	ddl := createPostgres
	if s.driver == utils.DriverMySQL {
		ddl = createMySQL
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create payment_audit: %w", err)
	}
	return nil
}

// Record implements Recorder.
func (s *SQLRecorder) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, utils.Rebind(s.driver, insertEntry),
		e.ID,
		e.Operation,
		e.Path,
		e.Nonce,
		e.Payer,
		e.Recipient,
		e.Asset,
		e.Network,
		e.Amount,
		e.Required,
		string(e.Outcome),
		string(e.Category),
		e.Reason,
		e.Transaction,
		e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > MaxRecent {
		limit = MaxRecent
	}

	rows, err := s.db.QueryContext(ctx, utils.Rebind(s.driver, selectRecent), limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			outcome  string
			category string
		)
		if err := rows.Scan(
			&e.ID,
			&e.Operation,
			&e.Path,
			&e.Nonce,
			&e.Payer,
			&e.Recipient,
			&e.Asset,
			&e.Network,
			&e.Amount,
			&e.Required,
			&outcome,
			&category,
			&e.Reason,
			&e.Transaction,
			&e.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Outcome = types.OutcomeKind(outcome)
		e.Category = types.Category(category)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
