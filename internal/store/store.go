// Package store persists canonical commission, chargeback and
// adjustment tables to PostgreSQL and keeps an import log per batch.
// Per-row failures are collected and reported, never fatal to the
// batch.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benefitsops/commission-processor/internal/fileparser"
	"github.com/benefitsops/commission-processor/internal/transform"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// maxReportedErrors caps how many per-row errors an ImportResult carries
// back to the caller; the full count is still in the skipped total.
const maxReportedErrors = 10

// DBTX is the database surface the store needs. Satisfied by both
// *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Store owns the canonical import tables.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the import tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// ImportResult is the outcome of persisting one canonical table.
type ImportResult struct {
	BatchID   string   `json:"batchId"`
	FileType  string   `json:"fileType"`
	Processed int      `json:"processed"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// ImportLogEntry is one row of import history.
type ImportLogEntry struct {
	BatchID     string     `json:"batchId"`
	CarrierName string     `json:"carrierName"`
	FileName    string     `json:"fileName"`
	FileType    string     `json:"fileType"`
	Source      string     `json:"source"`
	Processed   int        `json:"processed"`
	Imported    int        `json:"imported"`
	Skipped     int        `json:"skipped"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// SaveSubReport persists a canonical table for the given sub-report
// type.
func (s *Store) SaveSubReport(ctx context.Context, subReport string, t *fileparser.Table, carrier, sourceFile, source string) (*ImportResult, error) {
	switch subReport {
	case transform.SubReportCommission:
		return s.saveRows(ctx, subReport, t, carrier, sourceFile, source, insertCommission)
	case transform.SubReportChargeback:
		return s.saveRows(ctx, subReport, t, carrier, sourceFile, source, insertChargeback)
	case transform.SubReportAdjustment:
		return s.saveRows(ctx, subReport, t, carrier, sourceFile, source, insertAdjustment)
	default:
		return nil, fmt.Errorf("no persistence for sub-report %q", subReport)
	}
}

// insertFunc inserts one canonical row for a carrier within a batch.
type insertFunc func(ctx context.Context, db DBTX, carrierID int32, row map[string]string, sourceFile, batchID string) error

// saveRows runs one import batch: create the import log, insert every
// row (savepoint-isolated so one bad row cannot poison the
// transaction), then finalize the log. Row failures are collected, not
// fatal.
func (s *Store) saveRows(ctx context.Context, fileType string, t *fileparser.Table, carrier, sourceFile, source string, insert insertFunc) (*ImportResult, error) {
	batchID := uuid.NewString()[:8]
	started := time.Now().UTC()

	carrierID, err := s.getOrCreateCarrier(ctx, carrier)
	if err != nil {
		return nil, err
	}

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO import_logs (batch_id, carrier_name, file_name, file_type, source, rows_processed, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'processing', $7)`,
		batchID, carrier, sourceFile, fileType, source, t.RowCount(), started,
	); err != nil {
		return nil, fmt.Errorf("create import log: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result := &ImportResult{BatchID: batchID, FileType: fileType, Processed: t.RowCount()}
	cols := t.DedupedColumns()

	for i, raw := range t.Rows {
		row := make(map[string]string, len(cols))
		for j, col := range cols {
			row[col] = raw[j]
		}

		sp := fmt.Sprintf("sp_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+sp); err != nil {
			return nil, fmt.Errorf("savepoint at row %d: %w", i+1, err)
		}
		if err := insert(ctx, tx, carrierID, row, sourceFile, batchID); err != nil {
			if _, rbErr := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
				return nil, fmt.Errorf("rollback savepoint at row %d: %w", i+1, rbErr)
			}
			result.Skipped++
			if len(result.Errors) < maxReportedErrors {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			}
			continue
		}
		if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
			return nil, fmt.Errorf("release savepoint at row %d: %w", i+1, err)
		}
		result.Imported++
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	errText := ""
	if len(result.Errors) > 0 {
		errText = strings.Join(result.Errors, "; ")
	}
	if _, err := s.pool.Exec(ctx, `
		UPDATE import_logs
		SET rows_imported = $2, rows_skipped = $3, errors = NULLIF($4, ''), status = 'completed', completed_at = $5
		WHERE batch_id = $1`,
		batchID, result.Imported, result.Skipped, errText, time.Now().UTC(),
	); err != nil {
		return nil, fmt.Errorf("finalize import log: %w", err)
	}

	return result, nil
}

func (s *Store) getOrCreateCarrier(ctx context.Context, name string) (int32, error) {
	var id int32
	err := s.pool.QueryRow(ctx, `
		INSERT INTO carriers (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("get or create carrier %q: %w", name, err)
	}
	return id, nil
}

func insertCommission(ctx context.Context, db DBTX, carrierID int32, row map[string]string, sourceFile, batchID string) error {
	_, err := db.Exec(ctx, `
		INSERT INTO commissions (carrier_id, policy_no, ph_first, ph_last, status, issuer, state,
			product_type, plan_name, submitted_date, effective_date, term_date, pay_sched, pay_code,
			writing_agent_id, premium, comm_prem, tran_date, comm_received, ptd, no_pay_mon,
			member_count, note, source_file, import_batch)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25)`,
		carrierID,
		ToPgText(row["PolicyNo"]),
		ToPgText(row["PHFirst"]),
		ToPgText(row["PHLast"]),
		ToPgText(row["Status"]),
		ToPgText(row["Issuer"]),
		ToPgText(row["State"]),
		ToPgText(row["ProductType"]),
		ToPgText(row["PlanName"]),
		ToPgDate(row["SubmittedDate"]),
		ToPgDate(row["EffectiveDate"]),
		ToPgDate(row["TermDate"]),
		ToPgText(row["PaySched"]),
		ToPgText(row["PayCode"]),
		ToPgText(row["WritingAgentID"]),
		ToPgNumeric(row["Premium"]),
		ToPgNumeric(row["CommPrem"]),
		ToPgDate(row["TranDate"]),
		ToPgNumeric(row["CommReceived"]),
		ToPgDate(row["PTD"]),
		ToPgInt4(row["NoPayMon"]),
		ToPgInt4(row["MemberCount"]),
		ToPgText(row["Note"]),
		ToPgText(sourceFile),
		batchID,
	)
	return err
}

func insertChargeback(ctx context.Context, db DBTX, carrierID int32, row map[string]string, sourceFile, batchID string) error {
	_, err := db.Exec(ctx, `
		INSERT INTO chargebacks (carrier_id, policy_no, issuer, cancel_date, process_date, policy_status, note, source_file, import_batch)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		carrierID,
		ToPgText(row["PolicyNo"]),
		ToPgText(row["Issuer"]),
		ToPgDate(row["CancelDate"]),
		ToPgDate(row["ProcessDate"]),
		ToPgText(row["PolicyStatus"]),
		ToPgText(row["Note"]),
		ToPgText(sourceFile),
		batchID,
	)
	return err
}

func insertAdjustment(ctx context.Context, db DBTX, carrierID int32, row map[string]string, sourceFile, batchID string) error {
	_, err := db.Exec(ctx, `
		INSERT INTO adjustments (carrier_id, agent_npn, process_date, description, issuer, policy_no,
			unit_price, quantity, total, apply_to_net, apply_to_form_1099, apply_to_agent_balance,
			note, source_file, import_batch)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		carrierID,
		ToPgText(row["AgentID"]),
		ToPgDate(row["ProcessDate"]),
		ToPgText(row["Description"]),
		ToPgText(row["Issuer"]),
		ToPgText(row["PolicyNo"]),
		ToPgNumeric(row["UnitPrice"]),
		ToPgInt4(row["Quantity"]),
		ToPgNumeric(row["Total"]),
		ToPgText(row["ApplytoNet"]),
		ToPgText(row["ApplytoForm1099"]),
		ToPgText(row["ApplytoAgentBalance"]),
		ToPgText(row["Note"]),
		ToPgText(sourceFile),
		batchID,
	)
	return err
}

// Rollback errors distinguish a missing batch from one that was
// already undone, so the API can report each correctly.
var (
	ErrBatchNotFound     = errors.New("import batch not found")
	ErrAlreadyRolledBack = errors.New("import batch already rolled back")
)

// RollbackResult reports what a batch rollback removed.
type RollbackResult struct {
	BatchID     string `json:"batchId"`
	FileType    string `json:"fileType"`
	RowsDeleted int64  `json:"rowsDeleted"`
}

var rollbackTables = map[string]string{
	transform.SubReportCommission: "commissions",
	transform.SubReportChargeback: "chargebacks",
	transform.SubReportAdjustment: "adjustments",
}

// RollbackBatch deletes every row inserted by one import batch and
// marks its log entry rolled back. A batch can be rolled back once.
func (s *Store) RollbackBatch(ctx context.Context, batchID string) (*RollbackResult, error) {
	var fileType, status string
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(file_type, ''), status FROM import_logs WHERE batch_id = $1`,
		batchID).Scan(&fileType, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load import log: %w", err)
	}
	if status == "rolled_back" {
		return nil, ErrAlreadyRolledBack
	}

	table, ok := rollbackTables[fileType]
	if !ok {
		return nil, fmt.Errorf("no rollback for file type %q", fileType)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin rollback transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE import_batch = $1", batchID)
	if err != nil {
		return nil, fmt.Errorf("delete batch rows: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE import_logs SET status = 'rolled_back', completed_at = $2 WHERE batch_id = $1`,
		batchID, time.Now().UTC(),
	); err != nil {
		return nil, fmt.Errorf("mark batch rolled back: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit rollback: %w", err)
	}

	return &RollbackResult{BatchID: batchID, FileType: fileType, RowsDeleted: tag.RowsAffected()}, nil
}

// ImportHistory returns the most recent import batches, newest first.
func (s *Store) ImportHistory(ctx context.Context, limit int) ([]ImportLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT batch_id, COALESCE(carrier_name, ''), COALESCE(file_name, ''),
			COALESCE(file_type, ''), COALESCE(source, ''),
			rows_processed, rows_imported, rows_skipped, status, started_at, completed_at
		FROM import_logs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import history: %w", err)
	}
	defer rows.Close()

	var entries []ImportLogEntry
	for rows.Next() {
		var e ImportLogEntry
		if err := rows.Scan(&e.BatchID, &e.CarrierName, &e.FileName, &e.FileType, &e.Source,
			&e.Processed, &e.Imported, &e.Skipped, &e.Status, &e.StartedAt, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan import history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
