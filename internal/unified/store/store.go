package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/skillancer/ledger/internal/dedup"
	"github.com/skillancer/ledger/internal/unified"
)

// Store is the engine's sole persistence dependency: a Postgres-backed
// unified transaction store with the exclusion ledger and merge audit trail
// as explicit relations.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectTransactionColumns = `
	t.id, t.user_id, t.deduplication_key, t.source, t.external_id,
	t.original_amount, t.original_currency, t.converted_amount, t.base_currency,
	t.exchange_rate, t.exchange_rate_date, t.transaction_date,
	t.description, t.category, t.client_id, t.project_id,
	t.external_client_name, t.external_project_name,
	t.sync_status, t.attachments, t.merged_from, t.metadata,
	t.created_at, t.updated_at
`

func scanTransaction(s scanner) (*unified.Transaction, error) {
	var (
		tx          unified.Transaction
		sourceStr   string
		statusStr   string
		attachments []byte
		mergedFrom  []byte
		metadata    []byte
	)

	if err := s.Scan(
		&tx.ID, &tx.UserID, &tx.DeduplicationKey, &sourceStr, &tx.ExternalID,
		&tx.OriginalAmount, &tx.OriginalCurrency, &tx.ConvertedAmount, &tx.BaseCurrency,
		&tx.ExchangeRate, &tx.ExchangeRateDate, &tx.TransactionDate,
		&tx.Description, &tx.Category, &tx.ClientID, &tx.ProjectID,
		&tx.ExternalClientName, &tx.ExternalProjectName,
		&statusStr, &attachments, &mergedFrom, &metadata,
		&tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.Source = unified.Source(sourceStr)
	tx.SyncStatus = unified.SyncStatus(statusStr)

	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &tx.Attachments); err != nil {
			return nil, fmt.Errorf("decoding attachments: %w", err)
		}
	}

	if len(mergedFrom) > 0 {
		if err := json.Unmarshal(mergedFrom, &tx.MergedFrom); err != nil {
			return nil, fmt.Errorf("decoding merged_from: %w", err)
		}
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &tx.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata: %w", err)
		}
	}

	return &tx, nil
}

func marshalJSONColumns(tx *unified.Transaction) (attachments, mergedFrom, metadata []byte, err error) {
	if attachments, err = json.Marshal(orEmptyStrings(tx.Attachments)); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding attachments: %w", err)
	}

	if mergedFrom, err = json.Marshal(orEmptyIDs(tx.MergedFrom)); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding merged_from: %w", err)
	}

	if tx.Metadata == nil {
		tx.Metadata = map[string]string{}
	}

	if metadata, err = json.Marshal(tx.Metadata); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding metadata: %w", err)
	}

	return attachments, mergedFrom, metadata, nil
}

func orEmptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

func orEmptyIDs(s []uuid.UUID) []uuid.UUID {
	if s == nil {
		return []uuid.UUID{}
	}

	return s
}

// InsertTransaction persists a new unified transaction. The unique constraint
// on (user_id, deduplication_key) resolves concurrent re-ingestion of the
// same source event: on conflict nothing is written and the existing record's
// id is returned with created=false.
func (s *Store) InsertTransaction(ctx context.Context, tx *unified.Transaction) (uuid.UUID, bool, error) {
	attachments, mergedFrom, metadata, err := marshalJSONColumns(tx)
	if err != nil {
		return uuid.Nil, false, err
	}

	query := `
		INSERT INTO unified_transactions (
			id, user_id, deduplication_key, source, external_id,
			original_amount, original_currency, converted_amount, base_currency,
			exchange_rate, exchange_rate_date, transaction_date,
			description, category, client_id, project_id,
			external_client_name, external_project_name,
			sync_status, attachments, merged_from, metadata, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, NOW())
		ON CONFLICT (user_id, deduplication_key) DO NOTHING
		RETURNING id
	`

	var id uuid.UUID

	err = s.db.QueryRowContext(ctx, query,
		tx.ID, tx.UserID, tx.DeduplicationKey, tx.Source, tx.ExternalID,
		tx.OriginalAmount, tx.OriginalCurrency, tx.ConvertedAmount, tx.BaseCurrency,
		tx.ExchangeRate, tx.ExchangeRateDate, tx.TransactionDate,
		tx.Description, tx.Category, tx.ClientID, tx.ProjectID,
		tx.ExternalClientName, tx.ExternalProjectName,
		tx.SyncStatus, attachments, mergedFrom, metadata,
	).Scan(&id)

	if err == nil {
		return id, true, nil
	}

	if err != sql.ErrNoRows {
		return uuid.Nil, false, fmt.Errorf("inserting transaction: %w", err)
	}

	// Conflict path: another writer won the race for this key.
	existing := `SELECT id FROM unified_transactions WHERE user_id = $1 AND deduplication_key = $2`
	if err := s.db.QueryRowContext(ctx, existing, tx.UserID, tx.DeduplicationKey).Scan(&id); err != nil {
		return uuid.Nil, false, fmt.Errorf("fetching conflicting transaction: %w", err)
	}

	return id, false, nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*unified.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM unified_transactions t WHERE t.id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, unified.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) GetByDeduplicationKey(ctx context.Context, userID uuid.UUID, key string) (*unified.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM unified_transactions t
		WHERE t.user_id = $1 AND t.deduplication_key = $2`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, userID, key))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, unified.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction by key: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, filter unified.ListFilter) ([]*unified.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM unified_transactions t
		WHERE t.user_id = $1`

	args := []any{userID}
	argIdx := 2

	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.sync_status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND t.transaction_date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND t.transaction_date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.Currency != nil {
		query += fmt.Sprintf(" AND t.original_currency = $%d", argIdx)

		args = append(args, *filter.Currency)
		argIdx++
	}

	if filter.MinAmount != nil {
		query += fmt.Sprintf(" AND t.original_amount >= $%d", argIdx)

		args = append(args, *filter.MinAmount)
		argIdx++
	}

	if filter.MaxAmount != nil {
		query += fmt.Sprintf(" AND t.original_amount <= $%d", argIdx)

		args = append(args, *filter.MaxAmount)
		argIdx++
	}

	query += " ORDER BY t.transaction_date DESC"

	return s.queryTransactions(ctx, query, args...)
}

// ListActiveTransactions returns every non-DUPLICATE record of the user,
// ordered by transaction date descending, which is the order the batch
// reconciler's sliding window depends on.
func (s *Store) ListActiveTransactions(ctx context.Context, userID uuid.UUID) ([]*unified.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM unified_transactions t
		WHERE t.user_id = $1 AND t.sync_status <> $2
		ORDER BY t.transaction_date DESC`

	return s.queryTransactions(ctx, query, userID, unified.StatusDuplicate)
}

// FindCandidates runs a tolerance-window candidate query: non-duplicate
// records of the user inside both the date and amount windows.
func (s *Store) FindCandidates(ctx context.Context, userID uuid.UUID, filter dedup.CandidateFilter) ([]*unified.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM unified_transactions t
		WHERE t.user_id = $1 AND t.sync_status <> $2
		  AND t.transaction_date >= $3 AND t.transaction_date <= $4
		  AND t.original_amount >= $5 AND t.original_amount <= $6
		ORDER BY t.transaction_date DESC`

	return s.queryTransactions(ctx, query,
		userID, unified.StatusDuplicate,
		filter.StartDate, filter.EndDate,
		filter.MinAmount, filter.MaxAmount,
	)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]*unified.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*unified.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

// UpdateTransaction applies a single-record atomic update keyed by primary
// id. Identity, provenance and conversion fields are immutable here.
func (s *Store) UpdateTransaction(ctx context.Context, tx *unified.Transaction) error {
	attachments, mergedFrom, metadata, err := marshalJSONColumns(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE unified_transactions
		SET description = $1, category = $2, client_id = $3, project_id = $4,
		    external_client_name = $5, external_project_name = $6,
		    attachments = $7, merged_from = $8, metadata = $9, updated_at = NOW()
		WHERE id = $10
	`

	res, err := s.db.ExecContext(ctx, query,
		tx.Description, tx.Category, tx.ClientID, tx.ProjectID,
		tx.ExternalClientName, tx.ExternalProjectName,
		attachments, mergedFrom, metadata, tx.ID,
	)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}

	return checkAffected(res)
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status unified.SyncStatus, reason string) error {
	query := `
		UPDATE unified_transactions
		SET sync_status = $1, status_reason = $2, updated_at = NOW()
		WHERE id = $3
	`

	res, err := s.db.ExecContext(ctx, query, status, reason, id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	return checkAffected(res)
}

// MarkDuplicate transitions a losing record to DUPLICATE. The record is kept
// for auditability; physical deletion is an operator action outside the
// engine.
func (s *Store) MarkDuplicate(ctx context.Context, id uuid.UUID, reason string) error {
	return s.UpdateStatus(ctx, id, unified.StatusDuplicate, reason)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}

	if n == 0 {
		return unified.ErrNotFound
	}

	return nil
}

// AddExclusion durably records that two records are not duplicates of each
// other. The pair is stored once in canonical order; re-recording it is a
// no-op.
func (s *Store) AddExclusion(ctx context.Context, userID, id1, id2 uuid.UUID) error {
	if id1.String() > id2.String() {
		id1, id2 = id2, id1
	}

	query := `
		INSERT INTO transaction_exclusions (user_id, transaction_id, excluded_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (transaction_id, excluded_id) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, userID, id1, id2); err != nil {
		return fmt.Errorf("inserting exclusion: %w", err)
	}

	return nil
}

func (s *Store) ListExclusions(ctx context.Context, userID uuid.UUID) ([][2]uuid.UUID, error) {
	query := `
		SELECT transaction_id, excluded_id
		FROM transaction_exclusions
		WHERE user_id = $1
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing exclusions: %w", err)
	}
	defer rows.Close()

	var pairs [][2]uuid.UUID

	for rows.Next() {
		var pair [2]uuid.UUID
		if err := rows.Scan(&pair[0], &pair[1]); err != nil {
			return nil, fmt.Errorf("scanning exclusion: %w", err)
		}

		pairs = append(pairs, pair)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exclusion rows: %w", err)
	}

	return pairs, nil
}

func (s *Store) RecordMerge(ctx context.Context, entry dedup.MergeAudit) error {
	query := `
		INSERT INTO merge_audit (user_id, keeper_id, duplicate_id, score, reason, performed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.UserID, entry.KeeperID, entry.DuplicateID, entry.Score, entry.Reason, entry.PerformedBy,
	)
	if err != nil {
		return fmt.Errorf("recording merge: %w", err)
	}

	return nil
}

func runLockKey(userID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("dedup-run"))
	h.Write([]byte{0})
	h.Write(userID[:])

	return int64(h.Sum64())
}

// AcquireRunLock takes the per-user advisory lock that keeps reconciliation
// runs mutually exclusive. It is a try-lock: a held lock returns
// dedup.ErrRunInProgress instead of blocking. The returned release func must
// be called on the same session, which is pinned via a dedicated connection.
func (s *Store) AcquireRunLock(ctx context.Context, userID uuid.UUID) (func() error, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}

	key := runLockKey(userID)

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&acquired); err != nil {
		conn.Close()
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}

	if !acquired {
		conn.Close()
		return nil, dedup.ErrRunInProgress
	}

	release := func() error {
		// Unlock must not be skipped on a cancelled run context.
		_, err := conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", key)
		if closeErr := conn.Close(); err == nil {
			err = closeErr
		}

		if err != nil {
			return fmt.Errorf("releasing run lock: %w", err)
		}

		return nil
	}

	return release, nil
}
