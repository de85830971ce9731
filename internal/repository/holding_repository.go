package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/model"
)

// HoldingRepository provides data access methods for the holding table.
// Every lot is owned by a user; all reads and writes are scoped by user ID.
type HoldingRepository struct {
	db *sql.DB
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

const lotColumns = `id, user_id, symbol, shares, purchase_cost, purchase_date`

// ListLotsForUser returns every lot owned by userID in insertion order.
// A user with no lots yields an empty slice.
func (r *HoldingRepository) ListLotsForUser(ctx context.Context, userID string) ([]model.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM holding WHERE user_id = ? ORDER BY rowid`
	return r.queryLots(ctx, query, userID)
}

// ListLotsForUserAndSymbol returns the lots of one instrument owned by userID in insertion order.
func (r *HoldingRepository) ListLotsForUserAndSymbol(ctx context.Context, userID, symbol string) ([]model.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM holding WHERE user_id = ? AND symbol = ? ORDER BY rowid`
	return r.queryLots(ctx, query, userID, symbol)
}

func (r *HoldingRepository) queryLots(ctx context.Context, query string, args ...any) ([]model.Lot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	lots := []model.Lot{}
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding rows: %w", err)
	}
	return lots, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (model.Lot, error) {
	var lot model.Lot
	var dateStr string

	if err := row.Scan(&lot.ID, &lot.UserID, &lot.Symbol, &lot.Shares, &lot.PurchaseCost, &dateStr); err != nil {
		return model.Lot{}, fmt.Errorf("failed to scan holding: %w", err)
	}

	date, err := ParseTime(dateStr)
	if err != nil {
		return model.Lot{}, fmt.Errorf("failed to parse purchase_date: %w", err)
	}
	lot.PurchaseDate = date
	return lot, nil
}

// GetLot retrieves a lot by ID. A lot owned by another user is reported as
// apperrors.ErrHoldingNotFound so ownership is never disclosed.
func (r *HoldingRepository) GetLot(ctx context.Context, id, userID string) (model.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM holding WHERE id = ? AND user_id = ?`

	lot, err := scanLot(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Lot{}, apperrors.ErrHoldingNotFound
		}
		return model.Lot{}, err
	}
	return lot, nil
}

// InsertLot stores a new lot.
func (r *HoldingRepository) InsertLot(ctx context.Context, lot *model.Lot) error {
	query := `
		INSERT INTO holding (id, user_id, symbol, shares, purchase_cost, purchase_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		lot.ID,
		lot.UserID,
		lot.Symbol,
		lot.Shares,
		lot.PurchaseCost,
		lot.PurchaseDate.Format(dateLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}
	return nil
}

// UpdateLot overwrites the mutable fields of an existing lot in a single statement,
// so concurrent readers never observe a half-applied edit.
// Returns apperrors.ErrHoldingNotFound if the lot does not exist for the user.
func (r *HoldingRepository) UpdateLot(ctx context.Context, lot *model.Lot) error {
	query := `
		UPDATE holding
		SET shares = ?, purchase_cost = ?, purchase_date = ?
		WHERE id = ? AND user_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		lot.Shares,
		lot.PurchaseCost,
		lot.PurchaseDate.Format(dateLayout),
		lot.ID,
		lot.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrHoldingNotFound
	}
	return nil
}

// DeleteLot removes a lot owned by userID.
// Returns apperrors.ErrHoldingNotFound if nothing was deleted.
func (r *HoldingRepository) DeleteLot(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM holding WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrHoldingNotFound
	}
	return nil
}

// ListInstrumentsForUser returns each distinct instrument held by userID,
// ordered by the first lot that references it.
func (r *HoldingRepository) ListInstrumentsForUser(ctx context.Context, userID string) ([]model.Instrument, error) {
	query := `
		SELECT i.symbol, i.name, i.sector
		FROM holding h
		JOIN instrument i ON i.symbol = h.symbol
		WHERE h.user_id = ?
		GROUP BY i.symbol, i.name, i.sector
		ORDER BY MIN(h.rowid)
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query held instruments: %w", err)
	}
	defer rows.Close()

	instruments := []model.Instrument{}
	for rows.Next() {
		var inst model.Instrument
		if err := rows.Scan(&inst.Symbol, &inst.Name, &inst.Sector); err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		instruments = append(instruments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instrument rows: %w", err)
	}
	return instruments, nil
}
