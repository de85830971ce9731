package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/finsight-ai/finsight-backend/internal/model"
)

// SnapshotRepository provides data access methods for the portfolio_snapshot table.
// Position detail is stored as a msgpack blob next to the summary columns.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new repository instance.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// UpsertSnapshot stores snap, replacing any existing snapshot for the same user and date.
func (r *SnapshotRepository) UpsertSnapshot(ctx context.Context, snap *model.PortfolioSnapshot) error {
	positions, err := msgpack.Marshal(snap.Positions)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot positions: %w", err)
	}

	query := `
		INSERT INTO portfolio_snapshot (
			id, user_id, date, total_cost, total_value, total_profit_loss,
			total_profit_loss_percentage, positions, calculated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			total_cost = excluded.total_cost,
			total_value = excluded.total_value,
			total_profit_loss = excluded.total_profit_loss,
			total_profit_loss_percentage = excluded.total_profit_loss_percentage,
			positions = excluded.positions,
			calculated_at = excluded.calculated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		snap.ID,
		snap.UserID,
		snap.Date.Format(dateLayout),
		snap.Summary.TotalCost,
		snap.Summary.TotalValue,
		snap.Summary.TotalProfitLoss,
		snap.Summary.TotalProfitLossPercentage,
		positions,
		snap.CalculatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio snapshot: %w", err)
	}
	return nil
}

// GetSnapshots streams the snapshots of userID between startDate and endDate
// (both inclusive) in date order. The callback pattern keeps long ranges out
// of memory; a callback error stops iteration and is returned as-is.
func (r *SnapshotRepository) GetSnapshots(
	ctx context.Context,
	userID string,
	startDate, endDate time.Time,
	callback func(snap model.PortfolioSnapshot) error,
) error {
	query := `
		SELECT id, user_id, date, total_cost, total_value, total_profit_loss,
		       total_profit_loss_percentage, positions, calculated_at
		FROM portfolio_snapshot
		WHERE user_id = ?
		AND date >= ?
		AND date <= ?
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, startDate.Format(dateLayout), endDate.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("failed to query portfolio_snapshot: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var snap model.PortfolioSnapshot
		var dateStr, calculatedAtStr string
		var positions []byte

		err := rows.Scan(
			&snap.ID,
			&snap.UserID,
			&dateStr,
			&snap.Summary.TotalCost,
			&snap.Summary.TotalValue,
			&snap.Summary.TotalProfitLoss,
			&snap.Summary.TotalProfitLossPercentage,
			&positions,
			&calculatedAtStr,
		)
		if err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}

		snap.Date, err = ParseTime(dateStr)
		if err != nil {
			return fmt.Errorf("failed to parse date: %w", err)
		}

		snap.CalculatedAt, err = ParseTime(calculatedAtStr)
		if err != nil {
			return fmt.Errorf("failed to parse calculated_at: %w", err)
		}

		if err := msgpack.Unmarshal(positions, &snap.Positions); err != nil {
			return fmt.Errorf("failed to decode snapshot positions: %w", err)
		}
		if snap.Positions == nil {
			snap.Positions = []model.InstrumentPosition{}
		}

		if err := callback(snap); err != nil {
			return err
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}

	return nil
}
