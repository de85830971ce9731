package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/model"
)

// InstrumentRepository provides read access to the instrument catalogue.
type InstrumentRepository struct {
	db *sql.DB
}

// NewInstrumentRepository creates a new InstrumentRepository with the provided database connection.
func NewInstrumentRepository(db *sql.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

// GetInstrumentBySymbol resolves a ticker symbol to its instrument.
// Returns apperrors.ErrInstrumentNotFound when the symbol is not catalogued.
func (r *InstrumentRepository) GetInstrumentBySymbol(ctx context.Context, symbol string) (model.Instrument, error) {
	var inst model.Instrument

	err := r.db.QueryRowContext(ctx,
		`SELECT symbol, name, sector FROM instrument WHERE symbol = ?`, symbol,
	).Scan(&inst.Symbol, &inst.Name, &inst.Sector)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Instrument{}, apperrors.ErrInstrumentNotFound
		}
		return model.Instrument{}, fmt.Errorf("failed to query instrument: %w", err)
	}
	return inst, nil
}

// ListSymbols returns every catalogued symbol in insertion order.
func (r *InstrumentRepository) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol FROM instrument ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query instrument symbols: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan instrument symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instrument rows: %w", err)
	}
	return symbols, nil
}
