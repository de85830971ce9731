package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/model"
	"github.com/finsight-ai/finsight-backend/internal/repository"
	"github.com/finsight-ai/finsight-backend/internal/testutil"
)

// WHY: valuation output order follows lot order, so the store must return lots
// in insertion order and not in id or symbol order.
func TestHoldingRepository_ListLotsForUser_InsertionOrder(t *testing.T) {
	// Setup
	db := testutil.SetupTestDB(t)
	repo := repository.NewHoldingRepository(db)
	user := testutil.CreateUser(t, db)

	// ids sort in the reverse of insertion order
	want := []string{
		testutil.NewHolding(user.ID, "TSLA").WithID("ffff").Build(t, db).ID,
		testutil.NewHolding(user.ID, "AAPL").WithID("aaaa").Build(t, db).ID,
		testutil.NewHolding(user.ID, "TSLA").WithID("0000").Build(t, db).ID,
	}

	// Execute
	lots, err := repo.ListLotsForUser(context.Background(), user.ID)

	// Assert
	require.NoError(t, err)
	got := make([]string, len(lots))
	for i, l := range lots {
		got[i] = l.ID
	}
	assert.Equal(t, want, got)

	instruments, err := repo.ListInstrumentsForUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, instruments, 2)
	assert.Equal(t, "TSLA", instruments[0].Symbol)
	assert.Equal(t, "AAPL", instruments[1].Symbol)
}

func TestHoldingRepository_Ownership(t *testing.T) {
	// Setup
	db := testutil.SetupTestDB(t)
	repo := repository.NewHoldingRepository(db)
	owner := testutil.CreateUser(t, db)
	other := testutil.CreateUser(t, db)
	lot := testutil.CreateHolding(t, db, owner.ID, "AAPL", 1, 100)
	ctx := context.Background()

	// Execute / Assert
	_, err := repo.GetLot(ctx, lot.ID, other.ID)
	assert.ErrorIs(t, err, apperrors.ErrHoldingNotFound)

	lot.UserID = other.ID
	assert.ErrorIs(t, repo.UpdateLot(ctx, &lot), apperrors.ErrHoldingNotFound)
	assert.ErrorIs(t, repo.DeleteLot(ctx, lot.ID, other.ID), apperrors.ErrHoldingNotFound)

	got, err := repo.GetLot(ctx, lot.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Shares)
}

func TestHoldingRepository_InsertLot_UnknownInstrument(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewHoldingRepository(db)
	user := testutil.CreateUser(t, db)

	err := repo.InsertLot(context.Background(), &model.Lot{
		ID:           testutil.MakeID(),
		UserID:       user.ID,
		Symbol:       "NOPE",
		Shares:       1,
		PurchaseDate: time.Now(),
	})

	assert.Error(t, err, "foreign key to instrument is enforced")
}

func TestInstrumentRepository_GetInstrumentBySymbol(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewInstrumentRepository(db)

	inst, err := repo.GetInstrumentBySymbol(context.Background(), "KO")
	require.NoError(t, err)
	assert.Equal(t, "The Coca-Cola Company", inst.Name)

	_, err = repo.GetInstrumentBySymbol(context.Background(), "ko")
	assert.ErrorIs(t, err, apperrors.ErrInstrumentNotFound, "symbols are stored upper-case")
}

func TestUserRepository_InsertUser_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewUserRepository(db)
	existing := testutil.CreateUser(t, db)

	err := repo.InsertUser(context.Background(), &model.User{
		ID:           testutil.MakeID(),
		Name:         "Dup",
		Email:        existing.Email,
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	})

	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
}

func TestSnapshotRepository(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC) }
	snapshot := func(userID string, date time.Time, value float64) *model.PortfolioSnapshot {
		return &model.PortfolioSnapshot{
			ID:      testutil.MakeID(),
			UserID:  userID,
			Date:    date,
			Summary: model.PortfolioSummary{TotalCost: 100, TotalValue: value},
			Positions: []model.InstrumentPosition{{
				Symbol:      "AAPL",
				TotalShares: 1,
				MarketValue: value,
				Purchases:   []model.PurchaseBreakdown{{HoldingID: "h1", Shares: 1, PurchaseCost: 100, PurchaseDate: "2024-01-02"}},
			}},
			CalculatedAt: date.Add(22 * time.Hour),
		}
	}

	t.Run("history is date ordered and range inclusive", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewSnapshotRepository(db)
		user := testutil.CreateUser(t, db)
		ctx := context.Background()
		for _, d := range []int{5, 3, 4, 1} {
			require.NoError(t, repo.UpsertSnapshot(ctx, snapshot(user.ID, day(d), float64(100+d))))
		}

		// Execute
		var got []model.PortfolioSnapshot
		err := repo.GetSnapshots(ctx, user.ID, day(3), day(5), func(s model.PortfolioSnapshot) error {
			got = append(got, s)
			return nil
		})

		// Assert
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, day(3), got[0].Date)
		assert.Equal(t, day(5), got[2].Date)
		assert.Equal(t, 105.0, got[2].Summary.TotalValue)
		require.Len(t, got[2].Positions, 1)
		assert.Equal(t, "h1", got[2].Positions[0].Purchases[0].HoldingID)
	})

	t.Run("upsert replaces the same day", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewSnapshotRepository(db)
		user := testutil.CreateUser(t, db)
		ctx := context.Background()
		require.NoError(t, repo.UpsertSnapshot(ctx, snapshot(user.ID, day(1), 110)))

		// Execute
		require.NoError(t, repo.UpsertSnapshot(ctx, snapshot(user.ID, day(1), 120)))

		// Assert
		var got []model.PortfolioSnapshot
		require.NoError(t, repo.GetSnapshots(ctx, user.ID, day(1), day(1), func(s model.PortfolioSnapshot) error {
			got = append(got, s)
			return nil
		}))
		require.Len(t, got, 1)
		assert.Equal(t, 120.0, got[0].Summary.TotalValue)
	})

	t.Run("callback error stops iteration", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewSnapshotRepository(db)
		user := testutil.CreateUser(t, db)
		ctx := context.Background()
		require.NoError(t, repo.UpsertSnapshot(ctx, snapshot(user.ID, day(1), 1)))
		require.NoError(t, repo.UpsertSnapshot(ctx, snapshot(user.ID, day(2), 2)))

		stop := errors.New("stop")
		calls := 0
		err := repo.GetSnapshots(ctx, user.ID, day(1), day(2), func(model.PortfolioSnapshot) error {
			calls++
			return stop
		})

		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})
}
