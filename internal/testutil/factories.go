package testutil

import (
	"database/sql"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/finsight-ai/finsight-backend/internal/model"
)

// DefaultPassword is the plaintext password of users built by UserBuilder.
const DefaultPassword = "correct-horse-battery"

// UserBuilder provides a fluent interface for creating test users.
//
// Example usage:
//
//	user := testutil.NewUser().Build(t, db)
//
//	user := testutil.NewUser().
//	    WithEmail("jane@example.com").
//	    WithPassword("s3cret-pass").
//	    Build(t, db)
type UserBuilder struct {
	ID       string
	Name     string
	Email    string
	Password string
}

// NewUser creates a UserBuilder with sensible defaults and a unique email.
func NewUser() *UserBuilder {
	return &UserBuilder{
		ID:       MakeID(),
		Name:     "Test User",
		Email:    MakeEmail("user"),
		Password: DefaultPassword,
	}
}

// WithName sets a custom name.
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.Name = name
	return b
}

// WithEmail sets a custom email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.Email = email
	return b
}

// WithPassword sets a custom plaintext password.
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.Password = password
	return b
}

// Build creates the user in the database and returns it.
// Passwords are hashed at bcrypt.MinCost to keep tests fast.
func (b *UserBuilder) Build(t *testing.T, db *sql.DB) model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(b.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}

	createdAt := time.Now().UTC().Truncate(time.Second)
	_, err = db.Exec(
		`INSERT INTO "user" (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Email, string(hash), createdAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return model.User{
		ID:           b.ID,
		Name:         b.Name,
		Email:        b.Email,
		PasswordHash: string(hash),
		CreatedAt:    createdAt,
	}
}

// InstrumentBuilder provides a fluent interface for creating catalogue entries
// beyond the seeded ones.
//
// Example usage:
//
//	inst := testutil.NewInstrument().WithSymbol("ACME").WithName("Acme Corp").Build(t, db)
type InstrumentBuilder struct {
	Symbol string
	Name   string
	Sector string
}

// NewInstrument creates an InstrumentBuilder with a unique symbol.
func NewInstrument() *InstrumentBuilder {
	return &InstrumentBuilder{
		Symbol: MakeSymbol("T"),
		Name:   "Test Instrument Inc.",
		Sector: "Technology",
	}
}

// WithSymbol sets a custom symbol.
func (b *InstrumentBuilder) WithSymbol(symbol string) *InstrumentBuilder {
	b.Symbol = symbol
	return b
}

// WithName sets a custom name.
func (b *InstrumentBuilder) WithName(name string) *InstrumentBuilder {
	b.Name = name
	return b
}

// WithSector sets a custom sector.
func (b *InstrumentBuilder) WithSector(sector string) *InstrumentBuilder {
	b.Sector = sector
	return b
}

// Build creates the instrument in the database and returns it.
func (b *InstrumentBuilder) Build(t *testing.T, db *sql.DB) model.Instrument {
	t.Helper()

	_, err := db.Exec(`INSERT INTO instrument (symbol, name, sector) VALUES (?, ?, ?)`, b.Symbol, b.Name, b.Sector)
	if err != nil {
		t.Fatalf("Failed to create test instrument: %v", err)
	}

	return model.Instrument{Symbol: b.Symbol, Name: b.Name, Sector: b.Sector}
}

// HoldingBuilder provides a fluent interface for creating test lots.
//
// Example usage:
//
//	lot := testutil.NewHolding(user.ID, "ACME").
//	    WithShares(10).
//	    WithPurchaseCost(500).
//	    WithPurchaseDate(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)).
//	    Build(t, db)
type HoldingBuilder struct {
	ID           string
	UserID       string
	Symbol       string
	Shares       float64
	PurchaseCost float64
	PurchaseDate time.Time
}

// NewHolding creates a HoldingBuilder for userID and symbol with sensible defaults.
func NewHolding(userID, symbol string) *HoldingBuilder {
	return &HoldingBuilder{
		ID:           MakeID(),
		UserID:       userID,
		Symbol:       symbol,
		Shares:       10,
		PurchaseCost: 1000,
		PurchaseDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

// WithID sets a custom ID.
func (b *HoldingBuilder) WithID(id string) *HoldingBuilder {
	b.ID = id
	return b
}

// WithShares sets the share count.
func (b *HoldingBuilder) WithShares(shares float64) *HoldingBuilder {
	b.Shares = shares
	return b
}

// WithPurchaseCost sets the total amount paid for the lot.
func (b *HoldingBuilder) WithPurchaseCost(cost float64) *HoldingBuilder {
	b.PurchaseCost = cost
	return b
}

// WithPurchaseDate sets the purchase date.
func (b *HoldingBuilder) WithPurchaseDate(date time.Time) *HoldingBuilder {
	b.PurchaseDate = date
	return b
}

// Build creates the lot in the database and returns it.
func (b *HoldingBuilder) Build(t *testing.T, db *sql.DB) model.Lot {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO holding (id, user_id, symbol, shares, purchase_cost, purchase_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Symbol, b.Shares, b.PurchaseCost, b.PurchaseDate.Format("2006-01-02"),
	)
	if err != nil {
		t.Fatalf("Failed to create test holding: %v", err)
	}

	return model.Lot{
		ID:           b.ID,
		UserID:       b.UserID,
		Symbol:       b.Symbol,
		Shares:       b.Shares,
		PurchaseCost: b.PurchaseCost,
		PurchaseDate: b.PurchaseDate,
	}
}

// Convenience functions

// CreateUser creates a user with default values.
func CreateUser(t *testing.T, db *sql.DB) model.User {
	t.Helper()
	return NewUser().Build(t, db)
}

// CreateInstrument creates an instrument with the given symbol and name.
func CreateInstrument(t *testing.T, db *sql.DB, symbol, name string) model.Instrument {
	t.Helper()
	return NewInstrument().WithSymbol(symbol).WithName(name).Build(t, db)
}

// CreateHolding creates a lot with the given share count and total cost.
func CreateHolding(t *testing.T, db *sql.DB, userID, symbol string, shares, cost float64) model.Lot {
	t.Helper()
	return NewHolding(userID, symbol).WithShares(shares).WithPurchaseCost(cost).Build(t, db)
}
