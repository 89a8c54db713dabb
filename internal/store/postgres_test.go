package store

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soprim/pricebot/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_AppendTurn(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO turns`).
		WithArgs(pgxmock.AnyArg(), "+5215512345678", RoleUser, "precio de naproxeno", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	turn, err := s.AppendTurn(context.Background(), "+5215512345678", RoleUser, "precio de naproxeno")
	require.NoError(t, err)
	assert.NotEmpty(t, turn.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendTurn_InvalidRole(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	_, err := s.AppendTurn(context.Background(), "u1", "bot", "x")
	require.Error(t, err)
}

func TestPostgresStore_History_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, user_id, role, body, created_at FROM turns`).
		WithArgs("unknown", 20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "role", "body", "created_at"}))

	turns, err := s.History(context.Background(), "unknown", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LogQuote(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO quotes`).
		WithArgs(pgxmock.AnyArg(), "+5215512345678", "ibuprofeno 400", "IBUPROFENO 400 MG",
			string(model.SourceFanasa), "$33.00", 33.0, false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec, err := s.LogQuote(context.Background(), QuoteRecord{
		UserID:       "+5215512345678",
		Query:        "ibuprofeno 400",
		Product:      "IBUPROFENO 400 MG",
		Source:       model.SourceFanasa,
		PriceText:    "$33.00",
		PriceNumeric: 33,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS turns`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
