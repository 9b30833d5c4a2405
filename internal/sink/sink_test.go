package sink

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_WriteAppendOnly(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "nse"."insider_trading" \("symbol", "acq_name"\) VALUES \(\$1, \$2\), \(\$3, \$4\)$`).
		WithArgs("TCS", "Promoter", "INFY", nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := NewPostgres(mock).Write(context.Background(), Batch{
		Table:   "nse.insider_trading",
		Columns: []string{"symbol", "acq_name"},
		Rows:    [][]any{{"TCS", "Promoter"}, {"INFY", nil}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_WriteUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`ON CONFLICT \("symbol"\) DO UPDATE SET "company_name" = EXCLUDED."company_name"`).
		WithArgs("Tata Consultancy Services Limited", "TCS").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := NewPostgres(mock).Write(context.Background(), Batch{
		Table:      "nse.metadata",
		Columns:    []string{"company_name", "symbol"},
		UniqueKeys: []string{"symbol"},
		Rows:       [][]any{{"Tata Consultancy Services Limited", "TCS"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_CreatesTableOnce(t *testing.T) {
	sdb, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sdb.Close() //nolint:errcheck

	b := Batch{
		Table:      "nse.metadata",
		Columns:    []string{"company_name", "symbol"},
		UniqueKeys: []string{"symbol"},
		Rows:       [][]any{{"Infosys Limited", "INFY"}},
	}

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "nse_metadata" \("company_name", "symbol", UNIQUE \("symbol"\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	for range 2 {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "nse_metadata"`).
			WithArgs("Infosys Limited", "INFY").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
	}

	s := NewSQLite(sdb)
	for range 2 {
		n, err := s.Write(context.Background(), b)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_EmptyBatch(t *testing.T) {
	sdb, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sdb.Close() //nolint:errcheck

	n, err := NewSQLite(sdb).Write(context.Background(), Batch{Table: "nse.x", Columns: []string{"a"}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_CreateError(t *testing.T) {
	sdb, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sdb.Close() //nolint:errcheck

	mock.ExpectExec("CREATE TABLE").WillReturnError(assert.AnError)

	_, err = NewSQLite(sdb).Write(context.Background(), Batch{
		Table:   "nse.x",
		Columns: []string{"a"},
		Rows:    [][]any{{1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink: create sqlite table nse.x")
}
