package db

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInsert_AppendOnly(t *testing.T) {
	stmt, err := BuildInsert(Postgres, InsertConfig{
		Table:   "nse.insider_trading",
		Columns: []string{"symbol", "qty"},
	}, 2)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "nse"."insider_trading" ("symbol", "qty") VALUES ($1, $2), ($3, $4)`,
		stmt)
}

func TestBuildInsert_Upsert(t *testing.T) {
	stmt, err := BuildInsert(Postgres, InsertConfig{
		Table:        "nse.metadata",
		Columns:      []string{"company_name", "symbol", "cg_record_id"},
		ConflictKeys: []string{"symbol"},
	}, 1)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "nse"."metadata" ("company_name", "symbol", "cg_record_id") VALUES ($1, $2, $3)`+
			` ON CONFLICT ("symbol") DO UPDATE SET "company_name" = EXCLUDED."company_name", "cg_record_id" = EXCLUDED."cg_record_id"`,
		stmt)
}

func TestBuildInsert_AllKeysDoNothing(t *testing.T) {
	stmt, err := BuildInsert(Postgres, InsertConfig{
		Table:        "t",
		Columns:      []string{"a", "b"},
		ConflictKeys: []string{"a", "b"},
	}, 1)
	require.NoError(t, err)
	assert.Contains(t, stmt, `ON CONFLICT ("a", "b") DO NOTHING`)
}

func TestBuildInsert_SQLiteDialect(t *testing.T) {
	stmt, err := BuildInsert(SQLite, InsertConfig{
		Table:   "nse.insider_trading",
		Columns: []string{"symbol", "qty"},
	}, 2)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "nse_insider_trading" ("symbol", "qty") VALUES (?, ?), (?, ?)`,
		stmt)
}

func TestBuildInsert_Errors(t *testing.T) {
	_, err := BuildInsert(Postgres, InsertConfig{Table: "t"}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")

	_, err = BuildInsert(Postgres, InsertConfig{Table: "t", Columns: []string{"a"}}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rows")
}

func TestChunkRows(t *testing.T) {
	rows := make([][]any, 70000)
	for i := range rows {
		rows[i] = []any{i}
	}
	chunks := chunkRows(rows, 1)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], maxParams)
	assert.Len(t, chunks[1], 70000-maxParams)

	chunks = chunkRows(rows[:10], 3)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 10)
}

func TestInsertRows_EmptyRows(t *testing.T) {
	n, err := InsertRows(context.Background(), nil, InsertConfig{
		Table:   "nse.test",
		Columns: []string{"id", "name"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestInsertRows_NoColumns(t *testing.T) {
	_, err := InsertRows(context.Background(), nil, InsertConfig{
		Table: "nse.test",
	}, [][]any{{1, "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestInsertRows_SingleStatement(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "nse"."test"`).
		WithArgs("A", int64(1), "B", nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := InsertRows(context.Background(), mock, InsertConfig{
		Table:   "nse.test",
		Columns: []string{"symbol", "qty"},
	}, [][]any{{"A", int64(1)}, {"B", nil}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRows_ExecErrorRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = InsertRows(context.Background(), mock, InsertConfig{
		Table:   "nse.test",
		Columns: []string{"symbol"},
	}, [][]any{{"A"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: insert into nse.test")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"nse.insider_trading", `"nse"."insider_trading"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeTable(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	result := quoteAndJoin([]string{"id", "name", "value"})
	assert.Equal(t, `"id", "name", "value"`, result)
}
