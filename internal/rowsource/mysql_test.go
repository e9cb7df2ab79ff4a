package rowsource_test

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidingjing/shp-processor/internal/cell"
	"github.com/aidingjing/shp-processor/internal/rowsource"
)

func TestMySQLFetch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "name", "coordinates"}).
		AddRow(int64(1), []byte("alpha"), []byte("[[116.4, 39.9]]")).
		AddRow(int64(2), nil, []byte("[[121.5, 31.2], [121.6, 31.3]]"))
	mock.ExpectQuery("SELECT \\* FROM places").WillReturnRows(rows)

	source := rowsource.NewMySQLFromDB(db, "SELECT * FROM places")
	defer source.Close()

	result, err := source.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "coordinates"}, result.Columns)
	require.Len(t, result.Rows, 2)

	assert.Equal(t, cell.Number, result.Rows[0]["id"].Type())
	assert.Equal(t, "alpha", result.Rows[0]["name"].Text())
	assert.Equal(t, "[[116.4, 39.9]]", result.Rows[0]["coordinates"].Text())

	assert.True(t, result.Rows[1]["name"].IsNull())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLFetchQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("table gone"))

	source := rowsource.NewMySQLFromDB(db, "SELECT * FROM missing")
	defer source.Close()

	_, err = source.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table gone")
}

func TestMySQLFetchCancelled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2))
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	source := rowsource.NewMySQLFromDB(db, "SELECT id FROM places")
	defer source.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = source.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
