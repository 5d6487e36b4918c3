package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
)

func TestGetTableColumns_SQLite(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE records (id INTEGER PRIMARY KEY, uid TEXT NOT NULL, data TEXT)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "records")
	require.NoError(t, err)
	require.Len(t, columns, 3)

	assert.Equal(t, ColumnInfo{Field: "id", Type: "integer", Null: "YES", Key: "PRI"}, columns[0])
	assert.Equal(t, "NO", columns[1].Null)
	assert.Equal(t, "text", columns[2].Type)

	// PRAGMA table_info returns no rows for a missing table
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)

	missing, err := MissingColumns(db, "records", "uid", "Data", "flags")
	require.NoError(t, err)
	assert.Equal(t, []string{"flags"}, missing)
}

func TestGetTableColumns_MySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), Config{TimeoutSeconds: 1})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("ID", "BIGINT UNSIGNED", "NO", "PRI", nil, "auto_increment").
		AddRow("Uid", "VARCHAR(64)", "NO", "UNI", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `records`").WillReturnRows(rows)

	columns, err := GetTableColumns(db, "records")
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "id", columns[0].Field)
	assert.Equal(t, "bigint unsigned", columns[0].Type)
	assert.Equal(t, "uid", columns[1].Field)
	assert.Equal(t, "varchar(64)", columns[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
