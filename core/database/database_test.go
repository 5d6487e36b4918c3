package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
)

func TestConnect(t *testing.T) {
	t.Run("SQLiteInMemory", func(t *testing.T) {
		db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
		require.NoError(t, err)
		assert.Equal(t, "sqlite", db.Dialector.Name())
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		db, err := Connect(Config{Driver: "oracle"})
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("MySQLUnreachable", func(t *testing.T) {
		cfg := Config{
			Driver:         "mysql",
			Host:           "localhost",
			Port:           9999, // Unused port
			User:           "root",
			Password:       "wrongpassword",
			Name:           "contacts",
			TimeoutSeconds: 1,
		}
		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(Config{User: "sync", Password: "p@ss:word", Host: "db", Port: 3307, Name: "contacts", TimeoutSeconds: 5})
	assert.Equal(t,
		"sync:p%40ss%3Aword@tcp(db:3307)/contacts?charset=utf8mb4&parseTime=True&loc=UTC&timeout=5s&readTimeout=5s&writeTimeout=5s",
		dsn)
}

func TestOpen_WithSQLMock(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	// gorm pings on open, Open pings again
	mock.ExpectPing()
	mock.ExpectPing()

	dialector := mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true})
	db, err := Open(dialector, Config{TimeoutSeconds: 1})
	require.NoError(t, err)
	assert.Equal(t, "mysql", db.Dialector.Name())
	assert.NoError(t, mock.ExpectationsWereMet())
}
