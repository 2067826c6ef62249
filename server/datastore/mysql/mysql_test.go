package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/VividCortex/mysqlerr"
	"github.com/WatchBeam/clock"
	"github.com/go-kit/log"
	driver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincham/mango/server/config"
	"github.com/fincham/mango/server/mango"
)

func newMockStore(t *testing.T) (*Datastore, sqlmock.Sqlmock, *clock.MockClock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	c := clock.NewMockClock()
	ds := NewWithDB(sqlx.NewDb(db, "mysql"), c, log.NewNopLogger())
	return ds, mock, c
}

func TestNewHostDuplicateNodeKey(t *testing.T) {
	ds, mock, _ := newMockStore(t)

	mock.ExpectExec("INSERT INTO hosts").
		WillReturnError(&driver.MySQLError{Number: mysqlerr.ER_DUP_ENTRY})

	_, err := ds.NewHost(context.Background(), &mango.Host{NodeKey: "aaaa"})
	require.Error(t, err)
	assert.True(t, mango.IsExists(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewHost(t *testing.T) {
	ds, mock, _ := newMockStore(t)

	mock.ExpectExec("INSERT INTO hosts").
		WillReturnResult(sqlmock.NewResult(42, 1))

	host, err := ds.NewHost(context.Background(), &mango.Host{NodeKey: "aaaa", Identifier: "aaaa"})
	require.NoError(t, err)
	assert.Equal(t, uint(42), host.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateHost(t *testing.T) {
	ds, mock, _ := newMockStore(t)

	lastSeen := time.Now().UTC().Truncate(time.Second)
	columns := []string{"id", "node_key", "identifier", "last_seen", "invalidate", "architecture", "os_release", "cpu_brand", "ram"}
	mock.ExpectQuery("SELECT (.+) FROM hosts WHERE node_key").
		WithArgs("aaaa").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, "aaaa", "web1", lastSeen, false, "generic", "5.15.0-56-generic", "Apple M1", 17179869184))

	host, err := ds.AuthenticateHost(context.Background(), "aaaa")
	require.NoError(t, err)
	assert.Equal(t, uint(1), host.ID)
	assert.Equal(t, "web1", host.Identifier)
	assert.Equal(t, lastSeen, host.LastSeen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateHostUnknownKey(t *testing.T) {
	ds, mock, _ := newMockStore(t)

	columns := []string{"id", "node_key", "identifier", "last_seen", "invalidate", "architecture", "os_release", "cpu_brand", "ram"}
	mock.ExpectQuery("SELECT (.+) FROM hosts WHERE node_key").
		WithArgs("bbbb").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := ds.AuthenticateHost(context.Background(), "bbbb")
	require.Error(t, err)
	assert.True(t, mango.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteHostNotFound(t *testing.T) {
	ds, mock, _ := newMockStore(t)

	mock.ExpectExec("DELETE FROM hosts WHERE id").
		WithArgs(uint(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ds.DeleteHost(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, mango.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkHostSeen(t *testing.T) {
	ds, mock, c := newMockStore(t)

	seen := c.Now()
	mock.ExpectExec("UPDATE hosts SET last_seen").
		WithArgs(seen, "aaaa").
		WillReturnResult(sqlmock.NewResult(0, 1))

	host := &mango.Host{ID: 1, NodeKey: "aaaa"}
	require.NoError(t, ds.MarkHostSeen(context.Background(), host, seen))
	assert.Equal(t, seen, host.LastSeen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLogResultsTransaction(t *testing.T) {
	ds, mock, c := newMockStore(t)

	host := &mango.Host{ID: 1, Identifier: "web1"}
	entries := []*mango.LogEntry{
		{Name: "disk-space", Action: "added", Output: `{"free_gb":10}`},
		{Name: "disk-space", Action: "removed", Output: `{"free_gb":12}`},
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE hosts SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO log_entries").
		WithArgs("disk-space", "added", `{"free_gb":10}`, c.Now(), uint(1)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO log_entries").
		WithArgs("disk-space", "removed", `{"free_gb":12}`, c.Now(), uint(1)).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectCommit()

	require.NoError(t, ds.RecordLogResults(context.Background(), host, entries))
	assert.Equal(t, uint(7), entries[0].ID)
	assert.Equal(t, uint(8), entries[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLogResultsRollsBackOnFailure(t *testing.T) {
	ds, mock, _ := newMockStore(t)

	host := &mango.Host{ID: 1}
	entries := []*mango.LogEntry{{Name: "disk-space", Action: "added", Output: "{}"}}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE hosts SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO log_entries").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := ds.RecordLogResults(context.Background(), host, entries)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateMysqlConnectionString(t *testing.T) {
	conf := config.MysqlConfig{
		Protocol: "tcp",
		Address:  "localhost:3306",
		Username: "mango",
		Password: "hunter2",
		Database: "mango",
	}
	assert.Equal(t,
		"mango:hunter2@tcp(localhost:3306)/mango?charset=utf8mb4&parseTime=true&loc=UTC",
		generateMysqlConnectionString(conf),
	)
}
