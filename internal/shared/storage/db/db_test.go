package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                   { return nil }
func (nopStmt) NumInput() int                                  { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) func() {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	return func() {
		openDB = prev
	}
}

func resetSingleton() {
	singletonMu.Lock()
	singletonDB = nil
	singletonMu.Unlock()
}

func TestSharedReturnsSamePointer(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()
	resetSingleton()

	db1, err := Shared(context.Background(), "ignored", PoolOptions(ProfileLambda))
	require.NoError(t, err)
	db2, err := Shared(context.Background(), "ignored", PoolOptions(ProfileLambda))
	require.NoError(t, err)
	assert.Same(t, db1, db2)
}

func TestPoolOptionsAppliesEnvOverrides(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	opts := PoolOptions(ProfileServer)
	db, err := Connect(context.Background(), "ignored", opts)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
	assert.Equal(t, Options{
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxLifetime: 20 * time.Minute,
		ConnMaxIdleTime: 45 * time.Second,
		PingTimeout:     time.Second,
	}, opts)
}

func TestPoolOptionsIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("DB_PING_TIMEOUT", "soon")

	assert.Equal(t, profiles[ProfileLambda], PoolOptions(ProfileLambda))
}

func TestPoolProfiles(t *testing.T) {
	lambda, server, migrate := PoolOptions(ProfileLambda), PoolOptions(ProfileServer), PoolOptions(ProfileMigrate)

	assert.Less(t, lambda.MaxOpenConns, server.MaxOpenConns)
	assert.Equal(t, 1, migrate.MaxOpenConns)
	assert.Equal(t, server, PoolOptions("unknown"))
}

func TestConnectFillsZeroOptions(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	db, err := Connect(context.Background(), "ignored", Options{})
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, profiles[ProfileServer].MaxOpenConns, db.Stats().MaxOpenConnections)

	_, err = Connect(context.Background(), " ", Options{})
	assert.Error(t, err)
}

func TestRuntimeProfile(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	assert.Equal(t, ProfileServer, RuntimeProfile())
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "sentiment-worker")
	assert.Equal(t, ProfileLambda, RuntimeProfile())
}

func TestSharedRetriesAfterFailure(t *testing.T) {
	var calls int32
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, driver.ErrBadConn
		}
		ensureTestDriverRegistered()
		return sql.Open("dbtest", dsn)
	}
	defer func() {
		openDB = prev
	}()
	ensureTestDriverRegistered()
	resetSingleton()

	_, err := Shared(context.Background(), "ignored", PoolOptions(ProfileLambda))
	require.Error(t, err)
	db2, err := Shared(context.Background(), "ignored", PoolOptions(ProfileLambda))
	require.NoError(t, err)
	assert.NotNil(t, db2)
}
