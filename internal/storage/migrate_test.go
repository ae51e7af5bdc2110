package storage

import (
	"context"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestRunMigrationsAppliesInLexicalOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"0002_messages.sql": {Data: []byte("CREATE TABLE messages ()")},
		"0001_users.sql":    {Data: []byte("CREATE TABLE users ()")},
		"0003_reserved.sql": {Data: nil},
		"notes.txt":         {Data: []byte("not a migration")},
	}

	// expectations are ordered; empty and non-sql files never reach the DB
	mock.ExpectExec("CREATE TABLE users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE messages").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, RunMigrations(context.Background(), db, fsys))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsStopsOnFirstFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"0001_users.sql":    {Data: []byte("CREATE TABLE users ()")},
		"0002_messages.sql": {Data: []byte("CREATE TABLE messages ()")},
	}

	mock.ExpectExec("CREATE TABLE users").WillReturnError(fmt.Errorf("syntax error"))

	err = RunMigrations(context.Background(), db, fsys)
	require.Error(t, err)
	require.Contains(t, err.Error(), "apply migration 0001_users.sql")
	require.NoError(t, mock.ExpectationsWereMet())
}
