package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"relgraph/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), MemoryPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesSchema(t *testing.T) {
	s := openTestStore(t)

	version, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)

	for _, table := range []string{"businesses", "departments", "employees", "business_departments"} {
		var name string
		err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
	}
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	s := openTestStore(t)

	var enabled int
	require.NoError(t, s.DB().QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

func TestOpen_FileIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "relgraph.db")
	ctx := context.Background()

	first, err := Open(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, first.Update(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO businesses (id, name, created_at) VALUES ('b1', 'Acme', '2022-07-07T00:00:00Z')`)
		return err
	}))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path, nil)
	require.NoError(t, err)
	defer second.Close()

	var name string
	require.NoError(t, second.DB().QueryRow(`SELECT name FROM businesses WHERE id = 'b1'`).Scan(&name))
	assert.Equal(t, "Acme", name)
	assert.Equal(t, path, second.Path())
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.db")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("not a database ", 100)), 0o644))

	s, err := Open(context.Background(), path, nil)
	require.Error(t, err)
	assert.Nil(t, s)

	var initErr *domain.StorageInitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, path, initErr.Path)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "", nil)
	var initErr *domain.StorageInitError
	require.ErrorAs(t, err, &initErr)
}

func TestUpdate_Commits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO departments (id, name, created_at) VALUES ('d1', 'Finance', '2022-07-07T00:00:00Z')`)
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, s.View(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM departments`).Scan(&count)
	}))
	assert.Equal(t, 1, count)
}

func TestUpdate_RollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO departments (id, name, created_at) VALUES ('d1', 'Finance', '2022-07-07T00:00:00Z')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var commitErr *domain.CommitError
	assert.False(t, errors.As(err, &commitErr), "fn errors are not commit errors")

	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM departments`).Scan(&count))
	assert.Zero(t, count)
}

func TestUpdate_CommitFailure(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.Update(ctx, func(tx *sql.Tx) error {
		cancel()
		return nil
	})

	var commitErr *domain.CommitError
	require.ErrorAs(t, err, &commitErr)
}

func TestUpdate_BeginFailureIsNotCommitError(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Update(ctx, func(tx *sql.Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)

	var commitErr *domain.CommitError
	assert.False(t, errors.As(err, &commitErr), "nothing was committed")
}

func TestDataVersion_OnlyExternalCommits(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.db")

	s, err := Open(ctx, path, nil)
	require.NoError(t, err)
	defer s.Close()

	other, err := Open(ctx, path, nil)
	require.NoError(t, err)
	defer other.Close()

	insert := func(st *Store, id string) {
		require.NoError(t, st.Update(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO businesses (id, name, created_at) VALUES (?, 'Acme', '2022-07-07T00:00:00Z')`, id)
			return err
		}))
	}

	before, err := s.DataVersion(ctx)
	require.NoError(t, err)

	insert(s, "b1")
	own, err := s.DataVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, own, "own commits leave data_version unchanged")

	insert(other, "b2")
	external, err := s.DataVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, own, external)
}

func TestClose_Idempotent(t *testing.T) {
	s, err := Open(context.Background(), MemoryPath, nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
