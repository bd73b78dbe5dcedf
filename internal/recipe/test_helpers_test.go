package recipe

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipes.db")
	s, err := Open(context.Background(), DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func importDoc(t *testing.T, s *SQLStore, doc string) int {
	t.Helper()
	records, err := ParseRecords([]byte(doc))
	require.NoError(t, err)
	n, err := s.Import(context.Background(), NormalizeAll(records))
	require.NoError(t, err)
	return n
}

func countRows(t *testing.T, s *SQLStore) int64 {
	t.Helper()
	n, err := s.count(context.Background(), Predicate{})
	require.NoError(t, err)
	return n
}
