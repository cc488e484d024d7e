package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/neurobridge-companion/internal/domain/auth"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	svc, err := Open(nil, Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "nested", "creds.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	require.NoError(t, svc.AutoMigrateAll())
	require.True(t, svc.DB().Migrator().HasTable(&auth.StoredCredential{}))
	require.Equal(t, DriverSQLite, svc.Driver())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(nil, Config{Driver: "mongo", DSN: "x"})
	require.Error(t, err)

	_, err = Open(nil, Config{Driver: "sqlite"})
	require.Error(t, err)
}
