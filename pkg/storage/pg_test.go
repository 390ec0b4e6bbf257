package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostgres(t *testing.T) {
	runStorageTests(t, func(t *testing.T) Storage {
		return createPG(t)
	})
}

// docker run -it --rm -p 5432:5432 -e POSTGRES_DB=librepod -e POSTGRES_HOST_AUTH_METHOD=trust postgres
func createPG(t *testing.T) *Postgres {
	if testing.Short() {
		t.Skip("Skipping postgres test in short mode")
	}

	const localConnectionString = "postgres://postgres:@localhost/librepod?sslmode=disable"

	postgres, err := NewPostgres(localConnectionString, true)
	require.NoError(t, err)

	_, err = postgres.db.Exec(`TRUNCATE episodes, channels`)
	require.NoError(t, err)

	return postgres
}
