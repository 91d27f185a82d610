package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	cases := []struct {
		name string
		dsn  string
		want string
	}{
		{
			name: "bare path",
			dsn:  "/var/lib/lojaflow.db",
			want: "/var/lib/lojaflow.db?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate",
		},
		{
			name: "file uri keeps its params",
			dsn:  "file:/tmp/a.db?cache=shared",
			want: "file:/tmp/a.db?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate&cache=shared",
		},
		{
			name: "foreign keys cannot be turned off",
			dsn:  "/tmp/a.db?_fk=0&_foreign_keys=off",
			want: "/tmp/a.db?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate",
		},
		{
			name: "explicit lock mode and timeout win",
			dsn:  "/tmp/a.db?_txlock=deferred&_timeout=100",
			want: "/tmp/a.db?_foreign_keys=on&_timeout=100&_txlock=deferred",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SQLiteDSN(tc.dsn)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSQLiteDSNRejectsBadInput(t *testing.T) {
	_, err := SQLiteDSN("?_foreign_keys=on")
	assert.Error(t, err)

	_, err = SQLiteDSN("/tmp/a.db?_txlock=%zz")
	assert.Error(t, err)
}
