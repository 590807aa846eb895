package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_TIMEZONE", "America/Sao_Paulo")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 35, cfg.MaterializeHorizonDays)
	assert.Equal(t, "America/Sao_Paulo", cfg.Location().String())
}

func TestLoad_PostgresRequiresCredentials(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")
	_, err := Load()
	assert.ErrorContains(t, err, "cassandra")
}

func TestDSN(t *testing.T) {
	d := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "academy", SSLMode: "disable", StatementTimeout: 3 * time.Second}
	assert.Equal(t,
		"postgres://u:p@db:5432/academy?sslmode=disable&application_name=academy&options=-c%20statement_timeout%3D3000",
		d.DSN())
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=academy sslmode=disable", d.ListenerDSN())
}
