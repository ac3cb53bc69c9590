package migrations_test

import (
	"context"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/estate-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/estate-backend/migrations"
)

func TestStatus_AllApplied(t *testing.T) {
	dsn := testhelper.DSN(t)

	statuses, err := migrations.Status(context.Background(), dsn)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)

	for _, s := range statuses {
		assert.Equal(t, goose.StateApplied, s.State, "migration %s", s.Source.Path)
	}
}

func TestNewProvider_NilDB(t *testing.T) {
	t.Parallel()

	p, err := migrations.NewProvider(nil)
	assert.Error(t, err, "provider requires a database handle")
	assert.Nil(t, p)
}
