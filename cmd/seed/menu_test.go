package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tableside/pos-backend/internal/catalog"
	"github.com/tableside/pos-backend/pkg/db/dbtest"
	"github.com/tableside/pos-backend/pkg/outbox"
)

func TestSeedMenuRunsOnce(t *testing.T) {
	client := dbtest.NewClient(t, "seed")
	conn := client.DB()
	svc, err := catalog.NewService(catalog.NewRepository(conn), client, outbox.NewService(outbox.NewRepository(conn), nil), nil)
	require.NoError(t, err)
	ctx := context.Background()

	created, err := seedMenu(ctx, svc)
	require.NoError(t, err)
	assert.Equal(t, len(dishes), created)

	listed, err := svc.ListDishes(ctx, catalog.DishFilters{})
	require.NoError(t, err)
	require.Len(t, listed, len(dishes))
	for _, dish := range listed {
		assert.NotEmpty(t, dish.Recipe, dish.Name)
	}

	again, err := seedMenu(ctx, svc)
	require.NoError(t, err)
	assert.Zero(t, again)
}
