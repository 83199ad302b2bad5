package services

import (
	"context"
	"testing"

	"github.com/localnerve/jam-build-configurator/data"
	"github.com/localnerve/jam-build-configurator/internal/configdoc"
	"github.com/localnerve/jam-build-configurator/internal/database"
	"github.com/localnerve/jam-build-configurator/internal/testutil"
	"github.com/localnerve/jam-build-configurator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *GormConfigStore {
	t.Helper()
	return NewConfigStore(testutil.NewTestDB(t))
}

func cabinet() configdoc.Document {
	return configdoc.NewBuilder("Cabinet").
		Asset("body", "cabinet/body.glb").
		DoorCounts(1, 2).
		Rule(1, types.DoorSolid, []string{"Door_01"}, []string{"Door_02"}).
		Rule(2, types.DoorSolid, []string{"Door_01", "Door_02"}, nil).
		DoorPair("Door_01", "Glass_Door_01").
		Build()
}

func TestConfigStoreSaveAndLoad(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	version, err := store.SaveConfig(ctx, "Cabinet", cabinet(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)

	doc, version, err := store.LoadConfig(ctx, "Cabinet")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)
	assert.Equal(t, cabinet(), doc)
}

func TestConfigStoreNameFollowsKey(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SaveConfig(ctx, "Tall", cabinet(), 0)
	require.NoError(t, err)

	doc, _, err := store.LoadConfig(ctx, "Tall")
	require.NoError(t, err)
	assert.Equal(t, "Tall", doc.Name)
}

func TestConfigStoreLoadMissing(t *testing.T) {
	_, _, err := newStore(t).LoadConfig(context.Background(), "Nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestConfigStoreVersionConflicts(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SaveConfig(ctx, "Cabinet", cabinet(), 3)
	assert.ErrorIs(t, err, types.ErrVersion, "new model must start at version 0")

	_, err = store.SaveConfig(ctx, "Cabinet", cabinet(), 0)
	require.NoError(t, err)

	changed := cabinet().WithRule(3, types.DoorSolid, configdoc.Bucket{Show: []string{"Door_03"}})
	_, err = store.SaveConfig(ctx, "Cabinet", changed, 0)
	assert.ErrorIs(t, err, types.ErrVersion)

	version, err := store.SaveConfig(ctx, "Cabinet", changed, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), version)

	_, err = store.SaveConfig(ctx, "Cabinet", cabinet(), 1)
	assert.ErrorIs(t, err, types.ErrVersion, "stale writer loses")

	doc, version, err := store.LoadConfig(ctx, "Cabinet")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), version)
	_, ok := doc.BucketFor(3, types.DoorSolid)
	assert.True(t, ok)
}

func TestConfigStoreIdenticalSaveKeepsVersion(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SaveConfig(ctx, "Cabinet", cabinet(), 0)
	require.NoError(t, err)

	version, err := store.SaveConfig(ctx, "Cabinet", cabinet(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)

	revisions, err := store.Revisions(ctx, "Cabinet")
	require.NoError(t, err)
	assert.Empty(t, revisions)
}

func TestConfigStoreRevisions(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	doc := cabinet()
	version, err := store.SaveConfig(ctx, "Cabinet", doc, 0)
	require.NoError(t, err)
	for _, count := range []int{3, 4} {
		doc = doc.WithRule(count, types.DoorSolid, configdoc.Bucket{Show: []string{"Door_01"}})
		version, err = store.SaveConfig(ctx, "Cabinet", doc, version)
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(3), version)

	revisions, err := store.Revisions(ctx, "Cabinet")
	require.NoError(t, err)
	require.Len(t, revisions, 2)
	assert.Equal(t, uint64(2), revisions[0].Version)
	assert.Equal(t, uint64(1), revisions[1].Version)

	_, err = store.Revisions(ctx, "Nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestConfigStoreListAndDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, name := range []string{"Tall", "Cabinet"} {
		_, err := store.SaveConfig(ctx, name, cabinet(), 0)
		require.NoError(t, err)
	}
	_, err := store.SaveConfig(ctx, "Tall", cabinet().WithoutRule(2, types.DoorSolid), 1)
	require.NoError(t, err)

	list, err := store.ListConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Cabinet", list[0].Model)
	assert.Equal(t, uint64(1), list[0].Version)
	assert.Equal(t, "Tall", list[1].Model)
	assert.Equal(t, uint64(2), list[1].Version)

	assert.ErrorIs(t, store.DeleteConfig(ctx, "Tall", 1), types.ErrVersion)
	require.NoError(t, store.DeleteConfig(ctx, "Tall", 2))
	assert.ErrorIs(t, store.DeleteConfig(ctx, "Tall", 2), types.ErrNotFound)

	var revisions int64
	require.NoError(t, store.DB.Table("model_revisions").Count(&revisions).Error)
	assert.Zero(t, revisions)

	list, err = store.ListConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Cabinet", list[0].Model)
}

func TestSeedPresets(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	presets, err := data.Presets()
	require.NoError(t, err)
	require.NotEmpty(t, presets)

	seeded, err := SeedPresets(ctx, store, presets)
	require.NoError(t, err)
	assert.Equal(t, len(presets), seeded)

	// Stored models are left alone
	seeded, err = SeedPresets(ctx, store, presets)
	require.NoError(t, err)
	assert.Zero(t, seeded)

	doc, version, err := store.LoadConfig(ctx, "Undercounter")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)
	assert.Equal(t, undercounter(t), doc)
}

func TestConfigStoreMariaDB(t *testing.T) {
	cfg := testutil.StartMariaDB(t)

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, database.AutoMigrate(db))

	store := NewConfigStore(db)
	ctx := context.Background()

	version, err := store.SaveConfig(ctx, "Undercounter", undercounter(t), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)

	changed := undercounter(t).WithoutRule(3, types.DoorGlass)
	version, err = store.SaveConfig(ctx, "Undercounter", changed, version)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), version)

	_, err = store.SaveConfig(ctx, "Undercounter", undercounter(t), 1)
	assert.ErrorIs(t, err, types.ErrVersion)

	doc, _, err := store.LoadConfig(ctx, "Undercounter")
	require.NoError(t, err)
	_, ok := doc.BucketFor(3, types.DoorGlass)
	assert.False(t, ok)

	revisions, err := store.Revisions(ctx, "Undercounter")
	require.NoError(t, err)
	require.Len(t, revisions, 1)

	require.NoError(t, store.DeleteConfig(ctx, "Undercounter", 2))
}
