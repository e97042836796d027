package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
)

func TestNewDependencies_FullyWired(t *testing.T) {
	deps := newDependencies()

	assert.NotNil(t, deps.LoggerFactory)
	assert.NotNil(t, deps.ConfigLoader)
	assert.NotNil(t, deps.GatewayFactory)
	assert.NotNil(t, deps.AllocatorFactory)
	assert.NotNil(t, deps.ResolverFactory)
	assert.NotNil(t, deps.PatcherFactory)
	assert.NotNil(t, deps.WriterFactory)
	assert.NotNil(t, deps.HookInstallerFactory)
	assert.NotNil(t, deps.UpdaterFactory)
	assert.NotNil(t, deps.Confirm)
	assert.NotNil(t, deps.SchedulePush)
	assert.NotNil(t, deps.Stdout)
	assert.NotNil(t, deps.Stderr)
}

func TestNewDependencies_FactoriesProduceInstances(t *testing.T) {
	deps := newDependencies()

	log := deps.LoggerFactory()
	require.NotNil(t, log)

	cfg, err := deps.ConfigLoader(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "origin", cfg.Remote)

	assert.NotNil(t, deps.WriterFactory(true))
	assert.NotNil(t, deps.HookInstallerFactory(t.TempDir(), log))
	assert.NotNil(t, deps.UpdaterFactory(cfg, log))
}

func TestNewDependencies_GatewayRejectsNonRepository(t *testing.T) {
	deps := newDependencies()
	log := deps.LoggerFactory()

	_, err := deps.GatewayFactory(t.TempDir(), time.Second, log)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
}
