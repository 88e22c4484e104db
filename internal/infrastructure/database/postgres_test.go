package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/disfruleg/disfruleg-pos/internal/config"
	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/pkg/utils"
)

func TestMigrateAndSeed(t *testing.T) {
	log := zap.NewNop()
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, false, log)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db, log))

	admin := &config.AdminConfig{Username: "admin", Password: "s3cret"}
	require.NoError(t, SeedDefaultData(db, admin, log))
	// second run is a no-op
	require.NoError(t, SeedDefaultData(db, admin, log))

	var users []entity.SystemUser
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsAdmin())
	assert.True(t, users[0].Active)
	assert.Equal(t, "Administrador", users[0].FullName)
	assert.True(t, utils.CheckPasswordHash("s3cret", users[0].PasswordHash))
}

func TestSeedWithoutAdminConfig(t *testing.T) {
	log := zap.NewNop()
	db, err := NewSQLiteDB(":memory:", false, log)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db, log))
	require.NoError(t, SeedDefaultData(db, &config.AdminConfig{}, log))

	var count int64
	require.NoError(t, db.Model(&entity.SystemUser{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"}, false, zap.NewNop())
	assert.Error(t, err)
}
