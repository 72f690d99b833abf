package database

import (
	"testing"

	"resourcehub/internal/config"
	"resourcehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestPersistentModels_IncludesDocument(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*models.Document); ok {
			found = true
		}
	}
	require.True(t, found, "PersistentModels should include Document")
}

func TestDialector_RejectsUnknownDriver(t *testing.T) {
	_, err := Dialector(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)

	d, err := Dialector(&config.Config{DBDriver: "postgres", DBHost: "localhost"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}

func TestConnect_SQLiteMigratesDocuments(t *testing.T) {
	db, err := Connect(&config.Config{DBDriver: "sqlite", SQLitePath: "file::memory:"})
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.Document{}))

	doc := models.Document{Collection: "resources", Key: "r1", Body: datatypes.JSON(`{"title":"Go"}`)}
	require.NoError(t, db.Create(&doc).Error)

	dup := models.Document{Collection: "resources", Key: "r1", Body: datatypes.JSON(`{}`)}
	assert.Error(t, db.Create(&dup).Error, "path must be unique")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}
