package repository

import (
	"log"
	"os"
	"testing"

	"resourcehub/internal/config"
	"resourcehub/internal/database"
	"resourcehub/internal/store"
)

var testStore *store.DocumentStore

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")

	db, err := database.Connect(&config.Config{DBDriver: "sqlite", SQLitePath: "file::memory:"})
	if err != nil {
		log.Printf("Repository tests skipped: sqlite unavailable: %v", err)
		os.Exit(0)
	}
	testStore = store.NewDocumentStore(db, nil)

	os.Exit(m.Run())
}
