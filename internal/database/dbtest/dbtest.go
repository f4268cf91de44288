// Package dbtest поднимает изолированную in-memory БД для тестов.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/Chijioke91/Task-Api/internal/database"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
)

func New(t *testing.T) *database.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), false)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}
