package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	surreal "github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/heritage/internal/common"
	tcommon "github.com/bobmcallan/heritage/tests/common"
)

// testDB connects to the shared SurrealDB container with a database of its
// own and applies the schema.
func testDB(t *testing.T) *surreal.DB {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)
	ctx := context.Background()

	db, err := surreal.New(sc.Address())
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": "root",
		"pass": "root",
	}); err != nil {
		t.Fatalf("sign in to SurrealDB: %v", err)
	}

	// subtest names contain "/" which SurrealDB rejects in database names
	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbName := fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000)
	if err := db.Use(ctx, "heritage_test", dbName); err != nil {
		t.Fatalf("select namespace/database: %v", err)
	}

	if err := applySchema(ctx, db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close(context.Background())
	})

	return db
}

func testManager(t *testing.T) *Manager {
	t.Helper()
	return newManager(testDB(t), testLogger())
}

func testLogger() *common.Logger {
	return common.NewSilentLogger()
}
