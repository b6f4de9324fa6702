package migrations

import (
	"strings"
	"testing"
)

func TestBookstoreMigrationContainsBothStores(t *testing.T) {
	body, err := scripts.ReadFile("sql/000001_bookstores.up.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	sql := string(body)
	requiredSnippets := []string{
		"CREATE TABLE book_store_one",
		`"bookName" VARCHAR`,
		"stars DOUBLE PRECISION",
		"CREATE TABLE book_store_two",
		"genre JSONB",
		"plot_summary VARCHAR",
		"book_title VARCHAR",
	}

	for _, snippet := range requiredSnippets {
		if !strings.Contains(sql, snippet) {
			t.Fatalf("migration missing required snippet: %s", snippet)
		}
	}
}

func TestEmbeddedMigrationsLoad(t *testing.T) {
	items, err := loadMigrations(scripts)
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	if len(items) == 0 || items[0].Version != 1 {
		t.Fatalf("items = %+v", items)
	}
	if !strings.Contains(items[0].Down, "DROP TABLE IF EXISTS book_store_one") {
		t.Fatalf("down SQL = %q", items[0].Down)
	}
}
