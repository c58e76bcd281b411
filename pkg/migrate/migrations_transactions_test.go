package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quansahdev/datamart-backend/pkg/migrate"
)

func TestTransactionsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_transactions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no transactions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS transactions",
		"reference TEXT NOT NULL UNIQUE",
		"CHECK (amount >= 0)",
		"CREATE TABLE IF NOT EXISTS order_items",
		"FOREIGN KEY (transaction_id) REFERENCES transactions(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS transactions",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestWalletsMigrationEnforcesNonNegativeBalances(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_wallets.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no wallets migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS wallets",
		"balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)",
		"CREATE TABLE IF NOT EXISTS profit_wallets",
		"available_balance BIGINT NOT NULL DEFAULT 0 CHECK (available_balance >= 0)",
		"DROP TABLE IF EXISTS profit_wallets",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
