// Package main applies SQL migrations in filename order.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("required environment variable DATABASE_URL not set")
		os.Exit(1)
	}
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "migrations"
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		fmt.Printf("connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		fmt.Printf("create schema_migrations: %v\n", err)
		os.Exit(1)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		fmt.Printf("list migrations: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(files)

	for _, file := range files {
		name := filepath.Base(file)

		var applied bool
		if err := conn.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)",
			name).Scan(&applied); err != nil {
			fmt.Printf("check %s: %v\n", name, err)
			os.Exit(1)
		}
		if applied {
			fmt.Printf("skip  %s\n", name)
			continue
		}

		sql, err := os.ReadFile(file)
		if err != nil {
			fmt.Printf("read %s: %v\n", name, err)
			os.Exit(1)
		}

		tx, err := conn.Begin(ctx)
		if err != nil {
			fmt.Printf("begin %s: %v\n", name, err)
			os.Exit(1)
		}
		if _, err := tx.Exec(ctx, string(sql)); err != nil {
			_ = tx.Rollback(ctx)
			fmt.Printf("apply %s: %v\n", name, err)
			os.Exit(1)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO schema_migrations (filename) VALUES ($1)", name); err != nil {
			_ = tx.Rollback(ctx)
			fmt.Printf("record %s: %v\n", name, err)
			os.Exit(1)
		}
		if err := tx.Commit(ctx); err != nil {
			fmt.Printf("commit %s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("apply %s\n", name)
	}

	fmt.Println("migrations up to date")
}
