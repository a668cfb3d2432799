// Package main provides a CLI for database schema management.
// Usage: migrate up | down | status | create <name>
//
// Migrations are applied by the goose binary from db/migrations.
package main

import (
	"fmt"
	"os"
	"os/exec"
)

const migrationsDir = "db/migrations"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	args, err := gooseArgs(os.Args[1], os.Args[2:], os.Getenv("DATABASE_URL"))
	if err != nil {
		fmt.Println(err)
		printUsage()
		os.Exit(1)
	}
	if args == nil {
		printUsage()
		return
	}

	cmd := exec.Command("goose", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Printf("migrate %s failed: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// gooseArgs maps a subcommand to goose arguments. It returns nil for help.
func gooseArgs(command string, rest []string, dsn string) ([]string, error) {
	switch command {
	case "help", "--help", "-h":
		return nil, nil
	case "create":
		if len(rest) != 1 {
			return nil, fmt.Errorf("create needs a migration name")
		}
		return []string{"-dir", migrationsDir, "create", rest[0], "sql"}, nil
	case "up", "down", "status", "redo":
		if dsn == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		return []string{"-dir", migrationsDir, "postgres", dsn, command}, nil
	}
	return nil, fmt.Errorf("unknown command: %s", command)
}

func printUsage() {
	fmt.Println(`stockledger migration CLI

Usage:
  migrate <command>

Commands:
  up             Apply all pending migrations
  down           Roll back the latest migration
  redo           Roll back and re-apply the latest migration
  status         Show migration status
  create <name>  Create a new SQL migration
  help           Show this help

Environment:
  DATABASE_URL   PostgreSQL connection string`)
}
