package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/comercio/backend/internal/infrastructure/config"
	"github.com/comercio/backend/internal/infrastructure/logger"
	"github.com/comercio/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

func main() {
	var migrationsPath string
	flag.StringVar(&migrationsPath, "path", "migrations", "path to the migrations directory")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	migrator, err := migration.New(cfg.Database.URL(), migrationsPath, log)
	if err != nil {
		log.Fatal("failed to initialize migrator", zap.Error(err))
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			log.Error("error closing migrator", zap.Error(err))
		}
	}()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		if err := migrator.Up(); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
	case "down":
		if err := migrator.Down(); err != nil {
			log.Fatal("rollback failed", zap.Error(err))
		}
	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			log.Fatal("failed to read version", zap.Error(err))
		}
		fmt.Printf("version: %d dirty: %v\n", version, dirty)
	case "force":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "force requires a version argument")
			os.Exit(2)
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid version:", flag.Arg(1))
			os.Exit(2)
		}
		if err := migrator.Force(version); err != nil {
			log.Fatal("force failed", zap.Error(err))
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown command:", cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: migrate [-path dir] <command>

Commands:
  up             apply all pending migrations
  down           roll back the most recent migration
  version        print the current schema version
  force <n>      set the schema version without running migrations
`)
	flag.PrintDefaults()
}
