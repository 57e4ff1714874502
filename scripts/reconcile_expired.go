// Manual trigger for the access expiry reconciliation sweep.
//
// The sweep is integrated into the main application's background tasks
// (it runs every minute). This script is for triggering it by hand, for
// example after a bulk import of historical access records.
//
// Usage: go run scripts/reconcile_expired.go
package main

import (
	"coursehub_backend/internal/config"
	"coursehub_backend/internal/repository"
	"coursehub_backend/internal/service"
	"coursehub_backend/pkg/database"
	"coursehub_backend/pkg/logger"
	"log"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	resolver := service.NewAccessResolver(repository.NewAccessRecordRepository(db))

	log.Println("Reconciling expired access records...")
	total := 0
	for {
		n, err := resolver.ReconcileExpired()
		if err != nil {
			log.Fatalf("reconciliation failed after %d records: %v", total, err)
		}
		total += n
		if n == 0 {
			break
		}
	}
	log.Printf("Done. %d records reconciled.", total)
}
