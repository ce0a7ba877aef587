// Command migrate runs database migrations and exits. Production deploys
// run this explicitly; development relies on auto-migration at startup.
package main

import (
	"log"

	"github.com/romeirofernandes/vhack-sub000/internal/config"
	"github.com/romeirofernandes/vhack-sub000/internal/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations applied successfully")
}
