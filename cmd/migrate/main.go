// Command migrate applies the schema for environments where the server does
// not automigrate on boot (production runs with APP_ENV=production).
package main

import (
	"flag"
	"log"

	"doneby/internal/config"
	"doneby/internal/database"
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(database.Models()...); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Schema migration completed")
}
