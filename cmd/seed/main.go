// Command main runs the database seeder for DoneBy.
package main

import (
	"flag"
	"log"

	"doneby/internal/bootstrap"
	"doneby/internal/config"
	"doneby/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 25, "Number of users to create")
	numEntries := flag.Int("entries", 100, "Number of action-plan entries to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")
	log.Printf("Target: %d users, %d entries, clean=%v\n", *numUsers, *numEntries, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumEntries:  *numEntries,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done! Your database is now populated with demo data.")
	log.Println("All seeded users have the password: password123")
}
