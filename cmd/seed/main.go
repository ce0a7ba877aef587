// Command seed runs the database seeder for the hackathon platform.
package main

import (
	"flag"
	"log"

	"github.com/romeirofernandes/vhack-sub000/internal/config"
	"github.com/romeirofernandes/vhack-sub000/internal/database"
	"github.com/romeirofernandes/vhack-sub000/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	teamsPer := flag.Int("teams", 5, "Number of teams per hackathon")
	chatPer := flag.Int("chat", 20, "Number of chat messages per hackathon room")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")
	log.Printf("Target: %d users, %d teams/hackathon, clean=%v\n", *numUsers, *teamsPer, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	users, err := s.SeedUsers(*numUsers)
	if err != nil {
		log.Fatalf("User seeding failed: %v", err)
	}

	hackathons, err := s.SeedHackathons(users, *teamsPer)
	if err != nil {
		log.Fatalf("Hackathon seeding failed: %v", err)
	}

	if err := s.SeedChat(hackathons, *chatPer); err != nil {
		log.Fatalf("Chat seeding failed: %v", err)
	}

	log.Println("All done! The database is populated with test data.")
	log.Printf("All test users share the password: %s", seed.TestPassword)
}
