// Command seed fills a development database with demo data.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"qipu/internal/config"
	"qipu/internal/database"
	"qipu/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	numMedia := flag.Int("media", 40, "Number of media rows to create")
	numEvents := flag.Int("events", 10, "Number of events to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	catalogPath := flag.String("catalog", "", "YAML file with tags and labels (built-in catalog when empty)")
	fast := flag.Bool("fast", false, "Skip password hashing; seeded users cannot log in")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	var catalog *seed.Catalog
	if *catalogPath != "" {
		raw, err := os.ReadFile(*catalogPath)
		if err != nil {
			log.Fatalf("Failed to read catalog: %v", err)
		}
		if catalog, err = seed.LoadCatalog(raw); err != nil {
			log.Fatalf("Invalid catalog: %v", err)
		}
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = seed.Seed(context.Background(), db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		NumMedia:    *numMedia,
		NumEvents:   *numEvents,
		ShouldClean: *shouldClean,
		Catalog:     catalog,
		Factory: seed.FactoryOptions{
			SkipBcrypt: *fast,
			Bucket:     cfg.GCSBucket,
		},
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
