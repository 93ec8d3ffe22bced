// Command seed fills the database with demo groups, users, posts, comments and follows.
package main

import (
	"flag"
	"log"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 150, "Number of posts to create")
	maxFollows := flag.Int("follows", 5, "Maximum authors each user follows")
	maxComments := flag.Int("comments", 3, "Maximum comments per post")
	groupsFile := flag.String("groups", "", "YAML file with group fixtures (defaults to built-in groups)")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	groups := seed.DefaultGroups
	if *groupsFile != "" {
		loaded, err := seed.LoadGroupsFile(*groupsFile)
		if err != nil {
			log.Fatalf("❌ Failed to load groups: %v", err)
		}
		groups = loaded
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// group writes drop cached choice lists the running server reads
	if rdb := cache.InitRedis(cfg.RedisURL); rdb != nil {
		defer rdb.Close()
	}

	if *shouldClean {
		if err := seed.ClearAll(db); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	res, err := seed.NewFactory(db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		MaxFollows:  *maxFollows,
		MaxComments: *maxComments,
		Seed:        *randSeed,
	}).Run(groups)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✅ Seeding complete")
	log.Printf("   groups=%d users=%d posts=%d comments=%d follows=%d",
		len(res.Groups), len(res.Users), len(res.Posts), res.Comments, res.Follows)
	log.Printf("   every user's password is %q", seed.DefaultPassword)
}
