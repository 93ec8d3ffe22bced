// Package main provides admin management utilities for yatube content.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"gorm.io/gorm"
)

const emptyValue = "-пусто-"

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin list <post|group|comment|follow> [-search q] [-filter field=value]")
	fmt.Println("  go run ./cmd/admin create-group <title> <slug> [description]")
	fmt.Println("  go run ./cmd/admin set-group <post_id> <slug|->")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// group writes drop cached choice lists the running server reads
	if rdb := cache.InitRedis(cfg.RedisURL); rdb != nil {
		defer rdb.Close()
	}

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "list":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		if err := list(ctx, db, os.Args[2], os.Args[3:]); err != nil {
			log.Fatalf("List failed: %v", err)
		}

	case "create-group":
		if len(os.Args) < 4 {
			fmt.Println("Usage: go run ./cmd/admin create-group <title> <slug> [description]")
			os.Exit(1)
		}
		description := ""
		if len(os.Args) > 4 {
			description = os.Args[4]
		}
		createGroup(ctx, db, os.Args[2], os.Args[3], description)

	case "set-group":
		if len(os.Args) < 4 {
			fmt.Println("Usage: go run ./cmd/admin set-group <post_id> <slug|->")
			os.Exit(1)
		}
		setGroup(ctx, db, os.Args[2], os.Args[3])

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

type listArgs struct {
	search string
	field  string
	value  string
}

func parseListArgs(entity string, args []string) (listArgs, error) {
	fs := flag.NewFlagSet("list "+entity, flag.ContinueOnError)
	search := fs.String("search", "", "search term")
	filter := fs.String("filter", "", "filter as field=value")
	if err := fs.Parse(args); err != nil {
		return listArgs{}, err
	}
	out := listArgs{search: strings.TrimSpace(*search)}
	if *filter != "" {
		field, value, ok := strings.Cut(*filter, "=")
		if !ok || value == "" {
			return listArgs{}, fmt.Errorf("filter must look like field=value, got %q", *filter)
		}
		out.field, out.value = field, value
	}
	return out, nil
}

func (a listArgs) requireField(allowed string) error {
	if a.field != "" && a.field != allowed {
		return fmt.Errorf("unknown filter %q (allowed: %s)", a.field, allowed)
	}
	return nil
}

func (a listArgs) date() (*time.Time, error) {
	if a.field == "" {
		return nil, nil
	}
	day, err := time.Parse(time.DateOnly, a.value)
	if err != nil {
		return nil, fmt.Errorf("date filter wants YYYY-MM-DD: %w", err)
	}
	return &day, nil
}

func list(ctx context.Context, db *gorm.DB, entity string, rawArgs []string) error {
	args, err := parseListArgs(entity, rawArgs)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch entity {
	case "post":
		if err := args.requireField("pub_date"); err != nil {
			return err
		}
		day, err := args.date()
		if err != nil {
			return err
		}
		posts, err := repository.NewPostRepository(db).List(ctx, repository.PostQuery{
			TextContains: args.search,
			PubDate:      day,
		}, -1, 0)
		if err != nil {
			return err
		}
		row(w, "pk", "text", "pub_date", "author", "group")
		for _, p := range posts {
			group := ""
			if p.Group != nil {
				group = p.Group.String()
			}
			row(w, strconv.FormatUint(uint64(p.ID), 10), p.String(), p.PubDate.Format(time.DateTime), p.Author.Username, group)
		}

	case "group":
		if err := args.requireField("slug"); err != nil {
			return err
		}
		groups, err := repository.NewGroupRepository(db).List(ctx, repository.GroupQuery{
			TitleContains: args.search,
			Slug:          args.value,
		})
		if err != nil {
			return err
		}
		row(w, "pk", "title", "slug", "description")
		for _, g := range groups {
			row(w, strconv.FormatUint(uint64(g.ID), 10), g.Title, g.Slug, g.Description)
		}

	case "comment":
		if err := args.requireField("created"); err != nil {
			return err
		}
		day, err := args.date()
		if err != nil {
			return err
		}
		comments, err := repository.NewCommentRepository(db).List(ctx, repository.CommentQuery{
			AuthorUsername: args.search,
			Created:        day,
		})
		if err != nil {
			return err
		}
		row(w, "pk", "post", "author", "text")
		for _, c := range comments {
			post := ""
			if c.Post != nil {
				post = c.Post.String()
			}
			row(w, strconv.FormatUint(uint64(c.ID), 10), post, c.Author.Username, c.String())
		}

	case "follow":
		if err := args.requireField("user"); err != nil {
			return err
		}
		var userID uint64
		if args.value != "" {
			if userID, err = strconv.ParseUint(args.value, 10, 64); err != nil {
				return fmt.Errorf("user filter wants a numeric id: %w", err)
			}
		}
		follows, err := repository.NewFollowRepository(db).List(ctx, repository.FollowQuery{
			Username: args.search,
			UserID:   uint(userID),
		})
		if err != nil {
			return err
		}
		row(w, "pk", "user", "author")
		for _, f := range follows {
			row(w, strconv.FormatUint(uint64(f.ID), 10), f.User.Username, f.Author.Username)
		}

	default:
		return fmt.Errorf("unknown entity %q", entity)
	}
	return nil
}

func row(w *tabwriter.Writer, cells ...string) {
	for i, cell := range cells {
		cell = strings.ReplaceAll(strings.TrimSpace(cell), "\n", " ")
		if cell == "" {
			cell = emptyValue
		}
		cells[i] = cell
	}
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}

func createGroup(ctx context.Context, db *gorm.DB, title, slug, description string) {
	title = strings.TrimSpace(title)
	if title == "" {
		fmt.Println("Title is required")
		os.Exit(1)
	}
	if err := validation.ValidateSlug(slug); err != nil {
		fmt.Printf("Invalid slug: %v\n", err)
		os.Exit(1)
	}

	group := &models.Group{Title: title, Slug: slug, Description: description}
	if err := repository.NewGroupRepository(db).Create(ctx, group); err != nil {
		log.Fatalf("Failed to create group: %v", err)
	}
	fmt.Printf("Created group %s (ID: %d, slug: %s)\n", group.Title, group.ID, group.Slug)
}

func setGroup(ctx context.Context, db *gorm.DB, rawPostID, slug string) {
	postID, err := strconv.ParseUint(rawPostID, 10, 64)
	if err != nil {
		fmt.Printf("Invalid post id: %s\n", rawPostID)
		os.Exit(1)
	}

	var groupID *uint
	if slug != "-" {
		group, err := repository.NewGroupRepository(db).GetBySlug(ctx, slug)
		if err != nil {
			if models.IsNotFound(err) {
				fmt.Printf("Group with slug %s not found\n", slug)
				os.Exit(1)
			}
			log.Fatalf("Database error: %v", err)
		}
		groupID = &group.ID
	}

	if err := repository.NewPostRepository(db).SetGroup(ctx, uint(postID), groupID); err != nil {
		if models.IsNotFound(err) {
			fmt.Printf("Post with ID %d not found\n", postID)
			os.Exit(1)
		}
		log.Fatalf("Failed to update post: %v", err)
	}

	if groupID == nil {
		fmt.Printf("Post %d removed from its group\n", postID)
		return
	}
	fmt.Printf("Post %d moved to group %s\n", postID, slug)
}
