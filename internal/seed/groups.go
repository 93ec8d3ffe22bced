package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/models"
	"yatube/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupFixture describes one group in a fixture file.
type GroupFixture struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

type groupFile struct {
	Groups []GroupFixture `yaml:"groups"`
}

// DefaultGroups are seeded when no fixture file is given.
var DefaultGroups = []GroupFixture{
	{Title: "Лев Толстой", Slug: "tolstoy", Description: "Группа, посвящённая Льву Толстому"},
	{Title: "Кошки", Slug: "cats", Description: "Фотографии котов и истории о них"},
	{Title: "Путешествия", Slug: "travel", Description: "Заметки из поездок"},
	{Title: "Программирование", Slug: "programming", Description: "Код, инструменты и практика"},
}

// LoadGroups decodes a YAML document of the form
//
//	groups:
//	  - title: Cats
//	    slug: cats
//	    description: ...
//
// and checks that every entry has a title and a valid, unique slug.
func LoadGroups(r io.Reader) ([]GroupFixture, error) {
	var doc groupFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode group fixtures: %w", err)
	}

	seen := make(map[string]bool, len(doc.Groups))
	for i, g := range doc.Groups {
		g.Title = strings.TrimSpace(g.Title)
		g.Slug = strings.TrimSpace(g.Slug)
		if g.Title == "" {
			return nil, fmt.Errorf("group %d: title is required", i+1)
		}
		if err := validation.ValidateSlug(g.Slug); err != nil {
			return nil, fmt.Errorf("group %d: %w", i+1, err)
		}
		if seen[g.Slug] {
			return nil, fmt.Errorf("group %d: duplicate slug %q", i+1, g.Slug)
		}
		seen[g.Slug] = true
		doc.Groups[i] = g
	}
	return doc.Groups, nil
}

// LoadGroupsFile reads fixtures from path.
func LoadGroupsFile(path string) ([]GroupFixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadGroups(f)
}

// Groups upserts fixtures by slug and returns the stored groups.
func Groups(db *gorm.DB, fixtures []GroupFixture) ([]models.Group, error) {
	groups := make([]models.Group, 0, len(fixtures))
	for _, item := range fixtures {
		group := models.Group{Title: item.Title, Slug: item.Slug, Description: item.Description}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description"}),
		}).Create(&group).Error
		if err != nil {
			return nil, fmt.Errorf("seed group %s: %w", item.Slug, err)
		}
		// re-read: after a conflict the driver may not report the existing row's id
		var stored models.Group
		if err := db.Where("slug = ?", item.Slug).First(&stored).Error; err != nil {
			return nil, err
		}
		cache.InvalidateGroup(context.Background(), item.Slug)
		groups = append(groups, stored)
	}
	return groups, nil
}
