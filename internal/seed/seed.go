package seed

import (
	"context"
	"fmt"
	"log"

	"qipu/internal/models"

	"gorm.io/gorm"
)

// Options configure a seeding run.
type Options struct {
	NumUsers    int
	NumPosts    int
	NumMedia    int
	NumEvents   int
	ShouldClean bool
	Catalog     *Catalog
	Factory     FactoryOptions
}

// Seeder fills a database with a connected demo social graph.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder for db.
func NewSeeder(db *gorm.DB, opts FactoryOptions) (*Seeder, error) {
	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, factory: f}, nil
}

// seedTables lists every table, dependents first.
var seedTables = []string{
	"user_tags", "contact_labels", "contacts", "relationship_labels",
	"attendees", "events", "media_tags", "post_tags", "media", "posts",
	"uniques", "tags", "users",
}

// ClearAll removes all rows. On PostgreSQL identities restart as well.
func (s *Seeder) ClearAll() error {
	if s.db.Dialector.Name() == "postgres" {
		sql := "TRUNCATE TABLE "
		for i, t := range seedTables {
			if i > 0 {
				sql += ", "
			}
			sql += t
		}
		return s.db.Exec(sql + " RESTART IDENTITY CASCADE").Error
	}
	for _, t := range seedTables {
		if err := s.db.Exec("DELETE FROM " + t).Error; err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return nil
}

// SeedUsers creates n users and a contact between each consecutive pair.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	for i := 1; i < len(users); i++ {
		if _, err := s.factory.CreateContact(users[i-1], users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// SeedContent spreads posts, media and events across users. Items get up to
// two catalog tags each; events invite the next user in line.
func (s *Seeder) SeedContent(ctx context.Context, users []*models.User, opts Options) error {
	if len(users) == 0 {
		return nil
	}
	var tagIDs []uint
	if err := s.db.Model(&models.Tag{}).Order("id").Pluck("id", &tagIDs).Error; err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	pick := func(i int) []uint {
		if len(tagIDs) == 0 {
			return nil
		}
		first := tagIDs[i%len(tagIDs)]
		second := tagIDs[(i*7+3)%len(tagIDs)]
		if first == second {
			return []uint{first}
		}
		return []uint{first, second}
	}

	for i := 0; i < opts.NumPosts; i++ {
		if _, err := s.factory.CreatePost(ctx, users[i%len(users)], pick(i)); err != nil {
			return fmt.Errorf("seed post: %w", err)
		}
	}
	for i := 0; i < opts.NumMedia; i++ {
		if _, err := s.factory.CreateMedia(ctx, users[i%len(users)], pick(i+1)); err != nil {
			return fmt.Errorf("seed media: %w", err)
		}
	}
	for i := 0; i < opts.NumEvents; i++ {
		host := users[i%len(users)]
		event, err := s.factory.CreateEvent(host)
		if err != nil {
			return err
		}
		if len(users) > 1 {
			if _, err := s.factory.CreateAttendee(event, users[(i+1)%len(users)]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Seed runs a full seeding pass.
func Seed(ctx context.Context, db *gorm.DB, opts Options) error {
	log.Printf("seeding %d users, %d posts, %d media, %d events", opts.NumUsers, opts.NumPosts, opts.NumMedia, opts.NumEvents)

	s, err := NewSeeder(db, opts.Factory)
	if err != nil {
		return err
	}
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
	}

	cat := opts.Catalog
	if cat == nil {
		cat = DefaultCatalog()
	}
	if err := ApplyTags(db, cat); err != nil {
		return err
	}

	users, err := s.SeedUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if len(users) > 0 {
		if err := ApplyLabels(db, cat, users[0].ID); err != nil {
			return err
		}
	}
	if err := s.SeedContent(ctx, users, opts); err != nil {
		return err
	}

	log.Printf("seeding done, accounts use password %q", DefaultPassword)
	return nil
}
