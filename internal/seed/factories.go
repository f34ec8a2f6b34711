// Package seed provides helpers to create demo data for development and
// tests. Nothing here runs in production paths.
package seed

import (
	"context"
	"fmt"
	"time"

	"qipu/internal/models"
	"qipu/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is set on every seeded account.
const DefaultPassword = "Qipu!password1"

// FactoryOptions tune generated data.
type FactoryOptions struct {
	// SkipBcrypt stores a throwaway hash instead of hashing DefaultPassword
	// per user. Seeded users then cannot log in.
	SkipBcrypt bool
	// MaxDays spreads created times over this many days back.
	MaxDays int
	// Bucket names the storage bucket media permalinks point into.
	Bucket string
	// Seed makes the generated values reproducible when non-zero.
	Seed int64
}

// Factory builds domain entities and persists them through the
// repositories, so tag links are written the same way the API writes them.
type Factory struct {
	db    *gorm.DB
	opts  FactoryOptions
	faker *gofakeit.Faker
	hash  string

	posts repository.PostRepository
	media repository.MediaRepository
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts FactoryOptions) (*Factory, error) {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.Bucket == "" {
		opts.Bucket = "qipu-media-dev"
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	hash := "seeded-without-password"
	if !opts.SkipBcrypt {
		raw, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		hash = string(raw)
	}

	return &Factory{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(seed),
		hash:  hash,
		posts: repository.NewPostRepository(db),
		media: repository.NewMediaRepository(db),
	}, nil
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// CreateUser persists a user with a unique username.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := fmt.Sprintf("%s%d", f.faker.Username(), f.faker.Number(100, 99999))
	if len(username) > 30 {
		username = username[:30]
	}
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  f.hash,
		FirstName: first,
		LastName:  last,
		Bio:       f.faker.Sentence(8),
		Picture:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
	for _, o := range overrides {
		o(user)
	}
	user.ApplyProfileDefaults()
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreatePost persists a post by user carrying tagIDs.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, tagIDs []uint, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		UserID:    user.ID,
		Content:   f.faker.Paragraph(1, 3, 12, " "),
		CreatedAt: f.pastTime(),
		TagIDs:    tagIDs,
	}
	if len(post.Content) > models.MaxPostContentLength {
		post.Content = post.Content[:models.MaxPostContentLength]
	}
	for _, o := range overrides {
		o(post)
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateMedia persists an image or video row pointing into the bucket.
func (f *Factory) CreateMedia(ctx context.Context, user *models.User, tagIDs []uint, overrides ...func(*models.Media)) (*models.Media, error) {
	kind, ext := models.MediaKindImage, ".jpg"
	if f.faker.Number(0, 4) == 0 {
		kind, ext = models.MediaKindVideo, ".mp4"
	}
	name := f.faker.UUID() + ext
	url := fmt.Sprintf("https://storage.cloud.google.com/%s/%s", f.opts.Bucket, name)
	m := &models.Media{
		UserID:      user.ID,
		Caption:     f.faker.Sentence(6),
		MediaType:   kind,
		Permalink:   url,
		Shortcode:   name,
		StorageFile: url,
		IsPublished: f.faker.Bool(),
		Category:    1,
		CreatedAt:   f.pastTime(),
		TagIDs:      tagIDs,
	}
	if len(m.Caption) > 150 {
		m.Caption = m.Caption[:150]
	}
	for _, o := range overrides {
		o(m)
	}
	if err := f.media.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// CreateEvent persists an event hosted by user lasting one to four hours.
func (f *Factory) CreateEvent(user *models.User, overrides ...func(*models.Event)) (*models.Event, error) {
	start := f.faker.DateRange(time.Now().AddDate(0, -1, 0), time.Now().AddDate(0, 2, 0)).Truncate(time.Hour)
	e := &models.Event{
		UserID:      user.ID,
		Title:       f.faker.HipsterSentence(3),
		Description: f.faker.Paragraph(1, 2, 10, " "),
		Location:    f.faker.City(),
		StartTime:   start,
		EndTime:     start.Add(time.Duration(f.faker.Number(1, 4)) * time.Hour),
	}
	if len(e.Title) > 100 {
		e.Title = e.Title[:100]
	}
	for _, o := range overrides {
		o(e)
	}
	if err := f.db.Create(e).Error; err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

// CreateAttendee adds user to event with a random answer.
func (f *Factory) CreateAttendee(event *models.Event, user *models.User) (*models.Attendee, error) {
	a := &models.Attendee{EventID: event.ID, UserID: user.ID, Status: f.status()}
	if err := f.db.Create(a).Error; err != nil {
		return nil, fmt.Errorf("create attendee: %w", err)
	}
	return a, nil
}

// CreateContact records a request from requester to recipient with a
// random answer.
func (f *Factory) CreateContact(requester, recipient *models.User) (*models.Contact, error) {
	c := &models.Contact{RequesterID: requester.ID, RecipientID: recipient.ID, Status: f.status()}
	if c.Status != models.StatusPending {
		answered := time.Now()
		c.ResponseReceivedAt = &answered
	}
	if err := f.db.Omit("Labels").Create(c).Error; err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return c, nil
}

func (f *Factory) status() models.ResponseStatus {
	return []models.ResponseStatus{models.StatusPending, models.StatusAccepted, models.StatusAccepted, models.StatusRefused}[f.faker.Number(0, 3)]
}
