package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"doneby/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var planTemplates = []string{
	"I will %s this week",
	"Try to %s before the weekend",
	"Practice %s for 20 minutes every evening",
	"%s and post the result",
	"Finally %s like the video shows",
}

var planActions = []string{
	"bake a sourdough loaf", "run 5k without stopping", "learn ten new phrases",
	"clear out my desk drawers", "sharpen every kitchen knife", "draft a monthly budget",
	"hold a five-minute plank", "fix the dripping tap", "meal-prep three lunches",
	"stretch before bed",
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUsers persists n fake users with the shared demo password.
func (f *Factory) CreateUsers(n int) ([]models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		username := strings.ToLower(gofakeit.Username())
		if len(username) > 24 {
			username = username[:24]
		}
		user := models.User{
			Username: fmt.Sprintf("%s%d", username, i),
			Email:    fmt.Sprintf("%s%d@%s", username, i, gofakeit.DomainName()),
			Password: string(hashed),
			Bio:      gofakeit.Sentence(8),
		}
		if err := f.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("seeding user %d: %w", i, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// PlanContent returns one realistic action-plan sentence.
func (f *Factory) PlanContent() string {
	template := planTemplates[f.rng.Intn(len(planTemplates))]
	return fmt.Sprintf(template, planActions[f.rng.Intn(len(planActions))])
}

// CreateEntries spreads n entries across the users and videos. Most entries
// are achieved with a reflection; each user keeps at most one pending.
func (f *Factory) CreateEntries(users []models.User, videos []models.Video, n int) error {
	if len(users) == 0 || len(videos) == 0 {
		return nil
	}

	hasPending := make(map[uint]bool, len(users))
	for i := 0; i < n; i++ {
		user := users[f.rng.Intn(len(users))]
		video := videos[f.rng.Intn(len(videos))]

		createdAt := time.Now().Add(-time.Duration(f.rng.Intn(60*24)) * time.Hour)
		deadline := createdAt.AddDate(0, 0, models.DefaultDeadlineDays)
		entry := models.Entry{
			UserID:    user.ID,
			VideoID:   video.ID,
			Content:   f.PlanContent(),
			Deadline:  &deadline,
			CreatedAt: createdAt,
		}

		// Roughly 3 in 4 entries are achieved; the rest stay pending, one
		// per user at most.
		if f.rng.Intn(4) != 0 {
			achievedAt := createdAt.Add(time.Duration(1+f.rng.Intn(6*24)) * time.Hour)
			reflection := gofakeit.Sentence(12)
			entry.AchievedAt = &achievedAt
			entry.Reflection = &reflection
		} else if hasPending[user.ID] {
			achievedAt := createdAt.Add(time.Hour)
			entry.AchievedAt = &achievedAt
		} else {
			hasPending[user.ID] = true
		}

		if err := f.db.Create(&entry).Error; err != nil {
			return fmt.Errorf("seeding entry %d: %w", i, err)
		}
	}
	return nil
}

// CreateEngagement sprinkles likes and cheers over the seeded entries and
// videos.
func (f *Factory) CreateEngagement(users []models.User) error {
	var entries []models.Entry
	if err := f.db.Find(&entries).Error; err != nil {
		return err
	}
	var videos []models.Video
	if err := f.db.Find(&videos).Error; err != nil {
		return err
	}

	for _, entry := range entries {
		for _, user := range users {
			if user.ID == entry.UserID || f.rng.Intn(4) != 0 {
				continue
			}
			like := models.EntryLike{UserID: user.ID, EntryID: entry.ID}
			if err := f.db.Create(&like).Error; err != nil {
				return err
			}
		}
	}

	for _, video := range videos {
		for _, user := range users {
			if f.rng.Intn(5) != 0 {
				continue
			}
			cheer := models.Cheer{UserID: user.ID, VideoID: video.ID}
			if err := f.db.Create(&cheer).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
