// Package seed provides database seeding utilities for development and
// testing.
package seed

import (
	_ "embed"
	"fmt"
	"log"

	"doneby/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed videos.yml
var videosYAML []byte

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumEntries  int
	ShouldClean bool
}

type videoFixture struct {
	YoutubeID   string `yaml:"youtube_id"`
	Title       string `yaml:"title"`
	ChannelID   string `yaml:"channel_id"`
	ChannelName string `yaml:"channel_name"`
}

type videoFixtureFile struct {
	Videos []videoFixture `yaml:"videos"`
}

// DemoVideos returns the curated catalog fixtures embedded in the binary.
func DemoVideos() ([]models.Video, error) {
	var file videoFixtureFile
	if err := yaml.Unmarshal(videosYAML, &file); err != nil {
		return nil, fmt.Errorf("parsing video fixtures: %w", err)
	}
	videos := make([]models.Video, 0, len(file.Videos))
	for _, f := range file.Videos {
		videos = append(videos, models.Video{
			YoutubeID:   f.YoutubeID,
			URL:         "https://www.youtube.com/watch?v=" + f.YoutubeID,
			Title:       f.Title,
			ChannelID:   f.ChannelID,
			ChannelName: f.ChannelName,
		})
	}
	return videos, nil
}

// EnsureDemoVideos upserts the curated catalog, keyed on YoutubeID so reruns
// are idempotent. Returns the catalog rows as persisted.
func EnsureDemoVideos(db *gorm.DB) ([]models.Video, error) {
	videos, err := DemoVideos()
	if err != nil {
		return nil, err
	}
	for i := range videos {
		if err := db.Where(models.Video{YoutubeID: videos[i].YoutubeID}).
			FirstOrCreate(&videos[i]).Error; err != nil {
			return nil, fmt.Errorf("seeding video %s: %w", videos[i].YoutubeID, err)
		}
	}
	return videos, nil
}

// Seed populates the database with demo data: the curated video catalog, fake
// users, and a spread of pending and achieved entries with engagement.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database with %d users and %d entries...", opts.NumUsers, opts.NumEntries)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway")
		}
	}

	factory := NewFactory(db)

	videos, err := EnsureDemoVideos(db)
	if err != nil {
		return err
	}

	users, err := factory.CreateUsers(opts.NumUsers)
	if err != nil {
		return err
	}

	if err := factory.CreateEntries(users, videos, opts.NumEntries); err != nil {
		return err
	}
	if err := factory.CreateEngagement(users); err != nil {
		return err
	}

	log.Println("Seeding complete")
	return nil
}

func clearData(db *gorm.DB) error {
	// Child tables first so FKs do not block the truncation.
	for _, table := range []string{"entry_likes", "cheers", "entries", "videos", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
