package models

import "time"

// Video is the canonical catalog record for one YouTube video.
// Exactly one row exists per distinct YoutubeID; creation is an upsert keyed
// on that ID. A Video lives only as long as at least one Entry references it;
// the catalog garbage-collects it when the last entry is removed or retargeted
// away.
type Video struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	YoutubeID string `gorm:"uniqueIndex;not null;size:16" json:"youtube_id"`
	URL       string `gorm:"not null" json:"url"`
	Title     string `json:"title"`
	// Channel metadata is enriched lazily from the external lookup and may
	// stay empty when the lookup fails.
	ChannelName      string `json:"channel_name"`
	ChannelID        string `json:"channel_id"`
	ChannelThumbnail string `json:"channel_thumbnail"`
	// SuggestedPlans caches the raw JSON array returned by the suggestion
	// service. First successful call wins; there is no invalidation path.
	SuggestedPlans *string `gorm:"type:text" json:"suggested_plans,omitempty"`
	// CheersCount is not persisted; computed at query time
	CheersCount int `gorm:"->" json:"cheers_count"`
	// EntriesCount is not persisted; computed at query time
	EntriesCount int       `gorm:"->" json:"entries_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Entries []Entry `gorm:"foreignKey:VideoID" json:"entries,omitempty"`
}

// DefaultThumbnailURL returns the deterministic YouTube frame used whenever
// no custom thumbnail exists or the storage presigner is unavailable.
func (v *Video) DefaultThumbnailURL() string {
	return "https://i.ytimg.com/vi/" + v.YoutubeID + "/hqdefault.jpg"
}

// ChannelRanking is one row of the popular-channels aggregation.
type ChannelRanking struct {
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	VideoCount  int    `json:"video_count"`
	EntryCount  int    `json:"entry_count"`
}
