package models

import "time"

// EntryLike represents a user's like on an action-plan entry.
// The combination of UserID and EntryID must be unique.
type EntryLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_entry" json:"user_id"`
	EntryID   uint      `gorm:"not null;uniqueIndex:idx_user_entry" json:"entry_id"`
	CreatedAt time.Time `json:"created_at"`

	User  User  `gorm:"foreignKey:UserID" json:"user"`
	Entry Entry `gorm:"foreignKey:EntryID" json:"entry"`
}

// Cheer represents a user cheering a video in the catalog.
// The combination of UserID and VideoID must be unique.
type Cheer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_video" json:"user_id"`
	VideoID   uint      `gorm:"not null;uniqueIndex:idx_user_video" json:"video_id"`
	CreatedAt time.Time `json:"created_at"`

	User  User  `gorm:"foreignKey:UserID" json:"user"`
	Video Video `gorm:"foreignKey:VideoID" json:"video"`
}
