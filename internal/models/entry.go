package models

import "time"

// Deadline status values derived from the achieved flag and days remaining.
const (
	DeadlineStatusAchieved = "achieved"
	DeadlineStatusExpired  = "expired"
	DeadlineStatusToday    = "today"
	DeadlineStatusUrgent   = "urgent"  // 1 day left
	DeadlineStatusWarning  = "warning" // 2-3 days left
	DeadlineStatusNormal   = "normal"  // 4+ days left
)

const (
	// MaxContentLen bounds the action-plan text.
	MaxContentLen = 1000
	// MaxReflectionLen bounds the reflection written at achievement time.
	MaxReflectionLen = 500
	// DefaultDeadlineDays is added to the creation date when no deadline is supplied.
	DefaultDeadlineDays = 7
)

// Entry is a user's action-plan commitment tied to one Video.
// It is Pending while AchievedAt is null and Achieved once set; entries toggle
// indefinitely between the two until destroyed. The partial unique index on
// (user_id) WHERE achieved_at IS NULL is the storage-layer backstop for the
// one-pending-plan-per-user rule; the service checks the same precondition
// before insert so the common case surfaces as a validation error rather than
// a constraint violation.
type Entry struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	VideoID uint   `gorm:"not null;index" json:"video_id"`
	Video   *Video `gorm:"foreignKey:VideoID" json:"video,omitempty"`
	UserID  uint   `gorm:"not null;index;uniqueIndex:idx_entries_user_pending,where:achieved_at IS NULL" json:"user_id"`
	User    *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content    string     `gorm:"type:text;not null" json:"content"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	AchievedAt *time.Time `json:"achieved_at,omitempty"`
	// Reflection and ResultImageKey are set together with AchievedAt and
	// cleared together when the entry reverts to pending.
	Reflection     *string `gorm:"size:500" json:"reflection,omitempty"`
	ResultImageKey *string `json:"result_image_key,omitempty"`
	ThumbnailKey   *string `json:"thumbnail_key,omitempty"`

	// ResultImageURL and ThumbnailURL carry presigned URLs resolved at read
	// time; never persisted.
	ResultImageURL string `gorm:"-" json:"result_image_url,omitempty"`
	ThumbnailURL   string `gorm:"-" json:"thumbnail_url,omitempty"`

	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// Liked indicates whether the current requesting user liked this entry (computed)
	Liked bool `gorm:"->" json:"liked"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Achieved reports whether the entry has been marked done.
func (e *Entry) Achieved() bool {
	return e.AchievedAt != nil
}

// DaysRemaining returns whole calendar days between today and the deadline.
// The second return is false when the entry is achieved or has no deadline.
func (e *Entry) DaysRemaining(now time.Time) (int, bool) {
	if e.Achieved() || e.Deadline == nil {
		return 0, false
	}
	today := truncateToDate(now)
	deadline := truncateToDate(*e.Deadline)
	return int(deadline.Sub(today).Hours() / 24), true
}

// DeadlineStatus classifies the entry's urgency with today's date at call
// time; it is never cached. A pending entry without a deadline has no urgency
// to report and is classified as normal.
func (e *Entry) DeadlineStatus(now time.Time) string {
	if e.Achieved() {
		return DeadlineStatusAchieved
	}
	days, ok := e.DaysRemaining(now)
	if !ok {
		return DeadlineStatusNormal
	}
	switch {
	case days < 0:
		return DeadlineStatusExpired
	case days == 0:
		return DeadlineStatusToday
	case days == 1:
		return DeadlineStatusUrgent
	case days <= 3:
		return DeadlineStatusWarning
	default:
		return DeadlineStatusNormal
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
