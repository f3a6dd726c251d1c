package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%d"
	VideoKeyPrefix   = "video:%d"
	EntryKeyPrefix   = "entry:%d"
	FeedKey          = "feed:recent"
	ChannelRankKey   = "rank:channels"
	VideoRankKey     = "rank:videos"
	StreakKeyPrefix  = "streak:%d"
)

const (
	UserTTL   = 5 * time.Minute
	VideoTTL  = 30 * time.Minute
	EntryTTL  = 10 * time.Minute
	FeedTTL   = 1 * time.Minute
	RankTTL   = 10 * time.Minute
	StreakTTL = 15 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func VideoKey(videoID uint) string {
	return fmt.Sprintf(VideoKeyPrefix, videoID)
}

func EntryKey(entryID uint) string {
	return fmt.Sprintf(EntryKeyPrefix, entryID)
}

func StreakKey(userID uint) string {
	return fmt.Sprintf(StreakKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
	Invalidate(ctx, StreakKey(userID))
}

func InvalidateVideo(ctx context.Context, videoID uint) {
	Invalidate(ctx, VideoKey(videoID))
}

func InvalidateEntry(ctx context.Context, entryID uint) {
	Invalidate(ctx, EntryKey(entryID))
}

func InvalidateFeed(ctx context.Context) {
	Invalidate(ctx, FeedKey)
}

func InvalidateRankings(ctx context.Context) {
	Invalidate(ctx, ChannelRankKey)
	Invalidate(ctx, VideoRankKey)
}
