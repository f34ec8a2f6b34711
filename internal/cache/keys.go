package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	TagSearchKeyPrefix = "tags:search:%s"
)

const (
	UserTTL      = 5 * time.Minute
	TagSearchTTL = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// TagSearchKey folds case only, matching the LOWER(name) comparison the
// search runs. Surrounding spaces are part of the pattern and of the key.
func TagSearchKey(q string) string {
	return fmt.Sprintf(TagSearchKeyPrefix, strings.ToLower(q))
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateTagSearches drops every cached tag search. Tag writes are rare
// enough that a scan is acceptable.
func InvalidateTagSearches(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, fmt.Sprintf(TagSearchKeyPrefix, "*"), 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}
