package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and only logs on
// failure; cache invalidation must never fail a write path.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and only logs on failure.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateTrailCache drops everything derived from one trail,
// including module and list views.
func InvalidateTrailCache(ctx context.Context, cm *CacheManager, trailID uint, creatorID string) {
	SafeDelete(ctx, cm.Trail,
		fmt.Sprintf("id:%d", trailID),
		fmt.Sprintf("details:%d", trailID))
	SafeInvalidatePattern(ctx, cm.Trail, fmt.Sprintf("modules:%d:*", trailID))
	SafeInvalidatePattern(ctx, cm.Trail, fmt.Sprintf("creator:%s:*", creatorID))
	SafeInvalidatePattern(ctx, cm.Trail, "list:*")
}

// InvalidateModuleQuizCache drops the cached question set for a quiz
// module. Rendered per-student orders are never cached, so there is
// nothing else to drop.
func InvalidateModuleQuizCache(ctx context.Context, cm *CacheManager, moduleID uint) {
	SafeDelete(ctx, cm.Quiz, fmt.Sprintf("module:%d:questions", moduleID))
	SafeInvalidatePattern(ctx, cm.Quiz, fmt.Sprintf("module:%d:*", moduleID))
}

// InvalidateProgressCache drops a student's cached profile and
// leaderboard slices.
func InvalidateProgressCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.Progress, fmt.Sprintf("profile:%s", userID))
	SafeInvalidatePattern(ctx, cm.Progress, "leaderboard:*")
}
