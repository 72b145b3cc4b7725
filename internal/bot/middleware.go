package bot

import (
	"context"

	"kinobot/internal/metrics"
)

// allowed checks the admin allow-list. An empty list means public bot.
func (r *Router) allowed(userID int64) bool {
	if len(r.admins) == 0 {
		return true
	}
	_, ok := r.admins[userID]
	return ok
}

// blockedBySpam records the hit and drops the update when the user
// exceeds the limit inside the sliding window. A store failure never
// blocks.
func (r *Router) blockedBySpam(ctx context.Context, userID int64) bool {
	count, err := r.state.RecordSpamHit(ctx, userID, r.now(), r.spamWindow)
	if err != nil {
		r.logError("spam check", err, userID)
		return false
	}
	if count > r.spamLimit {
		metrics.SpamBlocksTotal.Inc()
		return true
	}
	return false
}
