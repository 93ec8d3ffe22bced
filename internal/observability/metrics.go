// Package observability holds application metrics and tracing setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts posts published through the create view.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_posts_created_total",
		Help: "Total number of posts created",
	})

	// PostsEdited counts successful post edits by their author.
	PostsEdited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_posts_edited_total",
		Help: "Total number of posts edited",
	})

	// CommentsCreated counts comments left on posts.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_comments_created_total",
		Help: "Total number of comments created",
	})

	// FollowEvents counts follow edge changes by action (follow, unfollow).
	FollowEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_follow_events_total",
		Help: "Total number of follow and unfollow actions",
	}, []string{"action"})

	// PageCacheLookups counts page cache lookups by result (hit, miss).
	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_lookups_total",
		Help: "Page cache lookups by result",
	}, []string{"result"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)

// RecordFollow increments the follow counter for action.
func RecordFollow(action string) {
	FollowEvents.WithLabelValues(action).Inc()
}

// RecordCacheLookup increments the page cache counter for a hit or a miss.
func RecordCacheLookup(hit bool) {
	if hit {
		PageCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	PageCacheLookups.WithLabelValues("miss").Inc()
}
