package constants

import (
	"fmt"
	"time"
)

// Redis key layout for the cineplex API.
// Pattern: cineplex:{module}:{operation}:{identifier}:{params?}
//
// Seat occupancy is never cached. Only catalog data and immutable screen
// layouts live here.

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_STATIC_LONG        = 24 * time.Hour   // screen layouts, rarely edited
	TTL_SEMI_STATIC_MEDIUM = 2 * time.Hour    // movie details
	TTL_DYNAMIC_MEDIUM     = 10 * time.Minute // admin dashboard
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX      = "cineplex"
	RATE_LIMIT_PREFIX = CACHE_PREFIX + ":rate_limit"
)

// ================== CATALOG ==================

const (
	CACHE_KEY_SCREEN_LAYOUT = CACHE_PREFIX + ":screens:layout:uuid:" // + screen-id
	CACHE_KEY_MOVIE_DETAIL  = CACHE_PREFIX + ":movies:detail:uuid:"  // + movie-id
)

// ================== ANALYTICS ==================

const (
	CACHE_KEY_ADMIN_DASHBOARD = CACHE_PREFIX + ":analytics:dashboard"
)

// ================== KEY BUILDERS ==================

func BuildScreenLayoutKey(screenID string) string {
	return CACHE_KEY_SCREEN_LAYOUT + screenID
}

func BuildMovieDetailKey(movieID string) string {
	return CACHE_KEY_MOVIE_DETAIL + movieID
}

func BuildRateLimitKey(routeType, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", RATE_LIMIT_PREFIX, routeType, identifier)
}
