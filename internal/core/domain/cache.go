package domain

import "time"

// Cache TTL classes. Callers select the class; the cache itself is
// TTL-agnostic.
const (
	// CacheClassCalendarList caches provider calendar lists.
	CacheClassCalendarList = "calendars_list"
	// CacheClassUserProfile caches provider userinfo responses.
	CacheClassUserProfile = "user_profile"
	// CacheClassEventDetail caches transient single-event lookups.
	CacheClassEventDetail = "event_detail"
	// CacheClassMeetingLink caches long-lived meeting-link lookups.
	CacheClassMeetingLink = "meeting_link"
)

// CacheTTLTable maps a TTL class to its duration.
type CacheTTLTable map[string]time.Duration

// TTL resolves the duration for a class, falling back to 5 minutes for
// unknown classes.
func (t CacheTTLTable) TTL(class string) time.Duration {
	if d, ok := t[class]; ok && d > 0 {
		return d
	}
	return 5 * time.Minute
}

// DefaultCacheTTLTable returns the default TTL per semantic class.
func DefaultCacheTTLTable() CacheTTLTable {
	return CacheTTLTable{
		CacheClassCalendarList: time.Hour,
		CacheClassUserProfile:  24 * time.Hour,
		CacheClassEventDetail:  5 * time.Minute,
		CacheClassMeetingLink:  30 * 24 * time.Hour,
	}
}
