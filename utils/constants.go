package utils

// Capacity settings defaults applied when an account reads its settings for
// the first time.
const (
	DefaultTargetPerDay   = 30
	DefaultNewQuotaPerDay = 10
	DefaultWindowDays     = 10
	DefaultBloatThreshold = 0
)

// Scheduling and backfill bounds
const (
	// LookaheadWindowMultiple bounds how far past the preferred window the
	// scheduler searches before reporting a contact as unplaceable.
	LookaheadWindowMultiple = 4

	// MinLookaheadBusinessDays is the floor on the look-ahead ceiling so tiny
	// windows still get a reasonable search horizon.
	MinLookaheadBusinessDays = 20

	// BackfillBatchSize is how many eligible contacts one backfill iteration
	// pulls from the store.
	BackfillBatchSize = 500

	// BackfillSafetyLimit caps contacts processed in a single backfill run.
	BackfillSafetyLimit = 10000

	// ScheduleLockTTLSeconds bounds how long a strict-mode scheduling lock
	// may be held before it expires on its own.
	ScheduleLockTTLSeconds = 30
)

// Pagination bounds for candidate and contact listings
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
