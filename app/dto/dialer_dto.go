package dto

// CapacityBucketItem is one business day of the scheduling window.
type CapacityBucketItem struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Total     int    `json:"total"`
	New       int    `json:"new"`
	Remaining int    `json:"remaining"`
}

// DueTodaySummary covers non-paused contacts due today or earlier.
type DueTodaySummary struct {
	Total    int `json:"total"`
	New      int `json:"new"`
	FollowUp int `json:"follow_up"`
	Overdue  int `json:"overdue"`
}

// UnscheduledCounts summarizes the backlog outside the schedule.
type UnscheduledCounts struct {
	Total   int `json:"total"`
	Overdue int `json:"overdue"`
}

// BloatStatus reports backlog pressure against sustainable capacity.
type BloatStatus struct {
	BacklogNeed         int  `json:"backlog_need"`
	SustainableCapacity int  `json:"sustainable_capacity"`
	Overage             int  `json:"overage"`
	Threshold           int  `json:"threshold"`
	Bloated             bool `json:"bloated"`
}

// CapacitySettingsDTO mirrors the per-account capacity settings row.
type CapacitySettingsDTO struct {
	TargetPerDay   int    `json:"target_per_day"`
	NewQuotaPerDay int    `json:"new_quota_per_day"`
	WindowDays     int    `json:"window_days"`
	BloatThreshold int    `json:"bloat_threshold"`
	UpdatedAt      string `json:"updated_at"`
}

// CapacityStatusResponse is the aggregate for GET /capacity.
type CapacityStatusResponse struct {
	Message          string               `json:"message"`
	Today            string               `json:"today"`
	Settings         CapacitySettingsDTO  `json:"settings"`
	Buckets          []CapacityBucketItem `json:"buckets"`
	DueToday         DueTodaySummary      `json:"due_today"`
	Unscheduled      UnscheduledCounts    `json:"unscheduled"`
	Bloat            BloatStatus          `json:"bloat"`
	UnreachableToday int                  `json:"unreachable_today"`
}

// ScheduleContactsRequest schedules an explicit list of contacts. Quota
// overrides apply to this call only and never touch the stored settings.
type ScheduleContactsRequest struct {
	ContactIDs     []uint `json:"contact_ids" validate:"required,min=1,max=500,dive,gt=0"`
	TargetPerDay   *int   `json:"target_per_day,omitempty" validate:"omitempty,gte=1,lte=1000"`
	NewQuotaPerDay *int   `json:"new_quota_per_day,omitempty" validate:"omitempty,gte=0,lte=1000"`
}

// DistributionItem is one date of newly assigned contacts, ascending.
type DistributionItem struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ScheduleItemResult carries the per-contact outcome of a schedule call.
type ScheduleItemResult struct {
	ContactID uint   `json:"contact_id"`
	Status    string `json:"status"` // scheduled, capacity_exhausted, not_found, store_error
	Date      string `json:"date,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ScheduleContactsResponse accounts for every input contact: scheduled,
// skipped and errors always sum to the request size.
type ScheduleContactsResponse struct {
	Message      string               `json:"message"`
	Scheduled    int                  `json:"scheduled"`
	Skipped      int                  `json:"skipped"`
	Errors       int                  `json:"errors"`
	Distribution []DistributionItem   `json:"distribution"`
	Items        []ScheduleItemResult `json:"items"`
}

// EligibleUnscheduledRequest pages the schedulable backlog.
type EligibleUnscheduledRequest struct {
	IncludeOverdue bool `json:"include_overdue" query:"include_overdue"`
	Limit          int  `json:"limit" query:"limit" validate:"omitempty,gte=1,lte=500"`
	Offset         int  `json:"offset" query:"offset" validate:"omitempty,gte=0"`
}

// EligibleContactItem is one backlog contact in list responses.
type EligibleContactItem struct {
	ID              uint   `json:"id"`
	UUID            string `json:"uuid"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Company         string `json:"company,omitempty"`
	Phone           string `json:"phone,omitempty"`
	NextCallDate    string `json:"next_call_date,omitempty"`
	LastContactedAt string `json:"last_contacted_at,omitempty"`
	LastCallOutcome string `json:"last_call_outcome,omitempty"`
	CallAttempts    int    `json:"call_attempts"`
	IsNewLead       bool   `json:"is_new_lead"`
	IsAaa           bool   `json:"is_aaa"`
	CreatedAt       string `json:"created_at"`
}

// EligibleUnscheduledResponse is a stable-ordered page of the backlog.
type EligibleUnscheduledResponse struct {
	Message string                `json:"message"`
	Items   []EligibleContactItem `json:"items"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

// RemovalCandidatesRequest filters the bloat-fix candidate list.
type RemovalCandidatesRequest struct {
	ExcludeAaa bool `json:"exclude_aaa" query:"exclude_aaa"`
	Limit      int  `json:"limit" query:"limit" validate:"omitempty,gte=1,lte=500"`
}

// RemovalCandidateItem is one deprioritization candidate with its
// deterministic suggested action.
type RemovalCandidateItem struct {
	ContactID       uint   `json:"contact_id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Company         string `json:"company,omitempty"`
	NextCallDate    string `json:"next_call_date,omitempty"`
	LastCallOutcome string `json:"last_call_outcome,omitempty"`
	CallAttempts    int    `json:"call_attempts"`
	IsAaa           bool   `json:"is_aaa"`
	SuggestedAction string `json:"suggested_action"`
}

// RemovalCandidatesResponse lists candidates most defer-suitable first.
type RemovalCandidatesResponse struct {
	Message string                 `json:"message"`
	Bloat   BloatStatus            `json:"bloat"`
	Items   []RemovalCandidateItem `json:"items"`
}

// BloatFixCandidate is one requested action in a bloat-fix call.
type BloatFixCandidate struct {
	ContactID uint   `json:"contact_id" validate:"required,gt=0"`
	Action    string `json:"action" validate:"required,oneof=pause_12mo pause_6mo throttle_10d throttle_14d"`
}

// ApplyBloatFixRequest applies explicit actions, or computes and applies the
// smallest sufficient set when AutoFix is set.
type ApplyBloatFixRequest struct {
	AutoFix    bool                `json:"auto_fix"`
	ExcludeAaa bool                `json:"exclude_aaa"`
	Candidates []BloatFixCandidate `json:"candidates" validate:"omitempty,max=500,dive"`
}

// BloatFixFailure identifies one contact whose action could not be applied.
type BloatFixFailure struct {
	ContactID uint   `json:"contact_id"`
	Action    string `json:"action"`
	Reason    string `json:"reason"`
}

// ApplyBloatFixResponse reports per-contact application results. Actions
// counts successfully applied actions by kind; failed ones are excluded.
type ApplyBloatFixResponse struct {
	Message  string            `json:"message"`
	Applied  int               `json:"applied"`
	Failed   int               `json:"failed"`
	Actions  map[string]int    `json:"actions,omitempty"`
	Failures []BloatFixFailure `json:"failures,omitempty"`
}

// BackfillRequest drives a backfill run. GET /backfill forces DryRun.
type BackfillRequest struct {
	IncludeOverdue bool `json:"include_overdue" query:"include_overdue"`
	DryRun         bool `json:"dry_run" query:"dry_run"`
}

// BackfillResponse reports a finished run and its terminal state.
type BackfillResponse struct {
	Message      string             `json:"message"`
	State        string             `json:"state"` // done, safety_limit_reached
	DryRun       bool               `json:"dry_run"`
	Processed    int                `json:"processed"`
	Scheduled    int                `json:"scheduled"`
	Skipped      int                `json:"skipped"`
	Errors       int                `json:"errors"`
	Batches      int                `json:"batches"`
	Distribution []DistributionItem `json:"distribution"`
}

// UpdateCapacitySettingsRequest mutates the per-account settings row.
type UpdateCapacitySettingsRequest struct {
	TargetPerDay   *int `json:"target_per_day,omitempty" validate:"omitempty,gte=0,lte=1000"`
	NewQuotaPerDay *int `json:"new_quota_per_day,omitempty" validate:"omitempty,gte=0,lte=1000"`
	WindowDays     *int `json:"window_days,omitempty" validate:"omitempty,gte=1,lte=90"`
	BloatThreshold *int `json:"bloat_threshold,omitempty" validate:"omitempty,gte=0,lte=100000"`
}

// CapacitySettingsResponse wraps the settings row for GET/PUT /settings.
type CapacitySettingsResponse struct {
	Message  string              `json:"message"`
	Settings CapacitySettingsDTO `json:"settings"`
}
