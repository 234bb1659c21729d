package core

import (
	"time"
)

// Category is the fixed taxonomy a memory is filed under. Categories are
// assigned at write time by the classifier and reused at read time as a
// ranking boost, so the same value must come out of both paths.
type Category string

const (
	CategoryMedication  Category = "medication"
	CategoryMeal        Category = "meal"
	CategoryCall        Category = "call"
	CategoryAppointment Category = "appointment"
	CategoryActivity    Category = "activity"
	CategoryGeneral     Category = "general"
)

// Categories lists every valid category in classifier priority order.
var Categories = []Category{
	CategoryMedication,
	CategoryMeal,
	CategoryCall,
	CategoryAppointment,
	CategoryActivity,
	CategoryGeneral,
}

// Valid reports whether c is one of the fixed taxonomy values.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Record is one episodic memory: something the elder said or did, with the
// point in time the event is attributed to (not the write time).
//
// ID is the record's position in the store's metadata sequence and is stable
// for the life of the store. Timestamps are stored and compared in UTC.
type Record struct {
	ID        int       `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Text      string    `json:"text"`
	Category  Category  `json:"category"`
	Timestamp time.Time `json:"timestamp"`

	// Indexed records whether an embedding for this record made it into
	// the vector index, so the store can verify the two stayed in
	// lock-step across restarts.
	Indexed bool `json:"indexed,omitempty"`

	// Embedding is kept in the vector index, not in the metadata file.
	Embedding []float32 `json:"-"`
}

// TimeRange is a half-open interval [Start, End) in UTC.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the interval.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Uncertainty describes how confidently the assistant can answer from the
// retrieved memories. Note the inherited semantic: "low" means low
// uncertainty, i.e. either a confident single answer or nothing found at all.
type Uncertainty string

const (
	UncertaintyLow       Uncertainty = "low"
	UncertaintyMedium    Uncertainty = "medium"
	UncertaintyHigh      Uncertainty = "high"
	UncertaintyAmbiguous Uncertainty = "ambiguous"
)

// RecallMatch is one ranked recall result.
type RecallMatch struct {
	Record        Record  `json:"record"`
	Score         float64 `json:"score"`
	RawDistance   float64 `json:"raw_distance"`
	CategoryMatch bool    `json:"category_match"`
}

// PendingProposal is a task awaiting a yes/no from the user within one
// conversation session. At most one exists per session; the state machine
// enforces that, not storage.
type PendingProposal struct {
	SessionID  string    `json:"session_id"`
	OwnerID    string    `json:"owner_id"`
	TaskName   string    `json:"task_name"`
	TimeOfDay  string    `json:"time_of_day"` // "HH:MM", 24-hour
	DateOffset int       `json:"date_offset"` // 0 = today, 1 = tomorrow
	CreatedAt  time.Time `json:"created_at"`
}

// DayPhrase renders the proposal's target day for spoken replies.
func (p PendingProposal) DayPhrase() string {
	if p.DateOffset == 1 {
		return "tomorrow"
	}
	return "today"
}

// ScheduledTask is the durable artifact a confirmed proposal becomes. The
// schedule store owns the full schema; these are only the fields we populate.
type ScheduledTask struct {
	ID           string     `json:"id" firestore:"id"`
	TaskName     string     `json:"task_name" firestore:"task_name"`
	Time         string     `json:"time" firestore:"time"`
	Type         string     `json:"type" firestore:"type"`
	Completed    bool       `json:"completed" firestore:"completed"`
	CompletedAt  *time.Time `json:"completedAt" firestore:"completedAt"`
	ScheduledAt  time.Time  `json:"scheduledAt" firestore:"scheduledAt"`
	GraceMinutes int        `json:"graceMinutes" firestore:"graceMinutes"`
}

// TaskIntent is the parsed form of a task-creation utterance.
type TaskIntent struct {
	IsTaskRequest  bool
	IsTermination  bool
	IsContinuation bool
	TaskName       string
	TimeOfDay      string // "HH:MM", defaults to "12:00"
	DateOffset     int
}

// Clock supplies "now" so decay scoring and time-range resolution are
// deterministic in tests. All callers treat the result as UTC.
type Clock func() time.Time

// UTCNow is the production clock.
func UTCNow() time.Time {
	return time.Now().UTC()
}
