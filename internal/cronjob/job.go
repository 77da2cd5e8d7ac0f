// Package cronjob defines the schedulable job model and its durable store.
// Jobs describe what an external runner should execute and when; the runner
// discovers due jobs on its own and reports results through per-job run logs.
// This package never executes anything itself.
package cronjob

// ScheduleKind values for the tagged Schedule variant.
const (
	// ScheduleAt is a single future execution instant.
	ScheduleAt = "at"
	// ScheduleCron is a recurring 5-field cron expression in a timezone.
	ScheduleCron = "cron"
	// ScheduleEvery is a fixed-period recurrence in milliseconds.
	ScheduleEvery = "every"
)

// SessionTarget values. The target governs which payload kind is valid.
const (
	// SessionIsolated runs the job in a throwaway agent session.
	SessionIsolated = "isolated"
	// SessionMain injects the job into the main session as a system event.
	SessionMain = "main"
)

// WakeMode values, an urgency hint consumed by the external runner.
const (
	WakeNextHeartbeat = "next-heartbeat"
	WakeNow           = "now"
)

// Payload kinds. Derived from SessionTarget, never trusted from callers.
const (
	PayloadAgentTurn   = "agentTurn"
	PayloadSystemEvent = "systemEvent"
)

// Delivery modes.
const (
	DeliveryAnnounce = "announce"
	DeliveryNone     = "none"
)

const (
	// DefaultAgentID is the sentinel for "the default agent".
	DefaultAgentID = "default"

	// MinEveryMs is the smallest accepted fixed-interval period.
	MinEveryMs = 1000

	// CollectionVersion is the current jobs document version. Reserved for
	// future migrations.
	CollectionVersion = 1
)

// Schedule is a tagged variant: exactly one of the kind-specific field sets
// is meaningful, selected by Kind.
type Schedule struct {
	Kind    string `json:"kind"`
	At      string `json:"at,omitempty"`      // kind=at: RFC 3339 instant with offset
	Expr    string `json:"expr,omitempty"`    // kind=cron: 5-field cron expression
	TZ      string `json:"tz,omitempty"`      // kind=cron: IANA timezone, empty = UTC
	EveryMs int64  `json:"everyMs,omitempty"` // kind=every: period in milliseconds
}

// Payload is what the runner hands to the executing session. Kind is always
// consistent with the job's SessionTarget after create/update.
type Payload struct {
	Kind           string `json:"kind"`
	Message        string `json:"message,omitempty"`        // agentTurn
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"` // agentTurn
	Text           string `json:"text,omitempty"`           // systemEvent
}

// Delivery describes how run results are surfaced.
type Delivery struct {
	Mode       string `json:"mode"`
	Channel    string `json:"channel,omitempty"`
	To         string `json:"to,omitempty"`
	BestEffort bool   `json:"bestEffort,omitempty"`
}

// Job is a persisted schedulable unit.
type Job struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	Description   string    `json:"description,omitempty"`
	Enabled       bool      `json:"enabled"`
	Schedule      Schedule  `json:"schedule"`
	AgentID       string    `json:"agentId,omitempty"`
	SessionTarget string    `json:"sessionTarget,omitempty"`
	WakeMode      string    `json:"wakeMode,omitempty"`
	Payload       Payload   `json:"payload"`
	Delivery      *Delivery `json:"delivery,omitempty"`
	CreatedAtMs   int64     `json:"createdAtMs"`
	UpdatedAtMs   int64     `json:"updatedAtMs"`
}

// Collection is the versioned jobs document. It is the sole durable source
// of truth and is owned exclusively by the Store.
type Collection struct {
	Version int   `json:"version"`
	Jobs    []Job `json:"jobs"`
}

// JobInput is the creation shape. Pointer fields distinguish "absent" from
// the zero value so Normalize can apply defaults.
type JobInput struct {
	ID            string    `json:"id,omitempty"`
	Name          string    `json:"name,omitempty"`
	Description   string    `json:"description,omitempty"`
	Enabled       *bool     `json:"enabled,omitempty"`
	Schedule      *Schedule `json:"schedule,omitempty"`
	AgentID       string    `json:"agentId,omitempty"`
	SessionTarget string    `json:"sessionTarget,omitempty"`
	WakeMode      string    `json:"wakeMode,omitempty"`
	Payload       *Payload  `json:"payload,omitempty"`
	Delivery      *Delivery `json:"delivery,omitempty"`
}

// JobPatch is the partial-update shape. Nil means "leave unchanged".
// The compound fields Schedule, Payload and Delivery replace the stored
// sub-object wholesale when supplied; they are never merged field by field.
type JobPatch struct {
	Name          *string   `json:"name,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Enabled       *bool     `json:"enabled,omitempty"`
	Schedule      *Schedule `json:"schedule,omitempty"`
	AgentID       *string   `json:"agentId,omitempty"`
	SessionTarget *string   `json:"sessionTarget,omitempty"`
	WakeMode      *string   `json:"wakeMode,omitempty"`
	Payload       *Payload  `json:"payload,omitempty"`
	Delivery      *Delivery `json:"delivery,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p JobPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Enabled == nil &&
		p.Schedule == nil && p.AgentID == nil && p.SessionTarget == nil &&
		p.WakeMode == nil && p.Payload == nil && p.Delivery == nil
}
