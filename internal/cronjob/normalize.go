package cronjob

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// cronParser accepts strict 5-field expressions (minute through day-of-week),
// no descriptors.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Normalize builds a full Job from raw caller input: generated id, default
// enabled/wakeMode/agentId, payload kind derived from the session target.
// The schedule must be one of the recognized variants and internally valid.
func Normalize(input JobInput) (Job, error) {
	const op = "normalize"

	if input.Schedule == nil {
		return Job{}, newValidationError(op, "schedule", "schedule is required")
	}
	if err := validateSchedule(op, *input.Schedule); err != nil {
		return Job{}, err
	}

	id := input.ID
	if id == "" {
		id = uuid.New().String()
	}

	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}

	wakeMode := input.WakeMode
	if wakeMode == "" {
		wakeMode = WakeNextHeartbeat
	}

	agentID := input.AgentID
	if agentID == "" {
		agentID = DefaultAgentID
	}

	target := input.SessionTarget
	if target == "" {
		target = SessionIsolated
	}
	if target != SessionIsolated && target != SessionMain {
		return Job{}, newValidationError(op, "sessionTarget",
			fmt.Sprintf("unknown session target %q", target))
	}

	return Job{
		ID:            id,
		Name:          input.Name,
		Description:   input.Description,
		Enabled:       enabled,
		Schedule:      *input.Schedule,
		AgentID:       agentID,
		SessionTarget: target,
		WakeMode:      wakeMode,
		Payload:       derivePayload(target, input.Payload),
		Delivery:      input.Delivery,
	}, nil
}

// validateSchedule checks a schedule variant for internal validity.
func validateSchedule(op string, s Schedule) error {
	switch s.Kind {
	case ScheduleAt:
		if _, err := time.Parse(time.RFC3339, s.At); err != nil {
			return newValidationError(op, "schedule.at",
				fmt.Sprintf("unparseable timestamp %q", s.At))
		}
	case ScheduleCron:
		if _, err := cronParser.Parse(s.Expr); err != nil {
			return newValidationError(op, "schedule.expr",
				fmt.Sprintf("invalid cron expression %q: %v", s.Expr, err))
		}
		if s.TZ != "" {
			if _, err := time.LoadLocation(s.TZ); err != nil {
				return newValidationError(op, "schedule.tz",
					fmt.Sprintf("unknown timezone %q", s.TZ))
			}
		}
	case ScheduleEvery:
		if s.EveryMs < MinEveryMs {
			return newValidationError(op, "schedule.everyMs",
				fmt.Sprintf("interval %dms is below the %dms minimum", s.EveryMs, MinEveryMs))
		}
	default:
		return newValidationError(op, "schedule.kind",
			fmt.Sprintf("unknown schedule kind %q", s.Kind))
	}
	return nil
}

// derivePayload resolves the payload kind from the session target instead of
// trusting caller input. When the kind flips, the human-readable content is
// carried across between the message and text fields.
func derivePayload(target string, p *Payload) Payload {
	var out Payload
	if p != nil {
		out = *p
	}

	if target == SessionMain {
		out.Kind = PayloadSystemEvent
		if out.Text == "" && out.Message != "" {
			out.Text = out.Message
		}
		out.Message = ""
		out.TimeoutSeconds = 0
	} else {
		out.Kind = PayloadAgentTurn
		if out.Message == "" && out.Text != "" {
			out.Message = out.Text
		}
		out.Text = ""
	}
	return out
}

// Touch stamps updatedAtMs with the current time, initializing createdAtMs
// on first touch. Pure copy; the caller persists the result.
func Touch(job Job) Job {
	return touchAt(job, time.Now().UnixMilli())
}

func touchAt(job Job, nowMs int64) Job {
	if job.CreatedAtMs == 0 {
		job.CreatedAtMs = nowMs
	}
	job.UpdatedAtMs = nowMs
	return job
}
