package cronjob

import (
	"fmt"
	"time"
)

const (
	quickScanDelay          = 15 * time.Second
	quickScanTimeoutSeconds = 1200
)

// ComposeScanDigest builds a ready-to-persist one-shot job that scans the
// RSS sources and sends a digest to the given delivery target. The schedule
// is a single instant shortly in the future so the runner picks it up on its
// next pass; wake mode "now" asks it not to wait for a heartbeat.
func ComposeScanDigest(target string) JobInput {
	at := time.Now().Add(quickScanDelay).UTC().Format(time.RFC3339)

	message := fmt.Sprintf(
		"Run `blogwatcher scan` first. Then read the latest unread items via "+
			"`blogwatcher articles` and send a concise digest (5-10 bullets, grouped "+
			"by topic) to the specified Discord user. Include top items and why they "+
			"matter. IMPORTANT: You MUST send the message to Discord user %s even if "+
			"it is not your default channel.", target)

	return JobInput{
		Name:          fmt.Sprintf("RSS scan+summary -> Discord %s", target),
		Description:   "Scan RSS and send digest to Discord DM",
		Schedule:      &Schedule{Kind: ScheduleAt, At: at},
		SessionTarget: SessionIsolated,
		WakeMode:      WakeNow,
		Payload: &Payload{
			Message:        message,
			TimeoutSeconds: quickScanTimeoutSeconds,
		},
		Delivery: &Delivery{
			Mode:       DeliveryAnnounce,
			Channel:    "discord",
			To:         target,
			BestEffort: true,
		},
	}
}
