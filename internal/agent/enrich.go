package agent

import (
	"fmt"
	"time"
)

// TimeContext carries the client's clock as reported with a chat request.
// TimestampMS is unix milliseconds in UTC; OffsetMinutes is the value of
// JavaScript's Date.getTimezoneOffset(), i.e. minutes to ADD to local time
// to reach UTC (positive west of Greenwich).
type TimeContext struct {
	TimestampMS   int64 `json:"timestamp"`
	OffsetMinutes int   `json:"timezone_offset"`
}

const localTimeLayout = "2006-01-02 15:04"

// Enrich prepends context tags to a user message so the model can answer
// time- and user-sensitive questions ("what session is on now?", "add this
// to my calendar"). The tags are plain text the model reads, not metadata.
//
// The time tag is only added when the client reported a timestamp; a zero
// TimeContext means the client sent no clock information.
func Enrich(message, userID string, tc *TimeContext) string {
	enriched := message
	if userID != "" {
		enriched = fmt.Sprintf("[User ID: %s] %s", userID, enriched)
	}
	if tc != nil && tc.TimestampMS != 0 {
		local := time.UnixMilli(tc.TimestampMS).UTC().Add(-time.Duration(tc.OffsetMinutes) * time.Minute)
		enriched = fmt.Sprintf("[User Local Time: %s, Offset: %d] %s",
			local.Format(localTimeLayout), tc.OffsetMinutes, enriched)
	}
	return enriched
}
