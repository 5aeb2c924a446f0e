package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/genkit"

	"github.com/apiconf/ndu/internal/dataset"
	"github.com/apiconf/ndu/internal/reconcile"
)

// registerScheduleTools defines the tools backed by the JSON schedule store,
// which carries day/time groupings the CSV export does not.
func (k *Kit) registerScheduleTools(g *genkit.Genkit) {
	k.keep(genkit.DefineTool(
		g,
		"schedule_by_day",
		"Get the schedule for one conference day. Accepts a day label like 'Day 1' or a date.",
		dispatch(k, "schedule_by_day", func(ctx context.Context, input struct {
			Day string `json:"day" jsonschema_description:"Day to look up, matched against day labels and dates. Examples: 'Day 1', 'Friday', '2025-07-18'."`
		},
		) map[string]any {
			return k.scheduleByDay(ctx, input.Day)
		}),
	))

	k.keep(genkit.DefineTool(
		g,
		"sessions_by_time",
		"Find sessions in a time slot, optionally limited to one day. "+
			"The slot is matched against each session's listed time.",
		dispatch(k, "sessions_by_time", func(ctx context.Context, input struct {
			TimeSlot string `json:"time_slot" jsonschema_description:"Time to match, e.g. '9:00 AM' or 'morning'."`
			Day      string `json:"day,omitempty" jsonschema_description:"Optional day filter, e.g. 'Day 2'."`
		},
		) map[string]any {
			return k.sessionsByTime(ctx, input.TimeSlot, input.Day)
		}),
	))

	k.keep(genkit.DefineTool(
		g,
		"session_details",
		"Get the full details of one session from the schedule by its identifier.",
		dispatch(k, "session_details", func(ctx context.Context, input struct {
			SessionID string `json:"session_id" jsonschema_description:"Identifier of the session in the schedule."`
		},
		) map[string]any {
			return k.sessionDetails(ctx, input.SessionID)
		}),
	))
}

func (k *Kit) scheduleByDay(ctx context.Context, day string) map[string]any {
	days, err := k.data.ScheduleDays()
	if err != nil {
		k.logger.Error("day schedule lookup failed", "error", err)
		return k.record(ctx, "schedule_by_day", reconcile.VariantFreeform,
			k.failure("Unable to retrieve the day's schedule right now"))
	}

	want := strings.ToLower(day)
	for _, d := range days {
		if strings.Contains(strings.ToLower(d.Day), want) || strings.Contains(strings.ToLower(d.Date), want) {
			return k.record(ctx, "schedule_by_day", reconcile.VariantFreeform, map[string]any{
				"success":         true,
				"day":             d,
				"session_count":   len(d.Sessions),
				"support_contact": k.cfg.SupportPhone,
			})
		}
	}

	available := make([]string, 0, len(days))
	for _, d := range days {
		available = append(available, d.Day)
	}
	envelope := k.failure(fmt.Sprintf("Schedule for '%s' not found", day))
	envelope["available_days"] = available
	return k.record(ctx, "schedule_by_day", reconcile.VariantFreeform, envelope)
}

func (k *Kit) sessionsByTime(ctx context.Context, timeSlot, day string) map[string]any {
	days, err := k.data.ScheduleDays()
	if err != nil {
		k.logger.Error("time slot lookup failed", "error", err)
		return k.record(ctx, "sessions_by_time", reconcile.VariantSessions,
			k.failure("Unable to retrieve sessions for that time right now"))
	}

	slot := strings.ToLower(timeSlot)
	dayFilter := strings.ToLower(day)
	sessions := []any{}
	for _, d := range days {
		if dayFilter != "" && !strings.Contains(strings.ToLower(d.Day), dayFilter) {
			continue
		}
		for _, s := range d.Sessions {
			if strings.Contains(strings.ToLower(s.Time), slot) {
				sessions = append(sessions, sessionWithDay(s, d))
			}
		}
	}

	return k.record(ctx, "sessions_by_time", reconcile.VariantSessions, map[string]any{
		"success":         true,
		"time_slot":       timeSlot,
		"day":             day,
		"sessions":        sessions,
		"count":           len(sessions),
		"support_contact": k.cfg.SupportPhone,
	})
}

func (k *Kit) sessionDetails(ctx context.Context, sessionID string) map[string]any {
	days, err := k.data.ScheduleDays()
	if err != nil {
		k.logger.Error("session details lookup failed", "error", err)
		return k.record(ctx, "session_details", reconcile.VariantFreeform,
			k.failure("Unable to retrieve session details right now"))
	}

	for _, d := range days {
		for _, s := range d.Sessions {
			if s.ID == sessionID {
				return k.record(ctx, "session_details", reconcile.VariantFreeform, map[string]any{
					"success":         true,
					"session":         sessionWithDay(s, d),
					"support_contact": k.cfg.SupportPhone,
				})
			}
		}
	}

	return k.record(ctx, "session_details", reconcile.VariantFreeform,
		k.failure(fmt.Sprintf("Session '%s' not found", sessionID)))
}

// sessionWithDay flattens a schedule session with its day context, the shape
// the session renderer reads day and date from.
func sessionWithDay(s dataset.ScheduleSession, d dataset.ScheduleDay) map[string]any {
	return map[string]any{
		"id":            s.ID,
		"title":         s.Title,
		"description":   s.Description,
		"time":          s.Time,
		"room":          s.Room,
		"type":          s.Type,
		"level":         s.Level,
		"topics":        s.Topics,
		"speakers":      s.Speakers,
		"speaker_names": s.SpeakerNames,
		"day":           d.Day,
		"date":          d.Date,
	}
}
