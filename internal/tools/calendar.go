package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/firebase/genkit/go/genkit"

	"github.com/apiconf/ndu/internal/reconcile"
)

// scheduledAtLayout is the timestamp format of the CSV export's
// "Scheduled At" column, e.g. "18 Jul 2025 09:00 AM".
const scheduledAtLayout = "02 Jan 2006 03:04 PM"

// Session times in the export are West Africa Time.
var watZone = time.FixedZone("WAT", 60*60)

func (k *Kit) registerCalendarTool(g *genkit.Genkit) {
	k.keep(genkit.DefineTool(
		g,
		"calendar_link",
		"Generate a Google Calendar link for a conference session so the user can add it to their calendar. "+
			"Requires the exact session title.",
		dispatch(k, "calendar_link", func(ctx context.Context, input struct {
			SessionTitle string `json:"session_title" jsonschema_description:"Exact title of the session to add to the calendar. Matching ignores case and surrounding whitespace."`
		},
		) map[string]any {
			return k.calendarLink(ctx, input.SessionTitle)
		}),
	))
}

func (k *Kit) calendarLink(ctx context.Context, sessionTitle string) map[string]any {
	record, err := k.data.FindByTitle(sessionTitle)
	if err != nil {
		k.logger.Warn("calendar link lookup failed", "title", sessionTitle, "error", err)
		return k.record(ctx, "calendar_link", reconcile.VariantFreeform, k.failure(
			fmt.Sprintf("I couldn't find a session titled '%s'. Please check the title and try again.", sessionTitle),
		))
	}

	location := record.Room
	if location == "" {
		location = k.cfg.VenueAddress
	}

	link, err := BuildEventLink(record.Title, record.Description, location, record.ScheduledAt, record.ScheduledDuration)
	if err != nil {
		k.logger.Error("calendar link build failed", "title", record.Title, "error", err)
		return k.record(ctx, "calendar_link", reconcile.VariantFreeform,
			k.failure("Sorry, I encountered an error while trying to generate the calendar link."))
	}

	return k.record(ctx, "calendar_link", reconcile.VariantFreeform, map[string]any{
		"success":         true,
		"session_title":   record.Title,
		"calendar_link":   link,
		"message":         fmt.Sprintf("Here is the Google Calendar link for '%s':\n[Add to Calendar](%s)", record.Title, link),
		"support_contact": k.cfg.SupportPhone,
	})
}

// BuildEventLink builds a Google Calendar prefill URL for a session. The
// scheduled time is interpreted as WAT and converted to UTC; durationMinutes
// is the "Scheduled Duration" column value in minutes.
//
// Parameters keep a fixed order (text, dates, details, location) so the link
// is reproducible, and the slash between start and end stays unescaped.
func BuildEventLink(title, description, location, scheduledAt, durationMinutes string) (string, error) {
	start, err := time.ParseInLocation(scheduledAtLayout, scheduledAt, watZone)
	if err != nil {
		return "", fmt.Errorf("parsing session time %q: %w", scheduledAt, err)
	}
	minutes, err := strconv.Atoi(durationMinutes)
	if err != nil {
		return "", fmt.Errorf("parsing session duration %q: %w", durationMinutes, err)
	}

	startUTC := start.UTC()
	endUTC := startUTC.Add(time.Duration(minutes) * time.Minute)

	const stamp = "20060102T150405Z"
	dates := startUTC.Format(stamp) + "/" + endUTC.Format(stamp)

	return "https://www.google.com/calendar/render?action=TEMPLATE" +
		"&text=" + url.QueryEscape(title) +
		"&dates=" + dates +
		"&details=" + url.QueryEscape(description) +
		"&location=" + url.QueryEscape(location), nil
}
