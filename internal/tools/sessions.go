package tools

import (
	"context"
	"strings"

	"github.com/firebase/genkit/go/genkit"

	"github.com/apiconf/ndu/internal/dataset"
	"github.com/apiconf/ndu/internal/reconcile"
)

// registerSessionTools defines the tools backed by the sessions CSV export.
func (k *Kit) registerSessionTools(g *genkit.Genkit) {
	k.keep(genkit.DefineTool(
		g,
		"search_sessions",
		"Search conference sessions by title, description or speaker name. "+
			"Returns every session whose text contains the query; an empty query returns all sessions. "+
			"Use this for questions like 'any talks about GraphQL?' or 'what is Ada speaking about?'.",
		dispatch(k, "search_sessions", func(ctx context.Context, input struct {
			Query string `json:"query" jsonschema_description:"Search text matched against session titles, descriptions and speaker names. Case-insensitive substring match."`
		},
		) map[string]any {
			return k.searchSessions(ctx, input.Query)
		}),
	))

	k.keep(genkit.DefineTool(
		g,
		"search_speakers",
		"Search conference speakers by name. Matches first name, last name or full name. "+
			"Returns speaker profiles with bio, social links and the sessions they present.",
		dispatch(k, "search_speakers", func(ctx context.Context, input struct {
			Query string `json:"query" jsonschema_description:"Speaker name or part of a name. Case-insensitive substring match."`
		},
		) map[string]any {
			return k.searchSpeakers(ctx, input.Query)
		}),
	))

	k.keep(genkit.DefineTool(
		g,
		"full_schedule",
		"Get the complete conference schedule with every session grouped by date. "+
			"Use this when the user asks for the whole program rather than a specific talk.",
		dispatch(k, "full_schedule", func(ctx context.Context, _ struct{}) map[string]any {
			return k.fullSchedule(ctx)
		}),
	))

	k.keep(genkit.DefineTool(
		g,
		"keynote_speakers",
		"List the conference keynote speakers with their profiles and keynote details.",
		dispatch(k, "keynote_speakers", func(ctx context.Context, _ struct{}) map[string]any {
			return k.keynoteSpeakers(ctx)
		}),
	))

	k.keep(genkit.DefineTool(
		g,
		"organizer_info",
		"List the conference organizers and their roles.",
		dispatch(k, "organizer_info", func(ctx context.Context, _ struct{}) map[string]any {
			return k.organizerInfo(ctx)
		}),
	))
}

func (k *Kit) searchSessions(ctx context.Context, query string) map[string]any {
	records, err := k.data.Records()
	if err != nil {
		k.logger.Error("session search failed", "error", err)
		return k.record(ctx, "search_sessions", reconcile.VariantSessions,
			k.failure("Unable to search sessions right now"))
	}

	want := strings.ToLower(query)
	sessions := []any{}
	for _, r := range records {
		searchable := strings.ToLower(strings.Join([]string{
			r.Title, r.Description, r.FirstName, r.LastName, r.Owner,
		}, " "))
		if strings.Contains(searchable, want) {
			sessions = append(sessions, sessionMap(r))
		}
	}

	return k.record(ctx, "search_sessions", reconcile.VariantSessions, map[string]any{
		"success":         true,
		"query":           query,
		"sessions":        sessions,
		"count":           len(sessions),
		"support_contact": k.cfg.SupportPhone,
	})
}

func (k *Kit) searchSpeakers(ctx context.Context, query string) map[string]any {
	records, err := k.data.Records()
	if err != nil {
		k.logger.Error("speaker search failed", "error", err)
		return k.record(ctx, "search_speakers", reconcile.VariantSpeakers,
			k.failure("Unable to search speakers right now"))
	}

	want := strings.ToLower(query)
	speakers := []any{}
	for _, r := range records {
		first := strings.ToLower(r.FirstName)
		last := strings.ToLower(r.LastName)
		full := strings.TrimSpace(first + " " + last)
		if strings.Contains(first, want) || strings.Contains(last, want) || strings.Contains(full, want) {
			speakers = append(speakers, speakerMap(r))
		}
	}

	return k.record(ctx, "search_speakers", reconcile.VariantSpeakers, map[string]any{
		"success":         true,
		"query":           query,
		"speakers":        speakers,
		"count":           len(speakers),
		"support_contact": k.cfg.SupportPhone,
	})
}

func (k *Kit) fullSchedule(ctx context.Context) map[string]any {
	records, err := k.data.Records()
	if err != nil {
		k.logger.Error("schedule load failed", "error", err)
		return k.record(ctx, "full_schedule", reconcile.VariantFreeform,
			k.failure("Unable to retrieve the schedule right now"))
	}

	byDate := map[string][]any{}
	all := make([]any, 0, len(records))
	for _, r := range records {
		m := sessionMap(r)
		all = append(all, m)
		if r.ScheduledAt != "" {
			byDate[r.ScheduledAt] = append(byDate[r.ScheduledAt], m)
		}
	}

	return k.record(ctx, "full_schedule", reconcile.VariantFreeform, map[string]any{
		"success": true,
		"schedule": map[string]any{
			"total_sessions":   len(records),
			"sessions_by_date": byDate,
			"all_sessions":     all,
		},
		"support_contact": k.cfg.SupportPhone,
	})
}

func (k *Kit) keynoteSpeakers(ctx context.Context) map[string]any {
	records, err := k.data.Records()
	if err != nil {
		k.logger.Error("keynote lookup failed", "error", err)
		return k.record(ctx, "keynote_speakers", reconcile.VariantSpeakers,
			k.failure("Unable to retrieve keynote speakers right now"))
	}

	speakers := []any{}
	for _, r := range records {
		if strings.EqualFold(r.SessionFormat, "keynote") {
			speakers = append(speakers, speakerMap(r))
		}
	}

	return k.record(ctx, "keynote_speakers", reconcile.VariantSpeakers, map[string]any{
		"success":         true,
		"speakers":        speakers,
		"count":           len(speakers),
		"support_contact": k.cfg.SupportPhone,
	})
}

func (k *Kit) organizerInfo(ctx context.Context) map[string]any {
	organizers, err := k.data.Organizers()
	if err != nil {
		k.logger.Error("organizer lookup failed", "error", err)
		return k.record(ctx, "organizer_info", reconcile.VariantFreeform,
			k.failure("I couldn't find the information about the organizers."))
	}
	if len(organizers) == 0 {
		return k.record(ctx, "organizer_info", reconcile.VariantFreeform,
			k.failure("No organizer information found."))
	}

	list := make([]any, 0, len(organizers))
	var b strings.Builder
	b.WriteString("Here are the conference organizers:\n")
	for _, o := range organizers {
		list = append(list, map[string]any{"name": o.Name, "role": o.Role})
		b.WriteString("- " + o.Name + ": " + o.Role + "\n")
	}

	return k.record(ctx, "organizer_info", reconcile.VariantFreeform, map[string]any{
		"success":         true,
		"organizers":      list,
		"message":         b.String(),
		"count":           len(organizers),
		"support_contact": k.cfg.SupportPhone,
	})
}

// sessionMap shapes one CSV row as a session envelope entry.
func sessionMap(r dataset.Record) map[string]any {
	return map[string]any{
		"title":              r.Title,
		"description":        r.Description,
		"speaker_name":       r.SpeakerName(),
		"owner":              r.Owner,
		"session_format":     r.SessionFormat,
		"room":               r.Room,
		"scheduled_at":       r.ScheduledAt,
		"scheduled_duration": r.ScheduledDuration,
		"tagline":            r.TagLine,
		"bio":                r.Bio,
		"twitter":            r.Twitter,
		"linkedin":           r.LinkedIn,
		"company_website":    r.CompanyWebsite,
		"profile_picture":    r.ProfilePicture,
	}
}

// speakerMap shapes one CSV row as a speaker profile with its session.
func speakerMap(r dataset.Record) map[string]any {
	return map[string]any{
		"name":            r.SpeakerName(),
		"title":           r.TagLine,
		"company":         r.CompanyWebsite,
		"bio":             r.Bio,
		"profile_picture": r.ProfilePicture,
		"social_links": map[string]any{
			"twitter":         r.Twitter,
			"linkedin":        r.LinkedIn,
			"company_website": r.CompanyWebsite,
		},
		"sessions": []any{
			map[string]any{
				"title":              r.Title,
				"description":        r.Description,
				"session_format":     r.SessionFormat,
				"room":               r.Room,
				"scheduled_at":       r.ScheduledAt,
				"scheduled_duration": r.ScheduledDuration,
			},
		},
	}
}
