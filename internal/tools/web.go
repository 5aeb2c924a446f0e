package tools

import (
	"context"
	"time"

	"github.com/firebase/genkit/go/genkit"

	"github.com/apiconf/ndu/internal/dataset"
	"github.com/apiconf/ndu/internal/reconcile"
	"github.com/apiconf/ndu/internal/scrape"
)

// registerWebTools defines the tools backed by the conference website.
func (k *Kit) registerWebTools(g *genkit.Genkit) {
	k.keep(genkit.DefineTool(
		g,
		"conference_info",
		"Get general conference information from the website: overview, dates, registration and FAQs. "+
			"Use this for questions the schedule and speaker data cannot answer.",
		dispatch(k, "conference_info", func(ctx context.Context, _ struct{}) map[string]any {
			return k.conferenceInfo(ctx)
		}),
	))

	k.keep(genkit.DefineTool(
		g,
		"refresh_conference_data",
		"Refresh the local speaker and schedule stores from the conference website. "+
			"Use this when the user says the data looks outdated.",
		dispatch(k, "refresh_conference_data", func(ctx context.Context, _ struct{}) map[string]any {
			return k.refreshConferenceData(ctx)
		}),
	))
}

func (k *Kit) conferenceInfo(ctx context.Context) map[string]any {
	pages := k.scraper.All(ctx, false)

	var faqs any = []any{}
	if data := pages["faq"].Data; data != nil {
		if f, ok := data["faqs"]; ok {
			faqs = f
		}
	}

	return k.record(ctx, "conference_info", reconcile.VariantFreeform, map[string]any{
		"success":         true,
		"conference_info": pages["main"].Data,
		"dates":           k.cfg.ConferenceDates,
		"faqs":            faqs,
		"scraped_at":      time.Now().UTC().Format(time.RFC3339),
		"support_contact": k.cfg.SupportPhone,
	})
}

func (k *Kit) refreshConferenceData(ctx context.Context) map[string]any {
	pages := k.scraper.All(ctx, true)

	speakers := speakerEntriesFromPage(pages["speakers"])
	if len(speakers) > 0 {
		if err := k.data.SaveSpeakers(speakers); err != nil {
			k.logger.Error("speaker store refresh failed", "error", err)
			return k.record(ctx, "refresh_conference_data", reconcile.VariantFreeform,
				k.failure("Failed to update conference data"))
		}
	}

	days := scheduleDaysFromPage(pages["schedule"])
	if len(days) > 0 {
		if err := k.data.SaveSchedule(days); err != nil {
			k.logger.Error("schedule store refresh failed", "error", err)
			return k.record(ctx, "refresh_conference_data", reconcile.VariantFreeform,
				k.failure("Failed to update conference data"))
		}
	}

	sessionCount := 0
	for _, d := range days {
		sessionCount += len(d.Sessions)
	}

	return k.record(ctx, "refresh_conference_data", reconcile.VariantFreeform, map[string]any{
		"success":    true,
		"message":    "Conference data updated successfully",
		"updated_at": time.Now().UTC().Format(time.RFC3339),
		"data_summary": map[string]any{
			"speakers_count": len(speakers),
			"schedule_days":  len(days),
			"session_count":  sessionCount,
		},
		"support_contact": k.cfg.SupportPhone,
	})
}

// speakerEntriesFromPage converts a scraped speakers page into store entries.
// Malformed records are dropped, not fatal.
func speakerEntriesFromPage(page scrape.Page) []dataset.SpeakerEntry {
	if page.Status != "success" || page.Data == nil {
		return nil
	}
	raw, _ := page.Data["speakers"].([]any)

	entries := make([]dataset.SpeakerEntry, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		if name == "" {
			continue
		}
		title, _ := m["title"].(string)
		bio, _ := m["bio"].(string)
		entries = append(entries, dataset.SpeakerEntry{
			Name:   name,
			Title:  title,
			Bio:    bio,
			Source: "web_scraped",
		})
	}
	return entries
}

// scheduleDaysFromPage converts a scraped schedule page into store days. The
// site does not carry day groupings, so everything lands under one day.
func scheduleDaysFromPage(page scrape.Page) []dataset.ScheduleDay {
	if page.Status != "success" || page.Data == nil {
		return nil
	}
	raw, _ := page.Data["schedule"].([]any)

	sessions := make([]dataset.ScheduleSession, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title, _ := m["title"].(string)
		if title == "" {
			continue
		}
		sessionTime, _ := m["time"].(string)
		sessions = append(sessions, dataset.ScheduleSession{
			Title:  title,
			Time:   sessionTime,
			Source: "web_scraped",
		})
	}
	if len(sessions) == 0 {
		return nil
	}
	return []dataset.ScheduleDay{{Day: "Day 1", Sessions: sessions}}
}
