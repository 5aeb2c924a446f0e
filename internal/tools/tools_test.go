package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiconf/ndu/internal/config"
	"github.com/apiconf/ndu/internal/dataset"
	"github.com/apiconf/ndu/internal/maps"
	"github.com/apiconf/ndu/internal/reconcile"
	"github.com/apiconf/ndu/internal/scrape"
)

const sessionsCSV = `Title,Description,Owner,Owner Email,Session format,Room,Scheduled At,Scheduled Duration,Speaker Id,FirstName,LastName,Email,TagLine,Bio,X (Twitter),LinkedIn,Company Website,Profile Picture
Designing Resilient APIs,How to build APIs that survive failure,Ada Obi,ada@example.com,Workshop,Workshop Room A,18 Jul 2025 02:00 PM,90,spk-1,Ada,Obi,ada@example.com,Staff Engineer,Builds payment APIs.,https://x.com/adaobi,https://linkedin.com/in/adaobi,https://paystack.com,https://cdn.example.com/ada.jpg
The Future of African APIs,Where the ecosystem is heading,Tunde Bello,tunde@example.com,Keynote,Main Hall,18 Jul 2025 09:00 AM,60,spk-2,Tunde,Bello,tunde@example.com,CTO,Runs platform teams.,https://x.com/tundeb,https://linkedin.com/in/tundeb,https://example.africa,https://cdn.example.com/tunde.jpg
`

const organizersCSV = `Name,Role & Where you work
Chidi Okeke,Lead Organizer at DevRel NG
Bisi Ade,Logistics at CloudCo
`

const scheduleJSON = `{
  "days": [
    {
      "day": "Day 1",
      "date": "July 18, 2025",
      "sessions": [
        {"id": "s1", "title": "Opening Keynote", "time": "9:00 AM", "room": "Main Hall", "type": "keynote", "level": "beginner", "speaker_names": ["Tunde Bello"]},
        {"id": "s2", "title": "API Security Workshop", "time": "2:00 PM", "room": "Workshop Room A"}
      ]
    },
    {
      "day": "Day 2",
      "date": "July 19, 2025",
      "sessions": [
        {"id": "s3", "title": "Closing Panel", "time": "4:00 PM"}
      ]
    }
  ]
}`

type fakeMaps struct {
	routes   []maps.Route
	locs     []maps.Location
	places   []maps.Place
	busStops []maps.Place
	err      error

	lastOrigin      string
	lastDestination string
	lastMode        string
	lastRadius      uint
}

func (f *fakeMaps) Directions(_ context.Context, origin, destination, mode string) ([]maps.Route, error) {
	f.lastOrigin, f.lastDestination, f.lastMode = origin, destination, mode
	return f.routes, f.err
}

func (f *fakeMaps) Geocode(_ context.Context, _ string) ([]maps.Location, error) {
	return f.locs, f.err
}

func (f *fakeMaps) NearbySearch(_ context.Context, _, _ float64, radius uint, _, keyword string) ([]maps.Place, error) {
	f.lastRadius = radius
	if f.err != nil {
		return nil, f.err
	}
	if keyword != "" {
		return f.busStops, nil
	}
	return f.places, nil
}

type fakeScraper struct {
	pages     map[string]scrape.Page
	lastForce bool
}

func (f *fakeScraper) All(_ context.Context, force bool) map[string]scrape.Page {
	f.lastForce = force
	return f.pages
}

func (f *fakeScraper) Speakers(_ context.Context, _ bool) scrape.Page { return f.pages["speakers"] }
func (f *fakeScraper) Schedule(_ context.Context, _ bool) scrape.Page { return f.pages["schedule"] }

func testConfig(dir string) *config.Config {
	return &config.Config{
		VenueName:        "The Zone Tech Park",
		VenueAddress:     "The Zone, Plot 9, Gbagada Industrial Scheme, Lagos",
		VenueCoordinates: "6.5568,3.3884",
		ConferenceDates:  "July 18-19, 2025",
		SupportPhone:     "+234 800 000 0000",
		SupportEmail:     "hello@apiconf.net",
		SessionsCSV:      filepath.Join(dir, "sessions.csv"),
		OrganizersCSV:    filepath.Join(dir, "organizers.csv"),
		SpeakersJSON:     filepath.Join(dir, "speakers.json"),
		ScheduleJSON:     filepath.Join(dir, "schedule.json"),
	}
}

func newTestKit(t *testing.T, provider MapsProvider, scraper Scraper) *Kit {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sessions.csv"), []byte(sessionsCSV), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "organizers.csv"), []byte(organizersCSV), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schedule.json"), []byte(scheduleJSON), 0o600))

	cfg := testConfig(dir)
	data := dataset.New(dataset.Config{
		SessionsCSV:   cfg.SessionsCSV,
		OrganizersCSV: cfg.OrganizersCSV,
		SpeakersJSON:  cfg.SpeakersJSON,
		ScheduleJSON:  cfg.ScheduleJSON,
	})
	return NewKit(cfg, data, scraper, provider, nil)
}

func TestSearchSessions(t *testing.T) {
	k := newTestKit(t, nil, nil)
	ctx := context.Background()

	t.Run("matches description text", func(t *testing.T) {
		out := k.searchSessions(ctx, "ecosystem")
		assert.Equal(t, true, out["success"])
		assert.Equal(t, 1, out["count"])
		sessions := out["sessions"].([]any)
		first := sessions[0].(map[string]any)
		assert.Equal(t, "The Future of African APIs", first["title"])
		assert.Equal(t, "Tunde Bello", first["speaker_name"])
	})

	t.Run("matches speaker name", func(t *testing.T) {
		out := k.searchSessions(ctx, "ada")
		assert.Equal(t, 1, out["count"])
	})

	t.Run("empty query returns everything", func(t *testing.T) {
		out := k.searchSessions(ctx, "")
		assert.Equal(t, 2, out["count"])
	})

	t.Run("no match returns empty collection not error", func(t *testing.T) {
		out := k.searchSessions(ctx, "blockchain")
		assert.Equal(t, true, out["success"])
		assert.Equal(t, 0, out["count"])
		assert.Empty(t, out["sessions"])
	})

	t.Run("carries support contact", func(t *testing.T) {
		out := k.searchSessions(ctx, "")
		assert.Equal(t, "+234 800 000 0000", out["support_contact"])
	})
}

func TestSearchSessionsDatasetMissing(t *testing.T) {
	k := newTestKit(t, nil, nil)
	k.cfg.SessionsCSV = filepath.Join(t.TempDir(), "missing.csv")
	k.data = dataset.New(dataset.Config{SessionsCSV: k.cfg.SessionsCSV})

	out := k.searchSessions(context.Background(), "anything")
	assert.Equal(t, true, out["error"])
	assert.NotEmpty(t, out["message"])
	assert.Equal(t, k.cfg.SupportPhone, out["support_contact"])
}

func TestSearchSpeakers(t *testing.T) {
	k := newTestKit(t, nil, nil)
	ctx := context.Background()

	out := k.searchSpeakers(ctx, "Obi")
	require.Equal(t, 1, out["count"])

	speaker := out["speakers"].([]any)[0].(map[string]any)
	assert.Equal(t, "Ada Obi", speaker["name"])
	assert.Equal(t, "Staff Engineer", speaker["title"])

	links := speaker["social_links"].(map[string]any)
	assert.Equal(t, "https://x.com/adaobi", links["twitter"])
	assert.Equal(t, "https://linkedin.com/in/adaobi", links["linkedin"])

	sessions := speaker["sessions"].([]any)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Designing Resilient APIs", sessions[0].(map[string]any)["title"])
}

func TestKeynoteSpeakers(t *testing.T) {
	k := newTestKit(t, nil, nil)

	out := k.keynoteSpeakers(context.Background())
	require.Equal(t, 1, out["count"])
	speaker := out["speakers"].([]any)[0].(map[string]any)
	assert.Equal(t, "Tunde Bello", speaker["name"])
}

func TestFullSchedule(t *testing.T) {
	k := newTestKit(t, nil, nil)

	out := k.fullSchedule(context.Background())
	require.Equal(t, true, out["success"])

	schedule := out["schedule"].(map[string]any)
	assert.Equal(t, 2, schedule["total_sessions"])

	byDate := schedule["sessions_by_date"].(map[string][]any)
	assert.Len(t, byDate["18 Jul 2025 09:00 AM"], 1)
	assert.Len(t, byDate["18 Jul 2025 02:00 PM"], 1)
}

func TestOrganizerInfo(t *testing.T) {
	k := newTestKit(t, nil, nil)

	out := k.organizerInfo(context.Background())
	require.Equal(t, true, out["success"])
	assert.Equal(t, 2, out["count"])
	assert.Contains(t, out["message"], "- Chidi Okeke: Lead Organizer at DevRel NG\n")
	assert.Contains(t, out["message"], "- Bisi Ade: Logistics at CloudCo\n")
}

func TestCalendarLink(t *testing.T) {
	k := newTestKit(t, nil, nil)
	ctx := context.Background()

	t.Run("builds link with UTC conversion", func(t *testing.T) {
		out := k.calendarLink(ctx, "the future of african apis")
		require.Equal(t, true, out["success"])

		link := out["calendar_link"].(string)
		assert.Contains(t, link, "https://www.google.com/calendar/render?action=TEMPLATE")
		assert.Contains(t, link, "&text=The+Future+of+African+APIs")
		assert.Contains(t, link, "&dates=20250718T080000Z/20250718T090000Z")
		assert.Contains(t, link, "&location=Main+Hall")
		assert.Contains(t, out["message"], "[Add to Calendar](")
	})

	t.Run("unknown title", func(t *testing.T) {
		out := k.calendarLink(ctx, "Nonexistent Talk")
		assert.Equal(t, true, out["error"])
		assert.Contains(t, out["message"], "I couldn't find a session titled 'Nonexistent Talk'")
	})
}

func TestBuildEventLinkDeterministic(t *testing.T) {
	first, err := BuildEventLink("A Talk", "Details here", "Main Hall", "18 Jul 2025 09:00 AM", "60")
	require.NoError(t, err)
	for range 5 {
		again, err := BuildEventLink("A Talk", "Details here", "Main Hall", "18 Jul 2025 09:00 AM", "60")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuildEventLinkBadInput(t *testing.T) {
	_, err := BuildEventLink("A Talk", "", "Main Hall", "not a time", "60")
	assert.Error(t, err)

	_, err = BuildEventLink("A Talk", "", "Main Hall", "18 Jul 2025 09:00 AM", "soon")
	assert.Error(t, err)
}

func TestScheduleByDay(t *testing.T) {
	k := newTestKit(t, nil, nil)
	ctx := context.Background()

	t.Run("matches day label", func(t *testing.T) {
		out := k.scheduleByDay(ctx, "day 2")
		require.Equal(t, true, out["success"])
		assert.Equal(t, 1, out["session_count"])
	})

	t.Run("matches date", func(t *testing.T) {
		out := k.scheduleByDay(ctx, "July 18")
		require.Equal(t, true, out["success"])
		assert.Equal(t, 2, out["session_count"])
	})

	t.Run("unknown day lists available days", func(t *testing.T) {
		out := k.scheduleByDay(ctx, "Day 9")
		assert.Equal(t, true, out["error"])
		assert.Equal(t, []string{"Day 1", "Day 2"}, out["available_days"])
	})
}

func TestSessionsByTime(t *testing.T) {
	k := newTestKit(t, nil, nil)
	ctx := context.Background()

	t.Run("matches time slot", func(t *testing.T) {
		out := k.sessionsByTime(ctx, "9:00 AM", "")
		require.Equal(t, 1, out["count"])
		session := out["sessions"].([]any)[0].(map[string]any)
		assert.Equal(t, "Opening Keynote", session["title"])
		assert.Equal(t, "Day 1", session["day"])
		assert.Equal(t, "July 18, 2025", session["date"])
	})

	t.Run("day filter excludes other days", func(t *testing.T) {
		out := k.sessionsByTime(ctx, "PM", "Day 2")
		require.Equal(t, 1, out["count"])
		session := out["sessions"].([]any)[0].(map[string]any)
		assert.Equal(t, "Closing Panel", session["title"])
	})
}

func TestSessionDetails(t *testing.T) {
	k := newTestKit(t, nil, nil)
	ctx := context.Background()

	out := k.sessionDetails(ctx, "s2")
	require.Equal(t, true, out["success"])
	session := out["session"].(map[string]any)
	assert.Equal(t, "API Security Workshop", session["title"])
	assert.Equal(t, "Day 1", session["day"])

	missing := k.sessionDetails(ctx, "s9")
	assert.Equal(t, true, missing["error"])
	assert.Contains(t, missing["message"], "Session 's9' not found")
}

func TestDirectionsToVenue(t *testing.T) {
	ctx := context.Background()

	t.Run("successful route", func(t *testing.T) {
		provider := &fakeMaps{routes: []maps.Route{{
			Summary:  "Third Mainland Bridge",
			Distance: "12 km",
			Duration: "35 mins",
			Steps: []maps.Step{
				{Instruction: "Head north on Awolowo Rd", Distance: "500 m", Duration: "2 mins"},
			},
		}}}
		k := newTestKit(t, provider, nil)

		out := k.directionsToVenue(ctx, "Ikoyi, Lagos", "")
		require.Equal(t, true, out["success"])
		assert.Equal(t, "transit", out["transportation_mode"], "mode should default to transit")
		assert.Equal(t, "transit", provider.lastMode)
		assert.Equal(t, k.cfg.VenueAddress, provider.lastDestination)
		assert.Equal(t, "12 km", out["total_distance"])
		assert.Equal(t, false, out["alternative_routes"])

		steps := out["steps"].([]any)
		require.Len(t, steps, 1)
		assert.Equal(t, "Head north on Awolowo Rd", steps[0].(map[string]any)["instruction"])
	})

	t.Run("no routes", func(t *testing.T) {
		k := newTestKit(t, &fakeMaps{}, nil)
		out := k.directionsToVenue(ctx, "Nowhere", "driving")
		assert.Equal(t, true, out["error"])
		assert.Contains(t, out["message"], "Could not find a route from Nowhere")
	})

	t.Run("denied key yields configuration message", func(t *testing.T) {
		k := newTestKit(t, &fakeMaps{err: maps.ErrDenied}, nil)
		out := k.directionsToVenue(ctx, "Ikoyi", "driving")
		assert.Equal(t, true, out["error"])
		assert.Equal(t, mapsDeniedMessage, out["message"])
	})

	t.Run("nil provider yields configuration message", func(t *testing.T) {
		k := newTestKit(t, nil, nil)
		out := k.directionsToVenue(ctx, "Ikoyi", "driving")
		assert.Equal(t, true, out["error"])
		assert.Equal(t, mapsDeniedMessage, out["message"])
	})

	t.Run("transient error keeps fallback contact", func(t *testing.T) {
		k := newTestKit(t, &fakeMaps{err: errors.New("timeout")}, nil)
		out := k.directionsToVenue(ctx, "Ikoyi", "driving")
		assert.Equal(t, true, out["error"])
		assert.Contains(t, out["fallback"], k.cfg.SupportPhone)
	})
}

func TestNearbyTransportation(t *testing.T) {
	ctx := context.Background()

	provider := &fakeMaps{
		places: []maps.Place{
			{Name: "Oworonshoki Station", Address: "Oworo Rd", Rating: 4.1},
			{Name: "Gbagada Terminal", Address: "Gbagada Expressway"},
		},
		busStops: []maps.Place{
			{Name: "Charly Boy Bus Stop", Address: "Gbagada Phase 2"},
		},
	}
	k := newTestKit(t, provider, nil)

	out := k.nearbyTransportation(ctx, "6.55,3.38", 0)
	require.Equal(t, true, out["success"])
	assert.Equal(t, uint(1000), provider.lastRadius, "radius should default to 1000m")
	assert.Equal(t, 3, out["total_found"])
	assert.Equal(t, 1.0, out["search_radius_km"])

	options := out["transport_options"].([]any)
	require.Len(t, options, 3)
	first := options[0].(map[string]any)
	assert.Equal(t, "Oworonshoki Station", first["name"])
	assert.Equal(t, "transit_station", first["type"])
	assert.Equal(t, float32(4.1), first["rating"])
	_, hasRating := options[1].(map[string]any)["rating"]
	assert.False(t, hasRating, "zero rating should be omitted")

	last := options[2].(map[string]any)
	assert.Equal(t, "Charly Boy Bus Stop", last["name"])
	assert.Equal(t, "bus_stop", last["type"])
}

func TestNearbyTransportationTruncatesMergedList(t *testing.T) {
	provider := &fakeMaps{}
	for i := 0; i < 7; i++ {
		provider.places = append(provider.places, maps.Place{Name: fmt.Sprintf("Station %d", i)})
		provider.busStops = append(provider.busStops, maps.Place{Name: fmt.Sprintf("Stop %d", i)})
	}
	k := newTestKit(t, provider, nil)

	out := k.nearbyTransportation(context.Background(), "6.55,3.38", 500)
	require.Equal(t, true, out["success"])
	assert.Equal(t, 14, out["total_found"])

	options := out["transport_options"].([]any)
	require.Len(t, options, 10)
	// Stations fill the list first; the cutoff lands inside the bus stops.
	assert.Equal(t, "transit_station", options[0].(map[string]any)["type"])
	assert.Equal(t, "bus_stop", options[9].(map[string]any)["type"])
	assert.Equal(t, "Stop 2", options[9].(map[string]any)["name"])
}

func TestVenueAccessInfo(t *testing.T) {
	k := newTestKit(t, nil, nil)

	out := k.venueAccessInfo(context.Background())
	assert.Equal(t, "The Zone Tech Park", out["venue_name"])
	assert.NotEmpty(t, out["access_notes"])
	assert.NotEmpty(t, out["parking_info"])

	contact := out["contact"].(map[string]any)
	assert.Equal(t, k.cfg.SupportPhone, contact["phone"])
	assert.Equal(t, k.cfg.SupportEmail, contact["email"])
}

func TestConferenceInfo(t *testing.T) {
	scraper := &fakeScraper{pages: map[string]scrape.Page{
		"main": {Status: "success", Data: map[string]any{"title": "API Conference Lagos"}},
		"faq":  {Status: "success", Data: map[string]any{"faqs": []any{map[string]any{"question": "Is it free?"}}}},
	}}
	k := newTestKit(t, nil, scraper)

	out := k.conferenceInfo(context.Background())
	require.Equal(t, true, out["success"])
	assert.False(t, scraper.lastForce)
	assert.Equal(t, "July 18-19, 2025", out["dates"])

	info := out["conference_info"].(map[string]any)
	assert.Equal(t, "API Conference Lagos", info["title"])
	assert.Len(t, out["faqs"], 1)
}

func TestRefreshConferenceData(t *testing.T) {
	scraper := &fakeScraper{pages: map[string]scrape.Page{
		"speakers": {Status: "success", Data: map[string]any{"speakers": []any{
			map[string]any{"name": "Ada Obi", "title": "Staff Engineer", "bio": "Builds APIs."},
			map[string]any{"title": "nameless, skipped"},
		}}},
		"schedule": {Status: "success", Data: map[string]any{"schedule": []any{
			map[string]any{"title": "Opening Keynote", "time": "9:00 AM"},
		}}},
	}}
	k := newTestKit(t, nil, scraper)

	out := k.refreshConferenceData(context.Background())
	require.Equal(t, true, out["success"])
	assert.True(t, scraper.lastForce, "refresh must bypass the page cache")

	summary := out["data_summary"].(map[string]any)
	assert.Equal(t, 1, summary["speakers_count"])
	assert.Equal(t, 1, summary["schedule_days"])

	entries, err := k.data.SpeakerEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ada Obi", entries[0].Name)
	assert.Equal(t, "web_scraped", entries[0].Source)

	days, err := k.data.ScheduleDays()
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "Day 1", days[0].Day)
	require.Len(t, days[0].Sessions, 1)
	assert.Equal(t, "Opening Keynote", days[0].Sessions[0].Title)
}

func TestRefreshSkipsFailedPages(t *testing.T) {
	scraper := &fakeScraper{pages: map[string]scrape.Page{
		"speakers": {Status: "error", Error: "HTTP 500"},
		"schedule": {Status: "error", Error: "HTTP 500"},
	}}
	k := newTestKit(t, nil, scraper)

	out := k.refreshConferenceData(context.Background())
	require.Equal(t, true, out["success"])

	summary := out["data_summary"].(map[string]any)
	assert.Equal(t, 0, summary["speakers_count"])
	assert.Equal(t, 0, summary["schedule_days"])

	entries, err := k.data.SpeakerEntries()
	require.NoError(t, err)
	assert.Empty(t, entries, "a failed scrape must not touch the store")
}

func TestRecorderCapturesOutputsInOrder(t *testing.T) {
	k := newTestKit(t, nil, nil)
	rec := &Recorder{}
	ctx := WithRecorder(context.Background(), rec)

	k.searchSpeakers(ctx, "ada")
	k.venueAccessInfo(ctx)

	outputs := rec.Outputs()
	require.Len(t, outputs, 2)
	assert.Equal(t, "search_speakers", outputs[0].Tool)
	assert.Equal(t, reconcile.VariantSpeakers, outputs[0].Variant)
	assert.Equal(t, "venue_access_info", outputs[1].Tool)
	assert.Equal(t, reconcile.VariantFreeform, outputs[1].Variant)
}

func TestRecorderAbsentIsNoop(t *testing.T) {
	k := newTestKit(t, nil, nil)
	out := k.searchSpeakers(context.Background(), "ada")
	assert.Equal(t, true, out["success"])
	assert.Nil(t, RecorderFrom(context.Background()))
}

func TestDispatchRecordsCallArguments(t *testing.T) {
	k := newTestKit(t, nil, nil)
	rec := &Recorder{}
	ctx := WithRecorder(context.Background(), rec)

	type input struct {
		Query string `json:"query"`
	}
	fn := dispatch(k, "search_sessions", func(ctx context.Context, in input) map[string]any {
		return k.searchSessions(ctx, in.Query)
	})

	out, err := fn(&ai.ToolContext{Context: ctx}, input{Query: "keynote"})
	require.NoError(t, err)
	assert.Equal(t, true, out["success"])

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "search_sessions", calls[0].Tool)
	assert.Equal(t, input{Query: "keynote"}, calls[0].Args)
}

func TestDispatchInterceptorShortCircuits(t *testing.T) {
	k := newTestKit(t, nil, nil)
	rec := &Recorder{}
	ctx := WithRecorder(context.Background(), rec)

	ran := false
	substitute := map[string]any{"success": true, "note": "cached"}
	k.SetInterceptor(func(_ context.Context, tool string, _ any) (map[string]any, bool) {
		if tool == "venue_access_info" {
			return substitute, true
		}
		return nil, false
	})

	fn := dispatch(k, "venue_access_info", func(ctx context.Context, _ struct{}) map[string]any {
		ran = true
		return k.venueAccessInfo(ctx)
	})

	out, err := fn(&ai.ToolContext{Context: ctx}, struct{}{})
	require.NoError(t, err)
	assert.False(t, ran, "intercepted tool body must not run")
	assert.Equal(t, substitute, out)

	// The substitute still lands in the recorded outputs.
	outputs := rec.Outputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, "venue_access_info", outputs[0].Tool)
}

func TestDispatchInterceptorPassThrough(t *testing.T) {
	k := newTestKit(t, nil, nil)
	k.SetInterceptor(func(context.Context, string, any) (map[string]any, bool) {
		return nil, false
	})

	fn := dispatch(k, "venue_access_info", func(ctx context.Context, _ struct{}) map[string]any {
		return k.venueAccessInfo(ctx)
	})

	out, err := fn(&ai.ToolContext{Context: context.Background()}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, true, out["success"])
}

func TestRegisterDefinesEachToolOnce(t *testing.T) {
	k := newTestKit(t, nil, nil)
	g := genkit.Init(context.Background())

	// DefineTool panics on a duplicate name, so a second definition of any
	// tool would fail here rather than at serve time.
	k.Register(g)

	refs := k.Refs()
	require.Len(t, refs, 15)

	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		assert.False(t, seen[ref.Name()], "tool %q registered twice", ref.Name())
		seen[ref.Name()] = true
	}
	assert.True(t, seen["calendar_link"])
	assert.True(t, seen["search_sessions"])
	assert.True(t, seen["refresh_conference_data"])
}
