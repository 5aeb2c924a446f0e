// Package reconcile decides, per conversational turn, whether the model's
// free-text answer should be replaced by a deterministic Markdown rendering
// of the raw tool output it was derived from.
//
// Tools declare the variant of the payload they return (speakers, sessions,
// or freeform), so recorded outputs are rendered without signature guessing.
// Outputs without a declared variant (raw maps from the model-engine event
// stream) fall back to Classify, whose precedence order is part of the
// product behavior: do not reorder the checks.
package reconcile

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Variant tags the payload shape of a tool output.
type Variant int

const (
	// VariantUnknown means the shape must be classified structurally.
	VariantUnknown Variant = iota

	// VariantSpeakers is a collection of speaker profiles.
	VariantSpeakers

	// VariantSessions is a collection of conference talks.
	VariantSessions

	// VariantFreeform is any other payload; the model's own text stands.
	VariantFreeform
)

// String returns the variant name for logging.
func (v Variant) String() string {
	switch v {
	case VariantSpeakers:
		return "speakers"
	case VariantSessions:
		return "sessions"
	case VariantFreeform:
		return "freeform"
	default:
		return "unknown"
	}
}

// Fixed replies when a recognized collection turns out to be empty. An empty
// render would read as a blank reply, so a terminal message is used instead.
const (
	NoSpeakersFound = "I couldn't find any speakers matching your query."
	NoSessionsFound = "I couldn't find any sessions matching your query."
)

// Output is one recorded tool invocation result.
type Output struct {
	Tool    string
	Variant Variant
	Value   any
}

// Resolve inspects the ordered tool outputs of a turn and returns the final
// user-facing text: either a deterministic rendering of the first output's
// collection, or modelText when no recognized shape is present.
//
// Only the first output is inspected; later outputs fed the model's own
// reasoning and are not re-rendered.
func Resolve(outputs []Output, modelText string) string {
	if len(outputs) == 0 {
		return modelText
	}

	first := outputs[0]
	norm, ok := normalize(first.Value)
	if !ok {
		return modelText
	}

	// A tool's failure envelope is not a collection; the model has already
	// seen it and apologized, so its text stands.
	if m, ok := norm.(map[string]any); ok {
		if failed, _ := m["error"].(bool); failed {
			return modelText
		}
	}

	variant := first.Variant
	var collection []any
	if variant == VariantSpeakers || variant == VariantSessions {
		collection = declaredCollection(norm, variant)
	} else if variant == VariantUnknown {
		variant, collection = Classify(norm)
	}

	switch variant {
	case VariantSpeakers:
		return RenderSpeakers(collection)
	case VariantSessions:
		return RenderSessions(collection)
	default:
		return modelText
	}
}

// declaredCollection extracts the record list from a payload whose variant
// the tool declared. Payloads carry their collection under "speakers",
// "sessions" or "result", or are a bare list.
func declaredCollection(v any, variant Variant) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	key := "speakers"
	if variant == VariantSessions {
		key = "sessions"
	}
	for _, k := range []string{key, "result"} {
		if list, ok := m[k].([]any); ok {
			return list
		}
	}
	return nil
}

// Classify determines the collection shape of an untagged payload. The
// checks run in a fixed precedence order; an ambiguous payload matching
// several rules is resolved by whichever rule comes first:
//
//  1. container with a "result" list of speaker records
//  2. container with a "result" list of session records
//  3. bare list of speaker records
//  4. bare list of session records
//  5. container with a "sessions" field
//  6. container with a "speakers" field
//
// A speaker record has both "name" and "social_links"; a session record has
// both "title" and "speakers".
func Classify(v any) (Variant, []any) {
	if m, ok := v.(map[string]any); ok {
		if result, ok := m["result"].([]any); ok && len(result) > 0 {
			if isRecordWith(result[0], "name", "social_links") {
				return VariantSpeakers, result
			}
			if isRecordWith(result[0], "title", "speakers") {
				return VariantSessions, result
			}
		}
	}

	if list, ok := v.([]any); ok && len(list) > 0 && allRecords(list) {
		if isRecordWith(list[0], "name", "social_links") {
			return VariantSpeakers, list
		}
		if isRecordWith(list[0], "title", "speakers") {
			return VariantSessions, list
		}
	}

	if m, ok := v.(map[string]any); ok {
		if sessions, ok := m["sessions"]; ok {
			list, _ := sessions.([]any)
			return VariantSessions, list
		}
		if speakers, ok := m["speakers"]; ok {
			list, _ := speakers.([]any)
			return VariantSpeakers, list
		}
	}

	return VariantUnknown, nil
}

func isRecordWith(v any, keys ...string) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

func allRecords(list []any) bool {
	for _, item := range list {
		if _, ok := item.(map[string]any); !ok {
			return false
		}
	}
	return true
}

// normalize converts an arbitrary tool output (struct, map, slice) into the
// map[string]any / []any world via a JSON round-trip, so classification and
// rendering see one uniform shape.
func normalize(v any) (any, bool) {
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	switch out.(type) {
	case map[string]any, []any:
		return out, true
	}
	return nil, false
}

type speakerView struct {
	Name           string            `json:"name"`
	Title          string            `json:"title"`
	Company        string            `json:"company"`
	Bio            string            `json:"bio"`
	ProfilePicture string            `json:"profile_picture"`
	SocialLinks    map[string]string `json:"social_links"`
}

type sessionView struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Time         string   `json:"time"`
	Room         string   `json:"room"`
	Day          string   `json:"day"`
	Date         string   `json:"date"`
	Type         string   `json:"type"`
	Level        string   `json:"level"`
	SpeakerNames []string `json:"speaker_names"`
}

// Social platforms rendered as hyperlinks, in display order.
var socialPlatforms = []struct{ key, label string }{
	{"twitter", "Twitter"},
	{"linkedin", "LinkedIn"},
	{"company_website", "Website"},
}

// RenderSpeakers renders a speaker collection as Markdown. Records are joined
// by a blank line; the output is a pure function of the input.
func RenderSpeakers(records []any) string {
	if len(records) == 0 {
		return NoSpeakersFound
	}

	parts := make([]string, 0, len(records))
	for _, rec := range records {
		var sp speakerView
		if !decodeRecord(rec, &sp) {
			continue
		}
		parts = append(parts, renderSpeaker(sp))
	}
	if len(parts) == 0 {
		return NoSpeakersFound
	}
	return strings.Join(parts, "\n\n")
}

func renderSpeaker(sp speakerView) string {
	name := sp.Name
	if name == "" {
		name = "N/A"
	}
	bio := sp.Bio
	if bio == "" {
		bio = "No bio available."
	}

	var parts []string
	if sp.ProfilePicture != "" {
		parts = append(parts, "!["+name+"]("+sp.ProfilePicture+")")
	}
	parts = append(parts, "### "+name)
	if sp.Title != "" {
		parts = append(parts, "**"+sp.Title+"**")
	}
	if sp.Company != "" {
		parts = append(parts, "*"+sp.Company+"*")
	}

	var links []string
	for _, p := range socialPlatforms {
		if url := sp.SocialLinks[p.key]; url != "" {
			links = append(links, "["+p.label+"]("+url+")")
		}
	}
	if len(links) > 0 {
		parts = append(parts, strings.Join(links, " | "))
	}

	parts = append(parts, "\n"+bio+"\n")
	return strings.Join(parts, "\n")
}

// descriptionLimit is the rune cutoff for session descriptions.
const descriptionLimit = 300

// RenderSessions renders a session collection as Markdown.
func RenderSessions(records []any) string {
	if len(records) == 0 {
		return NoSessionsFound
	}

	parts := make([]string, 0, len(records))
	for _, rec := range records {
		var se sessionView
		if !decodeRecord(rec, &se) {
			continue
		}
		parts = append(parts, renderSession(se))
	}
	if len(parts) == 0 {
		return NoSessionsFound
	}
	return strings.Join(parts, "\n\n")
}

func renderSession(se sessionView) string {
	title := se.Title
	if title == "" {
		title = "N/A"
	}
	description := se.Description
	if description == "" {
		description = "No description available."
	}
	sessionType := se.Type
	if sessionType == "" {
		sessionType = "session"
	}

	parts := []string{"### " + title}

	var details []string
	if se.Time != "" {
		details = append(details, "**Time:** "+se.Time)
	}
	if se.Room != "" {
		details = append(details, "**Room:** "+se.Room)
	}
	switch {
	case se.Day != "" && se.Date != "":
		details = append(details, "**Date:** "+se.Day+", "+se.Date)
	case se.Date != "":
		details = append(details, "**Date:** "+se.Date)
	}
	details = append(details, "**Type:** "+titleCase(sessionType))
	if se.Level != "" {
		details = append(details, "**Level:** "+titleCase(se.Level))
	}
	if len(se.SpeakerNames) > 0 {
		details = append(details, "**Speaker(s):** "+strings.Join(se.SpeakerNames, ", "))
	}
	parts = append(parts, strings.Join(details, " | "))

	if runes := []rune(description); len(runes) > descriptionLimit {
		description = string(runes[:descriptionLimit]) + "..."
	}
	parts = append(parts, "\n"+description+"\n")

	return strings.Join(parts, "\n")
}

func decodeRecord(rec any, dst any) bool {
	data, err := json.Marshal(rec)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// titleCase capitalizes the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
