package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/apiconf/ndu/internal/config"
	"github.com/apiconf/ndu/internal/log"
	"github.com/apiconf/ndu/internal/reconcile"
	"github.com/apiconf/ndu/internal/session"
	"github.com/apiconf/ndu/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeEngine returns scripted text and can record tool outputs the way a
// real tool invocation would.
type fakeEngine struct {
	text    string
	err     error
	record  []reconcile.Output
	lastReq Request
	calls   int
}

func (f *fakeEngine) Generate(ctx context.Context, req Request) (*Result, error) {
	f.calls++
	f.lastReq = req
	if rec := tools.RecorderFrom(ctx); rec != nil {
		for _, out := range f.record {
			rec.Record(out.Tool, out.Variant, out.Value)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Result{Text: f.text}, nil
}

func testAssistant(t *testing.T, engine Engine) *Assistant {
	t.Helper()
	cfg := &config.Config{
		VenueName:       "The Zone",
		VenueAddress:    "The Zone, Plot 9, Gbagada Industrial Scheme, Lagos, Nigeria",
		ConferenceDates: "July 18-19, 2025",
		SupportPhone:    "+234-800-555-0199",
		SupportEmail:    "help@apiconf.example",
	}
	return New(cfg, engine, session.NewStore(log.NewNop()), log.NewNop())
}

func TestEnrich(t *testing.T) {
	tests := []struct {
		name    string
		message string
		userID  string
		tc      *TimeContext
		want    string
	}{
		{
			name:    "no context",
			message: "hello",
			want:    "hello",
		},
		{
			name:    "user only",
			message: "hello",
			userID:  "ada",
			want:    "[User ID: ada] hello",
		},
		{
			name:    "time and user",
			message: "what's on now?",
			userID:  "ada",
			tc:      &TimeContext{TimestampMS: 1721300400000, OffsetMinutes: 60},
			want:    "[User Local Time: 2024-07-18 10:00, Offset: 60] [User ID: ada] what's on now?",
		},
		{
			name:    "negative offset moves local ahead of utc",
			message: "hi",
			userID:  "ada",
			tc:      &TimeContext{TimestampMS: 1721300400000, OffsetMinutes: -60},
			want:    "[User Local Time: 2024-07-18 12:00, Offset: -60] [User ID: ada] hi",
		},
		{
			name:    "zero timestamp means no clock reported",
			message: "hi",
			userID:  "ada",
			tc:      &TimeContext{},
			want:    "[User ID: ada] hi",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Enrich(tt.message, tt.userID, tt.tc))
		})
	}
}

func TestChatDefaultsIdentity(t *testing.T) {
	engine := &fakeEngine{text: "How far? I dey for you!"}
	a := testAssistant(t, engine)

	res := a.Chat(context.Background(), ChatRequest{Message: "hello"})

	require.True(t, res.Success)
	assert.Equal(t, "default_user", res.UserID)
	assert.Equal(t, "session_default_user", res.SessionID)
	assert.Equal(t, "How far? I dey for you!", res.Response)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	assert.Empty(t, res.SupportContact)
}

func TestChatMetadata(t *testing.T) {
	t.Run("echoes the client clock", func(t *testing.T) {
		engine := &fakeEngine{text: "ok", record: []reconcile.Output{
			{Tool: "search_sessions", Variant: reconcile.VariantFreeform, Value: map[string]any{"success": true}},
		}}
		a := testAssistant(t, engine)

		res := a.Chat(context.Background(), ChatRequest{
			Message: "hello",
			UserID:  "ada",
			Time:    &TimeContext{TimestampMS: 1721300400000, OffsetMinutes: 60},
		})

		require.True(t, res.Success)
		require.NotNil(t, res.Metadata)
		assert.Equal(t, "ada", res.Metadata["user_id"])
		assert.Equal(t, "session_ada", res.Metadata["session_id"])
		assert.Equal(t, int64(1721300400000), res.Metadata["timestamp"])
		assert.Equal(t, 60, res.Metadata["timezone_offset"])
		assert.Equal(t, []string{"search_sessions"}, res.Metadata["tools_used"])
	})

	t.Run("falls back to the server clock", func(t *testing.T) {
		engine := &fakeEngine{text: "ok"}
		a := testAssistant(t, engine)

		before := time.Now().UnixMilli()
		res := a.Chat(context.Background(), ChatRequest{Message: "hello"})
		after := time.Now().UnixMilli()

		require.NotNil(t, res.Metadata)
		ts, ok := res.Metadata["timestamp"].(int64)
		require.True(t, ok)
		assert.GreaterOrEqual(t, ts, before)
		assert.LessOrEqual(t, ts, after)
		assert.Nil(t, res.Metadata["timezone_offset"])
	})

	t.Run("failure carries the error", func(t *testing.T) {
		engine := &fakeEngine{err: errors.New("model unavailable")}
		a := testAssistant(t, engine)

		res := a.Chat(context.Background(), ChatRequest{Message: "hello", UserID: "ada"})

		require.False(t, res.Success)
		require.NotNil(t, res.Metadata)
		assert.Equal(t, "ada", res.Metadata["user_id"])
		assert.Equal(t, "model unavailable", res.Metadata["error"])
	})
}

func TestChatSessionIDDerivedFromUser(t *testing.T) {
	engine := &fakeEngine{text: "ok"}
	a := testAssistant(t, engine)

	res := a.Chat(context.Background(), ChatRequest{Message: "hello", UserID: "ada"})
	assert.Equal(t, "session_ada", res.SessionID)
}

func TestChatGenerationFailure(t *testing.T) {
	engine := &fakeEngine{err: errors.New("model unavailable")}
	a := testAssistant(t, engine)

	res := a.Chat(context.Background(), ChatRequest{Message: "hello", UserID: "ada"})

	assert.False(t, res.Success)
	assert.Equal(t, "I apologize, but I'm experiencing technical difficulties. "+
		"Please try again or contact the support team for assistance.", res.Response)
	assert.InDelta(t, 0.1, res.Confidence, 1e-9)
	assert.Equal(t, "+234-800-555-0199 / help@apiconf.example", res.SupportContact)

	// Failed turns leave no trace in the history.
	conv, ok := a.sessions.Get(session.Key{UserID: "ada", SessionID: "session_ada"})
	require.True(t, ok)
	assert.Zero(t, conv.Len())
}

func TestChatEmptyResponseFallback(t *testing.T) {
	engine := &fakeEngine{text: ""}
	a := testAssistant(t, engine)

	res := a.Chat(context.Background(), ChatRequest{Message: "hello"})

	require.True(t, res.Success)
	assert.Equal(t, "I apologize, but I couldn't generate a response. Please try again.", res.Response)
}

func TestChatToolOutputReplacesModelText(t *testing.T) {
	engine := &fakeEngine{
		text: "Found one speaker for you!",
		record: []reconcile.Output{{
			Tool:    "search_speakers",
			Variant: reconcile.VariantSpeakers,
			Value: map[string]any{
				"success": true,
				"speakers": []any{map[string]any{
					"name": "Ada Obi",
					"bio":  "Platform engineer.",
				}},
			},
		}},
	}
	a := testAssistant(t, engine)

	res := a.Chat(context.Background(), ChatRequest{Message: "who is Ada?", UserID: "ada"})

	require.True(t, res.Success)
	assert.Contains(t, res.Response, "### Ada Obi")
	assert.Contains(t, res.Response, "Platform engineer.")
	assert.NotContains(t, res.Response, "Found one speaker")
	assert.Equal(t, []string{"search_speakers"}, res.ToolsUsed)
}

func TestChatFreeformToolKeepsModelText(t *testing.T) {
	engine := &fakeEngine{
		text: "The venue is at The Zone, Gbagada.",
		record: []reconcile.Output{{
			Tool:    "directions_to_venue",
			Variant: reconcile.VariantFreeform,
			Value:   map[string]any{"success": true, "routes": []any{}},
		}},
	}
	a := testAssistant(t, engine)

	res := a.Chat(context.Background(), ChatRequest{Message: "how do I get there?"})

	assert.Equal(t, "The venue is at The Zone, Gbagada.", res.Response)
	assert.Equal(t, []string{"directions_to_venue"}, res.ToolsUsed)
}

func TestChatToolsUsedDeduplicated(t *testing.T) {
	engine := &fakeEngine{
		text: "here you go",
		record: []reconcile.Output{
			{Tool: "search_sessions", Variant: reconcile.VariantFreeform, Value: map[string]any{"success": true}},
			{Tool: "search_sessions", Variant: reconcile.VariantFreeform, Value: map[string]any{"success": true}},
			{Tool: "session_details", Variant: reconcile.VariantFreeform, Value: map[string]any{"success": true}},
		},
	}
	a := testAssistant(t, engine)

	res := a.Chat(context.Background(), ChatRequest{Message: "sessions?"})
	assert.Equal(t, []string{"search_sessions", "session_details"}, res.ToolsUsed)
}

func TestChatHistoryAccumulates(t *testing.T) {
	engine := &fakeEngine{text: "first answer"}
	a := testAssistant(t, engine)

	a.Chat(context.Background(), ChatRequest{Message: "first question", UserID: "ada"})

	require.Len(t, engine.lastReq.Messages, 1)

	engine.text = "second answer"
	a.Chat(context.Background(), ChatRequest{Message: "second question", UserID: "ada"})

	// Prior user turn, prior model turn, then the new user turn.
	require.Len(t, engine.lastReq.Messages, 3)
	assert.Equal(t, ai.RoleUser, engine.lastReq.Messages[0].Role)
	assert.Equal(t, ai.RoleModel, engine.lastReq.Messages[1].Role)
	assert.Equal(t, "first answer", engine.lastReq.Messages[1].Content[0].Text)
	assert.Contains(t, engine.lastReq.Messages[2].Content[0].Text, "second question")
}

func TestChatEnrichedMessageReachesEngine(t *testing.T) {
	engine := &fakeEngine{text: "ok"}
	a := testAssistant(t, engine)

	a.Chat(context.Background(), ChatRequest{
		Message: "what now?",
		UserID:  "ada",
		Time:    &TimeContext{TimestampMS: 1721300400000, OffsetMinutes: 60},
	})

	require.Len(t, engine.lastReq.Messages, 1)
	got := engine.lastReq.Messages[0].Content[0].Text
	assert.Equal(t, "[User Local Time: 2024-07-18 10:00, Offset: 60] [User ID: ada] what now?", got)
}

func TestChatSystemPromptCarriesPersona(t *testing.T) {
	engine := &fakeEngine{text: "ok"}
	a := testAssistant(t, engine)

	a.Chat(context.Background(), ChatRequest{Message: "hi"})

	assert.Contains(t, engine.lastReq.System, "You are Ndu")
	assert.Contains(t, engine.lastReq.System, "July 18-19, 2025")
	assert.Contains(t, engine.lastReq.System, "Gbagada Industrial Scheme")
}

func TestStatus(t *testing.T) {
	a := testAssistant(t, &fakeEngine{text: "ok"})

	st := a.Status()
	assert.Equal(t, "active", st["status"])
	assert.Equal(t, "The Zone", st["venue"])
	assert.Equal(t, "July 18-19, 2025", st["dates"])
	assert.Equal(t, true, st["speakers_announced"])
	assert.Equal(t, 44, st["total_speakers"])

	uptime, ok := st["uptime"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(uptime, " hours"))
}
