// Package tools defines the conference lookup tools exposed to the model.
//
// Every tool returns a map envelope rather than a typed struct so the model
// sees the same JSON regardless of which data source answered. A successful
// envelope carries "success": true and a support contact; a failed one
// carries "error": true with a user-facing message. Tools never return a Go
// error for expected misses, only for conditions the model cannot act on.
package tools

import (
	"context"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/apiconf/ndu/internal/config"
	"github.com/apiconf/ndu/internal/dataset"
	"github.com/apiconf/ndu/internal/log"
	"github.com/apiconf/ndu/internal/maps"
	"github.com/apiconf/ndu/internal/reconcile"
	"github.com/apiconf/ndu/internal/scrape"
)

// MapsProvider is the slice of the Google Maps surface the navigation tools
// need. Satisfied by *maps.Client; tests substitute a fake.
type MapsProvider interface {
	Directions(ctx context.Context, origin, destination, mode string) ([]maps.Route, error)
	Geocode(ctx context.Context, address string) ([]maps.Location, error)
	NearbySearch(ctx context.Context, lat, lng float64, radius uint, placeType, keyword string) ([]maps.Place, error)
}

// Scraper is the slice of the website scraping service the web tools need.
type Scraper interface {
	All(ctx context.Context, force bool) map[string]scrape.Page
	Speakers(ctx context.Context, force bool) scrape.Page
	Schedule(ctx context.Context, force bool) scrape.Page
}

// Interceptor runs before a tool executes, receiving the tool name and its
// decoded arguments. Returning (result, true) short-circuits the tool and
// the substitute envelope is returned to the model instead; returning
// (nil, false) lets the real tool run.
type Interceptor func(ctx context.Context, tool string, args any) (map[string]any, bool)

// Kit owns the tool implementations and their shared dependencies.
type Kit struct {
	cfg       *config.Config
	data      *dataset.Store
	scraper   Scraper
	maps      MapsProvider
	logger    log.Logger
	intercept Interceptor

	refs []ai.ToolRef
}

// NewKit builds a tool kit. maps may be nil when no API key is configured;
// the navigation tools then answer with a configuration message instead of
// failing registration.
func NewKit(cfg *config.Config, data *dataset.Store, scraper Scraper, provider MapsProvider, logger log.Logger) *Kit {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Kit{
		cfg:     cfg,
		data:    data,
		scraper: scraper,
		maps:    provider,
		logger:  logger,
	}
}

// SetInterceptor installs a before-tool hook. Must be called before the
// first turn; the hook applies to every registered tool.
func (k *Kit) SetInterceptor(fn Interceptor) {
	k.intercept = fn
}

// Register defines every tool against g and caches the references for use
// in generate calls. Call once at startup.
func (k *Kit) Register(g *genkit.Genkit) {
	k.registerSessionTools(g)
	k.registerScheduleTools(g)
	k.registerNavigationTools(g)
	k.registerWebTools(g)
	k.registerCalendarTool(g)
}

// Refs returns the registered tool references in registration order.
func (k *Kit) Refs() []ai.ToolRef {
	return k.refs
}

// keep caches a defined tool's reference.
func (k *Kit) keep(ref ai.ToolRef) {
	k.refs = append(k.refs, ref)
}

// dispatch adapts a Kit method into a genkit tool function. Every call is
// logged and its arguments recorded before the tool body runs; an installed
// interceptor may substitute the result entirely.
func dispatch[In any](k *Kit, tool string, run func(ctx context.Context, input In) map[string]any) func(*ai.ToolContext, In) (map[string]any, error) {
	return func(tc *ai.ToolContext, input In) (map[string]any, error) {
		ctx := tc.Context
		k.logger.Debug("dispatching tool", "tool", tool)
		if rec := RecorderFrom(ctx); rec != nil {
			rec.RecordCall(tool, input)
		}
		if k.intercept != nil {
			if sub, ok := k.intercept(ctx, tool, input); ok {
				return k.record(ctx, tool, reconcile.VariantUnknown, sub), nil
			}
		}
		return run(ctx, input), nil
	}
}

// record captures a tool's output for end-of-turn reconciliation, then
// passes the envelope through unchanged.
func (k *Kit) record(ctx context.Context, tool string, variant reconcile.Variant, envelope map[string]any) map[string]any {
	if rec := RecorderFrom(ctx); rec != nil {
		rec.Record(tool, variant, envelope)
	}
	k.logger.Debug("tool invoked", "tool", tool, "variant", variant.String())
	return envelope
}

// failure builds the error envelope every tool uses for expected failures.
func (k *Kit) failure(message string) map[string]any {
	return map[string]any{
		"error":           true,
		"message":         message,
		"support_contact": k.cfg.SupportPhone,
	}
}

// Call is one tool invocation with the arguments the model supplied.
type Call struct {
	Tool string
	Args any
}

// Recorder collects tool invocations and outputs in order for one turn.
// Safe for concurrent use; the model runtime may run tool calls in parallel.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	outputs []reconcile.Output
}

// RecordCall appends one invocation with its arguments.
func (r *Recorder) RecordCall(tool string, args any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Tool: tool, Args: args})
}

// Calls returns the recorded invocations in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Record appends one tool output.
func (r *Recorder) Record(tool string, variant reconcile.Variant, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs = append(r.outputs, reconcile.Output{Tool: tool, Variant: variant, Value: value})
}

// Outputs returns the recorded outputs in invocation order.
func (r *Recorder) Outputs() []reconcile.Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reconcile.Output, len(r.outputs))
	copy(out, r.outputs)
	return out
}

type recorderKey struct{}

// WithRecorder attaches a per-turn recorder to the context given to the
// model runtime; tool handlers find it via RecorderFrom.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

// RecorderFrom returns the recorder attached to ctx, or nil.
func RecorderFrom(ctx context.Context) *Recorder {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}
