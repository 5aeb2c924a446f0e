// Package maps wraps the Google Maps Platform APIs used for venue
// directions, geocoding and nearby-place lookups.
package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gmaps "googlemaps.github.io/maps"

	"github.com/apiconf/ndu/internal/log"
)

// ErrDenied means the API key was rejected or lacks the required API.
// Callers should surface an actionable configuration message, not a
// generic failure.
var ErrDenied = errors.New("maps request denied")

const callTimeout = 10 * time.Second

// Route is one way of getting from origin to destination.
type Route struct {
	Summary      string `json:"summary"`
	Distance     string `json:"distance"`
	Duration     string `json:"duration"`
	StartAddress string `json:"start_address"`
	EndAddress   string `json:"end_address"`
	Steps        []Step `json:"steps"`
}

// Step is a single navigation instruction within a route.
type Step struct {
	Instruction string `json:"instruction"`
	Distance    string `json:"distance"`
	Duration    string `json:"duration"`
}

// Place is a point of interest near a location.
type Place struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Rating  float32  `json:"rating,omitempty"`
	OpenNow *bool    `json:"open_now,omitempty"`
	Types   []string `json:"types,omitempty"`
}

// Location is a resolved address.
type Location struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Client calls the Google Maps Platform with a fixed per-call timeout.
type Client struct {
	api    *gmaps.Client
	logger log.Logger
}

// New builds a maps client. The key is validated on first use, not here.
func New(apiKey string, logger log.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("maps API key is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	api, err := gmaps.NewClient(gmaps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating maps client: %w", err)
	}
	return &Client{api: api, logger: logger}, nil
}

// Directions returns routes from origin to destination. mode is one of
// driving, walking, bicycling or transit; anything else falls back to
// driving.
func (c *Client) Directions(ctx context.Context, origin, destination, mode string) ([]Route, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	routes, _, err := c.api.Directions(ctx, &gmaps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        travelMode(mode),
	})
	if err != nil {
		return nil, c.wrap("directions", err)
	}

	out := make([]Route, 0, len(routes))
	for _, r := range routes {
		if len(r.Legs) == 0 {
			continue
		}
		leg := r.Legs[0]
		route := Route{
			Summary:      r.Summary,
			Distance:     leg.Distance.HumanReadable,
			Duration:     formatDuration(leg.Duration),
			StartAddress: leg.StartAddress,
			EndAddress:   leg.EndAddress,
		}
		for _, s := range leg.Steps {
			route.Steps = append(route.Steps, Step{
				Instruction: stripTags(s.HTMLInstructions),
				Distance:    s.Distance.HumanReadable,
				Duration:    formatDuration(s.Duration),
			})
		}
		out = append(out, route)
	}
	return out, nil
}

// Geocode resolves a free-form address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) ([]Location, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	results, err := c.api.Geocode(ctx, &gmaps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, c.wrap("geocode", err)
	}

	out := make([]Location, 0, len(results))
	for _, r := range results {
		out = append(out, Location{
			Address: r.FormattedAddress,
			Lat:     r.Geometry.Location.Lat,
			Lng:     r.Geometry.Location.Lng,
		})
	}
	return out, nil
}

// NearbySearch finds places within radius meters of the coordinates,
// filtered by place type, keyword, or both. Either filter may be empty.
func (c *Client) NearbySearch(ctx context.Context, lat, lng float64, radius uint, placeType, keyword string) ([]Place, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := c.api.NearbySearch(ctx, &gmaps.NearbySearchRequest{
		Location: &gmaps.LatLng{Lat: lat, Lng: lng},
		Radius:   radius,
		Type:     gmaps.PlaceType(placeType),
		Keyword:  keyword,
	})
	if err != nil {
		return nil, c.wrap("nearby search", err)
	}

	out := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		place := Place{
			Name:    r.Name,
			Address: r.Vicinity,
			Rating:  r.Rating,
			Types:   r.Types,
		}
		if r.OpeningHours != nil {
			place.OpenNow = r.OpeningHours.OpenNow
		}
		out = append(out, place)
	}
	return out, nil
}

func (c *Client) wrap(op string, err error) error {
	if strings.Contains(err.Error(), "REQUEST_DENIED") {
		c.logger.Error("maps API key rejected", "op", op)
		return fmt.Errorf("%s: %w", op, ErrDenied)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func travelMode(mode string) gmaps.Mode {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "walking":
		return gmaps.TravelModeWalking
	case "bicycling":
		return gmaps.TravelModeBicycling
	case "transit":
		return gmaps.TravelModeTransit
	default:
		return gmaps.TravelModeDriving
	}
}

func formatDuration(d time.Duration) string {
	mins := int(d.Round(time.Minute) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	if mins < 60 {
		return fmt.Sprintf("%d mins", mins)
	}
	hours := mins / 60
	rem := mins % 60
	if rem == 0 {
		return fmt.Sprintf("%d hr", hours)
	}
	return fmt.Sprintf("%d hr %d mins", hours, rem)
}

// stripTags removes HTML markup from navigation instructions, which the
// Directions API returns as HTML fragments.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
