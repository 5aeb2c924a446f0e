package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/genkit"

	"github.com/apiconf/ndu/internal/maps"
	"github.com/apiconf/ndu/internal/reconcile"
)

// mapsDeniedMessage is the user-facing reply when the Maps API key is
// rejected. Kept specific so support can act on it.
const mapsDeniedMessage = "I am unable to provide directions at this time due to a server configuration issue. " +
	"The Google Maps API key may be invalid or require a billing account to be enabled. Please contact support."

func (k *Kit) registerNavigationTools(g *genkit.Genkit) {
	k.keep(genkit.DefineTool(
		g,
		"directions_to_venue",
		"Get directions from the user's location to the conference venue, with distance, duration and step by step instructions. "+
			"Supports driving, walking, bicycling and transit.",
		dispatch(k, "directions_to_venue", func(ctx context.Context, input struct {
			Origin string `json:"origin" jsonschema_description:"The user's starting location, as an address or 'lat,lng' coordinates."`
			Mode   string `json:"mode,omitempty" jsonschema_description:"Transportation mode: transit, driving, walking or bicycling. Defaults to transit."`
		},
		) map[string]any {
			return k.directionsToVenue(ctx, input.Origin, input.Mode)
		}),
	))

	k.keep(genkit.DefineTool(
		g,
		"nearby_transportation",
		"Find bus stops, transit stations and other transport options near a location.",
		dispatch(k, "nearby_transportation", func(ctx context.Context, input struct {
			Location string `json:"location" jsonschema_description:"Address or 'lat,lng' coordinates to search around. Defaults to the conference venue when empty."`
			Radius   int    `json:"radius,omitempty" jsonschema_description:"Search radius in meters. Defaults to 1000."`
		},
		) map[string]any {
			return k.nearbyTransportation(ctx, input.Location, input.Radius)
		}),
	))

	k.keep(genkit.DefineTool(
		g,
		"venue_access_info",
		"Get venue access information: address, entrances, parking, accessibility and transport tips. "+
			"Works without any user location.",
		dispatch(k, "venue_access_info", func(ctx context.Context, _ struct{}) map[string]any {
			return k.venueAccessInfo(ctx)
		}),
	))

	k.keep(genkit.DefineTool(
		g,
		"transport_tips",
		"Get general transportation guidance for reaching the venue: bus frequency, peak hours and travel tips.",
		dispatch(k, "transport_tips", func(ctx context.Context, input struct {
			Location string `json:"location,omitempty" jsonschema_description:"The user's location, used to contextualize the advice."`
		},
		) map[string]any {
			return k.transportTips(ctx, input.Location)
		}),
	))
}

func (k *Kit) directionsToVenue(ctx context.Context, origin, mode string) map[string]any {
	if k.maps == nil {
		return k.record(ctx, "directions_to_venue", reconcile.VariantFreeform,
			k.failure(mapsDeniedMessage))
	}

	if mode == "" {
		mode = "transit"
	}

	routes, err := k.maps.Directions(ctx, origin, k.cfg.VenueAddress, mode)
	if err != nil {
		return k.record(ctx, "directions_to_venue", reconcile.VariantFreeform,
			k.mapsFailure("directions lookup failed", err))
	}
	if len(routes) == 0 {
		envelope := k.failure(fmt.Sprintf("Could not find a route from %s to the venue", origin))
		envelope["suggestion"] = "Try providing a more specific address or contact support"
		return k.record(ctx, "directions_to_venue", reconcile.VariantFreeform, envelope)
	}

	best := routes[0]
	steps := make([]any, 0, len(best.Steps))
	for _, s := range best.Steps {
		steps = append(steps, map[string]any{
			"instruction": s.Instruction,
			"distance":    s.Distance,
			"duration":    s.Duration,
		})
	}

	return k.record(ctx, "directions_to_venue", reconcile.VariantFreeform, map[string]any{
		"success":             true,
		"origin":              origin,
		"destination":         k.cfg.VenueName,
		"total_distance":      best.Distance,
		"total_duration":      best.Duration,
		"transportation_mode": mode,
		"steps":               steps,
		"alternative_routes":  len(routes) > 1,
		"venue_address":       k.cfg.VenueAddress,
		"support_contact":     k.cfg.SupportPhone,
	})
}

func (k *Kit) nearbyTransportation(ctx context.Context, location string, radius int) map[string]any {
	if k.maps == nil {
		return k.record(ctx, "nearby_transportation", reconcile.VariantFreeform,
			k.failure(mapsDeniedMessage))
	}

	if radius <= 0 {
		radius = 1000
	}

	lat, lng, err := k.resolveLocation(ctx, location)
	if err != nil {
		return k.record(ctx, "nearby_transportation", reconcile.VariantFreeform,
			k.mapsFailure("location lookup failed", err))
	}

	stations, err := k.maps.NearbySearch(ctx, lat, lng, uint(radius), "transit_station", "")
	if err != nil {
		return k.record(ctx, "nearby_transportation", reconcile.VariantFreeform,
			k.mapsFailure("transit search failed", err))
	}

	busStops, err := k.maps.NearbySearch(ctx, lat, lng, uint(radius), "", "bus stop")
	if err != nil {
		return k.record(ctx, "nearby_transportation", reconcile.VariantFreeform,
			k.mapsFailure("bus stop search failed", err))
	}

	options := make([]any, 0, len(stations)+len(busStops))
	collect := func(places []maps.Place, kind string) {
		for _, p := range places {
			option := map[string]any{
				"name":    p.Name,
				"type":    kind,
				"address": p.Address,
			}
			if p.Rating > 0 {
				option["rating"] = p.Rating
			}
			options = append(options, option)
		}
	}
	collect(stations, "transit_station")
	collect(busStops, "bus_stop")

	total := len(options)
	if len(options) > 10 {
		options = options[:10]
	}

	return k.record(ctx, "nearby_transportation", reconcile.VariantFreeform, map[string]any{
		"success":           true,
		"location":          location,
		"transport_options": options,
		"total_found":       total,
		"search_radius_km":  float64(radius) / 1000,
		"support_contact":   k.cfg.SupportPhone,
	})
}

func (k *Kit) venueAccessInfo(ctx context.Context) map[string]any {
	return k.record(ctx, "venue_access_info", reconcile.VariantFreeform, map[string]any{
		"venue_name":  k.cfg.VenueName,
		"address":     k.cfg.VenueAddress,
		"coordinates": k.cfg.VenueCoordinates,
		"access_notes": []any{
			"Main entrance on Gbagada - Oworonshoki Expressway",
			"Security checkpoint at entrance",
			"Conference registration desk in lobby",
			"Elevator access to conference rooms",
			"Wheelchair accessible",
		},
		"parking_info": []any{
			"Free parking available on-site",
			"Street parking available nearby",
			"Secure parking area within the industrial scheme",
		},
		"transportation_tips": []any{
			"Buses run frequently on Gbagada - Oworonshoki Expressway",
			"Uber and Bolt are available in the area",
			"Walking distance from Gbagada bus terminal",
			"Consider traffic during peak hours (7-9 AM and 5-7 PM)",
			"The venue is easily accessible from Ikeja, Victoria Island, and mainland Lagos",
		},
		"contact": map[string]any{
			"phone": k.cfg.SupportPhone,
			"email": k.cfg.SupportEmail,
		},
	})
}

func (k *Kit) transportTips(ctx context.Context, location string) map[string]any {
	return k.record(ctx, "transport_tips", reconcile.VariantFreeform, map[string]any{
		"success":  true,
		"location": location,
		"transport_info": map[string]any{
			"buses":      "Buses run every 15-30 minutes",
			"traffic":    "Check Google Maps for real-time traffic",
			"peak_hours": "7-9 AM and 5-7 PM",
			"tips": []any{
				"Plan extra time during peak hours",
				"Consider ride-sharing apps",
				"Check weather conditions",
			},
		},
		"support_contact": k.cfg.SupportPhone,
	})
}

// resolveLocation turns a free-form location into coordinates, geocoding
// when needed. An empty location means the venue itself.
func (k *Kit) resolveLocation(ctx context.Context, location string) (lat, lng float64, err error) {
	if location == "" {
		return k.cfg.VenueLatLng()
	}
	if n, convErr := fmt.Sscanf(location, "%f,%f", &lat, &lng); convErr == nil && n == 2 {
		return lat, lng, nil
	}

	results, err := k.maps.Geocode(ctx, location)
	if err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no match for location %q", location)
	}
	return results[0].Lat, results[0].Lng, nil
}

// mapsFailure maps provider errors to user-facing envelopes, keeping the
// key-rejection case distinct from transient failures.
func (k *Kit) mapsFailure(what string, err error) map[string]any {
	k.logger.Error(what, "error", err)
	if errors.Is(err, maps.ErrDenied) {
		return k.failure(mapsDeniedMessage)
	}
	envelope := k.failure("Unable to get that information right now")
	envelope["fallback"] = fmt.Sprintf("Please contact %s for assistance", k.cfg.SupportPhone)
	return envelope
}
