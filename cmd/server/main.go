package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"meeting-point-service/internal/adapters/cache"
	"meeting-point-service/internal/adapters/directions"
	"meeting-point-service/internal/adapters/places"
	"meeting-point-service/internal/api"
	"meeting-point-service/internal/config"
	"meeting-point-service/internal/platform/db"
	"meeting-point-service/internal/ports"
	"meeting-point-service/internal/services"
	"meeting-point-service/internal/session"
)

// main is the application composition root.
// It wires concrete adapters (ORS, Postgres/Redis caches) behind ports and
// starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")

	travelCache, closeCache := openTravelTimeCache()
	defer closeCache()

	routes, durations, finder := openProviders(travelCache)

	mapSession := session.NewMapSession()
	planner := &services.MeetingPlanner{
		Routes:    routes,
		Durations: durations,
		Places:    finder,
		Session:   mapSession,
		Resolve: services.ResolveOptions{
			SampleCount: config.GetInt("SAMPLE_COUNT", services.DefaultSampleCount),
			LegFailure:  legFailurePolicy(),
			Concurrency: config.GetInt("DURATION_QUERY_CONCURRENCY", 8),
		},
	}

	router := api.NewRouter(planner, mapSession)

	// Timeouts are tuned for cold-cache resolutions (external API latency).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// openTravelTimeCache builds the cache selected by CACHE_BACKEND. Returns a
// nil cache for "none", which the directions adapter treats as cache-off.
func openTravelTimeCache() (ports.TravelTimeCache, func()) {
	backend := config.Get("CACHE_BACKEND", "none")
	switch backend {
	case "postgres":
		conn, err := db.Open(config.MustGet("DATABASE_URL"))
		if err != nil {
			log.Fatal(err)
		}
		// Create the schema on startup so local runs need no migration step.
		if err := cache.InitSchema(conn); err != nil {
			log.Fatal(err)
		}
		return cache.NewSQLTravelTimeCache(conn), func() { conn.Close() }
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     config.Get("REDIS_ADDR", "localhost:6379"),
			Password: config.Get("REDIS_PASSWORD", ""),
			DB:       config.GetInt("REDIS_DB", 0),
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("verify redis connection: %v", err)
		}
		ttl := time.Duration(config.GetInt("CACHE_TTL_HOURS", 24)) * time.Hour
		return cache.NewRedisTravelTimeCache(client, ttl), func() { client.Close() }
	case "none":
		return nil, func() {}
	default:
		log.Fatalf("CACHE_BACKEND=%q is not one of postgres, redis, none", backend)
		return nil, nil
	}
}

// openProviders builds the routing and place providers. The mock provider
// serves local development without an API key; it finds no places.
func openProviders(travelCache ports.TravelTimeCache) (ports.RouteProvider, ports.DurationProvider, ports.PlaceFinder) {
	switch provider := config.Get("DIRECTIONS_PROVIDER", "ors"); provider {
	case "ors":
		key := strings.TrimSpace(config.MustGet("ORS_API_KEY"))
		ors, err := directions.NewORSRouteProvider(key, travelCache)
		if err != nil {
			log.Fatal(err)
		}
		finder, err := places.NewORSPlaceFinder(key)
		if err != nil {
			log.Fatal(err)
		}
		return ors, ors, finder
	case "mock":
		mock := directions.NewConstantSpeedProvider()
		return mock, mock, nil
	default:
		log.Fatalf("DIRECTIONS_PROVIDER=%q is not one of ors, mock", provider)
		return nil, nil, nil
	}
}

func legFailurePolicy() services.LegFailurePolicy {
	switch policy := config.Get("LEG_FAILURE_POLICY", "zero"); policy {
	case "zero":
		return services.LegFailureZero
	case "discard":
		return services.LegFailureDiscard
	default:
		log.Fatalf("LEG_FAILURE_POLICY=%q is not one of zero, discard", policy)
		return services.LegFailureZero
	}
}
