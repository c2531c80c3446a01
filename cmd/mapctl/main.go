// Command mapctl queries the warning map API and writes the resulting map
// model: the GeoJSON feature collection to -out and one summary per feature
// to stdout.
//
// Usage:
//
//	go run ./cmd/mapctl \
//	  -api http://localhost:8080 \
//	  -event-type WIND -search stockholm \
//	  -out warnings.geojson
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/sensor-warning-map/internal/adapter/api"
	"github.com/couchcryptid/sensor-warning-map/internal/domain"
	"github.com/couchcryptid/sensor-warning-map/internal/observability"
	"github.com/couchcryptid/sensor-warning-map/internal/query"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("mapctl", flag.ContinueOnError)
	apiURL := fs.String("api", "http://localhost:8080", "warning map API base URL")
	token := fs.String("token", os.Getenv("API_TOKEN"), "bearer token for the sensor endpoint")
	search := fs.String("search", "", "affected area name to search for")
	eventType := fs.String("event-type", "", "event code to filter on, e.g. WIND")
	page := fs.Int("page", 1, "page to fetch, starting at 1")
	pageSize := fs.Int("page-size", 10, "warnings per page")
	out := fs.String("out", "", "output path for the GeoJSON feature collection (default: none)")
	lang := fs.String("lang", domain.LocaleEnglish, "language for warning labels (en or sv)")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	verbose := fs.Bool("v", false, "log requests")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *page < 1 {
		return fmt.Errorf("invalid -page %d", *page)
	}

	logger := observability.NewCLILogger(*verbose)

	client := api.NewClient(*apiURL, api.NewTokenSource(*token), *timeout, logger)
	ctrl := query.New(client, logger, observability.NewMetricsWithRegistry(prometheus.NewRegistry()),
		query.WithFetchTimeout(*timeout),
		query.WithLocales(domain.Locales{Label: *lang, Area: domain.LocaleSwedish}),
		query.WithInitialState(query.State{
			SearchTerm: *search,
			EventType:  *eventType,
			Page:       *page,
			PageSize:   *pageSize,
		}),
	)

	ctrl.Refresh(ctx)
	ctrl.Wait()

	res, ok := ctrl.Result()
	if !ok {
		return fmt.Errorf("no result")
	}
	if res.Err != nil {
		return res.Err
	}

	if *out != "" {
		data, err := json.MarshalIndent(res.Map.Features, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal features: %w", err)
		}
		if err := os.WriteFile(*out, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", *out, err)
		}
	}

	for _, s := range res.Map.Summaries() {
		fmt.Fprintf(stdout, "%s\n\n", s)
	}
	fmt.Fprintf(stdout, "page %d: %d warnings, %d features, %d skipped areas, %d sensors",
		res.State.Page, len(res.Warnings), len(res.Map.Features.Features), res.Map.SkippedAreas, len(res.Map.Sensors))
	if res.HasMore {
		fmt.Fprint(stdout, " (more available)")
	}
	fmt.Fprintln(stdout)
	return nil
}
