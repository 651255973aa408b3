// Package calendar reads iCalendar feeds for display next to the
// timesheet. Feeds are never written back.
package calendar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTitle  = "Untitled"
	DefaultColor  = "#ffffff"
	maxFeedBytes  = 10 << 20
	defaultLimit  = 4
	propertyColor = ics.ComponentProperty("COLOR")
)

type Event struct {
	ID          string
	Title       string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Description string
	Location    string
	URL         string
	Color       string
	Source      string
}

// FetchError is the failure of a single feed.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("calendar %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

type Fetcher struct {
	Client *http.Client
	// Limit bounds concurrent downloads.
	Limit int
	Log   *slog.Logger
}

func NewFetcher(log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{Client: &http.Client{Timeout: 30 * time.Second}, Limit: defaultLimit, Log: log}
}

// Fetch downloads and parses every feed. A failing feed does not stop the
// others; its error is returned alongside the events that did load.
func (f *Fetcher) Fetch(ctx context.Context, urls []string) ([]Event, []error) {
	results := make([][]Event, len(urls))
	errs := make([]error, len(urls))

	var g errgroup.Group
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	g.SetLimit(limit)
	for i, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		g.Go(func() error {
			events, err := f.fetchOne(ctx, u)
			if err != nil {
				f.Log.Warn("calendar feed failed", "url", u, "error", err)
				errs[i] = &FetchError{URL: u, Err: err}
				return nil
			}
			results[i] = events
			return nil
		})
	}
	_ = g.Wait()

	var (
		events []Event
		failed []error
	)
	for i := range urls {
		events = append(events, results[i]...)
		if errs[i] != nil {
			failed = append(failed, errs[i])
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	f.Log.Info("fetched calendar events", "events", len(events), "feeds", len(urls), "failed", len(failed))
	return events, failed
}

func (f *Fetcher) fetchOne(ctx context.Context, raw string) ([]Event, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	var body io.ReadCloser
	switch u.Scheme {
	case "file":
		fh, err := os.Open(u.Path)
		if err != nil {
			return nil, err
		}
		body = fh
	case "webcal":
		u.Scheme = "https"
		fallthrough
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		client := f.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		body = resp.Body
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	defer body.Close()

	return Parse(io.LimitReader(body, maxFeedBytes), raw)
}

// Parse reads one iCalendar document. sourceURL names the feed when the
// document has no X-WR-CALNAME.
func Parse(r io.Reader, sourceURL string) ([]Event, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}
	source := SourceName(calendarName(cal), sourceURL)

	var events []Event
	for _, ve := range cal.Events() {
		ev, ok := convert(ve)
		if !ok {
			continue
		}
		ev.Source = source
		events = append(events, ev)
	}
	return events, nil
}

func convert(ve *ics.VEvent) (Event, bool) {
	ev := Event{
		Title:       propValue(ve, ics.ComponentPropertySummary),
		Description: propValue(ve, ics.ComponentPropertyDescription),
		Location:    propValue(ve, ics.ComponentPropertyLocation),
		URL:         propValue(ve, ics.ComponentPropertyUrl),
		Color:       propValue(ve, propertyColor),
	}
	start, err := ve.GetStartAt()
	if err != nil {
		start, err = ve.GetAllDayStartAt()
		if err != nil {
			return Event{}, false
		}
		ev.AllDay = true
	}
	ev.Start = start
	end, err := ve.GetEndAt()
	if err != nil && ev.AllDay {
		end, err = ve.GetAllDayEndAt()
	}
	if err != nil || end.IsZero() {
		end = start
	}
	ev.End = end

	uid := ve.Id()
	if uid == "" {
		uid = uuid.NewString()
	}
	ev.ID = "ics-" + uid
	if ev.Title == "" {
		ev.Title = DefaultTitle
	}
	if ev.Color == "" {
		ev.Color = DefaultColor
	}
	return ev, true
}

func propValue(ve *ics.VEvent, p ics.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

func calendarName(cal *ics.Calendar) string {
	for _, p := range cal.CalendarProperties {
		if strings.EqualFold(p.IANAToken, "X-WR-CALNAME") {
			return strings.TrimSpace(p.Value)
		}
	}
	return ""
}

// SourceName picks the label shown for a feed: the calendar name, else the
// file name for file URLs, else the host without "www.".
func SourceName(calName, raw string) string {
	if calName != "" {
		return calName
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "ICS Calendar"
	}
	if u.Scheme == "file" {
		name := strings.TrimSuffix(path.Base(u.Path), ".ics")
		if name == "" || name == "." || name == "/" {
			return "Local ICS"
		}
		return name
	}
	if host := strings.TrimPrefix(u.Hostname(), "www."); host != "" {
		return host
	}
	return "ICS"
}
