package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goccy/go-json"

	"jobmate/matching-service/internal/model"
	"jobmate/matching-service/internal/skills"
	"jobmate/matching-service/internal/textutil"
)

// ErrTransientFetch marks a feed that could not be downloaded or parsed.
// The sync is aborted with zero writes and the next tick retries.
var ErrTransientFetch = errors.New("transient feed fetch error")

const (
	defaultTitle   = "Untitled Position"
	defaultCompany = "Unknown Company"
	userAgent      = "jobmate-matching-service/1.0"
	maxErrorBody   = 512
)

// FeedFetcher downloads and parses the XML job feed.
type FeedFetcher struct {
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewFeedFetcher constructs a fetcher. A zero timeout means the HTTP client
// never times out.
func NewFeedFetcher(timeout time.Duration, logger *slog.Logger) *FeedFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedFetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "fetcher"),
		now:    time.Now,
	}
}

// FetchJobs retrieves the feed at feedURL and returns one draft per listing
// found at source/job. Any failure returns no drafts and an error wrapping
// ErrTransientFetch.
func (f *FeedFetcher) FetchJobs(ctx context.Context, feedURL string) ([]model.JobDraft, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrTransientFetch, err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http GET: %w", ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: feed returned %d: %s", ErrTransientFetch, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	drafts, err := parseFeed(resp.Body, f.now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransientFetch, err)
	}

	f.logger.Info("feed parsed", "url", feedURL, "listings", len(drafts))
	return drafts, nil
}

// parseFeed turns an XML document into drafts.
func parseFeed(r io.Reader, now func() time.Time) ([]model.JobDraft, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	if root.name != "source" {
		return nil, fmt.Errorf("unexpected root element <%s>, want <source>", root.name)
	}

	entries := root.childrenNamed("job")
	drafts := make([]model.JobDraft, 0, len(entries))
	for _, e := range entries {
		drafts = append(drafts, draftFromEntry(e, now))
	}
	return drafts, nil
}

// ─── Entry normalisation ─────────────────────────────────────────────────────

func draftFromEntry(e *node, now func() time.Time) model.JobDraft {
	title := textutil.DecodeEntities(firstNonEmpty(e.value("title"), defaultTitle))
	company := textutil.DecodeEntities(firstNonEmpty(nameOrText(e, "company"), defaultCompany))

	var location *string
	if l := nameOrText(e, "location"); l != "" {
		decoded := textutil.DecodeEntities(l)
		location = &decoded
	}

	description := textutil.StripHTML(optional(firstNonEmpty(e.value("description"), e.value("summary"))))

	skillSource := e.value("skills")
	if skillSource == "" && description != nil {
		skillSource = *description
	}

	d := model.JobDraft{
		ExternalID:  firstNonEmpty(e.value("id"), e.value("reference"), generatedExternalID(now())),
		Title:       title,
		Company:     company,
		Location:    location,
		Description: description,
		JobType:     optional(firstNonEmpty(e.value("type"), e.value("contract_type"))),
		Salary:      optional(firstNonEmpty(e.value("salary_range"), e.value("salary"))),
		Category:    optional(firstNonEmpty(e.value("category"), e.value("industry"))),
		Skills:      skills.Extract(skillSource),
		Coordinates: coordinatesOf(e),
		IsRemote:    IsRemote(title, deref(description), deref(location)),
		PostedAt:    postedAt(e.value("date"), now),
	}

	if raw, err := json.Marshal(e.toValue()); err == nil {
		d.RawData = raw
	}
	return d
}

// nameOrText reads fields that are either plain text or carry a name child,
// as in <company><name>Acme</name></company>.
func nameOrText(e *node, field string) string {
	c := e.child(field)
	if c == nil {
		return e.value(field)
	}
	if n := c.value("name"); n != "" {
		return n
	}
	if c.text != "" {
		return c.text
	}
	return strings.TrimSpace(e.attrs[field])
}

func postedAt(raw string, now func() time.Time) time.Time {
	if raw == "" {
		return now()
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return now()
	}
	return t
}

// generatedExternalID builds "ext-<unix millis>-<5 base36 chars>" for entries
// that carry neither id nor reference.
func generatedExternalID(at time.Time) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	var suffix [5]byte
	for i := range suffix {
		suffix[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return "ext-" + strconv.FormatInt(at.UnixMilli(), 10) + "-" + string(suffix[:])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
