package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"jobmate/matching-service/internal/catalog"
	"jobmate/matching-service/internal/model"
)

// MaxPageSize caps the limit query parameter.
const MaxPageSize = 100

// actorFromHeaders reads the caller identity. A user id wins over a session.
func actorFromHeaders(r *http.Request) (model.Actor, error) {
	var actor model.Actor
	if raw := strings.TrimSpace(r.Header.Get("x-user-id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return actor, fmt.Errorf("x-user-id must be a positive integer, got %q", raw)
		}
		actor.UserID = id
		return actor, nil
	}
	actor.SessionID = strings.TrimSpace(r.Header.Get("x-session-id"))
	return actor, nil
}

func parsePage(q url.Values) (catalog.Page, error) {
	page := catalog.Page{Limit: catalog.DefaultLimit}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return page, fmt.Errorf("limit must be a positive integer, got %q", raw)
		}
		page.Limit = min(n, MaxPageSize)
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, fmt.Errorf("offset must be a non-negative integer, got %q", raw)
		}
		page.Offset = n
	}
	return page, nil
}

func parseFilter(q url.Values) (catalog.Filter, error) {
	f := catalog.Filter{
		Location: strings.TrimSpace(q.Get("location")),
		Skills:   splitList(q.Get("skills")),
		Order:    catalog.ParseOrder(q.Get("orderBy")),
	}

	ids, err := parseIDList(q.Get("excludeIds"))
	if err != nil {
		return f, err
	}
	f.ExcludeIDs = ids

	if c := strings.TrimSpace(q.Get("category")); c != "" {
		f.Category = &c
	}
	if raw := q.Get("remote"); raw != "" {
		remote, err := strconv.ParseBool(raw)
		if err != nil {
			return f, fmt.Errorf("remote must be true or false, got %q", raw)
		}
		f.Remote = &remote
	}
	return f, nil
}

// parseIDList parses a comma-separated list of job ids.
func parseIDList(raw string) ([]int64, error) {
	parts := splitList(raw)
	if len(parts) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, errors.New("excludeIds must be a comma-separated list of integers")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
