package httpapi

import (
	"net/http/httptest"
	"net/url"
	"slices"
	"testing"

	"jobmate/matching-service/internal/catalog"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		query   string
		want    catalog.Page
		wantErr bool
	}{
		{"", catalog.Page{Limit: catalog.DefaultLimit}, false},
		{"limit=5&offset=10", catalog.Page{Limit: 5, Offset: 10}, false},
		{"limit=5000", catalog.Page{Limit: MaxPageSize}, false},
		{"limit=-1", catalog.Page{}, true},
		{"offset=x", catalog.Page{}, true},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		got, err := parsePage(q)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v, wantErr %v", tt.query, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("%q: page = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestParseFilter(t *testing.T) {
	q, _ := url.ParseQuery("excludeIds=3,%204,,5&category=IT&remote=false&location=%20Madrid%20&skills=go,%20sql&orderBy=random")
	f, err := parseFilter(q)
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	if !slices.Equal(f.ExcludeIDs, []int64{3, 4, 5}) {
		t.Errorf("exclude = %v", f.ExcludeIDs)
	}
	if f.Category == nil || *f.Category != "IT" || f.Remote == nil || *f.Remote {
		t.Errorf("category/remote = %v/%v", f.Category, f.Remote)
	}
	if f.Location != "Madrid" || !slices.Equal(f.Skills, []string{"go", "sql"}) || f.Order != catalog.OrderRandom {
		t.Errorf("filter = %+v", f)
	}

	empty, err := parseFilter(url.Values{})
	if err != nil || empty.Category != nil || empty.Remote != nil || empty.ExcludeIDs != nil || empty.Order != catalog.OrderRecent {
		t.Errorf("empty filter = %+v, %v", empty, err)
	}
}

func TestActorFromHeaders(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		session string
		wantID  int64
		wantSID string
		wantErr bool
	}{
		{"anonymous", "", "", 0, "", false},
		{"user", "42", "", 42, "", false},
		{"session", "", "abc", 0, "abc", false},
		{"user wins", "42", "abc", 42, "", false},
		{"bad user", "x", "", 0, "", true},
		{"zero user", "0", "", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.user != "" {
				r.Header.Set("x-user-id", tt.user)
			}
			if tt.session != "" {
				r.Header.Set("x-session-id", tt.session)
			}
			a, err := actorFromHeaders(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if a.UserID != tt.wantID || a.SessionID != tt.wantSID {
				t.Errorf("actor = %+v", a)
			}
		})
	}
}
