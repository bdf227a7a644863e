// Package model defines shared data structures for the matching service.
package model

import (
	"time"

	"github.com/goccy/go-json"
)

// Coordinates is a tagged variant: either Unknown or Known(Lat, Lon).
// Construct it with UnknownCoordinates or KnownCoordinates only.
type Coordinates struct {
	Known bool
	Lat   float64
	Lon   float64
}

// UnknownCoordinates returns the Unknown variant.
func UnknownCoordinates() Coordinates { return Coordinates{} }

// KnownCoordinates returns the Known variant for (lat, lon).
func KnownCoordinates(lat, lon float64) Coordinates {
	return Coordinates{Known: true, Lat: lat, Lon: lon}
}

// JobDraft is a normalised listing produced by the feed parser, not yet
// persisted. RawData holds the original feed entry as JSON.
type JobDraft struct {
	ExternalID  string
	Title       string
	Company     string
	Location    *string
	Description *string
	JobType     *string
	Salary      *string
	Category    *string
	Skills      []string
	Coordinates Coordinates
	IsRemote    bool
	PostedAt    time.Time
	RawData     json.RawMessage
}

// Job is a catalog row. Jobs are created by ingestion only and never updated.
type Job struct {
	ID          int64           `json:"id"`
	ExternalID  string          `json:"externalId"`
	Title       string          `json:"title"`
	Company     string          `json:"company"`
	Location    *string         `json:"location"`
	Description *string         `json:"description"`
	JobType     *string         `json:"jobType"`
	Salary      *string         `json:"salary"`
	Category    *string         `json:"category"`
	Skills      []string        `json:"skills"`
	Coordinates Coordinates     `json:"-"`
	IsRemote    bool            `json:"isRemote"`
	PostedAt    time.Time       `json:"postedAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	RawData     json.RawMessage `json:"-"`
}

// LocationText returns the job location or "" when absent.
func (j Job) LocationText() string {
	if j.Location == nil {
		return ""
	}
	return *j.Location
}

// CategoryText returns the job category or "" when absent.
func (j Job) CategoryText() string {
	if j.Category == nil {
		return ""
	}
	return *j.Category
}

// User is the slice of a registered user the engine needs.
type User struct {
	ID          int64
	Coordinates Coordinates
}

// AnonymousSession is the slice of an anonymous session the engine needs.
type AnonymousSession struct {
	SessionID   string
	Coordinates Coordinates
}

// Actor identifies who is interacting: a user or an anonymous session, never both.
type Actor struct {
	UserID    int64
	SessionID string
}

// IsAnonymous reports whether neither a user id nor a session id is set.
func (a Actor) IsAnonymous() bool { return a.UserID == 0 && a.SessionID == "" }

// IsUser reports whether the actor is a registered user.
func (a Actor) IsUser() bool { return a.UserID != 0 }
