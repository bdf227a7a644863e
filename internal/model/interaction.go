package model

import (
	"fmt"
	"time"
)

// Action is what an actor did with a job.
type Action string

const (
	ActionSave    Action = "save"
	ActionLike    Action = "like"
	ActionReject  Action = "reject"
	ActionDislike Action = "dislike"
	ActionApply   Action = "apply"
	ActionView    Action = "view"
)

// Sentiment is an optional mood attached to an interaction.
type Sentiment string

const (
	SentimentExcited    Sentiment = "excited"
	SentimentInterested Sentiment = "interested"
	SentimentNeutral    Sentiment = "neutral"
	SentimentDoubtful   Sentiment = "doubtful"
	SentimentNegative   Sentiment = "negative"
)

// Interaction is one append-only entry of the interaction log.
type Interaction struct {
	ID        int64      `json:"id"`
	Actor     Actor      `json:"-"`
	JobID     int64      `json:"jobId"`
	Action    Action     `json:"action"`
	Sentiment *Sentiment `json:"sentiment,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ParseAction converts a raw string to an Action, returning an error for
// unknown values. Matching is case-sensitive.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	switch a {
	case ActionSave, ActionLike, ActionReject, ActionDislike, ActionApply, ActionView:
		return a, nil
	}
	return "", fmt.Errorf("unknown interaction action %q", s)
}

// ParseSentiment converts a raw string to a Sentiment.
func ParseSentiment(s string) (Sentiment, error) {
	st := Sentiment(s)
	switch st {
	case SentimentExcited, SentimentInterested, SentimentNeutral, SentimentDoubtful, SentimentNegative:
		return st, nil
	}
	return "", fmt.Errorf("unknown sentiment %q", s)
}

// IsPositive returns true for the actions that feed the affinity profile.
func IsPositive(a Action) bool { return a == ActionSave || a == ActionLike }
