package model_test

import (
	"testing"

	"jobmate/matching-service/internal/model"
)

// ── ParseAction ────────────────────────────────────────────────────────────

func TestParseAction_ValidValues(t *testing.T) {
	valid := []string{"save", "like", "reject", "dislike", "apply", "view"}
	for _, s := range valid {
		got, err := model.ParseAction(s)
		if err != nil {
			t.Errorf("ParseAction(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseAction(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseAction_Invalid(t *testing.T) {
	for _, s := range []string{"", "LIKE", " save", "bookmark"} {
		if _, err := model.ParseAction(s); err == nil {
			t.Errorf("ParseAction(%q) expected error, got nil", s)
		}
	}
}

// ── ParseSentiment ─────────────────────────────────────────────────────────

func TestParseSentiment(t *testing.T) {
	for _, s := range []string{"excited", "interested", "neutral", "doubtful", "negative"} {
		if _, err := model.ParseSentiment(s); err != nil {
			t.Errorf("ParseSentiment(%q) returned unexpected error: %v", s, err)
		}
	}
	if _, err := model.ParseSentiment("angry"); err == nil {
		t.Error("ParseSentiment(\"angry\") expected error, got nil")
	}
}

// ── IsPositive ─────────────────────────────────────────────────────────────

func TestIsPositive(t *testing.T) {
	for _, a := range []model.Action{model.ActionSave, model.ActionLike} {
		if !model.IsPositive(a) {
			t.Errorf("IsPositive(%s) should return true", a)
		}
	}
	for _, a := range []model.Action{model.ActionReject, model.ActionDislike, model.ActionApply, model.ActionView} {
		if model.IsPositive(a) {
			t.Errorf("IsPositive(%s) should return false", a)
		}
	}
}

// ── Coordinates / Actor ────────────────────────────────────────────────────

func TestCoordinatesVariants(t *testing.T) {
	if model.UnknownCoordinates().Known {
		t.Error("UnknownCoordinates().Known should be false")
	}
	c := model.KnownCoordinates(40.4, -3.7)
	if !c.Known || c.Lat != 40.4 || c.Lon != -3.7 {
		t.Errorf("KnownCoordinates = %+v", c)
	}
}

func TestActor(t *testing.T) {
	if !(model.Actor{}).IsAnonymous() {
		t.Error("zero Actor should be anonymous")
	}
	if (model.Actor{SessionID: "s-1"}).IsAnonymous() {
		t.Error("session actor should not be anonymous")
	}
	if !(model.Actor{UserID: 7}).IsUser() {
		t.Error("user actor should report IsUser")
	}
}
