package verification

import (
	"testing"
	"time"
)

func TestRequiredLikes(t *testing.T) {
	cases := []struct {
		participants int
		want         int
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{17, 9},
	}
	for _, c := range cases {
		if got := RequiredLikes(c.participants); got != c.want {
			t.Errorf("RequiredLikes(%d) = %d, want %d", c.participants, got, c.want)
		}
	}
}

func TestIsVerified_FlipsWithParticipantCount(t *testing.T) {
	// 2 likes verifies a proof in a 4-person activity.
	if !IsVerified(2, 4) {
		t.Error("2 likes with 4 participants should verify")
	}
	// The same proof stops being verified once a fifth member joins.
	if IsVerified(2, 5) {
		t.Error("2 likes with 5 participants should no longer verify")
	}
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  GoalWindow
	}{
		{"fully past", now.Add(-10 * day), now.Add(-2 * day), WindowPast},
		{"fully future", now.Add(2 * day), now.Add(10 * day), WindowFuture},
		{"spanning now", now.Add(-2 * day), now.Add(2 * day), WindowActive},
		{"ends later today", now.Add(-2 * day), now.Add(time.Hour), WindowActive},
	}
	for _, c := range cases {
		if got := Window(c.start, c.end, now); got != c.want {
			t.Errorf("%s: Window = %s, want %s", c.name, got, c.want)
		}
	}
}

func TestCompletion(t *testing.T) {
	cases := []struct {
		name         string
		hasProof     bool
		likes        int
		participants int
		ended        bool
		want         CompletionStatus
	}{
		{"no proof, goal open", false, 0, 4, false, StatusNotSubmitted},
		{"no proof, goal ended", false, 0, 4, true, StatusExpiredUnverified},
		{"proof below threshold, open", true, 1, 4, false, StatusPendingVerification},
		{"proof below threshold, ended", true, 1, 4, true, StatusExpiredUnverified},
		{"proof at threshold, open", true, 2, 4, false, StatusVerified},
		{"proof at threshold, ended", true, 2, 4, true, StatusVerified},
		{"sole participant needs one like", true, 0, 1, false, StatusPendingVerification},
	}
	for _, c := range cases {
		if got := Completion(c.hasProof, c.likes, c.participants, c.ended); got != c.want {
			t.Errorf("%s: Completion = %s, want %s", c.name, got, c.want)
		}
	}
}
