// Package verification holds the peer-verification arithmetic: how many
// likes a proof needs before it counts, and how a goal's completion state
// is derived from the proof, its likes, and the goal's date window.
package verification

import "time"

// CompletionStatus describes where a participant stands on a goal.
type CompletionStatus string

const (
	StatusNotSubmitted        CompletionStatus = "NOT_SUBMITTED"
	StatusPendingVerification CompletionStatus = "PENDING_VERIFICATION"
	StatusVerified            CompletionStatus = "VERIFIED"
	StatusExpiredUnverified   CompletionStatus = "EXPIRED_UNVERIFIED"
)

// GoalWindow describes where a goal's date range sits relative to now.
type GoalWindow string

const (
	WindowActive GoalWindow = "ACTIVE"
	WindowPast   GoalWindow = "PAST"
	WindowFuture GoalWindow = "FUTURE"
)

// RequiredLikes returns how many likes a proof needs to be considered
// verified: a strict majority threshold of ceil(participants / 2), with a
// floor of 1 so a sole participant can still self-certify their activity's
// goals through a peer elsewhere.
//
// The threshold is recomputed from the live participant count on every
// read, so a proof can flip between verified and unverified as members
// join or leave.
func RequiredLikes(participants int) int {
	if participants < 1 {
		return 1
	}
	return (participants + 1) / 2
}

// IsVerified reports whether a proof with the given like count clears the
// threshold for the given participant count.
func IsVerified(likes, participants int) bool {
	return likes >= RequiredLikes(participants)
}

// Window classifies a goal's date range against now. Ranges are inclusive
// on both ends at day granularity: a goal ending today is still active.
func Window(startDate, endDate, now time.Time) GoalWindow {
	if endDate.Before(now) {
		return WindowPast
	}
	if startDate.After(now) {
		return WindowFuture
	}
	return WindowActive
}

// Completion derives the participant's completion status for one goal.
// hasProof is whether the participant submitted a proof; likes is that
// proof's current like count; participants is the activity's live member
// count; ended is whether the goal's end date has passed.
func Completion(hasProof bool, likes, participants int, ended bool) CompletionStatus {
	if !hasProof {
		if ended {
			return StatusExpiredUnverified
		}
		return StatusNotSubmitted
	}
	if IsVerified(likes, participants) {
		return StatusVerified
	}
	if ended {
		return StatusExpiredUnverified
	}
	return StatusPendingVerification
}
