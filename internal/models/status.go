package models

import (
	"fmt"
	"strings"
)

type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusReviewing   ApplicationStatus = "reviewing"
	StatusInterviewed ApplicationStatus = "interviewed"
	StatusOffered     ApplicationStatus = "offered"
	StatusRejected    ApplicationStatus = "rejected"
	StatusAccepted    ApplicationStatus = "accepted"
)

var statuses = []ApplicationStatus{
	StatusPending,
	StatusReviewing,
	StatusInterviewed,
	StatusOffered,
	StatusRejected,
	StatusAccepted,
}

// Statuses returns every allowed application status in workflow order.
func Statuses() []ApplicationStatus {
	out := make([]ApplicationStatus, len(statuses))
	copy(out, statuses)
	return out
}

func (s ApplicationStatus) Valid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus normalizes the input and checks it against the allowed statuses.
func ParseStatus(raw string) (ApplicationStatus, error) {
	status := ApplicationStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("invalid status %q", raw)
	}
	return status, nil
}
