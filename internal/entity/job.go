package entity

import (
	"time"

	"github.com/joseph-ayodele/biodata-tracker/constants"
)

// Upload is one raw document handed to a batch submission.
type Upload struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// ItemView is the read-only state of one file within a job.
type ItemView struct {
	Index     int                  `json:"index"`
	Filename  string               `json:"filename"`
	Status    constants.ItemStatus `json:"status"`
	Error     string               `json:"error,omitempty"`
	ProfileID string               `json:"profile_id,omitempty"`
}

// ItemError is a failed file and its message.
type ItemError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// JobSnapshot is a consistent copy of a job's counters and items taken under its lock.
type JobSnapshot struct {
	JobID           string              `json:"job_id"`
	Status          constants.JobStatus `json:"status"`
	Total           int                 `json:"total"`
	Processed       int                 `json:"processed"`
	Successful      int                 `json:"successful"`
	Failed          int                 `json:"failed"`
	ProgressPercent float64             `json:"progress_percent"`
	Errors          []ItemError         `json:"errors"`
	Items           []ItemView          `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
}

// ProfileIDs returns the profiles produced by succeeded items, in item order.
func (s JobSnapshot) ProfileIDs() []string {
	out := make([]string, 0, s.Successful)
	for _, it := range s.Items {
		if it.ProfileID != "" {
			out = append(out, it.ProfileID)
		}
	}
	return out
}
