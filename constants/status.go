package constants

// OCRStatus is the validation-workflow state of a profile's extracted data.
type OCRStatus string

// Stable values (store these exact strings in DB).
const (
	OCRStatusPending     OCRStatus = "pending"
	OCRStatusApproved    OCRStatus = "approved"
	OCRStatusRejected    OCRStatus = "rejected"
	OCRStatusNeedsReview OCRStatus = "needs_review"
)

// ParseOCRStatus accepts the stored form of an OCRStatus.
func ParseOCRStatus(s string) (OCRStatus, bool) {
	switch st := OCRStatus(s); st {
	case OCRStatusPending, OCRStatusApproved, OCRStatusRejected, OCRStatusNeedsReview:
		return st, true
	}
	return "", false
}

// Reviewable reports whether approve/reject are allowed from this state.
func (s OCRStatus) Reviewable() bool {
	return s == OCRStatusPending || s == OCRStatusNeedsReview
}

// JobStatus is the derived status of a batch job.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusPartial    JobStatus = "partial"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further counter changes can happen.
func (s JobStatus) Terminal() bool {
	return s != JobStatusProcessing
}

// ItemStatus is the status of one file within a job.
type ItemStatus string

const (
	ItemStatusQueued     ItemStatus = "queued"
	ItemStatusProcessing ItemStatus = "processing"
	ItemStatusSucceeded  ItemStatus = "succeeded"
	ItemStatusFailed     ItemStatus = "failed"
)

const (
	// DefaultAutoApproveConfidence is used when auto-approve is called without a threshold.
	DefaultAutoApproveConfidence = 0.7
	// MaxBatchFiles is the default ceiling for one submission.
	MaxBatchFiles = 200
	// MaxErrorLength bounds per-item error messages in job snapshots.
	MaxErrorLength = 200
)
