package server

import "github.com/joseph-ayodele/biodata-tracker/internal/entity"

type SubmitBatchRequest struct {
	Files []entity.Upload `json:"files"`
}

type JobRequest struct {
	JobID string `json:"job_id"`
}

type JobResultsResponse struct {
	JobID      string   `json:"job_id"`
	ProfileIDs []string `json:"profile_ids"`
}

type CreateProfileRequest struct {
	Fields entity.Fields `json:"fields"`
}

type ProfileRequest struct {
	ProfileID string `json:"profile_id"`
}

type ListProfilesRequest struct {
	Status   string `json:"status,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

type DeleteProfileResponse struct {
	ProfileID string `json:"profile_id"`
	Deleted   bool   `json:"deleted"`
}

// EditAndApproveRequest carries field updates. A null value clears the field.
type EditAndApproveRequest struct {
	ProfileID string         `json:"profile_id"`
	Updates   map[string]any `json:"updates"`
}

// UpdateProfileRequest changes fields only. A null value clears the field.
type UpdateProfileRequest struct {
	ProfileID string         `json:"profile_id"`
	Updates   map[string]any `json:"updates"`
}

// AutoApproveRequest uses the configured threshold when MinConfidence is absent.
type AutoApproveRequest struct {
	MinConfidence *float64 `json:"min_confidence,omitempty"`
}

type AutoApproveResponse struct {
	Approved int `json:"approved"`
}

// RankMatchesRequest takes either explicit preferences or a reference profile id.
type RankMatchesRequest struct {
	Preferences *entity.Preferences `json:"preferences,omitempty"`
	ReferenceID string              `json:"reference_id,omitempty"`
	Limit       int                 `json:"limit,omitempty"`
}

type MatchesResponse struct {
	Matches []entity.MatchResult `json:"matches"`
}

type SearchByUploadRequest struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
	Limit    int    `json:"limit,omitempty"`
}

type SearchByUploadResponse struct {
	Extracted *entity.Profile      `json:"extracted"`
	Matches   []entity.MatchResult `json:"matches"`
}

type SimilarRequest struct {
	ProfileID string `json:"profile_id"`
	Limit     int    `json:"limit,omitempty"`
}

type SimilarResponse struct {
	Similar []entity.SimilarProfile `json:"similar"`
}

// GraphRequest centers the view on ProfileID when it is set.
type GraphRequest struct {
	ProfileID string `json:"profile_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type Empty struct{}
