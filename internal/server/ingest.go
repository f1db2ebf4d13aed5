package server

import (
	"context"

	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// SubmitBatch queues a batch of uploads and returns the job's first snapshot.
func (s *Server) SubmitBatch(ctx context.Context, req *SubmitBatchRequest) (*entity.JobSnapshot, error) {
	snap, err := s.jobs.Submit(ctx, req.Files)
	if err != nil {
		common.LoggerFrom(ctx, s.logger).Warn("batch submit rejected", "files", len(req.Files), "error", err)
		return nil, err
	}
	return &snap, nil
}

func (s *Server) GetJobStatus(_ context.Context, req *JobRequest) (*entity.JobSnapshot, error) {
	if err := validJobID(req.JobID); err != nil {
		return nil, err
	}
	snap, err := s.jobs.Status(req.JobID)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetJobResults lists the profiles a job has created so far.
func (s *Server) GetJobResults(_ context.Context, req *JobRequest) (*JobResultsResponse, error) {
	if err := validJobID(req.JobID); err != nil {
		return nil, err
	}
	ids, err := s.jobs.Results(req.JobID)
	if err != nil {
		return nil, err
	}
	return &JobResultsResponse{JobID: req.JobID, ProfileIDs: ids}, nil
}

// CancelJob fails the job's queued items. Items already running finish normally.
func (s *Server) CancelJob(ctx context.Context, req *JobRequest) (*entity.JobSnapshot, error) {
	if err := validJobID(req.JobID); err != nil {
		return nil, err
	}
	snap, err := s.jobs.Cancel(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func validJobID(id string) error {
	return common.NewValidator().Field("job_id", id, common.UUID).Err()
}

func validProfileID(id string) error {
	return common.NewValidator().Field("profile_id", id, common.UUID).Err()
}
