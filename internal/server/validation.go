package server

import (
	"context"

	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

func (s *Server) Approve(ctx context.Context, req *ProfileRequest) (*entity.Profile, error) {
	if err := validProfileID(req.ProfileID); err != nil {
		return nil, err
	}
	return s.validation.Approve(ctx, req.ProfileID)
}

func (s *Server) Reject(ctx context.Context, req *ProfileRequest) (*entity.Profile, error) {
	if err := validProfileID(req.ProfileID); err != nil {
		return nil, err
	}
	return s.validation.Reject(ctx, req.ProfileID)
}

func (s *Server) FlagForReview(ctx context.Context, req *ProfileRequest) (*entity.Profile, error) {
	if err := validProfileID(req.ProfileID); err != nil {
		return nil, err
	}
	return s.validation.FlagForReview(ctx, req.ProfileID)
}

// EditAndApprove merges the updates into the profile's fields and approves it.
func (s *Server) EditAndApprove(ctx context.Context, req *EditAndApproveRequest) (*entity.Profile, error) {
	if err := validProfileID(req.ProfileID); err != nil {
		return nil, err
	}
	if len(req.Updates) == 0 {
		return nil, common.InvalidInputf("updates must not be empty")
	}
	return s.validation.EditAndApprove(ctx, req.ProfileID, req.Updates)
}

// ReOCR re-runs extraction on the stored source document.
func (s *Server) ReOCR(ctx context.Context, req *ProfileRequest) (*entity.Profile, error) {
	if err := validProfileID(req.ProfileID); err != nil {
		return nil, err
	}
	return s.validation.ReOCR(ctx, req.ProfileID)
}

func (s *Server) AutoApproveAll(ctx context.Context, req *AutoApproveRequest) (*AutoApproveResponse, error) {
	n, err := s.validation.AutoApproveAll(ctx, req.MinConfidence)
	if err != nil {
		return nil, err
	}
	return &AutoApproveResponse{Approved: n}, nil
}
