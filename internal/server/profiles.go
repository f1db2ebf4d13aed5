package server

import (
	"context"

	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// CreateProfile stores an operator-entered profile.
func (s *Server) CreateProfile(ctx context.Context, req *CreateProfileRequest) (*entity.Profile, error) {
	return s.profiles.CreateProfile(ctx, req.Fields)
}

func (s *Server) GetProfile(ctx context.Context, req *ProfileRequest) (*entity.Profile, error) {
	if err := validProfileID(req.ProfileID); err != nil {
		return nil, err
	}
	return s.profiles.GetProfile(ctx, req.ProfileID)
}

// ListProfiles returns one page of profiles, optionally filtered by status.
func (s *Server) ListProfiles(ctx context.Context, req *ListProfilesRequest) (*entity.ProfilePage, error) {
	page, err := s.profiles.ListProfiles(ctx, req.Status, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []*entity.Profile{}
	}
	return &page, nil
}

// UpdateProfile corrects a profile's fields without changing its status.
func (s *Server) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*entity.Profile, error) {
	if err := validProfileID(req.ProfileID); err != nil {
		return nil, err
	}
	return s.profiles.UpdateProfile(ctx, req.ProfileID, req.Updates)
}

func (s *Server) DeleteProfile(ctx context.Context, req *ProfileRequest) (*DeleteProfileResponse, error) {
	if err := validProfileID(req.ProfileID); err != nil {
		return nil, err
	}
	if err := s.profiles.DeleteProfile(ctx, req.ProfileID); err != nil {
		return nil, err
	}
	return &DeleteProfileResponse{ProfileID: req.ProfileID, Deleted: true}, nil
}
