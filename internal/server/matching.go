package server

import (
	"context"

	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
	"github.com/joseph-ayodele/biodata-tracker/internal/matching"
)

// RankMatches ranks approved profiles against preferences or a stored reference profile.
func (s *Server) RankMatches(ctx context.Context, req *RankMatchesRequest) (*MatchesResponse, error) {
	if req.ReferenceID != "" {
		if err := validProfileID(req.ReferenceID); err != nil {
			return nil, err
		}
	}
	results, err := s.matching.RankMatches(ctx, matching.Query{
		Preferences: req.Preferences,
		ReferenceID: req.ReferenceID,
	}, req.Limit)
	if err != nil {
		return nil, err
	}
	return &MatchesResponse{Matches: nonNil(results)}, nil
}

// SearchByUpload extracts a throwaway profile from the upload and ranks against it.
func (s *Server) SearchByUpload(ctx context.Context, req *SearchByUploadRequest) (*SearchByUploadResponse, error) {
	tmp, results, err := s.matching.SearchByUpload(ctx, entity.Upload{Filename: req.Filename, Content: req.Content}, req.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchByUploadResponse{Extracted: tmp, Matches: nonNil(results)}, nil
}

func (s *Server) SearchStats(ctx context.Context, _ *Empty) (*entity.SearchStats, error) {
	stats, err := s.matching.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// SimilarByAttributes lists approved profiles sharing attributes with a stored profile.
func (s *Server) SimilarByAttributes(ctx context.Context, req *SimilarRequest) (*SimilarResponse, error) {
	if err := validProfileID(req.ProfileID); err != nil {
		return nil, err
	}
	similar, err := s.matching.SimilarByAttributes(ctx, req.ProfileID, req.Limit)
	if err != nil {
		return nil, err
	}
	return &SimilarResponse{Similar: similar}, nil
}

func (s *Server) GetGraph(ctx context.Context, req *GraphRequest) (*entity.GraphData, error) {
	if req.ProfileID != "" {
		if err := validProfileID(req.ProfileID); err != nil {
			return nil, err
		}
	}
	g, err := s.matching.Graph(ctx, req.ProfileID, req.Limit)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Server) GraphStats(ctx context.Context, _ *Empty) (*entity.GraphStats, error) {
	st, err := s.matching.GraphStats(ctx)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func nonNil(results []entity.MatchResult) []entity.MatchResult {
	if results == nil {
		return []entity.MatchResult{}
	}
	return results
}
