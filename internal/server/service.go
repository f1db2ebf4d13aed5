package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
	"github.com/joseph-ayodele/biodata-tracker/internal/jobs"
	"github.com/joseph-ayodele/biodata-tracker/internal/matching"
	"github.com/joseph-ayodele/biodata-tracker/internal/profiles"
	"github.com/joseph-ayodele/biodata-tracker/internal/validation"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "biodata.v1.BiodataService"

// BiodataServer is the server API for biodata.v1.BiodataService. Every
// message travels as a google.protobuf.Struct holding the JSON form of the
// request and response types in this package.
type BiodataServer interface {
	SubmitBatch(context.Context, *SubmitBatchRequest) (*entity.JobSnapshot, error)
	GetJobStatus(context.Context, *JobRequest) (*entity.JobSnapshot, error)
	GetJobResults(context.Context, *JobRequest) (*JobResultsResponse, error)
	CancelJob(context.Context, *JobRequest) (*entity.JobSnapshot, error)

	CreateProfile(context.Context, *CreateProfileRequest) (*entity.Profile, error)
	GetProfile(context.Context, *ProfileRequest) (*entity.Profile, error)
	ListProfiles(context.Context, *ListProfilesRequest) (*entity.ProfilePage, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*entity.Profile, error)
	DeleteProfile(context.Context, *ProfileRequest) (*DeleteProfileResponse, error)

	Approve(context.Context, *ProfileRequest) (*entity.Profile, error)
	Reject(context.Context, *ProfileRequest) (*entity.Profile, error)
	FlagForReview(context.Context, *ProfileRequest) (*entity.Profile, error)
	EditAndApprove(context.Context, *EditAndApproveRequest) (*entity.Profile, error)
	ReOCR(context.Context, *ProfileRequest) (*entity.Profile, error)
	AutoApproveAll(context.Context, *AutoApproveRequest) (*AutoApproveResponse, error)

	RankMatches(context.Context, *RankMatchesRequest) (*MatchesResponse, error)
	SearchByUpload(context.Context, *SearchByUploadRequest) (*SearchByUploadResponse, error)
	SearchStats(context.Context, *Empty) (*entity.SearchStats, error)
	SimilarByAttributes(context.Context, *SimilarRequest) (*SimilarResponse, error)
	GetGraph(context.Context, *GraphRequest) (*entity.GraphData, error)
	GraphStats(context.Context, *Empty) (*entity.GraphStats, error)
}

// Server implements BiodataServer on top of the domain services.
type Server struct {
	jobs       *jobs.Orchestrator
	profiles   *profiles.Service
	validation *validation.Service
	matching   *matching.Service
	logger     *slog.Logger
}

var _ BiodataServer = (*Server)(nil)

func NewServer(
	orch *jobs.Orchestrator,
	profileSvc *profiles.Service,
	validationSvc *validation.Service,
	matchingSvc *matching.Service,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		jobs:       orch,
		profiles:   profileSvc,
		validation: validationSvc,
		matching:   matchingSvc,
		logger:     logger,
	}
}

// ServiceDesc describes biodata.v1.BiodataService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BiodataServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("SubmitBatch", BiodataServer.SubmitBatch),
		unary("GetJobStatus", BiodataServer.GetJobStatus),
		unary("GetJobResults", BiodataServer.GetJobResults),
		unary("CancelJob", BiodataServer.CancelJob),
		unary("CreateProfile", BiodataServer.CreateProfile),
		unary("GetProfile", BiodataServer.GetProfile),
		unary("ListProfiles", BiodataServer.ListProfiles),
		unary("UpdateProfile", BiodataServer.UpdateProfile),
		unary("DeleteProfile", BiodataServer.DeleteProfile),
		unary("Approve", BiodataServer.Approve),
		unary("Reject", BiodataServer.Reject),
		unary("FlagForReview", BiodataServer.FlagForReview),
		unary("EditAndApprove", BiodataServer.EditAndApprove),
		unary("ReOCR", BiodataServer.ReOCR),
		unary("AutoApproveAll", BiodataServer.AutoApproveAll),
		unary("RankMatches", BiodataServer.RankMatches),
		unary("SearchByUpload", BiodataServer.SearchByUpload),
		unary("SearchStats", BiodataServer.SearchStats),
		unary("SimilarByAttributes", BiodataServer.SimilarByAttributes),
		unary("GetGraph", BiodataServer.GetGraph),
		unary("GraphStats", BiodataServer.GraphStats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "biodata/v1/biodata.proto",
}

// RegisterBiodataServer registers srv on s.
func RegisterBiodataServer(s grpc.ServiceRegistrar, srv BiodataServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary adapts a typed method to a grpc.MethodDesc. Domain errors are mapped
// to status codes here and nowhere else.
func unary[Req, Resp any](method string, call func(BiodataServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				var r Req
				if err := fromStruct(req.(*structpb.Struct), &r); err != nil {
					return nil, status.Errorf(codes.InvalidArgument, "decode %s request: %v", method, err)
				}
				resp, err := call(srv.(BiodataServer), ctx, &r)
				if err != nil {
					return nil, common.ToStatus(err)
				}
				return toStruct(resp)
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handler)
		},
	}
}
