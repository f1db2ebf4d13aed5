package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// Client calls biodata.v1.BiodataService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens an insecure connection to addr.
func Dial(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return conn, nil
}

// Call invokes method with req and decodes the reply into resp.
func (c *Client) Call(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return err
	}
	return fromStruct(out, resp)
}

func (c *Client) SubmitBatch(ctx context.Context, files []entity.Upload) (entity.JobSnapshot, error) {
	var snap entity.JobSnapshot
	err := c.Call(ctx, "SubmitBatch", SubmitBatchRequest{Files: files}, &snap)
	return snap, err
}

func (c *Client) GetJobStatus(ctx context.Context, jobID string) (entity.JobSnapshot, error) {
	var snap entity.JobSnapshot
	err := c.Call(ctx, "GetJobStatus", JobRequest{JobID: jobID}, &snap)
	return snap, err
}

func (c *Client) GetProfile(ctx context.Context, id string) (*entity.Profile, error) {
	var p entity.Profile
	if err := c.Call(ctx, "GetProfile", ProfileRequest{ProfileID: id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
