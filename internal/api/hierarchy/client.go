package hierarchy

import (
	"context"

	"google.golang.org/grpc"
)

// Client is a typed client for gophdrive.HierarchyService. Every call is
// sent with the JSON content-subtype.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateFolder(ctx context.Context, in *CreateFolderRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, MethodCreateFolder, in, opts)
}

func (c *Client) CreateFile(ctx context.Context, in *CreateFileRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, MethodCreateFile, in, opts)
}

func (c *Client) Move(ctx context.Context, in *MoveRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, MethodMove, in, opts)
}

func (c *Client) Rename(ctx context.Context, in *RenameRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, MethodRename, in, opts)
}

func (c *Client) SetStarred(ctx context.Context, in *SetFlagRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, MethodSetStarred, in, opts)
}

func (c *Client) SetTrashed(ctx context.Context, in *SetFlagRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, MethodSetTrashed, in, opts)
}

func (c *Client) ReplaceContent(ctx context.Context, in *ReplaceContentRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, MethodReplaceContent, in, opts)
}

func (c *Client) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c.cc, MethodDelete, in, opts)
}

func (c *Client) ListChildren(ctx context.Context, in *ListChildrenRequest, opts ...grpc.CallOption) (*EntriesResponse, error) {
	return invoke[EntriesResponse](ctx, c.cc, MethodListChildren, in, opts)
}

func (c *Client) GetAncestorPath(ctx context.Context, in *GetAncestorPathRequest, opts ...grpc.CallOption) (*EntriesResponse, error) {
	return invoke[EntriesResponse](ctx, c.cc, MethodGetAncestorPath, in, opts)
}

func (c *Client) GetUploadParams(ctx context.Context, in *GetUploadParamsRequest, opts ...grpc.CallOption) (*GetUploadParamsResponse, error) {
	return invoke[GetUploadParamsResponse](ctx, c.cc, MethodGetUploadParams, in, opts)
}

func (c *Client) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}
