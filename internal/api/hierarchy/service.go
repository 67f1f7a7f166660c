package hierarchy

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "gophdrive.HierarchyService"

// Full method names, as seen by interceptors.
const (
	MethodCreateFolder    = "/" + ServiceName + "/CreateFolder"
	MethodCreateFile      = "/" + ServiceName + "/CreateFile"
	MethodMove            = "/" + ServiceName + "/Move"
	MethodRename          = "/" + ServiceName + "/Rename"
	MethodSetStarred      = "/" + ServiceName + "/SetStarred"
	MethodSetTrashed      = "/" + ServiceName + "/SetTrashed"
	MethodReplaceContent  = "/" + ServiceName + "/ReplaceContent"
	MethodDelete          = "/" + ServiceName + "/Delete"
	MethodListChildren    = "/" + ServiceName + "/ListChildren"
	MethodGetAncestorPath = "/" + ServiceName + "/GetAncestorPath"
	MethodGetUploadParams = "/" + ServiceName + "/GetUploadParams"
	MethodPing            = "/" + ServiceName + "/Ping"
)

// HierarchyServiceServer is implemented by the server side of the service.
type HierarchyServiceServer interface {
	CreateFolder(context.Context, *CreateFolderRequest) (*EntryResponse, error)
	CreateFile(context.Context, *CreateFileRequest) (*EntryResponse, error)
	Move(context.Context, *MoveRequest) (*EntryResponse, error)
	Rename(context.Context, *RenameRequest) (*EntryResponse, error)
	SetStarred(context.Context, *SetFlagRequest) (*EntryResponse, error)
	SetTrashed(context.Context, *SetFlagRequest) (*EntryResponse, error)
	ReplaceContent(context.Context, *ReplaceContentRequest) (*EntryResponse, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
	ListChildren(context.Context, *ListChildrenRequest) (*EntriesResponse, error)
	GetAncestorPath(context.Context, *GetAncestorPathRequest) (*EntriesResponse, error)
	GetUploadParams(context.Context, *GetUploadParamsRequest) (*GetUploadParamsResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// ServiceDesc describes gophdrive.HierarchyService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HierarchyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodCreateFolder, HierarchyServiceServer.CreateFolder),
		unary(MethodCreateFile, HierarchyServiceServer.CreateFile),
		unary(MethodMove, HierarchyServiceServer.Move),
		unary(MethodRename, HierarchyServiceServer.Rename),
		unary(MethodSetStarred, HierarchyServiceServer.SetStarred),
		unary(MethodSetTrashed, HierarchyServiceServer.SetTrashed),
		unary(MethodReplaceContent, HierarchyServiceServer.ReplaceContent),
		unary(MethodDelete, HierarchyServiceServer.Delete),
		unary(MethodListChildren, HierarchyServiceServer.ListChildren),
		unary(MethodGetAncestorPath, HierarchyServiceServer.GetAncestorPath),
		unary(MethodGetUploadParams, HierarchyServiceServer.GetUploadParams),
		unary(MethodPing, HierarchyServiceServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hierarchy.proto",
}

func RegisterHierarchyServiceServer(s grpc.ServiceRegistrar, srv HierarchyServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds the MethodDesc for fullMethod, decoding into Req and
// dispatching through the interceptor chain when one is installed.
func unary[Req, Resp any](fullMethod string, call func(HierarchyServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: fullMethod[len(ServiceName)+2:],
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(HierarchyServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(HierarchyServiceServer), ctx, req.(*Req))
			})
		},
	}
}
