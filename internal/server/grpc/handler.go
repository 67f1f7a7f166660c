package grpc

import (
	"context"
	"errors"

	api "github.com/dmitrijs2005/gophdrive/internal/api/hierarchy"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) CreateFolder(ctx context.Context, req *api.CreateFolderRequest) (*api.EntryResponse, error) {
	return s.entryCall(ctx, func(owner string) (*models.Entry, error) {
		return s.hierarchy.CreateFolder(ctx, owner, req.Name, req.ParentID)
	})
}

func (s *GRPCServer) CreateFile(ctx context.Context, req *api.CreateFileRequest) (*api.EntryResponse, error) {
	return s.entryCall(ctx, func(owner string) (*models.Entry, error) {
		return s.hierarchy.CreateFile(ctx, owner, req.Name, req.ParentID, toLocation(req.Location), req.Size, req.Kind)
	})
}

func (s *GRPCServer) Move(ctx context.Context, req *api.MoveRequest) (*api.EntryResponse, error) {
	return s.entryCall(ctx, func(owner string) (*models.Entry, error) {
		return s.hierarchy.Move(ctx, owner, req.EntryID, req.NewParentID)
	})
}

func (s *GRPCServer) Rename(ctx context.Context, req *api.RenameRequest) (*api.EntryResponse, error) {
	return s.entryCall(ctx, func(owner string) (*models.Entry, error) {
		return s.hierarchy.Rename(ctx, owner, req.EntryID, req.NewName)
	})
}

func (s *GRPCServer) SetStarred(ctx context.Context, req *api.SetFlagRequest) (*api.EntryResponse, error) {
	return s.entryCall(ctx, func(owner string) (*models.Entry, error) {
		return s.hierarchy.SetStarred(ctx, owner, req.EntryID, req.Value)
	})
}

func (s *GRPCServer) SetTrashed(ctx context.Context, req *api.SetFlagRequest) (*api.EntryResponse, error) {
	return s.entryCall(ctx, func(owner string) (*models.Entry, error) {
		return s.hierarchy.SetTrashed(ctx, owner, req.EntryID, req.Value)
	})
}

func (s *GRPCServer) ReplaceContent(ctx context.Context, req *api.ReplaceContentRequest) (*api.EntryResponse, error) {
	return s.entryCall(ctx, func(owner string) (*models.Entry, error) {
		return s.hierarchy.ReplaceContent(ctx, owner, req.EntryID, toLocation(req.Location), req.Size, req.Kind)
	})
}

func (s *GRPCServer) Delete(ctx context.Context, req *api.DeleteRequest) (*api.DeleteResponse, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.hierarchy.Delete(ctx, owner, req.EntryID, req.Cascade); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.DeleteResponse{}, nil
}

func (s *GRPCServer) ListChildren(ctx context.Context, req *api.ListChildrenRequest) (*api.EntriesResponse, error) {
	return s.entriesCall(ctx, func(owner string) ([]*models.Entry, error) {
		return s.hierarchy.ListChildren(ctx, owner, req.ParentID)
	})
}

func (s *GRPCServer) GetAncestorPath(ctx context.Context, req *api.GetAncestorPathRequest) (*api.EntriesResponse, error) {
	return s.entriesCall(ctx, func(owner string) ([]*models.Entry, error) {
		return s.hierarchy.GetAncestorPath(ctx, owner, req.EntryID)
	})
}

func (s *GRPCServer) GetUploadParams(ctx context.Context, req *api.GetUploadParamsRequest) (*api.GetUploadParamsResponse, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.uploads.UploadParams(ctx, owner)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.GetUploadParamsResponse{Key: t.Key, UploadURL: t.UploadURL, FileURL: t.FileURL, ExpiresAt: t.ExpiresAt}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) entryCall(ctx context.Context, fn func(owner string) (*models.Entry, error)) (*api.EntryResponse, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	e, err := fn(owner)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.EntryResponse{Entry: toAPIEntry(e)}, nil
}

func (s *GRPCServer) entriesCall(ctx context.Context, fn func(owner string) ([]*models.Entry, error)) (*api.EntriesResponse, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	list, err := fn(owner)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	out := make([]*api.Entry, 0, len(list))
	for _, e := range list {
		out = append(out, toAPIEntry(e))
	}
	return &api.EntriesResponse{Entries: out}, nil
}

// toStatus maps service errors onto gRPC codes. Integrity violations are
// checked first because they also match ErrorNotFound.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorIntegrityViolation):
		s.logger.Error(ctx, "data corruption", "error", err)
		return status.Error(codes.DataLoss, "hierarchy is corrupted")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "entry not found")
	case errors.Is(err, common.ErrorInvalidParent),
		errors.Is(err, common.ErrorInvalidName),
		errors.Is(err, common.ErrorInvalidLocation),
		errors.Is(err, common.ErrorInvalidSize),
		errors.Is(err, common.ErrorNotAFile):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorCycleDetected),
		errors.Is(err, common.ErrorFolderNotEmpty):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrorConflict):
		return status.Error(codes.Aborted, "concurrent modification, try again")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	default:
		s.logger.Error(ctx, "internal error", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func toLocation(l api.Location) models.Location {
	return models.Location{FileURL: l.FileURL, ThumbnailURL: l.ThumbnailURL}
}

func toAPIEntry(e *models.Entry) *api.Entry {
	return &api.Entry{
		ID:        e.ID,
		Name:      e.Name,
		Path:      e.Path,
		ParentID:  e.ParentID,
		IsFolder:  e.IsFolder,
		Location:  api.Location{FileURL: e.Location.FileURL, ThumbnailURL: e.Location.ThumbnailURL},
		Size:      e.Size,
		Kind:      e.Kind,
		IsStarred: e.IsStarred,
		IsTrashed: e.IsTrashed,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
