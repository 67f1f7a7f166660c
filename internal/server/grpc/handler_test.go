package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	api "github.com/dmitrijs2005/gophdrive/internal/api/hierarchy"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/auth"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const testSecret = "test-secret"

type fakeUploads struct {
	ticket *models.UploadTicket
	err    error
	owner  string
}

func (f *fakeUploads) UploadParams(ctx context.Context, ownerID string) (*models.UploadTicket, error) {
	f.owner = ownerID
	return f.ticket, f.err
}

// failingHierarchy returns err from every operation.
type failingHierarchy struct{ err error }

func (f failingHierarchy) CreateFolder(context.Context, string, string, *string) (*models.Entry, error) {
	return nil, f.err
}
func (f failingHierarchy) CreateFile(context.Context, string, string, *string, models.Location, int64, string) (*models.Entry, error) {
	return nil, f.err
}
func (f failingHierarchy) Move(context.Context, string, string, *string) (*models.Entry, error) {
	return nil, f.err
}
func (f failingHierarchy) Rename(context.Context, string, string, string) (*models.Entry, error) {
	return nil, f.err
}
func (f failingHierarchy) SetStarred(context.Context, string, string, bool) (*models.Entry, error) {
	return nil, f.err
}
func (f failingHierarchy) SetTrashed(context.Context, string, string, bool) (*models.Entry, error) {
	return nil, f.err
}
func (f failingHierarchy) ReplaceContent(context.Context, string, string, models.Location, int64, string) (*models.Entry, error) {
	return nil, f.err
}
func (f failingHierarchy) Delete(context.Context, string, string, bool) error { return f.err }
func (f failingHierarchy) ListChildren(context.Context, string, *string) ([]*models.Entry, error) {
	return nil, f.err
}
func (f failingHierarchy) GetAncestorPath(context.Context, string, string) ([]*models.Entry, error) {
	return nil, f.err
}

// startServer serves h and u over an in-memory listener and returns a client.
func startServer(t *testing.T, h Hierarchy, u Uploads) (*api.Client, *grpc.ClientConn) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer("bufnet", nopLogger{}, h, u, testSecret)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return api.NewClient(conn), conn
}

func authed(t *testing.T, userID string) context.Context {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, token)
}

func newHierarchy() *services.HierarchyService {
	return services.NewHierarchyService(repomanager.NewInMemoryRepositoryManager(), nil, nopLogger{})
}

func TestPing_WithoutToken(t *testing.T) {
	client, _ := startServer(t, newHierarchy(), &fakeUploads{})

	resp, err := client.Ping(context.Background(), &api.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)
}

func TestHealth_Serving(t *testing.T) {
	_, conn := startServer(t, newHierarchy(), &fakeUploads{})

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: api.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestUnauthenticatedCallsAreRejected(t *testing.T) {
	client, _ := startServer(t, newHierarchy(), &fakeUploads{})

	_, err := client.CreateFolder(context.Background(), &api.CreateFolderRequest{Name: "x"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.GetUploadParams(context.Background(), &api.GetUploadParamsRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestHierarchyRoundTrip(t *testing.T) {
	client, _ := startServer(t, newHierarchy(), &fakeUploads{})
	ctx := authed(t, "alice")

	docs, err := client.CreateFolder(ctx, &api.CreateFolderRequest{Name: "docs"})
	require.NoError(t, err)
	assert.Nil(t, docs.Entry.ParentID)
	assert.Equal(t, "/docs", docs.Entry.Path)

	archive, err := client.CreateFolder(ctx, &api.CreateFolderRequest{Name: "archive"})
	require.NoError(t, err)

	file, err := client.CreateFile(ctx, &api.CreateFileRequest{
		Name:     "report.pdf",
		ParentID: &docs.Entry.ID,
		Location: api.Location{FileURL: "https://blobs.example/drive/k"},
		Size:     1024,
		Kind:     "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "/docs/report.pdf", file.Entry.Path)
	assert.EqualValues(t, 1024, file.Entry.Size)

	moved, err := client.Move(ctx, &api.MoveRequest{EntryID: docs.Entry.ID, NewParentID: &archive.Entry.ID})
	require.NoError(t, err)
	assert.Equal(t, "/archive/docs", moved.Entry.Path)

	path, err := client.GetAncestorPath(ctx, &api.GetAncestorPathRequest{EntryID: file.Entry.ID})
	require.NoError(t, err)
	require.Len(t, path.Entries, 3)
	assert.Equal(t, "/archive/docs/report.pdf", path.Entries[2].Path)

	renamed, err := client.Rename(ctx, &api.RenameRequest{EntryID: file.Entry.ID, NewName: "final.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "/archive/docs/final.pdf", renamed.Entry.Path)

	starred, err := client.SetStarred(ctx, &api.SetFlagRequest{EntryID: file.Entry.ID, Value: true})
	require.NoError(t, err)
	assert.True(t, starred.Entry.IsStarred)

	trashed, err := client.SetTrashed(ctx, &api.SetFlagRequest{EntryID: archive.Entry.ID, Value: true})
	require.NoError(t, err)
	assert.True(t, trashed.Entry.IsTrashed)

	replaced, err := client.ReplaceContent(ctx, &api.ReplaceContentRequest{
		EntryID:  file.Entry.ID,
		Location: api.Location{FileURL: "https://blobs.example/drive/k2"},
		Size:     2048,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://blobs.example/drive/k2", replaced.Entry.Location.FileURL)

	list, err := client.ListChildren(ctx, &api.ListChildrenRequest{ParentID: &docs.Entry.ID})
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "final.pdf", list.Entries[0].Name)

	other, err := client.ListChildren(authed(t, "bob"), &api.ListChildrenRequest{})
	require.NoError(t, err)
	assert.Empty(t, other.Entries)

	_, err = client.Delete(ctx, &api.DeleteRequest{EntryID: archive.Entry.ID})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.Delete(ctx, &api.DeleteRequest{EntryID: archive.Entry.ID, Cascade: true})
	require.NoError(t, err)

	roots, err := client.ListChildren(ctx, &api.ListChildrenRequest{})
	require.NoError(t, err)
	assert.Empty(t, roots.Entries)
}

func TestServiceErrorsMapToCodes(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{common.ErrorNotFound, codes.NotFound},
		{fmt.Errorf("%w: x", common.ErrorInvalidParent), codes.InvalidArgument},
		{common.ErrorInvalidName, codes.InvalidArgument},
		{common.ErrorInvalidLocation, codes.InvalidArgument},
		{common.ErrorInvalidSize, codes.InvalidArgument},
		{common.ErrorNotAFile, codes.InvalidArgument},
		{common.ErrorCycleDetected, codes.FailedPrecondition},
		{common.ErrorFolderNotEmpty, codes.FailedPrecondition},
		{fmt.Errorf("%w: retries exhausted", common.ErrorConflict), codes.Aborted},
		{fmt.Errorf("%w: %w", common.ErrorIntegrityViolation, common.ErrorNotFound), codes.DataLoss},
		{errors.New("db down"), codes.Internal},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			client, _ := startServer(t, failingHierarchy{err: tc.err}, &fakeUploads{err: tc.err})
			ctx := authed(t, "alice")

			_, err := client.Move(ctx, &api.MoveRequest{EntryID: "e"})
			assert.Equal(t, tc.want, status.Code(err))

			_, err = client.Delete(ctx, &api.DeleteRequest{EntryID: "e"})
			assert.Equal(t, tc.want, status.Code(err))

			_, err = client.GetAncestorPath(ctx, &api.GetAncestorPathRequest{EntryID: "e"})
			assert.Equal(t, tc.want, status.Code(err))

			_, err = client.GetUploadParams(ctx, &api.GetUploadParamsRequest{})
			assert.Equal(t, tc.want, status.Code(err))
		})
	}
}

func TestGetUploadParams(t *testing.T) {
	expires := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	uploads := &fakeUploads{ticket: &models.UploadTicket{
		Key:       "users/alice/2025/05/01/k",
		UploadURL: "http://signed/put",
		FileURL:   "http://blobs/drive/users/alice/2025/05/01/k",
		ExpiresAt: expires,
	}}
	client, _ := startServer(t, newHierarchy(), uploads)

	resp, err := client.GetUploadParams(authed(t, "alice"), &api.GetUploadParamsRequest{})
	require.NoError(t, err)
	assert.Equal(t, "alice", uploads.owner)
	assert.Equal(t, "http://signed/put", resp.UploadURL)
	assert.Equal(t, uploads.ticket.FileURL, resp.FileURL)
	assert.True(t, expires.Equal(resp.ExpiresAt))
}
