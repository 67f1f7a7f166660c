package cli

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"time"

	api "github.com/dmitrijs2005/gophdrive/internal/api/hierarchy"
	"github.com/dmitrijs2005/gophdrive/internal/client/config"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Drive is the server API the CLI talks to; *hierarchy.Client implements it.
type Drive interface {
	CreateFolder(ctx context.Context, in *api.CreateFolderRequest, opts ...grpc.CallOption) (*api.EntryResponse, error)
	CreateFile(ctx context.Context, in *api.CreateFileRequest, opts ...grpc.CallOption) (*api.EntryResponse, error)
	Move(ctx context.Context, in *api.MoveRequest, opts ...grpc.CallOption) (*api.EntryResponse, error)
	Rename(ctx context.Context, in *api.RenameRequest, opts ...grpc.CallOption) (*api.EntryResponse, error)
	SetStarred(ctx context.Context, in *api.SetFlagRequest, opts ...grpc.CallOption) (*api.EntryResponse, error)
	SetTrashed(ctx context.Context, in *api.SetFlagRequest, opts ...grpc.CallOption) (*api.EntryResponse, error)
	Delete(ctx context.Context, in *api.DeleteRequest, opts ...grpc.CallOption) (*api.DeleteResponse, error)
	ListChildren(ctx context.Context, in *api.ListChildrenRequest, opts ...grpc.CallOption) (*api.EntriesResponse, error)
	GetAncestorPath(ctx context.Context, in *api.GetAncestorPathRequest, opts ...grpc.CallOption) (*api.EntriesResponse, error)
	GetUploadParams(ctx context.Context, in *api.GetUploadParamsRequest, opts ...grpc.CallOption) (*api.GetUploadParamsResponse, error)
	Ping(ctx context.Context, in *api.PingRequest, opts ...grpc.CallOption) (*api.PingResponse, error)
}

type App struct {
	config *config.Config
	drive  Drive
	conn   io.Closer
	// cwd is the folder chain from the root to the current folder; empty at the root.
	cwd    []*api.Entry
	Mode   Mode
	input  *bufio.Scanner
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	conn, err := grpc.NewClient(c.ServerEndpointAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(accessTokenInterceptor(c.AccessToken)),
	)
	if err != nil {
		return nil, err
	}

	return &App{
		config: c,
		drive:  api.NewClient(conn),
		conn:   conn,
		input:  bufio.NewScanner(os.Stdin),
		out:    os.Stdout,
	}, nil
}

// accessTokenInterceptor attaches token to every outgoing call.
func accessTokenInterceptor(token string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if token != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, token)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (app *App) setMode(mode Mode) {
	if app.Mode != mode {
		app.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	log.Println("Welcome to GophDrive CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.input)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			_, err := a.drive.Ping(pingCtx, &api.PingRequest{})
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
