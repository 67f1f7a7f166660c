package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	api "github.com/dmitrijs2005/gophdrive/internal/api/hierarchy"
	"github.com/dmitrijs2005/gophdrive/internal/filex"
	"github.com/dmitrijs2005/gophdrive/internal/netx"
	"google.golang.org/grpc/status"
)

// uploadFn is a test seam for the blob-store PUT.
var uploadFn = netx.UploadToS3PresignedURL

var errUsage = errors.New("usage")

func (a *App) getStatus() string {
	s := "/"
	if len(a.cwd) > 0 {
		s = a.cwd[len(a.cwd)-1].Path
	}
	if a.Mode != "" {
		s = s + " " + string(a.Mode)
	}
	return fmt.Sprintf("(%s)", s)
}

// cwdID is the current folder id, nil at the root.
func (a *App) cwdID() *string {
	if len(a.cwd) == 0 {
		return nil
	}
	id := a.cwd[len(a.cwd)-1].ID
	return &id
}

// report prints err in a user-facing form and returns it.
func (a *App) report(err error) error {
	if errors.Is(err, errUsage) {
		fmt.Fprintln(a.out, err.Error())
		return err
	}
	if s, ok := status.FromError(err); ok {
		fmt.Fprintf(a.out, "error: %s (%s)\n", s.Message(), s.Code())
		return err
	}
	fmt.Fprintf(a.out, "error: %v\n", err)
	return err
}

func usage(text string) error {
	return fmt.Errorf("%w: %s", errUsage, text)
}

// folderArg turns "/" into the root (nil) and anything else into an id.
func folderArg(arg string) *string {
	if arg == "/" {
		return nil
	}
	return &arg
}

func (a *App) printEntry(e *api.Entry) {
	kind := "-"
	if e.IsFolder {
		kind = "d"
	}
	flags := ""
	if e.IsStarred {
		flags += "*"
	}
	if e.IsTrashed {
		flags += "T"
	}
	fmt.Fprintf(a.out, "%s %-2s %10d  %s  %s\n", kind, flags, e.Size, e.ID, e.Name)
}

func (a *App) List(ctx context.Context, args []string) error {
	parent := a.cwdID()
	if len(args) > 0 {
		parent = folderArg(args[0])
	}

	resp, err := a.drive.ListChildren(ctx, &api.ListChildrenRequest{ParentID: parent})
	if err != nil {
		return a.report(err)
	}
	if len(resp.Entries) == 0 {
		fmt.Fprintln(a.out, "(empty)")
	}
	for _, e := range resp.Entries {
		a.printEntry(e)
	}
	return nil
}

func (a *App) ChangeDir(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.report(usage("cd <id|..|/>"))
	}

	switch args[0] {
	case "/":
		a.cwd = nil
		return nil
	case "..":
		if len(a.cwd) > 0 {
			a.cwd = a.cwd[:len(a.cwd)-1]
		}
		return nil
	}

	resp, err := a.drive.GetAncestorPath(ctx, &api.GetAncestorPathRequest{EntryID: args[0]})
	if err != nil {
		return a.report(err)
	}
	if len(resp.Entries) == 0 {
		return a.report(fmt.Errorf("%s not found", args[0]))
	}
	target := resp.Entries[len(resp.Entries)-1]
	if !target.IsFolder {
		return a.report(fmt.Errorf("%s is not a folder", target.Name))
	}
	a.cwd = resp.Entries
	return nil
}

func (a *App) Path(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.report(usage("path <id>"))
	}
	resp, err := a.drive.GetAncestorPath(ctx, &api.GetAncestorPathRequest{EntryID: args[0]})
	if err != nil {
		return a.report(err)
	}
	names := make([]string, len(resp.Entries))
	for i, e := range resp.Entries {
		names[i] = e.Name
	}
	fmt.Fprintln(a.out, "/"+strings.Join(names, "/"))
	return nil
}

func (a *App) MakeDir(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.report(usage("mkdir <name>"))
	}
	resp, err := a.drive.CreateFolder(ctx, &api.CreateFolderRequest{Name: strings.Join(args, " "), ParentID: a.cwdID()})
	if err != nil {
		return a.report(err)
	}
	a.printEntry(resp.Entry)
	return nil
}

// Upload pushes a local file to the blob store and registers it in the
// current folder.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.report(usage("upload <file>"))
	}

	f, err := filex.Open(args[0])
	if err != nil {
		return a.report(err)
	}
	defer f.Close()

	ticket, err := a.drive.GetUploadParams(ctx, &api.GetUploadParamsRequest{})
	if err != nil {
		return a.report(err)
	}

	if err := uploadFn(ctx, ticket.UploadURL, f, f.Size, f.Kind); err != nil {
		return a.report(err)
	}

	resp, err := a.drive.CreateFile(ctx, &api.CreateFileRequest{
		Name:     f.Name,
		ParentID: a.cwdID(),
		Location: api.Location{FileURL: ticket.FileURL},
		Size:     f.Size,
		Kind:     f.Kind,
	})
	if err != nil {
		return a.report(err)
	}
	a.printEntry(resp.Entry)
	return nil
}

func (a *App) Move(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.report(usage("mv <id> <folder-id|/>"))
	}
	resp, err := a.drive.Move(ctx, &api.MoveRequest{EntryID: args[0], NewParentID: folderArg(args[1])})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, resp.Entry.Path)
	return nil
}

func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return a.report(usage("rename <id> <name>"))
	}
	resp, err := a.drive.Rename(ctx, &api.RenameRequest{EntryID: args[0], NewName: strings.Join(args[1:], " ")})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, resp.Entry.Path)
	return nil
}

func (a *App) Star(ctx context.Context, args []string, value bool) error {
	if len(args) != 1 {
		return a.report(usage("star|unstar <id>"))
	}
	resp, err := a.drive.SetStarred(ctx, &api.SetFlagRequest{EntryID: args[0], Value: value})
	if err != nil {
		return a.report(err)
	}
	a.printEntry(resp.Entry)
	return nil
}

func (a *App) Trash(ctx context.Context, args []string, value bool) error {
	if len(args) != 1 {
		return a.report(usage("trash|untrash <id>"))
	}
	resp, err := a.drive.SetTrashed(ctx, &api.SetFlagRequest{EntryID: args[0], Value: value})
	if err != nil {
		return a.report(err)
	}
	a.printEntry(resp.Entry)
	return nil
}

// Remove deletes an entry. With -r a folder goes with everything inside,
// after confirmation.
func (a *App) Remove(ctx context.Context, args []string) error {
	cascade := false
	if len(args) == 2 && args[0] == "-r" {
		cascade = true
		args = args[1:]
	}
	if len(args) != 1 {
		return a.report(usage("rm [-r] <id>"))
	}

	if cascade && !Confirm(a.input, "Delete "+args[0]+" and everything inside?", a.out) {
		fmt.Fprintln(a.out, "cancelled")
		return nil
	}

	if _, err := a.drive.Delete(ctx, &api.DeleteRequest{EntryID: args[0], Cascade: cascade}); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "deleted")
	return nil
}
