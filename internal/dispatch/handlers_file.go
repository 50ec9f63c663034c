package dispatch

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/schema"
	"github.com/stlalpha/wired/internal/vfs"
)

// previewBytes caps how much of a file file.preview_file returns, per
// spec.md §4.4's "preview" being a bounded excerpt, not the whole file.
const previewBytes = 4096

func readPreview(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vfs.ErrFileNotFound
		}
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, previewBytes)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

func init() {
	register("file.list_directory", connuser.StageLoggedIn, handleListDirectory)
	register("file.get_info", connuser.StageLoggedIn, handleGetFileInfo)
	register("file.move", connuser.StageLoggedIn, handleMoveFile)
	register("file.link", connuser.StageLoggedIn, handleLinkFile)
	register("file.set_type", connuser.StageLoggedIn, handleSetFileType)
	register("file.set_comment", connuser.StageLoggedIn, handleSetFileComment)
	register("file.set_executable", connuser.StageLoggedIn, handleSetFileExecutable)
	register("file.set_permissions", connuser.StageLoggedIn, handleSetFilePermissions)
	register("file.set_label", connuser.StageLoggedIn, handleSetFileLabel)
	register("file.delete", connuser.StageLoggedIn, handleDeleteFile)
	register("file.create_directory", connuser.StageLoggedIn, handleCreateDirectory)
	register("file.search", connuser.StageLoggedIn, handleSearchFiles)
	register("file.preview_file", connuser.StageLoggedIn, handlePreviewFile)
	register("file.subscribe_directory", connuser.StageLoggedIn, handleSubscribeDirectory)
	register("file.unsubscribe_directory", connuser.StageLoggedIn, handleUnsubscribeDirectory)
}

// realPath resolves a client-supplied virtual path against the
// caller's own account sub-root, per spec.md §4.4.
func realPath(svc *Services, u *connuser.User, virtualPath string) (string, error) {
	acc := u.GetAccount()
	subRoot := ""
	if acc != nil {
		subRoot = acc.FilesRoot
	}
	return svc.FS.Resolve(subRoot, virtualPath)
}

func requireFilePrivilege(ok bool) error {
	if !ok {
		return account.ErrPermissionDenied
	}
	return nil
}

func handleListDirectory(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.ListFiles); err != nil {
		return nil, err
	}
	vpath, _ := msg.String("file.path")
	dir, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	entries, err := svc.FS.ListDirectory(dir, u.AccountName(), u.Groups())
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	reply := schema.NewMessage("file.list_directory")
	reply.SetList("file.path", paths)
	return reply, nil
}

func handleGetFileInfo(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.ListFiles); err != nil {
		return nil, err
	}
	vpath, _ := msg.String("file.path")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	entry, err := svc.FS.GetInfo(p, u.AccountName(), u.Groups())
	if err != nil {
		return nil, err
	}
	reply := schema.NewMessage("file.get_info")
	reply.SetString("file.path", entry.Path)
	reply.SetInt32("file.type", int32(entry.Type))
	reply.SetInt64("file.data_size", entry.DataSize)
	reply.SetInt64("file.rsrc_size", entry.RsrcSize)
	reply.SetBool("file.executable", entry.Executable)
	reply.SetString("file.comment", entry.Comment)
	reply.SetInt32("file.label", int32(entry.Label))
	reply.SetBool("file.readable", entry.Readable)
	reply.SetBool("file.writable", entry.Writable)
	reply.SetDate("date.creation", entry.CreationTime)
	reply.SetDate("date.modification", entry.ModTime)
	return reply, nil
}

func handleMoveFile(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.MoveFiles); err != nil {
		return nil, err
	}
	oldV, _ := msg.String("file.path")
	newV, _ := msg.String("file.new_path")
	oldP, err := realPath(svc, u, oldV)
	if err != nil {
		return nil, err
	}
	newP, err := realPath(svc, u, newV)
	if err != nil {
		return nil, err
	}
	if err := svc.FS.Move(oldP, newP); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleLinkFile(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.CreateLinks); err != nil {
		return nil, err
	}
	targetV, _ := msg.String("file.path")
	newV, _ := msg.String("file.new_path")
	targetP, err := realPath(svc, u, targetV)
	if err != nil {
		return nil, err
	}
	newP, err := realPath(svc, u, newV)
	if err != nil {
		return nil, err
	}
	if err := svc.FS.Link(targetP, newP); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleSetFileType(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.WriteFiles); err != nil {
		return nil, err
	}
	vpath, _ := msg.String("file.path")
	t, _ := msg.Int32("file.type")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	if err := svc.FS.SetType(filepath.Dir(p), filepath.Base(p), vfs.EntryType(t)); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleSetFileComment(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.WriteFiles); err != nil {
		return nil, err
	}
	vpath, _ := msg.String("file.path")
	comment, _ := msg.String("file.comment")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	if err := svc.FS.SetComment(filepath.Dir(p), filepath.Base(p), comment); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleSetFileExecutable(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.WriteFiles); err != nil {
		return nil, err
	}
	vpath, _ := msg.String("file.path")
	executable, _ := msg.Bool("file.executable")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	mode := os.FileMode(0644)
	if executable {
		mode = 0755
	}
	if err := os.Chmod(p, mode); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleSetFilePermissions(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.AlterDropBoxes); err != nil {
		return nil, err
	}
	vpath, _ := msg.String("file.path")
	owner, _ := msg.String("file.owner")
	group, _ := msg.String("file.group")
	mode, _ := msg.Int32("file.permissions.mode")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	if err := svc.FS.SetPermissions(p, vfs.Permissions{Owner: owner, Group: group, Mode: mode}); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleSetFileLabel(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.WriteFiles); err != nil {
		return nil, err
	}
	vpath, _ := msg.String("file.path")
	label, _ := msg.Int32("file.label")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	if err := svc.FS.SetLabel(filepath.Dir(p), filepath.Base(p), int(label)); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleDeleteFile(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.DeleteFiles); err != nil {
		return nil, err
	}
	vpath, _ := msg.String("file.path")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	if err := svc.FS.Delete(p); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleCreateDirectory(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.CreateDirectories); err != nil {
		return nil, err
	}
	vpath, _ := msg.String("file.path")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	if err := svc.FS.CreateDirectory(p, vfs.TypeDir); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleSearchFiles(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.ListFiles); err != nil {
		return nil, err
	}
	query, _ := msg.String("file.path")
	subRoot := ""
	if acc != nil {
		subRoot = acc.FilesRoot
	}
	rows, err := svc.Index.Search(query, subRoot)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, r := range rows {
		paths = append(paths, r.VirtualPath)
	}
	reply := schema.NewMessage("file.search")
	reply.SetList("file.path", paths)
	return reply, nil
}

func handlePreviewFile(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if err := requireFilePrivilege(acc != nil && acc.Privileges.ReadFiles); err != nil {
		return nil, err
	}
	vpath, _ := msg.String("file.path")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	data, err := readPreview(p)
	if err != nil {
		return nil, err
	}
	reply := schema.NewMessage("file.preview_file")
	reply.SetBytes("file.preview", data)
	return reply, nil
}

func handleSubscribeDirectory(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	vpath, _ := msg.String("file.path")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	if err := svc.Watcher.Subscribe(p); err != nil {
		return nil, err
	}
	u.WatchDirectory(p)
	return okayMessage(), nil
}

func handleUnsubscribeDirectory(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	vpath, _ := msg.String("file.path")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	svc.Watcher.Unsubscribe(p)
	u.UnwatchDirectory(p)
	return okayMessage(), nil
}
