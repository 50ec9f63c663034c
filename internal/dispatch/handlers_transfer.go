package dispatch

import (
	"os"

	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/schema"
	"github.com/stlalpha/wired/internal/transfer"
	"github.com/stlalpha/wired/internal/vfs"
)

func init() {
	register("transfer.download_file", connuser.StageLoggedIn, handleDownloadFile)
	register("transfer.upload_file", connuser.StageLoggedIn, handleUploadFile)
	register("transfer.upload_directory", connuser.StageLoggedIn, handleUploadDirectory)
	register("transfer.queue", connuser.StageLoggedIn, handleTransferQueue)
	register("transfer.download", connuser.StageLoggedIn, handleTransferDownload)
	register("transfer.upload_ready", connuser.StageLoggedIn, handleTransferUploadReady)
	register("transfer.upload", connuser.StageLoggedIn, handleTransferUpload)
}

func handleDownloadFile(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.Download {
		return nil, account.ErrPermissionDenied
	}
	vpath, _ := msg.String("file.path")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vfs.ErrFileNotFound
		}
		return nil, err
	}
	t := &transfer.Transfer{
		Type:        transfer.Download,
		Login:       u.AccountName(),
		IP:          u.RemoteIP,
		VirtualPath: vpath,
		RealPath:    p,
		DataSize:    info.Size(),
		Speed:       svc.DefaultDownloadSpeedLimit,
		Limiter:     transfer.NewRateLimiter(svc.DefaultDownloadSpeedLimit),
	}
	svc.Transfers.Enqueue(t)
	u.SetPendingTransfer(t)

	reply := schema.NewMessage("transfer.download_file")
	reply.SetInt64("file.data_size", t.DataSize)
	reply.SetInt32("transfer.queue_position", int32(t.QueuePos))
	return reply, nil
}

func handleUploadFile(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.Upload {
		return nil, account.ErrPermissionDenied
	}
	vpath, _ := msg.String("file.path")
	dataSize, _ := msg.Int64("file.data_size")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	t := &transfer.Transfer{
		Type:        transfer.Upload,
		Login:       u.AccountName(),
		IP:          u.RemoteIP,
		VirtualPath: vpath,
		RealPath:    p,
		DataSize:    dataSize,
		Speed:       svc.DefaultUploadSpeedLimit,
		Limiter:     transfer.NewRateLimiter(svc.DefaultUploadSpeedLimit),
	}
	svc.Transfers.Enqueue(t)
	u.SetPendingTransfer(t)

	reply := schema.NewMessage("transfer.upload_file")
	reply.SetInt32("transfer.queue_position", int32(t.QueuePos))
	if resumed := transfer.PartialSize(p); resumed > 0 {
		reply.SetInt64("transfer.data_offset", resumed)
	}
	return reply, nil
}

func handleUploadDirectory(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.Upload {
		return nil, account.ErrPermissionDenied
	}
	vpath, _ := msg.String("file.path")
	p, err := realPath(svc, u, vpath)
	if err != nil {
		return nil, err
	}
	if err := svc.FS.CreateDirectory(p, vfs.TypeUploads); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

// handleTransferQueue reports, in transfer.queue_position, the queue
// position of the first transfer tracked under this user's login+IP
// key, per spec.md §4.6. Later transfers under the key are not
// reported, no size is sent, and the field is left unset when the key
// has no transfers.
func handleTransferQueue(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	key := u.AccountName() + u.RemoteIP
	snap := svc.Transfers.Snapshot(key)
	reply := schema.NewMessage("transfer.queue")
	if len(snap) > 0 {
		reply.SetInt32("transfer.queue_position", int32(snap[0].QueuePos))
	}
	return reply, nil
}

// handleTransferDownload is the client's "start sending bytes now"
// signal once its queued download reaches position 0; spec.md §4.6
// has the raw data stream ride the same connection starting at this
// point. This handler only seeds the resume offset and waits for the
// queue; internal/session drives the actual OOB byte relay against
// the Transfer this handler leaves pinned on u once it sees this
// reply go out, and owns dequeuing it when the relay finishes.
func handleTransferDownload(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	t := u.GetPendingTransfer()
	if t == nil {
		return nil, transferNotFound()
	}
	offset, _ := msg.Int64("transfer.data_offset")
	t.AddBytes(offset, 0)
	if !t.Wait(nil) {
		return nil, transferNotFound()
	}
	return okayMessage(), nil
}

func handleTransferUploadReady(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	t := u.GetPendingTransfer()
	if t == nil {
		return nil, transferNotFound()
	}
	if !t.Wait(nil) {
		return nil, transferNotFound()
	}
	return okayMessage(), nil
}

// handleTransferUpload is the client's "here come the bytes" signal
// following upload_ready; internal/session reads the raw OOB bytes
// that follow this reply straight off the wire into the partial file,
// completing the upload, recording the account's transfer counters,
// and dequeuing the transfer once the relay finishes.
func handleTransferUpload(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	if u.GetPendingTransfer() == nil {
		return nil, transferNotFound()
	}
	return okayMessage(), nil
}

func transferNotFound() error {
	return vfs.ErrFileNotFound
}
