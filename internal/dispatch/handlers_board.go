package dispatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/stlalpha/wired/internal/account"
	"github.com/stlalpha/wired/internal/board"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/schema"
	"github.com/stlalpha/wired/internal/store"
)

func init() {
	register("board.get_boards", connuser.StageLoggedIn, handleGetBoards)
	register("board.get_threads", connuser.StageLoggedIn, handleGetThreads)
	register("board.get_thread", connuser.StageLoggedIn, handleGetThread)
	register("board.add_board", connuser.StageLoggedIn, handleAddBoard)
	register("board.rename_board", connuser.StageLoggedIn, handleRenameBoard)
	register("board.move_board", connuser.StageLoggedIn, handleMoveBoard)
	register("board.delete_board", connuser.StageLoggedIn, handleDeleteBoard)
	register("board.get_board_info", connuser.StageLoggedIn, handleGetBoardInfo)
	register("board.set_board_info", connuser.StageLoggedIn, handleSetBoardInfo)
	register("board.add_thread", connuser.StageLoggedIn, handleAddThread)
	register("board.edit_thread", connuser.StageLoggedIn, handleEditThread)
	register("board.move_thread", connuser.StageLoggedIn, handleMoveThread)
	register("board.delete_thread", connuser.StageLoggedIn, handleDeleteThread)
	register("board.add_post", connuser.StageLoggedIn, handleAddPost)
	register("board.edit_post", connuser.StageLoggedIn, handleEditPost)
	register("board.delete_post", connuser.StageLoggedIn, handleDeletePost)
	register("board.subscribe_boards", connuser.StageLoggedIn, handleSubscribeBoards)
	register("board.unsubscribe_boards", connuser.StageLoggedIn, handleUnsubscribeBoards)
}

func handleGetBoards(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	boards, err := svc.Boards.VisibleBoards(u.AccountName(), u.Groups())
	if err != nil {
		return nil, err
	}
	var names []string
	for _, b := range boards {
		names = append(names, b.Name)
	}
	reply := schema.NewMessage("board.get_boards")
	reply.SetList("board.board", names)
	return reply, nil
}

func handleGetThreads(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	name, _ := msg.String("board.board")
	if err := requireReadBoard(svc, u, name); err != nil {
		return nil, err
	}
	threads, err := svc.Boards.GetThreads(name)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, t := range threads {
		ids = append(ids, t.ID.String())
	}
	reply := schema.NewMessage("board.get_threads")
	reply.SetList("thread.id", ids)
	return reply, nil
}

func handleGetThread(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	name, _ := msg.String("board.board")
	if err := requireReadBoard(svc, u, name); err != nil {
		return nil, err
	}
	idStr, _ := msg.String("thread.id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fieldError("thread.id")
	}
	th, posts, err := svc.Boards.GetThread(id)
	if err != nil {
		return nil, err
	}
	var postIDs []string
	for _, p := range posts {
		postIDs = append(postIDs, p.ID.String())
	}
	reply := schema.NewMessage("board.get_thread")
	reply.SetString("thread.id", th.ID.String())
	reply.SetString("thread.subject", th.Subject)
	reply.SetString("thread.text", th.Body)
	reply.SetList("post.id", postIDs)
	return reply, nil
}

func handleAddBoard(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.AddBoards {
		return nil, account.ErrPermissionDenied
	}
	name, _ := msg.String("board.board")
	if err := svc.Boards.AddBoard(name, acc.Name, acc.Group, board.ModeOtherRead|board.ModeOtherWrite); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleRenameBoard(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.RenameBoards {
		return nil, account.ErrPermissionDenied
	}
	name, _ := msg.String("board.board")
	newName, _ := msg.String("board.new_name")
	if err := svc.Boards.RenameBoard(name, newName); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleMoveBoard(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.MoveBoards {
		return nil, account.ErrPermissionDenied
	}
	name, _ := msg.String("board.board")
	newName, _ := msg.String("board.new_name")
	if err := svc.Boards.MoveBoard(name, newName); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleDeleteBoard(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.DeleteBoards {
		return nil, account.ErrPermissionDenied
	}
	name, _ := msg.String("board.board")
	if err := svc.Boards.DeleteBoard(name); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleGetBoardInfo(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	name, _ := msg.String("board.board")
	if err := requireReadBoard(svc, u, name); err != nil {
		return nil, err
	}
	boards, err := svc.Boards.VisibleBoards(u.AccountName(), u.Groups())
	if err != nil {
		return nil, err
	}
	for _, b := range boards {
		if b.Name == name {
			reply := schema.NewMessage("board.get_board_info")
			reply.SetString("board.board", b.Name)
			reply.SetString("board.owner", b.Owner)
			reply.SetString("board.group", b.Group)
			reply.SetInt32("board.permissions.mode", b.Mode)
			return reply, nil
		}
	}
	return nil, board.ErrPermissionDenied
}

func handleSetBoardInfo(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.EditAllThreadsAndPosts {
		return nil, account.ErrPermissionDenied
	}
	name, _ := msg.String("board.board")
	owner, _ := msg.String("board.owner")
	group, _ := msg.String("board.group")
	mode, _ := msg.Int32("board.permissions.mode")
	if err := svc.Boards.SetBoardInfo(name, owner, group, mode); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleAddThread(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	name, _ := msg.String("board.board")
	if err := requireWriteBoard(svc, u, name); err != nil {
		return nil, err
	}
	subject, _ := msg.String("thread.subject")
	text, _ := msg.String("thread.text")
	row := &store.ThreadRow{
		ID:           uuid.New(),
		Board:        name,
		Subject:      subject,
		Body:         text,
		CreationTime: time.Now(),
		AuthorNick:   u.Nick,
		AuthorLogin:  u.AccountName(),
		AuthorIP:     u.RemoteIP,
	}
	if err := svc.Boards.AddThread(row); err != nil {
		return nil, err
	}
	reply := schema.NewMessage("board.add_thread")
	reply.SetString("thread.id", row.ID.String())
	return reply, nil
}

func handleEditThread(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	idStr, _ := msg.String("thread.id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fieldError("thread.id")
	}
	subject, _ := msg.String("thread.subject")
	text, _ := msg.String("thread.text")
	editAll := acc != nil && acc.Privileges.EditAllThreadsAndPosts
	if err := svc.Boards.EditThread(id, u.AccountName(), editAll, subject, text); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleMoveThread(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	if acc == nil || !acc.Privileges.MoveBoards {
		return nil, account.ErrPermissionDenied
	}
	idStr, _ := msg.String("thread.id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fieldError("thread.id")
	}
	newBoard, _ := msg.String("board.new_name")
	if err := svc.Boards.MoveThread(id, newBoard); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleDeleteThread(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	idStr, _ := msg.String("thread.id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fieldError("thread.id")
	}
	editAll := acc != nil && acc.Privileges.EditAllThreadsAndPosts
	if err := svc.Boards.DeleteThread(id, u.AccountName(), editAll); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleAddPost(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	name, _ := msg.String("board.board")
	if err := requireWriteBoard(svc, u, name); err != nil {
		return nil, err
	}
	threadIDStr, _ := msg.String("thread.id")
	threadID, err := uuid.Parse(threadIDStr)
	if err != nil {
		return nil, fieldError("thread.id")
	}
	text, _ := msg.String("post.text")
	row := &store.PostRow{
		ID:           uuid.New(),
		Thread:       threadID,
		Body:         text,
		CreationTime: time.Now(),
		AuthorNick:   u.Nick,
		AuthorLogin:  u.AccountName(),
		AuthorIP:     u.RemoteIP,
	}
	if err := svc.Boards.AddPost(row); err != nil {
		return nil, err
	}
	reply := schema.NewMessage("board.add_post")
	reply.SetString("post.id", row.ID.String())
	return reply, nil
}

func handleEditPost(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	idStr, _ := msg.String("post.id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fieldError("post.id")
	}
	text, _ := msg.String("post.text")
	editAll := acc != nil && acc.Privileges.EditAllThreadsAndPosts
	if err := svc.Boards.EditPost(id, u.AccountName(), editAll, u.AccountName(), text); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleDeletePost(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	acc := u.GetAccount()
	idStr, _ := msg.String("post.id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fieldError("post.id")
	}
	editAll := acc != nil && acc.Privileges.EditAllThreadsAndPosts
	if err := svc.Boards.DeletePost(id, u.AccountName(), editAll); err != nil {
		return nil, err
	}
	return okayMessage(), nil
}

func handleSubscribeBoards(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	u.SetBoardsSubscribed(true)
	return okayMessage(), nil
}

func handleUnsubscribeBoards(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	u.SetBoardsSubscribed(false)
	return okayMessage(), nil
}

func requireReadBoard(svc *Services, u *connuser.User, name string) error {
	boards, err := svc.Boards.VisibleBoards(u.AccountName(), u.Groups())
	if err != nil {
		return err
	}
	for _, b := range boards {
		if b.Name == name {
			return nil
		}
	}
	return board.ErrPermissionDenied
}

func requireWriteBoard(svc *Services, u *connuser.User, name string) error {
	acc := u.GetAccount()
	if acc != nil && acc.Privileges.EditAllThreadsAndPosts {
		return nil
	}
	boards, err := svc.Boards.VisibleBoards(u.AccountName(), u.Groups())
	if err != nil {
		return err
	}
	for _, b := range boards {
		if b.Name == name {
			if b.ACL().CanWrite(u.AccountName(), u.Groups()) {
				return nil
			}
			return board.ErrPermissionDenied
		}
	}
	return board.ErrPermissionDenied
}
