package schema

// New builds the Wired P7 schema: every field and message family spec.md
// §6 names as a stable wire contract. Field ids are assigned densely;
// they have no meaning beyond uniqueness within this process, unlike the
// original wired.xml where they are a durable cross-version contract —
// this server is both ends of its own wire so that stability isn't load
// bearing here.
func New() *Schema {
	s := &Schema{
		Name:     "wired",
		Version:  "1.1",
		Fields:   make(map[string]*FieldSpec),
		Messages: make(map[string]*MessageSpec),
	}

	id := idGen()

	str := func(name string) { s.RegisterField(&FieldSpec{Name: name, ID: id(), Type: TypeString}) }
	i32 := func(name string) { s.RegisterField(&FieldSpec{Name: name, ID: id(), Type: TypeInt32}) }
	u32 := func(name string) { s.RegisterField(&FieldSpec{Name: name, ID: id(), Type: TypeUint32}) }
	i64 := func(name string) { s.RegisterField(&FieldSpec{Name: name, ID: id(), Type: TypeInt64}) }
	bl := func(name string) { s.RegisterField(&FieldSpec{Name: name, ID: id(), Type: TypeBool}) }
	dt := func(name string) { s.RegisterField(&FieldSpec{Name: name, ID: id(), Type: TypeDate}) }
	ls := func(name string) { s.RegisterField(&FieldSpec{Name: name, ID: id(), Type: TypeList}) }
	by := func(name string) { s.RegisterField(&FieldSpec{Name: name, ID: id(), Type: TypeBytes}) }
	en := func(name string, values map[string]int32) {
		s.RegisterField(&FieldSpec{Name: name, ID: id(), Type: TypeEnum, Enum: values})
	}

	// Handshake / session
	str("wired.application.name")
	str("wired.application.version")
	str("wired.protocol.name")
	str("wired.protocol.version")
	str("wired.info.name")
	str("wired.info.description")
	ls("wired.compression.supported")
	ls("wired.compression.selected")
	ls("wired.encryption.cipher.supported")
	str("wired.encryption.cipher.selected")
	by("wired.encryption.public_key")
	by("wired.encryption.username")
	by("wired.encryption.client_password")
	by("wired.encryption.server_password")
	by("wired.encryption.session_key")
	by("wired.encryption.iv")
	ls("wired.checksum.supported")
	str("wired.checksum.selected")
	str("wired.login")
	str("wired.password")
	bl("wired.ping")
	en("wired.error", map[string]int32{
		"permission_denied":         1,
		"login_failed":              2,
		"user_not_found":            3,
		"user_cannot_be_disconnected": 4,
		"already_on_chat":           5,
		"not_on_chat":               6,
		"not_invited_to_chat":       7,
		"chat_not_found":            8,
		"board_not_found":           9,
		"board_exists":              10,
		"thread_not_found":          11,
		"post_not_found":            12,
		"file_not_found":            13,
		"file_exists":               14,
		"account_not_found":         15,
		"account_exists":            16,
		"account_in_use":            17,
		"ban_exists":                18,
		"ban_not_found":             19,
		"tracker_not_enabled":       20,
		"not_registered":            21,
		"invalid_message":           22,
		"message_out_of_sequence":   23,
		"already_subscribed":        24,
		"not_subscribed":            25,
		"unrecognized_message":      26,
		"internal_error":            27,
		"rsrc_not_supported":        28,
	})

	// User / session
	u32("user.id")
	str("user.nick")
	str("user.status")
	by("user.icon")
	i32("user.color")
	bl("user.idle")
	str("user.login")
	str("user.ip")
	str("user.host")
	bl("user.is_admin")
	dt("user.login_time")
	dt("user.idle_time")

	// Chat
	u32("chat.id")
	str("chat.topic.text")
	dt("chat.topic.time")
	str("chat.topic.nick")
	str("chat.topic.login")
	str("chat.topic.ip")
	str("chat.say")
	str("chat.me")

	// Messages (private)
	str("message.message")
	ls("message.broadcast")

	// Board / thread / post
	str("board.board")
	str("board.new_name")
	str("board.owner")
	str("board.group")
	i32("board.permissions.mode")
	str("thread.id")
	str("thread.subject")
	str("thread.text")
	str("post.id")
	str("post.text")
	dt("date.creation")
	dt("date.modification")

	// Files
	str("file.path")
	str("file.new_path")
	i32("file.type")
	i64("file.data_size")
	i64("file.rsrc_size")
	bl("file.executable")
	str("file.comment")
	i32("file.label")
	str("file.owner")
	str("file.group")
	i32("file.permissions.mode")
	bl("file.readable")
	bl("file.writable")
	by("file.preview")

	// Transfers
	i64("transfer.data_offset")
	i64("transfer.rsrc_offset")
	i32("transfer.queue_position")
	by("transfer.metadata")

	// Accounts
	str("account.name")
	str("account.new_name")
	str("account.full_name")
	str("account.comment")
	str("account.group")
	ls("account.groups")
	str("account.password")
	i32("account.color")
	bl("account.disconnect_users")
	by("account.privileges")
	bl("account.is_group")

	// Log / events
	str("log.line")
	str("event.name")
	ls("event.parameters")
	dt("event.time")

	// Banlist
	str("banlist.ip")
	dt("banlist.expiration")

	// Tracker
	str("tracker.name")
	str("tracker.description")
	str("tracker.category")
	u32("tracker.port")
	u32("tracker.users")
	u32("tracker.files")
	i64("tracker.size")

	// --- Messages ---

	s.RegisterMessage("client_info", []string{"wired.application.name", "wired.application.version"},
		"wired.compression.supported", "wired.encryption.cipher.supported", "wired.checksum.supported")
	s.RegisterMessage("server_info", []string{"wired.info.name", "wired.info.description"},
		"wired.compression.selected", "wired.encryption.cipher.selected", "wired.checksum.selected",
		"wired.encryption.public_key")
	s.RegisterMessage("send_login", []string{"wired.login", "wired.password"},
		"wired.encryption.session_key", "wired.encryption.iv")
	s.RegisterMessage("login", []string{"user.id"})
	s.RegisterMessage("banned", nil, "wired.error")
	s.RegisterMessage("send_ping", nil)
	s.RegisterMessage("ping", nil)

	s.RegisterMessage("user.set_nick", []string{"user.nick"})
	s.RegisterMessage("user.set_status", []string{"user.status"})
	s.RegisterMessage("user.set_icon", []string{"user.icon"})
	s.RegisterMessage("user.set_idle", []string{"user.idle"})
	s.RegisterMessage("user.get_info", []string{"user.id"})
	s.RegisterMessage("user.get_users", []string{"chat.id"})
	s.RegisterMessage("user.disconnect_user", []string{"user.id"})
	s.RegisterMessage("user.ban_user", []string{"user.id"})

	s.RegisterMessage("chat.join_chat", []string{"chat.id"})
	s.RegisterMessage("chat.leave_chat", []string{"chat.id"})
	s.RegisterMessage("chat.set_topic", []string{"chat.id", "chat.topic.text"})
	s.RegisterMessage("chat.user_list", []string{"chat.id", "user.id", "user.nick", "user.login"},
		"user.status", "user.icon", "user.color", "user.idle", "user.ip")
	s.RegisterMessage("chat.user_list.done", []string{"chat.id"})
	s.RegisterMessage("chat.topic", []string{"chat.id"},
		"chat.topic.text", "chat.topic.time", "chat.topic.nick", "chat.topic.login", "chat.topic.ip")
	s.RegisterMessage("chat.send_say", []string{"chat.id", "chat.say"})
	s.RegisterMessage("chat.send_me", []string{"chat.id", "chat.me"})
	s.RegisterMessage("chat.create_chat", nil)
	s.RegisterMessage("chat.invite_user", []string{"chat.id", "user.id"})
	s.RegisterMessage("chat.decline_invitation", []string{"chat.id"})
	s.RegisterMessage("chat.kick_user", []string{"chat.id", "user.id"})

	s.RegisterMessage("message.send_message", []string{"user.id", "message.message"})
	s.RegisterMessage("message.send_broadcast", []string{"message.message"})

	s.RegisterMessage("board.get_boards", nil)
	s.RegisterMessage("board.get_threads", []string{"board.board"})
	s.RegisterMessage("board.get_thread", []string{"board.board", "thread.id"})
	s.RegisterMessage("board.add_board", []string{"board.board"})
	s.RegisterMessage("board.rename_board", []string{"board.board", "board.new_name"})
	s.RegisterMessage("board.move_board", []string{"board.board", "board.new_name"})
	s.RegisterMessage("board.delete_board", []string{"board.board"})
	s.RegisterMessage("board.get_board_info", []string{"board.board"})
	s.RegisterMessage("board.set_board_info", []string{"board.board"})
	s.RegisterMessage("board.add_thread", []string{"board.board", "thread.subject", "thread.text"})
	s.RegisterMessage("board.edit_thread", []string{"board.board", "thread.id", "thread.subject", "thread.text"})
	s.RegisterMessage("board.move_thread", []string{"board.board", "thread.id", "board.new_name"})
	s.RegisterMessage("board.delete_thread", []string{"board.board", "thread.id"})
	s.RegisterMessage("board.add_post", []string{"board.board", "thread.id", "post.text"})
	s.RegisterMessage("board.edit_post", []string{"board.board", "post.id", "post.text"})
	s.RegisterMessage("board.delete_post", []string{"board.board", "post.id"})
	s.RegisterMessage("board.subscribe_boards", nil)
	s.RegisterMessage("board.unsubscribe_boards", nil)

	s.RegisterMessage("file.list_directory", []string{"file.path"})
	s.RegisterMessage("file.get_info", []string{"file.path"})
	s.RegisterMessage("file.move", []string{"file.path", "file.new_path"})
	s.RegisterMessage("file.link", []string{"file.path", "file.new_path"})
	s.RegisterMessage("file.set_type", []string{"file.path", "file.type"})
	s.RegisterMessage("file.set_comment", []string{"file.path", "file.comment"})
	s.RegisterMessage("file.set_executable", []string{"file.path", "file.executable"})
	s.RegisterMessage("file.set_permissions", []string{"file.path"})
	s.RegisterMessage("file.set_label", []string{"file.path", "file.label"})
	s.RegisterMessage("file.delete", []string{"file.path"})
	s.RegisterMessage("file.create_directory", []string{"file.path"})
	s.RegisterMessage("file.search", []string{"file.path"})
	s.RegisterMessage("file.preview_file", []string{"file.path"})
	s.RegisterMessage("file.subscribe_directory", []string{"file.path"})
	s.RegisterMessage("file.unsubscribe_directory", []string{"file.path"})

	s.RegisterMessage("account.change_password", []string{"account.name", "account.password"})
	s.RegisterMessage("account.list_users", nil)
	s.RegisterMessage("account.list_groups", nil)
	s.RegisterMessage("account.read_user", []string{"account.name"},
		"account.full_name", "account.comment", "account.color", "account.group", "account.groups",
		"account.privileges", "account.is_group")
	s.RegisterMessage("account.read_group", []string{"account.name"},
		"account.full_name", "account.comment", "account.color", "account.privileges", "account.is_group")
	s.RegisterMessage("account.create_user", []string{"account.name"},
		"account.full_name", "account.comment", "account.color", "account.password", "account.group",
		"account.groups", "account.privileges")
	s.RegisterMessage("account.create_group", []string{"account.name"},
		"account.full_name", "account.comment", "account.color", "account.privileges")
	s.RegisterMessage("account.edit_user", []string{"account.name"},
		"account.new_name", "account.full_name", "account.comment", "account.color", "account.password",
		"account.group", "account.groups", "account.privileges")
	s.RegisterMessage("account.edit_group", []string{"account.name"},
		"account.new_name", "account.full_name", "account.comment", "account.color", "account.privileges")
	s.RegisterMessage("account.delete_user", []string{"account.name"}, "account.disconnect_users")
	s.RegisterMessage("account.delete_group", []string{"account.name"})
	s.RegisterMessage("account.subscribe_accounts", nil)
	s.RegisterMessage("account.unsubscribe_accounts", nil)
	s.RegisterMessage("account.privileges", nil, "account.privileges")
	s.RegisterMessage("account.list_users.done", nil)
	s.RegisterMessage("account.list_groups.done", nil)

	s.RegisterMessage("transfer.download_file", []string{"file.path"})
	s.RegisterMessage("transfer.upload_file", []string{"file.path", "file.data_size"})
	s.RegisterMessage("transfer.upload_directory", []string{"file.path"})
	s.RegisterMessage("transfer.queue", nil)
	s.RegisterMessage("transfer.download", []string{"transfer.data_offset"})
	s.RegisterMessage("transfer.upload_ready", []string{"transfer.data_offset"})
	s.RegisterMessage("transfer.upload", nil)

	s.RegisterMessage("log.get_log", nil)
	s.RegisterMessage("log.subscribe", nil)
	s.RegisterMessage("log.message", []string{"log.line"})
	s.RegisterMessage("event.get_first_time", nil)
	s.RegisterMessage("event.get_events", nil)
	s.RegisterMessage("event.subscribe", nil)
	s.RegisterMessage("event.event", []string{"event.name"})

	s.RegisterMessage("banlist.get_bans", nil)
	s.RegisterMessage("banlist.add_ban", []string{"banlist.ip"})
	s.RegisterMessage("banlist.delete_ban", []string{"banlist.ip"})

	s.RegisterMessage("tracker.get_categories", nil)
	s.RegisterMessage("tracker.get_servers", nil)
	s.RegisterMessage("tracker.send_register", []string{"tracker.name", "tracker.port"})
	s.RegisterMessage("tracker.send_update", []string{"tracker.users", "tracker.files"})

	s.RegisterMessage("okay", nil)
	s.RegisterMessage("error", []string{"wired.error"})

	return s
}

func idGen() func() uint32 {
	n := uint32(0)
	return func() uint32 {
		n++
		return n
	}
}
