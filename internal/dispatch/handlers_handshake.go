package dispatch

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"

	"github.com/stlalpha/wired/internal/accountsvc"
	"github.com/stlalpha/wired/internal/chat"
	"github.com/stlalpha/wired/internal/connuser"
	"github.com/stlalpha/wired/internal/proto"
	"github.com/stlalpha/wired/internal/schema"
	"github.com/stlalpha/wired/internal/store"
)

// compressionPreference/checksumPreference/cipherPreference are the
// server's ordered option lists for spec.md §4.1 step 2's handshake
// negotiation, most-preferred first, ending in the "none" fallback.
var (
	compressionPreference = []string{proto.CompressionNameDeflate, proto.CompressionNameNone}
	checksumPreference     = []string{proto.ChecksumNameSHA256, proto.ChecksumNameSHA1, proto.ChecksumNameNone}
	cipherPreference       = []string{proto.CipherNameRSAAES256, proto.CipherNameNone}
)

func init() {
	register("client_info", connuser.StageConnected, handleClientInfo)
	register("send_login", connuser.StageGaveClientInfo, handleSendLogin)
	register("send_ping", connuser.StageLoggedIn, handleSendPing)
	register("user.set_nick", connuser.StageLoggedIn, handleSetNick)
	register("user.set_status", connuser.StageLoggedIn, handleSetStatus)
	register("user.set_icon", connuser.StageLoggedIn, handleSetIcon)
	register("user.set_idle", connuser.StageLoggedIn, handleSetIdle)
	register("user.get_info", connuser.StageLoggedIn, handleGetUserInfo)
	register("user.get_users", connuser.StageLoggedIn, handleGetUsers)
	register("user.disconnect_user", connuser.StageLoggedIn, handleDisconnectUser)
	register("user.ban_user", connuser.StageLoggedIn, handleBanUser)
}

// handleClientInfo runs spec.md §4.1 step 2's option negotiation: it
// picks compression/checksum/cipher from the client's offered lists
// against the server's ordered preference (restricted to the cipher
// alone when the config requires encryption), and, if a cipher was
// selected, generates the RSA keypair the client wraps its session
// key under.
func handleClientInfo(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	app, _ := msg.String("wired.application.name")
	version, _ := msg.String("wired.application.version")
	u.SetClientInfo(app, version)
	u.SetStage(connuser.StageGaveClientInfo)

	supportedCompress, _ := msg.List("wired.compression.supported")
	compress := proto.CompressionByName(proto.Negotiate(supportedCompress, compressionPreference))

	supportedChecksum, _ := msg.List("wired.checksum.supported")
	checksum := proto.ChecksumKindByName(proto.Negotiate(supportedChecksum, checksumPreference))

	ciphers := cipherPreference
	if svc.RequireEncryption {
		ciphers = []string{proto.CipherNameRSAAES256}
	}
	supportedCiphers, _ := msg.List("wired.encryption.cipher.supported")
	cipherName := proto.Negotiate(supportedCiphers, ciphers)

	u.SetNegotiation(compress, checksum)

	reply := schema.NewMessage("server_info")
	reply.SetString("wired.info.name", "Wired Server")
	reply.SetString("wired.info.description", "")
	reply.SetList("wired.compression.selected", []string{compress.String()})
	reply.SetString("wired.encryption.cipher.selected", cipherName)
	reply.SetString("wired.checksum.selected", checksum.String())

	if cipherName == proto.CipherNameRSAAES256 {
		key, err := proto.GenerateServerKey()
		if err != nil {
			return nil, err
		}
		u.SetServerKey(key)
		pub, ok := key.Private.Public().(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("internal_error")
		}
		reply.SetBytes("wired.encryption.public_key", x509.MarshalPKCS1PublicKey(pub))
	}
	return reply, nil
}

func handleSendLogin(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	login, _ := msg.String("wired.login")
	password, _ := msg.String("wired.password")

	if banned, _ := svc.Bans.IsBanned(u.RemoteIP); banned {
		return schema.NewMessage("banned"), nil
	}

	acc, err := svc.Accounts.ReadUser(login)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, errors.New("login_failed")
		}
		return nil, err
	}
	if acc.Password != accountsvc.HashPassword(password) {
		return nil, errors.New("login_failed")
	}

	// RSA key exchange: if handleClientInfo negotiated a cipher, the
	// client wraps its AES session key under the server's public key
	// and sends it here, still unencrypted itself -- the cipher it
	// establishes applies starting with this message's reply onward,
	// never to send_login itself.
	if key := u.GetServerKey(); key != nil {
		wrapped, _ := msg.Bytes("wired.encryption.session_key")
		iv, _ := msg.Bytes("wired.encryption.iv")
		if len(wrapped) > 0 {
			sessionKey, err := key.UnwrapSessionKey(wrapped)
			if err != nil {
				return nil, errors.New("invalid_message")
			}
			c, err := proto.NewCipher(sessionKey, iv)
			if err != nil {
				return nil, errors.New("invalid_message")
			}
			u.SetCipher(c)
		}
	}

	u.SetAccount(acc)
	u.SetNickColor(acc.FullName, acc.Color)
	u.SetStage(connuser.StageLoggedIn)
	svc.Registry.Register(u)
	if _, err := svc.Chat.Join(chat.PublicChatID, toMember(u)); err != nil {
		return nil, err
	}
	u.SubscribeChat(chat.PublicChatID)
	svc.Events.Record(sessionKey(u), "user.login", acc.Name, u.Nick, acc.Name, u.RemoteIP)

	reply := schema.NewMessage("login")
	reply.SetUint32("user.id", uint32(u.ID))
	return reply, nil
}

func handleSendPing(svc *Services, u *connuser.User, msg *schema.Message) (*schema.Message, error) {
	u.Touch()
	return schema.NewMessage("ping"), nil
}
