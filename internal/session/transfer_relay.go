package session

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/stlalpha/wired/internal/transfer"
)

// relayChunk bounds how much of a transfer is moved per read/write
// syscall pair, independent of the rate limiter's own pacing.
const relayChunk = 32 * 1024

// streamDownload relays t's remaining data-fork bytes straight onto
// the connection as raw, unframed bytes, per spec.md §4.6/GLOSSARY
// ("the raw data stream ride the same connection"). It holds writeMu
// for its whole run so a concurrent send_ping or event push can never
// interleave a framed message into the middle of the OOB stream.
func (h *Handler) streamDownload() {
	t := h.user.GetPendingTransfer()
	if t == nil {
		return
	}
	defer func() {
		h.svc.Transfers.Dequeue(t)
		h.user.ClearPendingTransfer()
	}()

	f, err := os.Open(t.RealPath)
	if err != nil {
		log.Printf("session %d: open download source: %v", h.user.ID, err)
		return
	}
	defer f.Close()

	if _, err := f.Seek(t.DataTransferred, io.SeekStart); err != nil {
		log.Printf("session %d: seek download source: %v", h.user.ID, err)
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	buf := make([]byte, relayChunk)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if werr := h.conn.SetWriteDeadline(time.Now().Add(inactivityCap)); werr != nil {
				return
			}
			if _, werr := h.conn.Write(buf[:n]); werr != nil {
				log.Printf("session %d: download write: %v", h.user.ID, werr)
				return
			}
			t.AddBytes(int64(n), 0)
			if t.Limiter != nil {
				time.Sleep(t.Limiter.Allow(int64(n)))
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("session %d: download read: %v", h.user.ID, err)
			}
			return
		}
	}
}

// streamUpload reads t's remaining data-fork bytes straight off the
// connection into its .WiredTransfer partial file, completing the
// upload (stripping the partial suffix and recording the account's
// transfer counters) once every byte has arrived, per end-to-end
// scenario 5.
func (h *Handler) streamUpload() {
	t := h.user.GetPendingTransfer()
	if t == nil {
		return
	}
	defer func() {
		h.svc.Transfers.Dequeue(t)
		h.user.ClearPendingTransfer()
	}()

	f, err := transfer.OpenUploadDestination(t.RealPath, t.DataTransferred)
	if err != nil {
		log.Printf("session %d: open upload destination: %v", h.user.ID, err)
		return
	}
	defer f.Close()

	remaining := t.DataSize - t.DataTransferred
	buf := make([]byte, relayChunk)
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		if err := h.conn.SetReadDeadline(time.Now().Add(inactivityCap)); err != nil {
			return
		}
		if _, err := io.ReadFull(h.r, buf[:n]); err != nil {
			log.Printf("session %d: upload read: %v", h.user.ID, err)
			return
		}
		if _, err := f.Write(buf[:n]); err != nil {
			log.Printf("session %d: upload write: %v", h.user.ID, err)
			return
		}
		t.AddBytes(n, 0)
		remaining -= n
		if t.Limiter != nil {
			time.Sleep(t.Limiter.Allow(n))
		}
	}

	if err := transfer.CompleteUpload(t.RealPath); err != nil {
		log.Printf("session %d: complete upload: %v", h.user.ID, err)
		return
	}
	if err := h.svc.Accounts.RecordTransfer(t.Login, true, t.DataSize); err != nil {
		log.Printf("session %d: record upload stats: %v", h.user.ID, err)
	}
}
