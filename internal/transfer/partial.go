package transfer

import (
	"errors"
	"os"
)

// PartialSuffix marks an in-progress upload's temporary file, per
// spec.md §4.6: uploads write to name+PartialSuffix and are renamed
// into place only once complete, so a client disconnect mid-upload
// leaves a resumable partial rather than a corrupt final file.
const PartialSuffix = ".WiredTransfer"

var ErrPartialSizeMismatch = errors.New("checksum_mismatch")

// OpenUploadDestination opens (creating if absent) the partial file
// for an upload, seeking to resumeOffset so a resumed upload continues
// rather than restarting.
func OpenUploadDestination(realPath string, resumeOffset int64) (*os.File, error) {
	partial := realPath + PartialSuffix
	f, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	if resumeOffset > 0 {
		if _, err := f.Seek(resumeOffset, 0); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		if err := f.Truncate(0); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// PartialSize reports how many bytes of an upload have already landed
// on disk, used to answer a resumed upload's offset.
func PartialSize(realPath string) int64 {
	info, err := os.Stat(realPath + PartialSuffix)
	if err != nil {
		return 0
	}
	return info.Size()
}

// CompleteUpload renames the partial file into its final name once
// DataTransferred reaches DataSize.
func CompleteUpload(realPath string) error {
	return os.Rename(realPath+PartialSuffix, realPath)
}

// AbandonUpload removes an incomplete partial file, used when an
// upload is explicitly cancelled rather than merely disconnected
// (a disconnected upload is left in place for a later resume).
func AbandonUpload(realPath string) error {
	err := os.Remove(realPath + PartialSuffix)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
