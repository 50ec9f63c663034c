package tracker

import (
	"fmt"
	"strconv"
	"strings"
)

// encodeUpdate/decodeUpdate use the same tab-separated key-value
// format internal/vfs's sidecar files use, rather than the full P7
// schema, since a tracker datagram is a handful of scalar fields and
// a single connectionless packet rather than a framed session message.
func encodeUpdate(kind string, info Info) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "kind\t%s\n", kind)
	fmt.Fprintf(&b, "port\t%d\n", info.Port)
	fmt.Fprintf(&b, "name\t%s\n", info.Name)
	fmt.Fprintf(&b, "description\t%s\n", info.Description)
	fmt.Fprintf(&b, "category\t%s\n", info.Category)
	fmt.Fprintf(&b, "url\t%s\n", info.URL)
	fmt.Fprintf(&b, "users\t%d\n", info.Users)
	fmt.Fprintf(&b, "files\t%d\n", info.Files)
	fmt.Fprintf(&b, "size\t%d\n", info.Size)
	return []byte(b.String())
}

func decodeUpdate(payload []byte) (kind string, info Info) {
	for _, line := range strings.Split(string(payload), "\n") {
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		key, val := parts[0], parts[1]
		switch key {
		case "kind":
			kind = val
		case "port":
			n, _ := strconv.ParseUint(val, 10, 32)
			info.Port = uint32(n)
		case "name":
			info.Name = val
		case "description":
			info.Description = val
		case "category":
			info.Category = val
		case "url":
			info.URL = val
		case "users":
			n, _ := strconv.ParseInt(val, 10, 32)
			info.Users = int32(n)
		case "files":
			n, _ := strconv.ParseInt(val, 10, 32)
			info.Files = int32(n)
		case "size":
			n, _ := strconv.ParseInt(val, 10, 64)
			info.Size = n
		}
	}
	return kind, info
}
