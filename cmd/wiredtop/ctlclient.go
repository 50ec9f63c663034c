package main

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// ctlClient dials the <root>/wired.ctl control socket and issues its
// line-oriented STATUS/USERS/TRANSFERS commands, one connection per
// request -- the socket is polled on an interval, not held open, so a
// restarted wiredd is transparent to the dashboard.
type ctlClient struct {
	sockPath string
	timeout  time.Duration
}

func newCtlClient(sockPath string) *ctlClient {
	return &ctlClient{sockPath: sockPath, timeout: 2 * time.Second}
}

type statusInfo struct {
	Name           string
	Users          int
	TrackerEnabled bool
	Port           int
}

type userRow struct {
	ID    int32
	Nick  string
	Login string
	IP    string
	Idle  string
}

type transferRow struct {
	Login string
	Type  string
	State string
	Path  string
	Done  int64
	Total int64
	Queue int
}

func (c *ctlClient) command(cmd string) ([]string, error) {
	conn, err := net.DialTimeout("unix", c.sockPath, c.timeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := fmt.Fprintf(conn, "%s\n", cmd); err != nil {
		return nil, err
	}
	var lines []string
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "." {
			break
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func (c *ctlClient) Status() (statusInfo, error) {
	lines, err := c.command("STATUS")
	if err != nil {
		return statusInfo{}, err
	}
	var info statusInfo
	for _, line := range lines {
		k, v, ok := cut(line)
		if !ok {
			continue
		}
		switch k {
		case "name":
			info.Name = v
		case "users":
			info.Users, _ = strconv.Atoi(v)
		case "tracker_enabled":
			info.TrackerEnabled = v == "true"
		case "port":
			info.Port, _ = strconv.Atoi(v)
		}
	}
	return info, nil
}

func (c *ctlClient) Users() ([]userRow, error) {
	lines, err := c.command("USERS")
	if err != nil {
		return nil, err
	}
	rows := make([]userRow, 0, len(lines))
	for _, line := range lines {
		f := strings.Split(line, "\t")
		if len(f) != 5 {
			continue
		}
		id, _ := strconv.Atoi(f[0])
		rows = append(rows, userRow{ID: int32(id), Nick: f[1], Login: f[2], IP: f[3], Idle: f[4]})
	}
	return rows, nil
}

func (c *ctlClient) Transfers() ([]transferRow, error) {
	lines, err := c.command("TRANSFERS")
	if err != nil {
		return nil, err
	}
	rows := make([]transferRow, 0, len(lines))
	for _, line := range lines {
		f := strings.Split(line, "\t")
		if len(f) != 6 {
			continue
		}
		progress := strings.SplitN(f[4], "/", 2)
		var done, total int64
		if len(progress) == 2 {
			done, _ = strconv.ParseInt(progress[0], 10, 64)
			total, _ = strconv.ParseInt(progress[1], 10, 64)
		}
		queue, _ := strconv.Atoi(f[5])
		rows = append(rows, transferRow{Login: f[0], Type: f[1], State: f[2], Path: f[3], Done: done, Total: total, Queue: queue})
	}
	return rows, nil
}

func cut(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, '\t')
	if i < 0 {
		return "", "", false
	}
	return line[:i], line[i+1:], true
}
