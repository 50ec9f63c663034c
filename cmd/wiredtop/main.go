package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	dir := flag.String("dir", ".", "server root directory (holds wired.ctl)")
	sock := flag.String("sock", "", "path to the control socket (default <dir>/wired.ctl)")
	flag.Parse()

	sockPath := *sock
	if sockPath == "" {
		sockPath = filepath.Join(*dir, "wired.ctl")
	}

	client := newCtlClient(sockPath)
	p := tea.NewProgram(newModel(client))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "wiredtop: %v\n", err)
		os.Exit(1)
	}
}
