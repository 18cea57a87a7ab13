package procwatch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// CommandPresence finds the client by listing process command lines with
// ps, or PowerShell on Windows.
type CommandPresence struct {
	executable string
	goos       string
	run        Runner
}

func NewCommandPresence(executable string) *CommandPresence {
	if executable == "" {
		executable = DefaultExecutable
	}
	return &CommandPresence{executable: executable, goos: runtime.GOOS, run: execRunner}
}

func (p *CommandPresence) Lookup(ctx context.Context) (Process, error) {
	name, args := p.command()
	out, err := p.run(ctx, name, args...)
	if err != nil {
		return Process{}, fmt.Errorf("list processes with %s: %w", name, err)
	}
	return FindProcess(out, p.executable), nil
}

func (p *CommandPresence) command() (string, []string) {
	if p.goos == "windows" {
		filter := fmt.Sprintf("name = '%s'", p.executable)
		return "powershell", []string{
			"-NoProfile", "-NonInteractive", "-Command",
			fmt.Sprintf(`Get-CimInstance Win32_Process -Filter "%s" | Select-Object -ExpandProperty CommandLine`, filter),
		}
	}
	return "ps", []string{"-axww", "-o", "args="}
}

// FindProcess scans a process listing, one command line per line, for
// the client executable launched with an install directory.
func FindProcess(listing []byte, executable string) Process {
	sc := bufio.NewScanner(bytes.NewReader(listing))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.Contains(line, executable) && strings.Contains(line, installDirFlag) {
			return Process{Running: true, CommandLine: line}
		}
	}
	return Process{}
}
