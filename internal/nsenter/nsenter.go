package nsenter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/podtools/podns/internal/logging"
)

// tool is the namespace-entry binary the attacher execs into.
const tool = "nsenter"

// netNSFmt is the per-PID network namespace handle path. Docker and the
// kubelet use the same convention.
const netNSFmt = "/proc/%d/ns/net"

// defaultShell is used when $SHELL is not set.
const defaultShell = "/bin/sh"

// Sentinel errors for the attachment stage.
var (
	// ErrToolMissing indicates the nsenter binary is not on PATH.
	ErrToolMissing = errors.New("nsenter tool missing")

	// ErrNamespaceHandleMissing indicates the target PID's network
	// namespace handle does not exist, typically because the process
	// exited after PID resolution.
	ErrNamespaceHandleMissing = errors.New("network namespace handle missing")

	// ErrPrivilegeRequired indicates the caller is not root.
	ErrPrivilegeRequired = errors.New("root privilege required")
)

// NetNSPath returns the network namespace handle path for a PID.
func NetNSPath(pid int) string {
	return fmt.Sprintf(netNSFmt, pid)
}

// CheckPrivilege verifies the process runs with an effective UID of 0.
// Entering another process's namespaces needs root; failing here, before
// any pod lookup, gives the operator an actionable message up front.
func CheckPrivilege() error {
	if euid := geteuid(); euid != 0 {
		return fmt.Errorf("%w: running as uid %d, re-run with sudo", ErrPrivilegeRequired, euid)
	}
	return nil
}

// geteuid is a package variable so the privilege check is testable.
var geteuid = os.Geteuid

// Attacher performs the final, irreversible handoff to nsenter.
type Attacher struct {
	// JoinPIDNamespace additionally joins the target's PID namespace.
	JoinPIDNamespace bool

	logger *slog.Logger

	// Injection points for tests. Exec replaces the process image and
	// does not return on success.
	lookPath func(file string) (string, error)
	stat     func(name string) (os.FileInfo, error)
	execve   func(argv0 string, argv []string, envv []string) error
}

// New creates an Attacher wired to the real system calls.
func New(logger *slog.Logger, joinPIDNamespace bool) *Attacher {
	return &Attacher{
		JoinPIDNamespace: joinPIDNamespace,
		logger:           logger,
		lookPath:         exec.LookPath,
		stat:             os.Stat,
		execve:           syscall.Exec,
	}
}

// Attach replaces the current process with nsenter joined to the target
// PID's network namespace, launching an interactive shell. On success it
// never returns; every return is an error.
func (a *Attacher) Attach(pid int) error {
	path, err := a.lookPath(tool)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrToolMissing, err)
	}

	handle := NetNSPath(pid)
	if _, err := a.stat(handle); err != nil {
		return fmt.Errorf("%w: %s (process %d may have exited): %v",
			ErrNamespaceHandleMissing, handle, pid, err)
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = defaultShell
	}

	argv := []string{tool, "-t", strconv.Itoa(pid), "-n"}
	if a.JoinPIDNamespace {
		argv = append(argv, "-p")
	}
	argv = append(argv, shell)

	a.logger.Info("Entering network namespace",
		logging.PID(pid), slog.String("handle", handle), slog.String("shell", shell))

	if err := a.execve(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	// Unreachable: a successful exec replaced this process image.
	return nil
}
