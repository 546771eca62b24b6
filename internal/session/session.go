// Package session manages SSH connections to build workers.
// A Session runs shell commands with line-wise streamed output and provides
// an SFTP side-channel for the lock bookkeeping of the lock package.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/ci-farm/ci-farm/internal/cfg"
	"github.com/ci-farm/ci-farm/internal/fs"
)

// connectTimeout bounds establishing the TCP connection, the SSH handshake
// and opening the SFTP subsystem.
const connectTimeout = 10 * time.Second

// ConnectError is returned when a connection to a worker could not be
// established.
type ConnectError struct {
	Worker string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connecting to worker %q failed: %s", e.Worker, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Session is a connection to a single worker.
// It is not safe for concurrent use.
type Session struct {
	worker *cfg.Worker
	client *ssh.Client
	sftp   *sftp.Client
}

// New returns an unconnected session for the worker.
func New(worker *cfg.Worker) *Session {
	return &Session{worker: worker}
}

// Worker returns the worker the session belongs to.
func (s *Session) Worker() *cfg.Worker {
	return s.worker
}

// Connect establishes the SSH connection and opens the SFTP subsystem.
// Authentication uses the configured private key if its file exists,
// otherwise the configured password.
func (s *Session) Connect(ctx context.Context) error {
	auth, err := s.authMethods()
	if err != nil {
		return &ConnectError{Worker: s.worker.Name, Err: err}
	}

	sshCfg := &ssh.ClientConfig{
		User: s.worker.User,
		Auth: auth,
		// Workers live on a trusted network and are often reinstalled,
		// host key verification would require constant known_hosts upkeep.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         connectTimeout,
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	addr := net.JoinHostPort(s.worker.Host, strconv.Itoa(s.worker.Port))

	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &ConnectError{Worker: s.worker.Name, Err: err}
	}

	// The handshake and the sftp handshake can hang without a deadline on
	// the underlying connection.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
	if err != nil {
		_ = conn.Close()
		return &ConnectError{Worker: s.worker.Name, Err: err}
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return &ConnectError{Worker: s.worker.Name, Err: fmt.Errorf("opening sftp subsystem failed: %w", err)}
	}

	_ = conn.SetDeadline(time.Time{})

	s.client = client
	s.sftp = sftpClient

	return nil
}

func (s *Session) authMethods() ([]ssh.AuthMethod, error) {
	if s.worker.Key != "" && fs.FileExists(s.worker.Key) {
		keyData, err := os.ReadFile(s.worker.Key)
		if err != nil {
			return nil, fmt.Errorf("reading private key failed: %w", err)
		}

		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, fmt.Errorf("parsing private key %s failed: %w", s.worker.Key, err)
		}

		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}

	if s.worker.Password != "" {
		password := s.worker.Password

		return []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = password
				}
				return answers, nil
			}),
		}, nil
	}

	return nil, errors.New("no private key file and no password configured")
}

// Close closes the SFTP subsystem and the SSH connection.
// It can be called multiple times and before a successful Connect.
func (s *Session) Close() {
	if s.sftp != nil {
		_ = s.sftp.Close()
		s.sftp = nil
	}

	if s.client != nil {
		_ = s.client.Close()
		s.client = nil
	}
}

// ExecOpts are optional settings for Exec.
type ExecOpts struct {
	// WorkingDir, when set, makes the command run in the directory via
	// "cd <dir> && <command>".
	WorkingDir string
	// Timeout aborts the Exec call after the duration. The remote process
	// is signalled but may keep running on the worker.
	Timeout time.Duration
	// OnStdout and OnStderr receive completed output lines, without the
	// trailing newline, as they arrive.
	OnStdout func(line string)
	OnStderr func(line string)
}

type outputLine struct {
	stderr bool
	text   string
}

// Exec runs a shell command on the worker and returns its exit code.
// Output lines are delivered to the OnStdout/OnStderr callbacks in arrival
// order per stream. A trailing unterminated line is delivered once after the
// command finished. The callbacks are invoked from the calling goroutine.
func (s *Session) Exec(command string, opts *ExecOpts) (int, error) {
	if s.client == nil {
		return -1, errors.New("session is not connected")
	}

	if opts == nil {
		opts = &ExecOpts{}
	}

	if opts.WorkingDir != "" {
		command = fmt.Sprintf("cd %s && %s", opts.WorkingDir, command)
	}

	sshSess, err := s.client.NewSession()
	if err != nil {
		return -1, fmt.Errorf("opening ssh session failed: %w", err)
	}
	defer sshSess.Close()

	stdout, err := sshSess.StdoutPipe()
	if err != nil {
		return -1, err
	}

	stderr, err := sshSess.StderrPipe()
	if err != nil {
		return -1, err
	}

	if err := sshSess.Start(command); err != nil {
		return -1, fmt.Errorf("starting command failed: %w", err)
	}

	lines := make(chan outputLine, 64)

	// closed when Exec returns, unblocks readers whose lines are no
	// longer received (timeout path)
	abandoned := make(chan struct{})
	defer close(abandoned)

	var readers sync.WaitGroup

	readers.Add(2)
	go readLines(stdout, false, lines, abandoned, &readers)
	go readLines(stderr, true, lines, abandoned, &readers)

	waitResult := make(chan error, 1)
	go func() {
		// Wait() must run after the pipes were drained.
		readers.Wait()
		close(lines)
		waitResult <- sshSess.Wait()
	}()

	var timeout <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case line, open := <-lines:
			if !open {
				lines = nil
				continue
			}

			deliver(opts, line)

		case err := <-waitResult:
			if lines != nil {
				for line := range lines {
					deliver(opts, line)
				}
			}

			return exitCodeFromWaitErr(err)

		case <-timeout:
			_ = sshSess.Signal(ssh.SIGKILL)
			return -1, fmt.Errorf("command did not finish within %s", opts.Timeout)
		}
	}
}

func deliver(opts *ExecOpts, line outputLine) {
	if line.stderr {
		if opts.OnStderr != nil {
			opts.OnStderr(line.text)
		}

		return
	}

	if opts.OnStdout != nil {
		opts.OnStdout(line.text)
	}
}

func readLines(r io.Reader, stderr bool, out chan<- outputLine, abandoned <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	var buf lineBuffer

	chunk := make([]byte, 4096)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			for _, line := range buf.Append(chunk[:n]) {
				select {
				case out <- outputLine{stderr: stderr, text: line}:
				case <-abandoned:
					return
				}
			}
		}

		if err != nil {
			if rest, ok := buf.Flush(); ok {
				select {
				case out <- outputLine{stderr: stderr, text: rest}:
				case <-abandoned:
				}
			}

			return
		}
	}
}

func exitCodeFromWaitErr(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), nil
	}

	return -1, fmt.Errorf("waiting for command failed: %w", err)
}
