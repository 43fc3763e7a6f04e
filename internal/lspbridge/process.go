package lspbridge

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/dshills/gotodef/internal/logging"
)

// Dialer opens a JSON-RPC byte stream to the server for a file type.
type Dialer func(ctx context.Context, fileType string) (io.ReadWriteCloser, error)

// Server describes a language server executable.
type Server struct {
	Command string
	Args    []string
	Dir     string
}

// ExecDialer starts the configured server for a file type as a child
// process speaking over stdio. Stderr lines go to the logger at debug level.
// The process lives until the returned stream is closed.
func ExecDialer(servers map[string]Server, logger *logging.Logger) Dialer {
	servers = lo.PickBy(servers, func(_ string, s Server) bool { return s.Command != "" })

	return func(_ context.Context, fileType string) (io.ReadWriteCloser, error) {
		srv, ok := servers[fileType]
		if !ok {
			return nil, errors.Wrapf(ErrNoServer, "%q", fileType)
		}

		// The process must outlive the dial context.
		cmd := exec.Command(srv.Command, srv.Args...)
		cmd.Dir = srv.Dir

		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, errors.Wrap(err, "stdin pipe")
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			stdin.Close()
			return nil, errors.Wrap(err, "stdout pipe")
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			stdin.Close()
			stdout.Close()
			return nil, errors.Wrap(err, "stderr pipe")
		}

		if err := cmd.Start(); err != nil {
			stdin.Close()
			stdout.Close()
			stderr.Close()
			return nil, errors.WithHint(
				errors.Wrapf(err, "start %s", srv.Command),
				"check that the server is installed and on PATH")
		}

		log := logger.WithField("server", srv.Command)
		log.Info("language server started", "filetype", fileType, "pid", cmd.Process.Pid)

		go func() {
			sc := bufio.NewScanner(stderr)
			for sc.Scan() {
				log.Debug(sc.Text())
			}
		}()

		return &processStream{cmd: cmd, stdin: stdin, stdout: stdout, log: log}, nil
	}
}

// processStream joins a child's stdout and stdin into one stream.
type processStream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	log    *logging.Logger

	once sync.Once
	err  error
}

func (p *processStream) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p *processStream) Write(b []byte) (int, error) { return p.stdin.Write(b) }

// Close closes stdin and reaps the process, killing it if it is still
// running after its input is gone.
func (p *processStream) Close() error {
	p.once.Do(func() {
		p.stdin.Close()
		if p.cmd.ProcessState == nil && p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		err := p.cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			p.err = err
		}
		p.log.Debug("language server stopped")
	})
	return p.err
}
