package process

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os/exec"
	"sync"

	"discpress/internal/port"
)

// ExecSpawner starts external tools via os/exec, streaming their output
// line by line. Both stdout and stderr feed the same line callback;
// the tools emit progress on either stream.
type ExecSpawner struct{}

func NewSpawner() *ExecSpawner {
	return &ExecSpawner{}
}

type execHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (h *execHandle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *execHandle) Terminate() error {
	return signalTerm(h.cmd)
}

func (h *execHandle) Kill() error {
	return forceKill(h.PID())
}

func (h *execHandle) Done() <-chan struct{} {
	return h.done
}

func (s *ExecSpawner) Spawn(spec port.ProcessSpec, cb port.ProcessCallbacks) (port.ProcessHandle, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	setProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &execHandle{cmd: cmd, done: make(chan struct{})}

	var wg sync.WaitGroup
	wg.Add(2)
	go scanLines(stdout, cb.OnLine, &wg)
	go scanLines(stderr, cb.OnLine, &wg)

	go func() {
		wg.Wait()
		waitErr := cmd.Wait()
		close(h.done)
		if cb.OnExit != nil {
			cb.OnExit(exitStatus(waitErr))
		}
	}()

	return h, nil
}

// scanLines splits on \n and \r: the tools redraw their progress line
// with bare carriage returns, so a newline-only split would sit on one
// giant line until exit.
func scanLines(r io.Reader, onLine func(string), wg *sync.WaitGroup) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(splitCROrLF)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if onLine != nil {
			onLine(line)
		}
	}
}

func splitCROrLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func exitStatus(err error) port.ExitStatus {
	if err == nil {
		return port.ExitStatus{Code: 0}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		// ExitCode is -1 when the process died from a signal.
		return port.ExitStatus{Code: code, Signalled: code == -1, Err: err}
	}
	return port.ExitStatus{Code: -1, Err: err}
}
