package port

// ProcessHandle represents one spawned external process. Between
// registration and termination (or natural exit) it is owned
// exclusively by the process registry.
type ProcessHandle interface {
	// PID returns the OS process id.
	PID() int
	// Terminate asks the process to exit gracefully.
	Terminate() error
	// Kill force-terminates the process (and its children where the
	// platform allows it).
	Kill() error
	// Done is closed once the process has exited and its output
	// streams are drained.
	Done() <-chan struct{}
}

// ExitStatus describes how a process ended.
type ExitStatus struct {
	Code      int
	Signalled bool
	Err       error
}

// ProcessSpec describes one external tool invocation.
type ProcessSpec struct {
	Path string
	Args []string
}

// ProcessCallbacks deliver streaming output and the exit status. OnLine
// receives every line from stdout and stderr; OnExit fires exactly once
// after all output has been delivered.
type ProcessCallbacks struct {
	OnLine func(line string)
	OnExit func(status ExitStatus)
}

// Spawner starts external processes. The production implementation
// wraps os/exec; tests substitute a scripted fake.
type Spawner interface {
	Spawn(spec ProcessSpec, cb ProcessCallbacks) (ProcessHandle, error)
}
