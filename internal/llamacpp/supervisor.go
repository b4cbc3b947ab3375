// Package llamacpp supervises a locally spawned llama-server process:
// it starts the binary if no server is already listening, polls until
// the HTTP endpoint answers, and terminates the process on shutdown.
package llamacpp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/apex/log"
)

// Options configures the supervised llama-server process.
type Options struct {
	Bin        string
	ModelPath  string
	MMProjPath string
	Host       string
	Port       int
	ExtraArgs  []string

	// StartTimeout bounds the wait for the server to answer its first
	// health probe after spawning.
	StartTimeout time.Duration
}

// Supervisor owns one llama-server child process.
type Supervisor struct {
	opts Options
	cmd  *exec.Cmd
}

// NewSupervisor creates a Supervisor. The process is not started until
// Ensure is called.
func NewSupervisor(opts Options) *Supervisor {
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Port == 0 {
		opts.Port = 8080
	}
	if opts.StartTimeout == 0 {
		opts.StartTimeout = 120 * time.Second
	}
	return &Supervisor{opts: opts}
}

// Ensure starts llama-server unless one is already answering on the
// configured address. It returns once the server is ready or the start
// timeout elapses.
func (s *Supervisor) Ensure(ctx context.Context) error {
	if s.ready(ctx) {
		log.Infof("llama-server already running at %s", s.baseURL())
		return nil
	}

	bin, err := exec.LookPath(s.opts.Bin)
	if err != nil {
		return fmt.Errorf("llama-server binary not found: %w", err)
	}
	if _, err := os.Stat(s.opts.ModelPath); err != nil {
		return fmt.Errorf("missing GGUF model at %s: %w", s.opts.ModelPath, err)
	}
	if _, err := os.Stat(s.opts.MMProjPath); err != nil {
		return fmt.Errorf("missing mmproj at %s: %w", s.opts.MMProjPath, err)
	}

	args := []string{
		"--model", s.opts.ModelPath,
		"--mmproj", s.opts.MMProjPath,
		"--host", s.opts.Host,
		"--port", strconv.Itoa(s.opts.Port),
	}
	args = append(args, s.opts.ExtraArgs...)

	log.Infof("starting llama-server at %s", s.baseURL())
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start llama-server: %w", err)
	}
	s.cmd = cmd

	deadline := time.Now().Add(s.opts.StartTimeout)
	for time.Now().Before(deadline) {
		if s.ready(ctx) {
			log.Info("llama-server ready")
			return nil
		}
		if cmd.ProcessState != nil || processExited(cmd) {
			return errors.New("llama-server exited before becoming ready")
		}
		select {
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}

	s.Stop()
	return errors.New("llama-server did not become ready in time")
}

// Stop terminates the supervised process, escalating to SIGKILL if it
// ignores the initial signal.
func (s *Supervisor) Stop() {
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}

	_ = s.cmd.Process.Signal(os.Interrupt)
	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = s.cmd.Process.Kill()
		<-done
	}
	s.cmd = nil
}

// BaseURL returns the OpenAI-compatible endpoint of the supervised
// server.
func (s *Supervisor) BaseURL() string {
	return s.baseURL() + "/v1"
}

func (s *Supervisor) baseURL() string {
	return fmt.Sprintf("http://%s:%d", s.opts.Host, s.opts.Port)
}

// ready probes the models endpoint. Any HTTP response counts as ready,
// including errors: the server is up even if the route is unhappy.
func (s *Supervisor) ready(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, s.baseURL()+"/v1/models", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// processExited reports whether the child has terminated without
// blocking on Wait.
func processExited(cmd *exec.Cmd) bool {
	if cmd.Process == nil {
		return true
	}
	return cmd.Process.Signal(syscall.Signal(0)) != nil
}
