// Package service manages the hysteria2 server process: detached start and
// stop via a pid file, and a supervised foreground mode.
package service

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/AdguardTeam/golibs/log"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/metrics"
	"golang.org/x/sys/unix"
)

// Config is the configuration for creating a Service.
type Config struct {
	// BinaryPath is the path to the hysteria2 binary.
	BinaryPath string

	// ConfigPath is the path to the proxy configuration file.
	ConfigPath string

	// LogPath is the file the detached process writes its output to.
	LogPath string

	// PIDPath is the pid file path.  If empty, "hysteria.pid" next to the
	// configuration file is used.
	PIDPath string
}

// Service controls a single hysteria2 server process.
type Service struct {
	binaryPath string
	configPath string
	logPath    string
	pidPath    string

	// mu protects cmd.
	mu  *sync.Mutex
	cmd *exec.Cmd
}

// type check.
var _ io.Closer = (*Service)(nil)

// New creates a new Service.
func New(cfg *Config) (s *Service) {
	s = &Service{
		binaryPath: cfg.BinaryPath,
		configPath: cfg.ConfigPath,
		logPath:    cfg.LogPath,
		pidPath:    cfg.PIDPath,
		mu:         &sync.Mutex{},
	}

	if s.pidPath == "" {
		s.pidPath = filepath.Join(filepath.Dir(cfg.ConfigPath), "hysteria.pid")
	}

	return s
}

// Start launches the proxy process detached from this one and records its
// pid.
func (s *Service) Start() (err error) {
	if pid, ok := s.runningPID(); ok {
		return fmt.Errorf("proxy is already running with pid %d", pid)
	}

	logFile, err := os.OpenFile(s.logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening proxy log: %w", err)
	}

	defer log.OnCloserError(logFile, log.DEBUG)

	// #nosec G204 -- The paths are produced by this program.
	cmd := exec.Command(s.binaryPath, "server", "-c", s.configPath)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("starting proxy: %w", err)
	}

	pid := cmd.Process.Pid

	err = os.WriteFile(s.pidPath, []byte(strconv.Itoa(pid)), 0o600)
	if err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}

	err = cmd.Process.Release()
	if err != nil {
		return fmt.Errorf("detaching proxy: %w", err)
	}

	log.Info("service: proxy started with pid %d", pid)

	return nil
}

// Stop terminates the detached proxy process recorded in the pid file.
func (s *Service) Stop() (err error) {
	pid, ok := s.runningPID()
	if !ok {
		return fmt.Errorf("proxy is not running")
	}

	err = unix.Kill(pid, unix.SIGTERM)
	if err != nil {
		return fmt.Errorf("terminating pid %d: %w", pid, err)
	}

	err = os.Remove(s.pidPath)
	if err != nil {
		return fmt.Errorf("removing pid file: %w", err)
	}

	log.Info("service: proxy with pid %d stopped", pid)

	return nil
}

// Run launches the proxy process in the foreground and blocks until it
// exits.  Close terminates it.
func (s *Service) Run() (err error) {
	s.mu.Lock()

	if s.cmd != nil {
		s.mu.Unlock()

		return fmt.Errorf("proxy is already running")
	}

	// #nosec G204 -- The paths are produced by this program.
	cmd := exec.Command(s.binaryPath, "server", "-c", s.configPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Start()
	if err != nil {
		s.mu.Unlock()

		return fmt.Errorf("starting proxy: %w", err)
	}

	s.cmd = cmd
	s.mu.Unlock()

	metrics.ProxyRunning.Set(1)
	defer metrics.ProxyRunning.Set(0)

	log.Info("service: supervising proxy with pid %d", cmd.Process.Pid)

	return cmd.Wait()
}

// Close implements the io.Closer interface for *Service.  It terminates the
// supervised foreground process, if any.
func (s *Service) Close() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}

	log.Info("service: terminating proxy")

	return s.cmd.Process.Signal(unix.SIGTERM)
}

// runningPID returns the pid from the pid file if that process is still
// alive.
func (s *Service) runningPID() (pid int, ok bool) {
	// #nosec G304 -- The pid file path is produced by this program.
	b, err := os.ReadFile(s.pidPath)
	if err != nil {
		return 0, false
	}

	pid, err = strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	// Signal 0 only checks that the process exists.
	err = unix.Kill(pid, 0)

	return pid, err == nil
}
