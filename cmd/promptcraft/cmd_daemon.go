package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/client"
)

// cmdStart starts the daemon in the background
func cmdStart() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if isRunning(a.client) {
		fmt.Println("✓ Daemon is already running")
		return nil
	}

	daemonPath, err := findDaemonBinary()
	if err != nil {
		return fmt.Errorf("find daemon binary: %w", err)
	}

	cmd := exec.Command(daemonPath)
	cmd.Dir = a.dir
	cmd.Stdout = nil
	cmd.Stderr = nil

	// Detach from parent process (platform-specific)
	configureDaemonProcess(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Print("Starting daemon...")
	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if isRunning(a.client) {
			fmt.Println(" ✓")
			fmt.Printf("Daemon running at %s\n", a.client.BaseURL())
			return nil
		}
		fmt.Print(".")
	}

	fmt.Println(" ✗")
	return fmt.Errorf("daemon failed to start (check logs with 'promptcraft logs')")
}

// cmdStop stops the daemon
func cmdStop() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if !isRunning(a.client) {
		fmt.Println("Daemon is not running")
		return nil
	}

	data, err := os.ReadFile(filepath.Join(a.dir, pidFile))
	if err != nil {
		return fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("parse PID: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	fmt.Print("Stopping daemon...")
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send signal: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !isRunning(a.client) {
			fmt.Println(" ✓")
			return nil
		}
		fmt.Print(".")
	}

	fmt.Println(" ✗")
	return fmt.Errorf("daemon did not stop gracefully")
}

// cmdStatus shows daemon status
func cmdStatus() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	status, err := a.client.Status(context.Background())
	if err != nil {
		fmt.Println("Status: stopped")
		return nil
	}

	fmt.Printf("Status:      %s\n", status.Status)
	fmt.Printf("Version:     %s\n", status.Version)
	fmt.Printf("Uptime:      %s\n", time.Duration(status.UptimeSeconds)*time.Second)
	fmt.Printf("Providers:   %s\n", strings.Join(status.LLMProviders, ", "))
	fmt.Printf("Leaderboard: %s\n", status.Leaderboard)
	fmt.Printf("Rate limit:  %t\n", status.RateLimit)
	fmt.Printf("Address:     %s\n", a.client.BaseURL())

	return nil
}

// cmdLogs shows the tail of the daemon log
func cmdLogs() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	logPath := filepath.Join(a.dir, "logs", "promptcraftd.log")
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Println("No log file found. Start the daemon first.")
		return nil
	}

	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	// Seek to end and go back ~4KB for recent logs
	info, _ := file.Stat()
	offset := info.Size() - 4096
	if offset < 0 {
		offset = 0
	}
	_, _ = file.Seek(offset, 0)

	reader := bufio.NewReader(file)
	if offset > 0 {
		// Skip the partial first line
		_, _ = reader.ReadString('\n')
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fmt.Println(scanner.Text())
	}

	return nil
}

// isRunning checks the daemon's health endpoint
func isRunning(c *client.Client) bool {
	return c.Health(context.Background()) == nil
}

// findDaemonBinary locates the promptcraftd binary
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath("promptcraftd"); err == nil {
		return path, nil
	}

	// Check relative to this binary
	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), "promptcraftd")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	for _, path := range []string{"/usr/local/bin/promptcraftd", "./promptcraftd"} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("promptcraftd binary not found (build with 'go build ./cmd/promptcraftd')")
}
