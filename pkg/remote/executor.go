// Package remote implements the remote executor: running commands on
// named hosts and copying single files between them over the SSH
// transport. It is the only package that talks to pkg/transport; the
// rest of the system depends on the core.Runner and core.Copier
// contracts so tests can substitute an in-memory fake.
package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/saveshift/saveshift/pkg/core"
	"github.com/saveshift/saveshift/pkg/transport"
)

// Options configures the executor for a run. All hosts of a run share
// one credential and one timeout.
type Options struct {
	Auth      transport.AuthMethod
	HostKey   ssh.HostKeyCallback
	Timeout   time.Duration
	Keepalive time.Duration
	Channel   transport.Channel
}

// Executor runs commands and copies files over SSH. Connections are
// cached per host for the duration of the run and closed together.
type Executor struct {
	transport transport.Transport
	copier    transport.FileCopier
	opts      Options

	mu      sync.Mutex
	clients map[string]*transport.SSHClient
}

// NewExecutor creates an executor with the given options.
func NewExecutor(opts Options) (*Executor, error) {
	if opts.Auth == nil {
		return nil, fmt.Errorf("auth method is required")
	}
	if opts.HostKey == nil {
		return nil, fmt.Errorf("host key callback is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	tr := transport.New()
	copier, err := transport.NewFileCopier(opts.Channel, tr)
	if err != nil {
		return nil, err
	}

	return &Executor{
		transport: tr,
		copier:    copier,
		opts:      opts,
		clients:   make(map[string]*transport.SSHClient),
	}, nil
}

// Run executes a command on the host. A non-zero exit status is
// reported through the result; a transport failure is reported as
// UnreachableError and is fatal to the caller, never retried here.
func (e *Executor) Run(ctx context.Context, host core.Host, command string) (*core.CommandResult, error) {
	client, err := e.connect(ctx, host)
	if err != nil {
		return nil, &core.UnreachableError{Host: host, Err: err}
	}

	result, err := e.transport.ExecuteCommand(ctx, client, command)
	if err != nil {
		return nil, &core.UnreachableError{Host: host, Err: err}
	}

	return &core.CommandResult{
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		ExitCode: result.ExitCode,
	}, nil
}

// CopyFile copies a single file from the source host to the
// destination host through the configured channel.
func (e *Executor) CopyFile(ctx context.Context, src core.Host, srcPath string, dst core.Host, dstPath string) error {
	srcClient, err := e.connect(ctx, src)
	if err != nil {
		return &core.UnreachableError{Host: src, Err: err}
	}

	dstClient, err := e.connect(ctx, dst)
	if err != nil {
		return &core.UnreachableError{Host: dst, Err: err}
	}

	return e.copier.CopyFile(ctx, srcClient, dstClient, srcPath, dstPath)
}

// Close closes all cached connections.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for key, client := range e.clients {
		if err := e.transport.Close(client); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.clients, key)
	}
	return firstErr
}

// connect returns the cached connection for a host, dialing on first
// use. A dropped connection is redialed.
func (e *Executor) connect(ctx context.Context, host core.Host) (*transport.SSHClient, error) {
	key := fmt.Sprintf("%s@%s:%d", host.User, host.Addr, host.Port)

	e.mu.Lock()
	defer e.mu.Unlock()

	if client, ok := e.clients[key]; ok {
		if client.IsConnected() {
			return client, nil
		}
		e.transport.Close(client)
		delete(e.clients, key)
	}

	client, err := e.transport.Connect(ctx, &transport.SSHConfig{
		Host:            host.Addr,
		Port:            host.Port,
		User:            host.User,
		Auth:            e.opts.Auth,
		Timeout:         e.opts.Timeout,
		Keepalive:       e.opts.Keepalive,
		HostKeyCallback: e.opts.HostKey,
	})
	if err != nil {
		return nil, err
	}

	e.clients[key] = client
	return client, nil
}
