package transport

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHClient wraps an SSH client with additional management features
type SSHClient struct {
	config        *SSHConfig
	client        *ssh.Client
	keepaliveStop chan struct{}
	keepaliveDone chan struct{}
	mutex         sync.Mutex
}

// SSHConfig contains SSH connection configuration
type SSHConfig struct {
	Host            string
	Port            int
	User            string
	Auth            AuthMethod
	Timeout         time.Duration
	Keepalive       time.Duration
	HostKeyCallback ssh.HostKeyCallback
}

// Validate checks if the configuration is valid
func (c *SSHConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}

	if c.Port == 0 {
		c.Port = 22 // Default SSH port
	}

	if c.User == "" {
		return fmt.Errorf("user is required")
	}

	if c.Auth == nil {
		return fmt.Errorf("auth method is required")
	}

	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second // Default timeout
	}

	if c.HostKeyCallback == nil {
		return fmt.Errorf("host key callback is required")
	}

	return nil
}

// Client returns the underlying SSH client
func (c *SSHClient) Client() *ssh.Client {
	return c.client
}

// Config returns the SSH configuration
func (c *SSHClient) Config() *SSHConfig {
	return c.config
}

// IsConnected checks if the client is connected
func (c *SSHClient) IsConnected() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.client == nil {
		return false
	}

	// Try to create a session to verify connection
	session, err := c.client.NewSession()
	if err != nil {
		return false
	}
	session.Close()

	return true
}

// startKeepalive starts sending keepalive packets
func (c *SSHClient) startKeepalive() {
	c.keepaliveStop = make(chan struct{})
	c.keepaliveDone = make(chan struct{})

	go func() {
		defer close(c.keepaliveDone)

		ticker := time.NewTicker(c.config.Keepalive)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				// Send keepalive request
				_, _, err := c.client.SendRequest("keepalive@openssh.com", true, nil)
				if err != nil {
					// Connection lost, stop keepalive
					return
				}
			case <-c.keepaliveStop:
				return
			}
		}
	}()
}

// stopKeepalive stops sending keepalive packets
func (c *SSHClient) stopKeepalive() {
	if c.keepaliveStop != nil {
		close(c.keepaliveStop)
		<-c.keepaliveDone
	}
}
