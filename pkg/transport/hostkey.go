package transport

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skeema/knownhosts"
	"golang.org/x/crypto/ssh"
)

// HostKeyOptions describes the host key verification policy.
type HostKeyOptions struct {
	KnownHostsPath string // known_hosts file; empty means ~/.ssh/known_hosts
	Insecure       bool   // accept any host key
}

// HostKeyCallbackFor builds the ssh.HostKeyCallback for the policy.
// Verification against a known_hosts file is the default; Insecure must
// be requested explicitly.
func HostKeyCallbackFor(opts HostKeyOptions) (ssh.HostKeyCallback, error) {
	if opts.Insecure {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	path := opts.KnownHostsPath
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir for known_hosts: %w", err)
		}
		path = filepath.Join(homeDir, ".ssh", "known_hosts")
	}

	hkcb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts %s: %w", path, err)
	}

	return hkcb.HostKeyCallback(), nil
}
