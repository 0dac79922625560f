// Package remotetest provides an in-memory Runner/Copier for tests: a
// pair of fake host filesystems that answer the command shapes pkg/remote
// issues, so discovery, enumeration, backup and orchestration logic can
// be exercised without a transport.
package remotetest

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/saveshift/saveshift/pkg/core"
)

// FakeHost is one host's in-memory filesystem.
type FakeHost struct {
	Files map[string][]byte // path -> content
	Dirs  map[string]bool   // explicitly created (possibly empty) dirs
}

// NewFakeHost creates an empty host filesystem.
func NewFakeHost() *FakeHost {
	return &FakeHost{
		Files: make(map[string][]byte),
		Dirs:  make(map[string]bool),
	}
}

// AddFile adds a file and its parent directories.
func (h *FakeHost) AddFile(p string, content []byte) {
	h.Files[p] = content
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		h.Dirs[dir] = true
	}
}

// fileExists reports whether a file exists.
func (h *FakeHost) fileExists(p string) bool {
	_, ok := h.Files[p]
	return ok
}

// dirExists reports whether a directory exists.
func (h *FakeHost) dirExists(p string) bool {
	if h.Dirs[p] {
		return true
	}
	prefix := p + "/"
	for f := range h.Files {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	for d := range h.Dirs {
		if strings.HasPrefix(d, prefix) {
			return true
		}
	}
	return false
}

// list returns the immediate child names of a directory, sorted.
func (h *FakeHost) list(p string) []string {
	seen := make(map[string]bool)
	prefix := p + "/"

	for f := range h.Files {
		if strings.HasPrefix(f, prefix) {
			rest := strings.TrimPrefix(f, prefix)
			seen[strings.SplitN(rest, "/", 2)[0]] = true
		}
	}
	for d := range h.Dirs {
		if strings.HasPrefix(d, prefix) {
			rest := strings.TrimPrefix(d, prefix)
			seen[strings.SplitN(rest, "/", 2)[0]] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fake implements core.Runner and core.Copier against in-memory hosts
// keyed by address.
type Fake struct {
	mu          sync.Mutex
	Hosts       map[string]*FakeHost
	Unreachable map[string]bool  // address -> refuse all operations
	CopyErrors  map[string]error // source path -> injected copy failure
	Commands    []string         // every command run, in order
	Copied      []string         // destination paths written by CopyFile
}

// New creates a fake with the given host addresses.
func New(addrs ...string) *Fake {
	f := &Fake{
		Hosts:       make(map[string]*FakeHost),
		Unreachable: make(map[string]bool),
		CopyErrors:  make(map[string]error),
	}
	for _, addr := range addrs {
		f.Hosts[addr] = NewFakeHost()
	}
	return f
}

// Host returns the fake filesystem for an address, creating it if
// needed.
func (f *Fake) Host(addr string) *FakeHost {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Hosts[addr] == nil {
		f.Hosts[addr] = NewFakeHost()
	}
	return f.Hosts[addr]
}

var namePattern = regexp.MustCompile(`-name '\*(\.[A-Za-z0-9]+)'`)

// Run interprets the command shapes pkg/remote issues.
func (f *Fake) Run(ctx context.Context, host core.Host, command string) (*core.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Unreachable[host.Addr] {
		return nil, &core.UnreachableError{Host: host, Err: fmt.Errorf("fake: unreachable")}
	}

	f.Commands = append(f.Commands, command)

	fs := f.Hosts[host.Addr]
	if fs == nil {
		fs = NewFakeHost()
		f.Hosts[host.Addr] = fs
	}

	args := tokenize(command)
	if len(args) == 0 {
		return &core.CommandResult{ExitCode: 2}, nil
	}

	switch args[0] {
	case "true":
		return &core.CommandResult{}, nil

	case "test":
		if len(args) != 3 {
			return &core.CommandResult{ExitCode: 2}, nil
		}
		ok := false
		switch args[1] {
		case "-e":
			ok = fs.fileExists(args[2]) || fs.dirExists(args[2])
		case "-d":
			ok = fs.dirExists(args[2])
		}
		if ok {
			return &core.CommandResult{}, nil
		}
		return &core.CommandResult{ExitCode: 1}, nil

	case "ls":
		dir := args[len(args)-1]
		if !fs.dirExists(dir) {
			return &core.CommandResult{ExitCode: 2, Stderr: []byte("No such file or directory")}, nil
		}
		out := strings.Join(fs.list(dir), "\n")
		if out != "" {
			out += "\n"
		}
		return &core.CommandResult{Stdout: []byte(out)}, nil

	case "cat":
		content, ok := fs.Files[args[len(args)-1]]
		if !ok {
			return &core.CommandResult{ExitCode: 1, Stderr: []byte("No such file or directory")}, nil
		}
		return &core.CommandResult{Stdout: content}, nil

	case "mkdir":
		fs.Dirs[args[len(args)-1]] = true
		return &core.CommandResult{}, nil

	case "cp":
		if len(args) < 4 {
			return &core.CommandResult{ExitCode: 2}, nil
		}
		src, dst := args[len(args)-2], args[len(args)-1]
		if content, ok := fs.Files[src]; ok {
			fs.AddFile(dst, content)
			return &core.CommandResult{}, nil
		}
		if !fs.dirExists(src) {
			return &core.CommandResult{ExitCode: 1, Stderr: []byte("No such file or directory")}, nil
		}
		prefix := src + "/"
		for p, content := range fs.Files {
			if strings.HasPrefix(p, prefix) {
				fs.AddFile(dst+"/"+strings.TrimPrefix(p, prefix), content)
			}
		}
		fs.Dirs[dst] = true
		return &core.CommandResult{}, nil

	case "find":
		root := args[1]
		if !fs.dirExists(root) && !fs.fileExists(root) {
			return &core.CommandResult{ExitCode: 1, Stderr: []byte("No such file or directory")}, nil
		}
		extensions := []string{}
		for _, m := range namePattern.FindAllStringSubmatch(command, -1) {
			extensions = append(extensions, m[1])
		}
		var lines []string
		prefix := root + "/"
		for p, content := range fs.Files {
			if !strings.HasPrefix(p, prefix) {
				continue
			}
			for _, ext := range extensions {
				if strings.HasSuffix(p, ext) {
					lines = append(lines, fmt.Sprintf("%d %s", len(content), p))
					break
				}
			}
		}
		sort.Strings(lines)
		out := strings.Join(lines, "\n")
		if out != "" {
			out += "\n"
		}
		return &core.CommandResult{Stdout: []byte(out)}, nil
	}

	return &core.CommandResult{ExitCode: 127, Stderr: []byte("fake: command not found")}, nil
}

// CopyFile moves content between fake hosts, honoring injected errors.
func (f *Fake) CopyFile(ctx context.Context, src core.Host, srcPath string, dst core.Host, dstPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Unreachable[src.Addr] {
		return &core.UnreachableError{Host: src, Err: fmt.Errorf("fake: unreachable")}
	}
	if f.Unreachable[dst.Addr] {
		return &core.UnreachableError{Host: dst, Err: fmt.Errorf("fake: unreachable")}
	}

	if err, ok := f.CopyErrors[srcPath]; ok {
		return err
	}

	srcFS := f.Hosts[src.Addr]
	if srcFS == nil {
		return fmt.Errorf("fake: no such host %s", src.Addr)
	}
	content, ok := srcFS.Files[srcPath]
	if !ok {
		return fmt.Errorf("fake: no such file %s on %s", srcPath, src.Addr)
	}

	dstFS := f.Hosts[dst.Addr]
	if dstFS == nil {
		dstFS = NewFakeHost()
		f.Hosts[dst.Addr] = dstFS
	}
	dstFS.AddFile(dstPath, content)
	f.Copied = append(f.Copied, dstPath)
	return nil
}

// Snapshot returns a copy of a host's file map, for before/after
// comparisons.
func (f *Fake) Snapshot(addr string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := make(map[string]string)
	if fs := f.Hosts[addr]; fs != nil {
		for p, content := range fs.Files {
			snap[p] = string(content)
		}
	}
	return snap
}

// tokenize splits a shell command respecting single quotes. Escaped
// quotes inside quoted strings are not needed by the fake's callers.
func tokenize(command string) []string {
	var args []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			args = append(args, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(command); i++ {
		c := command[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
		case c == ' ' && !inQuote:
			flush()
		case c == '\\' && !inQuote:
			// skip shell escapes like \( \)
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return args
}
