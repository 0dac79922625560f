package remote

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/saveshift/saveshift/pkg/core"
	"github.com/saveshift/saveshift/pkg/transport"
)

// FileInfo is one file reported by FindFiles.
type FileInfo struct {
	Path string
	Size int64
}

// PathExists probes for a path on a host. A missing path is "absent",
// not an error.
func PathExists(ctx context.Context, r core.Runner, host core.Host, path string) (bool, error) {
	result, err := r.Run(ctx, host, fmt.Sprintf("test -e %s", transport.ShellQuote(path)))
	if err != nil {
		return false, err
	}
	return result.ExitCode == 0, nil
}

// DirExists probes for a directory on a host.
func DirExists(ctx context.Context, r core.Runner, host core.Host, path string) (bool, error) {
	result, err := r.Run(ctx, host, fmt.Sprintf("test -d %s", transport.ShellQuote(path)))
	if err != nil {
		return false, err
	}
	return result.ExitCode == 0, nil
}

// ListDir lists the immediate entries of a directory. The second return
// value is false when the directory does not exist.
func ListDir(ctx context.Context, r core.Runner, host core.Host, path string) ([]string, bool, error) {
	result, err := r.Run(ctx, host, fmt.Sprintf("ls -1 %s", transport.ShellQuote(path)))
	if err != nil {
		return nil, false, err
	}
	if result.ExitCode != 0 {
		return nil, false, nil
	}

	var entries []string
	scanner := bufio.NewScanner(bytes.NewReader(result.Stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			entries = append(entries, line)
		}
	}
	return entries, true, nil
}

// ReadFile fetches a file's content. The second return value is false
// when the file does not exist or cannot be read.
func ReadFile(ctx context.Context, r core.Runner, host core.Host, path string) ([]byte, bool, error) {
	result, err := r.Run(ctx, host, fmt.Sprintf("cat %s", transport.ShellQuote(path)))
	if err != nil {
		return nil, false, err
	}
	if result.ExitCode != 0 {
		return nil, false, nil
	}
	return result.Stdout, true, nil
}

// MkdirAll creates a directory and its parents on a host.
func MkdirAll(ctx context.Context, r core.Runner, host core.Host, path string) error {
	result, err := r.Run(ctx, host, fmt.Sprintf("mkdir -p %s", transport.ShellQuote(path)))
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("mkdir %s on %s: %s", path, host, strings.TrimSpace(string(result.Stderr)))
	}
	return nil
}

// CopyDir makes a recursive same-host copy preserving attributes.
func CopyDir(ctx context.Context, r core.Runner, host core.Host, src, dst string) error {
	cmd := fmt.Sprintf("cp -a %s %s", transport.ShellQuote(src), transport.ShellQuote(dst))
	result, err := r.Run(ctx, host, cmd)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("copy %s to %s on %s: %s", src, dst, host, strings.TrimSpace(string(result.Stderr)))
	}
	return nil
}

// FindFiles lists files under a root whose names match one of the
// extensions, with sizes. The second return value is false when the
// root does not exist.
func FindFiles(ctx context.Context, r core.Runner, host core.Host, root string, extensions []string) ([]FileInfo, bool, error) {
	if len(extensions) == 0 {
		return nil, true, nil
	}

	var names []string
	for _, ext := range extensions {
		names = append(names, fmt.Sprintf("-name '*%s'", ext))
	}

	cmd := fmt.Sprintf("find %s -type f \\( %s \\) -printf '%%s %%p\\n'",
		transport.ShellQuote(root), strings.Join(names, " -o "))

	result, err := r.Run(ctx, host, cmd)
	if err != nil {
		return nil, false, err
	}
	if result.ExitCode != 0 {
		return nil, false, nil
	}

	var files []FileInfo
	scanner := bufio.NewScanner(bytes.NewReader(result.Stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// "<size> <path>"; paths may contain spaces
		sep := strings.IndexByte(line, ' ')
		if sep <= 0 {
			continue
		}
		size, err := strconv.ParseInt(line[:sep], 10, 64)
		if err != nil {
			continue
		}

		files = append(files, FileInfo{Path: line[sep+1:], Size: size})
	}

	return files, true, nil
}
