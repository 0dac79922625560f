package transport

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/pkg/sftp"
)

// Channel names a file copy mechanism.
type Channel string

const (
	// ChannelSFTP relays the file through this process using SFTP
	// clients on both ends.
	ChannelSFTP Channel = "sftp"

	// ChannelStream pairs two SSH sessions and pipes the file from a
	// reading `cat` into a writing `cat`.
	ChannelStream Channel = "stream"
)

// FileCopier copies a single file between two connected hosts.
type FileCopier interface {
	// CopyFile copies srcPath on the source client's host to dstPath
	// on the destination client's host, creating missing destination
	// parent directories.
	CopyFile(ctx context.Context, src, dst *SSHClient, srcPath, dstPath string) error
}

// NewFileCopier returns the copier for a channel name.
func NewFileCopier(channel Channel, transport Transport) (FileCopier, error) {
	switch channel {
	case ChannelSFTP, "":
		return &SFTPCopier{}, nil
	case ChannelStream:
		return &StreamCopier{transport: transport}, nil
	default:
		return nil, fmt.Errorf("unknown copy channel: %s", channel)
	}
}

// SFTPCopier copies files through paired SFTP subsystems.
type SFTPCopier struct{}

// CopyFile streams the source file into the destination file over two
// SFTP sessions.
func (c *SFTPCopier) CopyFile(ctx context.Context, src, dst *SSHClient, srcPath, dstPath string) error {
	srcSFTP, err := sftp.NewClient(src.Client())
	if err != nil {
		return fmt.Errorf("source sftp client: %w", err)
	}
	defer srcSFTP.Close()

	dstSFTP, err := sftp.NewClient(dst.Client())
	if err != nil {
		return fmt.Errorf("destination sftp client: %w", err)
	}
	defer dstSFTP.Close()

	srcFile, err := srcSFTP.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open source %s: %w", srcPath, err)
	}
	defer srcFile.Close()

	if err := dstSFTP.MkdirAll(path.Dir(dstPath)); err != nil {
		return fmt.Errorf("create destination dir %s: %w", path.Dir(dstPath), err)
	}

	dstFile, err := dstSFTP.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create destination %s: %w", dstPath, err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("copy %s: %w", srcPath, err)
	}

	return nil
}

// StreamCopier copies files through paired cat sessions, the mechanism
// used for remote-to-remote proxying.
type StreamCopier struct {
	transport Transport
}

// CopyFile pipes the source cat into the destination cat.
func (c *StreamCopier) CopyFile(ctx context.Context, src, dst *SSHClient, srcPath, dstPath string) error {
	mkdir := fmt.Sprintf("mkdir -p %s", ShellQuote(path.Dir(dstPath)))
	result, err := c.transport.ExecuteCommand(ctx, dst, mkdir)
	if err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("create destination dir: %s", strings.TrimSpace(string(result.Stderr)))
	}

	srcCmd := fmt.Sprintf("cat %s", ShellQuote(srcPath))
	reader, err := c.transport.StreamCommand(ctx, src, srcCmd)
	if err != nil {
		return fmt.Errorf("start source stream: %w", err)
	}
	defer reader.Close()

	dstCmd := fmt.Sprintf("cat > %s", ShellQuote(dstPath))
	writer, err := c.transport.StreamWrite(ctx, dst, dstCmd)
	if err != nil {
		return fmt.Errorf("start destination stream: %w", err)
	}

	if _, err := io.Copy(writer, reader); err != nil {
		writer.Close()
		return fmt.Errorf("stream %s: %w", srcPath, err)
	}

	// Closing flushes stdin and waits for the remote cat to exit
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish destination stream: %w", err)
	}

	return nil
}

// ShellQuote single-quotes a path for use in a remote shell command.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
