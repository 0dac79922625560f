package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/saveshift/saveshift/pkg/config"
	"github.com/saveshift/saveshift/pkg/core"
	"github.com/saveshift/saveshift/pkg/discover"
	"github.com/saveshift/saveshift/pkg/orchestrator"
	"github.com/saveshift/saveshift/pkg/output"
	"github.com/saveshift/saveshift/pkg/profilesel"
	"github.com/saveshift/saveshift/pkg/progress"
	"github.com/saveshift/saveshift/pkg/remote"
	"github.com/saveshift/saveshift/pkg/transport"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile   string
	outputFormat string
	verbose      bool

	// Root command
	rootCmd = &cobra.Command{
		Use:   "saveshift",
		Short: "SaveShift - Game-save migration between hosts",
		Long: `SaveShift migrates game-save data for one application between two
hosts over SSH. It discovers user profiles on both hosts, resolves the
cloud-style and compatibility-layer storage locations, and copies the
selected profile's save files with optional timestamped backups.`,
		Version: "0.1.0",
	}

	// Migrate command
	migrateCmd = &cobra.Command{
		Use:   "migrate [source] [destination]",
		Short: "Migrate save data from source host to destination host",
		Long: `Migrate one profile's save data between two hosts.

Hosts are given as ADDR or USER@ADDR.

Examples:
  # Migrate with interactive profile selection
  saveshift migrate --app 620 deck1.local deck2.local

  # Migrate a named profile without prompting
  saveshift migrate --app 620 --source-user Alice --dest-user Alice \
    --non-interactive deck1.local deck2.local

  # See what would be copied without touching anything
  saveshift migrate --app 620 --dry-run deck1.local deck2.local`,
		Args: cobra.ExactArgs(2),
		RunE: runMigrate,
	}

	// List command
	listCmd = &cobra.Command{
		Use:   "list [host]",
		Short: "List profiles with save data on a host",
		Long: `Discover and list the user profiles on a host that have save data
for the configured application, without transferring anything.`,
		Args: cobra.ExactArgs(1),
		RunE: runList,
	}

	// Schema command
	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Print JSON schema for config file",
		Long: `Print the JSON schema for the configuration file format.
Useful for validation and IDE autocomplete.`,
		RunE: runSchema,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (JSON/YAML), use '-' for stdin")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: text, json, yaml, csv")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Connection flags shared by migrate and list
	for _, cmd := range []*cobra.Command{migrateCmd, listCmd} {
		cmd.Flags().StringP("user", "u", "", "login user on both hosts")
		cmd.Flags().IntP("port", "p", 0, "SSH port")
		cmd.Flags().Int("app", 0, "application id")
		cmd.Flags().String("library", "", "game library base path on the hosts")
		cmd.Flags().Int("timeout", 0, "connection timeout in seconds")
		cmd.Flags().String("key", "", "private key file for authentication")
		cmd.Flags().String("password-env", "", "environment variable holding the SSH password")
		cmd.Flags().String("known-hosts", "", "known_hosts file for host key verification")
		cmd.Flags().Bool("insecure-host-key", false, "skip host key verification")
	}

	// Migrate flags
	migrateCmd.Flags().String("source-user", "", "profile name to migrate from")
	migrateCmd.Flags().String("dest-user", "", "profile name to migrate to")
	migrateCmd.Flags().Bool("dry-run", false, "report what would be copied without copying")
	migrateCmd.Flags().Bool("backup", false, "back up destination storage roots before copying")
	migrateCmd.Flags().Bool("non-interactive", false, "never prompt; fail on ambiguous selection")
	migrateCmd.Flags().Bool("list", false, "list profiles on both hosts and exit")
	migrateCmd.Flags().String("copy-channel", "", "file copy channel: sftp, stream")
	migrateCmd.Flags().String("on-missing-dest", "", "when the named destination profile is absent: fail, provision")
	migrateCmd.Flags().String("progress", "", "progress style: simple, bar, json, none")

	// Add commands
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(schemaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(core.ExitGeneralError)
	}
}

// runMigrate executes the migrate command
func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return exitWithError("load config", err)
	}

	source := parseHost(args[0], cfg)
	dest := parseHost(args[1], cfg)

	executor, err := buildExecutor(cfg)
	if err != nil {
		return exitWithError("connect", err)
	}
	defer executor.Close()

	listOnly, _ := cmd.Flags().GetBool("list")
	if listOnly {
		formatter := output.New(output.Format(cfg.Output.Format), os.Stdout)
		for _, host := range []core.Host{source, dest} {
			if err := listHost(ctx, executor, host, cfg, formatter); err != nil {
				return exitWithError("discover", err)
			}
		}
		return nil
	}

	orch := orchestrator.New(executor, executor, orchestrator.Options{
		SourceUser:     cfg.Transfer.SourceUser,
		DestUser:       cfg.Transfer.DestUser,
		AppID:          cfg.Library.AppID,
		Extensions:     cfg.Library.Extensions,
		DryRun:         cfg.Transfer.DryRun,
		Backup:         cfg.Transfer.Backup,
		Verbose:        verbose,
		NonInteractive: cfg.Transfer.NonInteractive,
		OnMissingDest:  core.MissingDestPolicy(cfg.Transfer.OnMissingDest),
	}).WithLog(os.Stderr)

	if !cfg.Transfer.NonInteractive {
		orch = orch.WithPrompter(profilesel.NewTerminalPrompter(os.Stdin, os.Stderr))
	}
	if style := progress.Format(cfg.Output.Progress); style != progress.FormatNone {
		orch = orch.WithProgress(progress.New(os.Stderr, style))
	}

	report, err := orch.Run(ctx, source, dest)

	formatter := output.New(output.Format(cfg.Output.Format), os.Stdout)
	if report != nil {
		_ = formatter.Report(report)
	}
	if err != nil {
		return exitWithError("migrate", err)
	}
	return nil
}

// runList executes the list command
func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return exitWithError("load config", err)
	}

	executor, err := buildExecutor(cfg)
	if err != nil {
		return exitWithError("connect", err)
	}
	defer executor.Close()

	host := parseHost(args[0], cfg)
	formatter := output.New(output.Format(cfg.Output.Format), os.Stdout)
	if err := listHost(ctx, executor, host, cfg, formatter); err != nil {
		return exitWithError("discover", err)
	}
	return nil
}

// listHost discovers and prints one host's profiles
func listHost(ctx context.Context, executor *remote.Executor, host core.Host, cfg *config.Config, formatter *output.Formatter) error {
	profiles, err := discover.New(executor, cfg.Library.AppID, cfg.Library.Extensions).Discover(ctx, host)
	if err != nil {
		return err
	}
	return formatter.Profiles(host, profiles)
}

// runSchema executes the schema command
func runSchema(cmd *cobra.Command, args []string) error {
	schema := `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "SaveShift Configuration",
  "type": "object",
  "properties": {
    "hosts": {
      "type": "object",
      "properties": {
        "user": {"type": "string"},
        "port": {"type": "integer", "minimum": 1},
        "timeout_seconds": {"type": "integer", "minimum": 1}
      }
    },
    "library": {
      "type": "object",
      "properties": {
        "base": {"type": "string"},
        "app_id": {"type": "integer", "minimum": 1},
        "extensions": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["app_id"]
    },
    "transfer": {
      "type": "object",
      "properties": {
        "source_user": {"type": "string"},
        "dest_user": {"type": "string"},
        "dry_run": {"type": "boolean"},
        "backup": {"type": "boolean"},
        "non_interactive": {"type": "boolean"},
        "copy_channel": {"type": "string", "enum": ["sftp", "stream"]},
        "on_missing_dest": {"type": "string", "enum": ["fail", "provision"]}
      }
    },
    "ssh": {
      "type": "object",
      "properties": {
        "key": {"type": "string"},
        "password_env": {"type": "string"},
        "known_hosts": {"type": "string"},
        "insecure_host_key": {"type": "boolean"}
      }
    },
    "output": {
      "type": "object",
      "properties": {
        "format": {"type": "string", "enum": ["text", "json", "yaml", "csv"]},
        "progress": {"type": "string", "enum": ["simple", "bar", "json", "none"]}
      }
    }
  },
  "required": ["library"]
}`

	fmt.Println(schema)
	return nil
}

// loadConfig merges flags over file over environment over defaults
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var fileCfg *config.Config
	if configFile != "" {
		var err error
		fileCfg, err = config.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
	}

	cfg := config.Merge(flagConfig(cmd), fileCfg, config.FromEnv())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flagConfig collects explicitly set flags into a config layer
func flagConfig(cmd *cobra.Command) *config.Config {
	cfg := &config.Config{}

	getString := func(name string) string { v, _ := cmd.Flags().GetString(name); return v }
	getInt := func(name string) int { v, _ := cmd.Flags().GetInt(name); return v }
	getBool := func(name string) bool { v, _ := cmd.Flags().GetBool(name); return v }

	if cmd.Flags().Changed("user") {
		cfg.Hosts.User = getString("user")
	}
	if cmd.Flags().Changed("port") {
		cfg.Hosts.Port = getInt("port")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Hosts.TimeoutSeconds = getInt("timeout")
	}
	if cmd.Flags().Changed("app") {
		cfg.Library.AppID = getInt("app")
	}
	if cmd.Flags().Changed("library") {
		cfg.Library.Base = getString("library")
	}
	if cmd.Flags().Changed("key") {
		cfg.SSH.KeyPath = getString("key")
	}
	if cmd.Flags().Changed("password-env") {
		cfg.SSH.PasswordEnv = getString("password-env")
	}
	if cmd.Flags().Changed("known-hosts") {
		cfg.SSH.KnownHostsPath = getString("known-hosts")
	}
	if cmd.Flags().Changed("insecure-host-key") {
		cfg.SSH.InsecureHostKey = getBool("insecure-host-key")
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Format = outputFormat
	}

	if cmd.Name() == "migrate" {
		if cmd.Flags().Changed("source-user") {
			cfg.Transfer.SourceUser = getString("source-user")
		}
		if cmd.Flags().Changed("dest-user") {
			cfg.Transfer.DestUser = getString("dest-user")
		}
		if cmd.Flags().Changed("dry-run") {
			cfg.Transfer.DryRun = getBool("dry-run")
		}
		if cmd.Flags().Changed("backup") {
			cfg.Transfer.Backup = getBool("backup")
		}
		if cmd.Flags().Changed("non-interactive") {
			cfg.Transfer.NonInteractive = getBool("non-interactive")
		}
		if cmd.Flags().Changed("copy-channel") {
			cfg.Transfer.CopyChannel = getString("copy-channel")
		}
		if cmd.Flags().Changed("on-missing-dest") {
			cfg.Transfer.OnMissingDest = getString("on-missing-dest")
		}
		if cmd.Flags().Changed("progress") {
			cfg.Output.Progress = getString("progress")
		}
	}

	return cfg
}

// parseHost turns an ADDR or USER@ADDR argument into a host
func parseHost(arg string, cfg *config.Config) core.Host {
	host := core.Host{
		Addr:    arg,
		User:    cfg.Hosts.User,
		Port:    cfg.Hosts.Port,
		Library: cfg.Library.Base,
	}
	if at := strings.Index(arg, "@"); at > 0 {
		host.User = arg[:at]
		host.Addr = arg[at+1:]
	}
	return host
}

// buildExecutor wires authentication, host key policy and copy channel
func buildExecutor(cfg *config.Config) (*remote.Executor, error) {
	auth, err := transport.BuildAuth(transport.AuthOptions{
		KeyPath:     cfg.SSH.KeyPath,
		PasswordEnv: cfg.SSH.PasswordEnv,
	})
	if err != nil {
		return nil, &core.AuthError{Reason: "build credentials", Err: err}
	}

	hostKey, err := transport.HostKeyCallbackFor(transport.HostKeyOptions{
		KnownHostsPath: cfg.SSH.KnownHostsPath,
		Insecure:       cfg.SSH.InsecureHostKey,
	})
	if err != nil {
		return nil, err
	}

	return remote.NewExecutor(remote.Options{
		Auth:    auth,
		HostKey: hostKey,
		Timeout: time.Duration(cfg.Hosts.TimeoutSeconds) * time.Second,
		Channel: transport.Channel(cfg.Transfer.CopyChannel),
	})
}

// exitWithError prints error metadata and exits with its semantic code
func exitWithError(context string, err error) error {
	code := core.ExitCodeFor(err)
	info := core.GetExitCodeInfo(code)

	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", context, err)
	if info.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", info.Suggestion)
	}

	os.Exit(code)
	return nil // Never reached
}
