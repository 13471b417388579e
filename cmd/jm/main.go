// Command jm installs a JavaScript monorepo's dependencies: discovering
// workspace members, resolving the dependency graph against an
// npm-compatible registry, and writing the result into a content-addressed
// store linked into each package's node_modules.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/jm-dev/jm/cmd/jm/globals"
	"github.com/jm-dev/jm/internal/install"
	"github.com/jm-dev/jm/internal/metrics"
	"github.com/jm-dev/jm/internal/storage"
)

// defaultRegistry is the public npm registry jm talks to when --registry
// isn't set.
const defaultRegistry = "https://registry.npmjs.org"

type CLI struct {
	globals.Globals
	Install InstallCmd `cmd:"" help:"Resolve and write the monorepo's dependency graph" aliases:"i"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

var Version = "dev"

type VersionCmd struct{}

func (cmd *VersionCmd) Run(globals *globals.Globals) error {
	fmt.Println(Version)
	return nil
}

// S3Flags configures the S3 storage backend, mirrored after a-h-depot's
// cmd/depot ServeCmd.S3Flags.
type S3Flags struct {
	Bucket          string `help:"S3 bucket name (required when --storage-type=s3)" env:"JM_S3_BUCKET"`
	Region          string `help:"S3 region" default:"us-east-1" env:"JM_S3_REGION"`
	Endpoint        string `help:"S3 endpoint URL (for MinIO/custom endpoints)" env:"JM_S3_ENDPOINT"`
	AccessKeyID     string `help:"S3 access key ID (uses IAM role if not set)" env:"JM_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `help:"S3 secret access key (uses IAM role if not set)" env:"JM_S3_SECRET_ACCESS_KEY"`
	ForcePathStyle  bool   `help:"Use path-style S3 URLs (required for MinIO)" env:"JM_S3_FORCE_PATH_STYLE"`
}

type InstallCmd struct {
	Registry          string  `help:"npm-compatible registry URL" default:"${defaultRegistry}" env:"JM_REGISTRY"`
	CacheGroup        string  `help:"Namespaces the on-disk cache under the OS cache directory" default:"jm" hidden:""`
	ExplainLock       string  `help:"Diagnose which packages in an existing package-lock.json are no longer reachable by fresh resolution" placeholder:"PATH"`
	StorageType       string  `help:"Cache storage backend (fs or s3)" default:"fs" enum:"fs,s3" env:"JM_STORAGE_TYPE"`
	S3                S3Flags `embed:"" prefix:"s3-"`
	MetricsListenAddr string  `help:"Address to serve Prometheus metrics on (empty disables the listener)" default:"" env:"JM_METRICS_LISTEN_ADDR"`
}

func (cmd *InstallCmd) Run(globals *globals.Globals) error {
	log := newLogger(globals.Verbose)

	if cmd.StorageType == "s3" && cmd.S3.Bucket == "" {
		return fmt.Errorf("--s3-bucket must also be set when --storage-type=s3")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return err
	}
	cacheDir = cacheDir + string(os.PathSeparator) + cmd.CacheGroup + "-cache"

	dataDir := cacheDir + "-data"

	m, err := metrics.New()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if cmd.MetricsListenAddr != "" {
		go func() {
			if err := metrics.ListenAndServe(cmd.MetricsListenAddr); err != nil {
				log.Error("metrics server exited", slog.String("addr", cmd.MetricsListenAddr), slog.String("error", err.Error()))
			}
		}()
	}

	return install.Run(context.Background(), log, install.Options{
		Cwd:         cwd,
		Registry:    cmd.Registry,
		CacheDir:    cacheDir,
		DataDir:     dataDir,
		ExplainLock: cmd.ExplainLock,
		StorageType: cmd.StorageType,
		S3: storage.S3Config{
			Bucket:          cmd.S3.Bucket,
			Prefix:          "jm/",
			Region:          cmd.S3.Region,
			Endpoint:        cmd.S3.Endpoint,
			AccessKeyID:     cmd.S3.AccessKeyID,
			SecretAccessKey: cmd.S3.SecretAccessKey,
			ForcePathStyle:  cmd.S3.ForcePathStyle,
		},
		Metrics: m,
	})
}

func newLogger(verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func main() {
	cli := CLI{Globals: globals.Globals{}}

	ctx := kong.Parse(&cli,
		kong.Name("jm"),
		kong.Description("Install a JavaScript monorepo's dependencies"),
		kong.UsageOnError(),
		kong.Vars{"defaultRegistry": defaultRegistry},
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	if err := ctx.Run(&cli.Globals); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
