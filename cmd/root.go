package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/beamly/fastlydash/internal/api"
	"github.com/beamly/fastlydash/internal/config"
	"github.com/beamly/fastlydash/internal/logger"
	"github.com/beamly/fastlydash/internal/storage"
	"github.com/beamly/fastlydash/internal/summary"
)

// flagKeys maps command line flags to their viper keys.
var flagKeys = map[string]string{
	"s3bucket":      "s3bucket",
	"filename":      "filename",
	"s3acl":         "s3acl",
	"s3region":      "s3region",
	"s3endpoint":    "s3endpoint",
	"s3-path-style": "s3_path_style",
	"hours":         "hours",
	"timeout":       "timeout",
	"api-root":      "api_root",
	"html-out":      "html_out",
	"metrics-file":  "metrics_file",
	"output":        "output",
	"log-level":     "log_level",
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	v := config.NewViper()
	var cfgFile string

	root := &cobra.Command{
		Use:   "fastlydash [fastly_api_key]",
		Short: "Fastly service statistics dashboard",
		Long: `fastlydash fetches the last day of statistics for every Fastly service,
prints them sorted by cache hit ratio and renders an HTML dashboard that can be
uploaded to S3.

The API key may be given as an argument or through FASTLY_API_KEY.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			used, err := config.ReadConfigFile(v, cfgFile)
			if err != nil {
				return err
			}
			if used != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", used)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, v, args)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()

			runner := &summary.Runner{
				Config:  cfg,
				Fetcher: newAPIClient(cfg, log),
				Out:     cmd.OutOrStdout(),
				Log:     log,
			}
			if cfg.UploadEnabled() {
				store, err := storage.NewS3Uploader(ctx, storage.Config{
					Bucket:          cfg.Bucket,
					Region:          cfg.Region,
					Endpoint:        cfg.Endpoint,
					AccessKeyID:     cfg.AccessKeyID,
					SecretAccessKey: cfg.SecretAccessKey,
					UsePathStyle:    cfg.UsePathStyle,
				})
				if err != nil {
					log.Warnw("initialising upload client failed", "bucket", cfg.Bucket, "error", err)
				} else {
					runner.Store = store
				}
			}

			_, err = runner.Run(ctx)
			return err
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fastlydash.yaml)")
	root.PersistentFlags().String("api-root", config.DefaultAPIRoot, "Fastly API root URL")
	root.PersistentFlags().Duration("timeout", config.DefaultTimeout, "overall timeout for API calls and upload")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringP("output", "o", string(config.OutputTable), "console output format (table, json)")

	root.Flags().String("s3bucket", "", "S3 bucket to upload the dashboard to")
	root.Flags().String("filename", config.DefaultFilename, "object key for the uploaded dashboard")
	root.Flags().String("s3acl", string(config.DefaultACL),
		"canned ACL for the uploaded dashboard ("+strings.Join(config.ACLNames(), ", ")+")")
	root.Flags().String("s3region", config.DefaultRegion, "S3 region")
	root.Flags().String("s3endpoint", "", "custom S3 endpoint (for S3-compatible stores)")
	root.Flags().Bool("s3-path-style", false, "use path-style S3 addressing")
	root.Flags().Int("hours", config.DefaultHours, "statistics lookback window in hours")
	root.Flags().String("html-out", "", "also write the dashboard to this local path")
	root.Flags().String("metrics-file", "", "write Prometheus textfile metrics to this path")

	bindFlags(v, root.PersistentFlags())
	bindFlags(v, root.Flags())

	root.AddCommand(newServicesCmd(v))
	return root
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			cobra.CheckErr(v.BindPFlag(key, f))
		}
	})
}

// setup resolves the configuration and builds the run logger.
func setup(cmd *cobra.Command, v *viper.Viper, args []string) (*config.Config, *zap.SugaredLogger, error) {
	if len(args) == 1 {
		v.Set("api_key", args[0])
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, log.With("run_id", uuid.NewString()), nil
}

func newAPIClient(cfg *config.Config, log logger.Logger) *api.Client {
	return api.NewClient(cfg.APIKey,
		api.WithBaseURL(cfg.APIRoot),
		api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		api.WithLogger(log),
	)
}

func commandContext(cmd *cobra.Command, cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}
	return context.WithCancel(ctx)
}
