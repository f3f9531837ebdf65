package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"
	"go.opentelemetry.io/otel/trace"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

// app carries what the root command prepares for its subcommands.
type app struct {
	viper    *viper.Viper
	cfgFile  string
	cfg      *config
	tracer   trace.TracerProvider
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{viper: newViper()}

	rootCmd := &cobra.Command{
		Use:          "pdepend",
		Short:        "Static analysis and software metrics for PHP",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(a.viper, cmd, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			var logFile *string
			if cfg.LogFile != "" {
				logFile = &cfg.LogFile
			}
			commonlog.Configure(cfg.Verbose, logFile)

			a.tracer, a.shutdown, err = setupTracing(cfg.Trace, cmd.ErrOrStderr())
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.shutdown == nil {
				return nil
			}
			return a.shutdown(context.Background())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is .pdepend.yaml in the working or home directory)")
	flags.CountP("verbose", "v", "increase log verbosity")
	flags.String("log-file", "", "write logs to this file instead of stderr")
	flags.Int("workers", 0, "files parsed in parallel (0 means no limit)")
	flags.Duration("timeout", 0, "stop the build after this long and report what was merged")
	flags.StringSlice("suffixes", []string{".php"}, "file name suffixes to analyze")
	flags.StringSlice("exclude", nil, `glob patterns of paths to skip, relative to the root ("vendor/**")`)
	flags.Bool("trace", false, "print trace spans to stderr")

	rootCmd.AddCommand(newParseCmd(a))
	rootCmd.AddCommand(newAnalyzeCmd(a))
	rootCmd.AddCommand(newAnalyzersCmd(a))
	rootCmd.AddCommand(newLSPCmd(a))

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
