package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"netmon/api"
	"netmon/config"
	"netmon/logger"
	"netmon/monitor"
	"netmon/probe"
	"netmon/procinfo"
	"netmon/sampler"
	"netmon/tracker"
	"netmon/ui"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "netmon",
	Short: "per-process network throughput monitor",
	Long: `netmon attaches eBPF probes to the kernel's TCP/UDP send and receive paths,
samples per-process byte counters every tick and shows rolling rates and totals.`,
	SilenceUsage: true,
	RunE:         run,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.Flags()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/netmon/config.yaml)")
	flags.Duration("refresh", 0, "polling / redraw interval (default 200ms)")
	flags.Duration("window", 0, "trailing window used for rates (default 5s)")
	flags.Int("history-capacity", 0, "samples kept per process (default 255)")
	flags.Int("prune-every", 0, "drop exited processes every N ticks (default 10)")
	flags.String("bpf-object", "", "compiled eBPF object (default bpf/netmon.bpf.o)")
	flags.String("listen", "", "serve the JSON API on this address, e.g. :9100")
	flags.Bool("plain", false, "print plain text instead of the dashboard")
	flags.Bool("demo", false, "use synthetic counters instead of eBPF probes")
	flags.String("log-file", "", "log file (default $TMPDIR/netmon.log)")
	flags.String("log-level", "", "debug, info, warn or error")

	for key, flag := range map[string]string{
		config.KeyRefresh:         "refresh",
		config.KeyWindow:          "window",
		config.KeyHistoryCapacity: "history-capacity",
		config.KeyPruneEvery:      "prune-every",
		config.KeyBPFObject:       "bpf-object",
		config.KeyListen:          "listen",
		config.KeyPlain:           "plain",
		config.KeyDemo:            "demo",
		config.KeyLogFile:         "log-file",
		config.KeyLogLevel:        "log-level",
	} {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}
}

func initConfig() {
	cobra.CheckErr(config.ReadIn(viper.GetViper(), cfgFile))
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	logger.Initialize(logFile, logger.ParseLevel(cfg.LogLevel))
	logger.Info("starting", "refresh", cfg.Refresh, "window", cfg.Window, "demo", cfg.Demo)

	src, closeSrc, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	tr := tracker.New(
		tracker.WithCapacity(cfg.HistoryCapacity),
		tracker.WithPruneEvery(cfg.PruneEvery),
	)
	mon := monitor.New(src, tr, procinfo.NewGopsutil(), cfg.Window)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var apiDone <-chan error
	if cfg.Listen != "" {
		apiDone = startAPI(ctx, cfg.Listen, mon)
	}

	if cfg.Plain {
		err = ui.RunPlain(ctx, cmd.OutOrStdout(), cfg.Refresh, mon.Tick)
	} else {
		err = ui.RunDashboard(ctx, cfg.Refresh, mon.Tick)
	}

	// 等 API 服务退出后再关日志文件
	stop()
	if apiDone != nil {
		if apiErr := <-apiDone; apiErr != nil {
			logger.Error("api server stopped", "error", apiErr)
		}
	}
	logger.Info("stopped")
	return err
}

// startAPI 在后台运行 API 服务；ctx 取消后服务关闭，返回的 channel 收到结果后被关闭
func startAPI(ctx context.Context, addr string, src api.ReportSource) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- api.Serve(ctx, addr, api.NewRouter(src))
	}()
	return done
}

// openSource 返回计数器来源；计数器来源不可用时直接启动失败
func openSource(cfg config.Config) (sampler.Source, func(), error) {
	if cfg.Demo {
		return sampler.NewDemo(uint64(os.Getpid())), func() {}, nil
	}
	p, err := probe.Open(config.ResolveObject(cfg.BPFObject))
	if err != nil {
		return nil, nil, fmt.Errorf("opening probes: %w", err)
	}
	return p, func() {
		if err := p.Close(); err != nil {
			logger.Warn("closing probes", "error", err)
		}
	}, nil
}
