package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hostwatch/pcie-errmon/internal/config"
	"github.com/hostwatch/pcie-errmon/internal/monitor"
	"github.com/hostwatch/pcie-errmon/internal/notify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCfg struct {
	source                  string
	accessDir               string
	reportMasked            bool
	persistentNotifications bool
	logFile                 string
	readLog                 bool
	firstFullRead           bool
	interval                time.Duration
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the poll loop, logging each notification through logrus",
	Long: `Drives the device and log poll passes on a fixed interval, standing in
for the host monitoring framework that would normally own the polling
cadence and notification sink.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		host, err := os.Hostname()
		if err != nil {
			host = "localhost"
		}

		sink := notify.SinkFunc(func(n notify.Notification) {
			logEntry := logrus.WithFields(logrus.Fields{
				"plugin_instance": n.PluginInstance,
				"type_instance":   n.TypeInstance,
				"severity":        n.Severity,
			})
			switch n.Severity {
			case notify.SeverityFailure:
				logEntry.Error(n.Message)
			case notify.SeverityWarning:
				logEntry.Warn(n.Message)
			default:
				logEntry.Info(n.Message)
			}
		})

		cfg := config.Config{
			Source:                  runCfg.source,
			AccessDir:               runCfg.accessDir,
			ReportMasked:            runCfg.reportMasked,
			PersistentNotifications: runCfg.persistentNotifications,
			LogFile:                 runCfg.logFile,
			ReadLog:                 runCfg.readLog,
			FirstFullRead:           runCfg.firstFullRead,
		}

		mon, err := monitor.New(host, cfg, sink)
		if err != nil {
			return fmt.Errorf("bootstrap failed: %w", err)
		}
		defer mon.Shutdown()

		ticker := time.NewTicker(runCfg.interval)
		defer ticker.Stop()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		logrus.WithField("interval", runCfg.interval).Info("starting poll loop")
		for {
			select {
			case <-ticker.C:
				mon.Poll()
			case <-stop:
				logrus.Info("shutting down")
				return nil
			}
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&runCfg.source, "source", "sysfs", "access backend: sysfs, proc, or any other value to disable device polling")
	runCmd.Flags().StringVar(&runCfg.accessDir, "access-dir", "", "override the backend's default root directory")
	runCmd.Flags().BoolVar(&runCfg.reportMasked, "report-masked", false, "report AER bits even when masked")
	runCmd.Flags().BoolVar(&runCfg.persistentNotifications, "persistent-notifications", false, "re-emit SET on each poll while a bit remains set")
	runCmd.Flags().StringVar(&runCfg.logFile, "log-file", config.DefaultLogFile, "kernel log file to tail for pcieport AER lines")
	runCmd.Flags().BoolVar(&runCfg.readLog, "read-log", false, "enable the log-tailing pass")
	runCmd.Flags().BoolVar(&runCfg.firstFullRead, "first-full-read", false, "on first poll, read the entire existing log instead of tailing from the end")
	runCmd.Flags().DurationVar(&runCfg.interval, "interval", 10*time.Second, "poll interval")
	rootCmd.AddCommand(runCmd)
}
