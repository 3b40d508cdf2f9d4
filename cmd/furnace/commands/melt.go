/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: melt.go
Description: Melt command implementation. Streams the input through the melting engine
in unplanned or planned mode and writes the resulting entities to stdout or to one
JSON Lines file per entity type.
*/

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kleascm/furnace/pkg/melt"
	"github.com/kleascm/furnace/pkg/metrics"
	"github.com/kleascm/furnace/pkg/sink"
	"github.com/kleascm/furnace/pkg/stream"
	"github.com/kleascm/furnace/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunMelt melts the input named by args (or stdin)
func RunMelt(cmd *cobra.Command, args []string) error {
	settings, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := SetupLogging(settings)
	if err != nil {
		return err
	}
	defer logger.Close()

	framing, err := stream.ParseFraming(settings.Framing)
	if err != nil {
		return err
	}

	opts := stream.Options{
		Config:     settings.Melt,
		Framing:    framing,
		MaxSkipped: settings.MaxSkipped,
		Logger:     logger.GetLogger(),
	}
	if viper.GetBool("melt_cmd.planned") {
		opts.Mode = stream.ModePlanned
	}
	if planFile := viper.GetString("melt_cmd.plan"); planFile != "" {
		plan, err := melt.LoadPlan(planFile)
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}
		logger.LogPlanBuilt(plan.Len(), plan.Samples(), planFile, nil)
		opts.Plan = plan
	}

	reporters := stream.MultiReporter{stream.NewLoggerReporter(logger.GetLogger())}
	var registry *prometheus.Registry
	metricsFile := viper.GetString("melt_cmd.metrics_file")
	if metricsFile != "" {
		registry = metrics.NewRegistry()
		promReporter, err := metrics.NewPrometheusReporter(registry)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		reporters = append(reporters, promReporter)
	}
	opts.Reporter = reporters

	driver, err := stream.NewDriver(opts)
	if err != nil {
		return fmt.Errorf("invalid melt options: %w", err)
	}

	src, err := openInput(args)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := openSink(viper.GetString("melt_cmd.output_dir"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "🔥 Melting %s\n", src.Name())
	report, runErr := driver.Run(ctx, src, out)

	if err := out.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close output: %w", err)
	}

	logger.LogRunSummary(report, map[string]interface{}{"source": src.Name()})

	if dir := viper.GetString("melt_cmd.report_dir"); dir != "" {
		path, err := utils.WriteRunReport(dir, report)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to write run report")
		} else {
			fmt.Fprintf(os.Stderr, "📄 Report written to %s\n", path)
		}
	}
	if registry != nil {
		if err := metrics.WriteFile(metricsFile, registry); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to write metrics")
		}
	}

	fmt.Fprintf(os.Stderr, "📊 %d records melted, %d skipped, %d entities across %d types\n",
		report.RecordsMelted, report.RecordsSkipped, report.EntitiesEmitted, len(report.EntitiesByType))

	if errors.Is(runErr, stream.ErrPrefixOnly) {
		fmt.Fprintf(os.Stderr, "⚠️  %s is not seekable: only the first %d sampled records were melted\n",
			src.Name(), report.RecordsMelted)
		fmt.Fprintln(os.Stderr, "⚠️  Build a plan with 'furnace plan' and pass it with --plan to melt the whole stream")
		return nil
	}
	return runErr
}

// openSink picks a per-type file sink for dir, or tagged lines on stdout
func openSink(dir string) (sink.Sink, error) {
	if dir == "" {
		return sink.NewStreamSink(os.Stdout), nil
	}
	out, err := sink.NewFileSink(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open output directory: %w", err)
	}
	return out, nil
}
