/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for furnace. Melts nested JSON into flat, linked
entity streams, builds and inspects extraction plans, and profiles input structure.
*/

package main

import (
	"fmt"
	"os"

	"github.com/kleascm/furnace/cmd/furnace/commands"
	"github.com/kleascm/furnace/pkg/melt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string

	// Logging configuration
	logLevel    string
	logFormat   string
	logDir      string
	logMaxFiles int
	logCompress bool
	logCaller   bool
	logColors   bool

	// Input configuration
	framing    string
	maxSkipped int
)

func main() {
	defaults := melt.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "furnace",
		Short: "furnace - melt nested JSON into flat, linked entity streams",
		Long: `furnace turns arbitrarily nested JSON records into flat entities, one stream per
entity type, linked by injected parent keys. Extraction can be decided per value or
planned once from a sample of the input.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path (yaml, toml, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Also write logs to timestamped files in this directory")
	rootCmd.PersistentFlags().IntVar(&logMaxFiles, "log-max-files", 10, "Maximum number of log files to keep")
	rootCmd.PersistentFlags().BoolVar(&logCompress, "log-compress", false, "Compress finished log files")
	rootCmd.PersistentFlags().BoolVar(&logCaller, "log-caller", false, "Include caller information in logs")
	rootCmd.PersistentFlags().BoolVar(&logColors, "log-colors", false, "Colorize log output")

	// Add melt policy flags
	rootCmd.PersistentFlags().Int("max-depth", defaults.MaxDepth, "Maximum promoted hops below the root")
	rootCmd.PersistentFlags().String("separator", defaults.Separator, "Separator for entity types and foreign keys")
	rootCmd.PersistentFlags().String("fk-prefix", defaults.FKPrefix, "Prefix for injected foreign keys")
	rootCmd.PersistentFlags().String("id-suffix", defaults.IDSuffix, "Suffix for injected foreign keys")
	rootCmd.PersistentFlags().Bool("no-parent-ids", false, "Do not inject parent identifiers into children")
	rootCmd.PersistentFlags().StringSlice("scalar-fields", nil, "Field names that always stay inline")
	rootCmd.PersistentFlags().Int("sample-size", defaults.SampleSize, "Records sampled when building a plan")

	// Add input flags
	rootCmd.PersistentFlags().StringVar(&framing, "framing", "auto", "Input framing (auto, array, ndjson, document). auto reads a leading '[' as one array unless the first line is a complete record followed by more lines")
	rootCmd.PersistentFlags().IntVar(&maxSkipped, "max-skipped", 0, "Abort after this many malformed records (0 = unlimited)")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log.output_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log.max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))
	viper.BindPFlag("log.compress", rootCmd.PersistentFlags().Lookup("log-compress"))
	viper.BindPFlag("log.caller", rootCmd.PersistentFlags().Lookup("log-caller"))
	viper.BindPFlag("log.colors", rootCmd.PersistentFlags().Lookup("log-colors"))
	viper.BindPFlag("melt.max_depth", rootCmd.PersistentFlags().Lookup("max-depth"))
	viper.BindPFlag("melt.separator", rootCmd.PersistentFlags().Lookup("separator"))
	viper.BindPFlag("melt.fk_prefix", rootCmd.PersistentFlags().Lookup("fk-prefix"))
	viper.BindPFlag("melt.id_suffix", rootCmd.PersistentFlags().Lookup("id-suffix"))
	viper.BindPFlag("melt.scalar_fields", rootCmd.PersistentFlags().Lookup("scalar-fields"))
	viper.BindPFlag("melt.sample_size", rootCmd.PersistentFlags().Lookup("sample-size"))
	viper.BindPFlag("no_parent_ids", rootCmd.PersistentFlags().Lookup("no-parent-ids"))
	viper.BindPFlag("framing", rootCmd.PersistentFlags().Lookup("framing"))
	viper.BindPFlag("max_skipped", rootCmd.PersistentFlags().Lookup("max-skipped"))

	// Add melt command
	meltCmd := &cobra.Command{
		Use:   "melt [FILE|-]",
		Short: "Melt JSON input into entity streams",
		Long: `Melt every record of FILE (or stdin) into flat entities. Without --output-dir the
entities are written to stdout as tagged JSON lines; with it, one <entity_type>.jsonl file
is written per entity type.`,
		Args: cobra.MaximumNArgs(1),
		RunE: commands.RunMelt,
	}
	meltCmd.Flags().String("output-dir", "", "Write one JSON Lines file per entity type into this directory")
	meltCmd.Flags().Bool("planned", false, "Sample the input into a plan before melting")
	meltCmd.Flags().String("plan", "", "Melt with a plan file written by 'furnace plan'")
	meltCmd.Flags().String("metrics-file", "", "Write Prometheus metrics for the run to this file")
	meltCmd.Flags().String("report-dir", "", "Write a JSON run report into this directory")

	viper.BindPFlag("melt_cmd.output_dir", meltCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("melt_cmd.planned", meltCmd.Flags().Lookup("planned"))
	viper.BindPFlag("melt_cmd.plan", meltCmd.Flags().Lookup("plan"))
	viper.BindPFlag("melt_cmd.metrics_file", meltCmd.Flags().Lookup("metrics-file"))
	viper.BindPFlag("melt_cmd.report_dir", meltCmd.Flags().Lookup("report-dir"))
	rootCmd.AddCommand(meltCmd)

	// Add plan command
	planCmd := &cobra.Command{
		Use:   "plan [FILE|-]",
		Short: "Build an extraction plan from a sample of the input",
		Long: `Sample the first --sample-size records of FILE (or stdin), build an extraction plan
and write it as YAML. The plan can be reviewed, edited and reused with 'furnace melt --plan'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: commands.RunPlan,
	}
	planCmd.Flags().String("out", "", "Write the plan to this file instead of stdout")
	planCmd.Flags().Bool("dump", false, "Print a debug dump of the compiled plan to stderr")
	viper.BindPFlag("plan_cmd.out", planCmd.Flags().Lookup("out"))
	viper.BindPFlag("plan_cmd.dump", planCmd.Flags().Lookup("dump"))
	rootCmd.AddCommand(planCmd)

	// Add profile command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "profile [FILE|-]",
		Short: "Profile the structure of the input",
		Long: `Walk the first --sample-size records of FILE (or stdin) and print, per field path,
the shapes seen, presence, value ranges and what the classifier would decide.`,
		Args: cobra.MaximumNArgs(1),
		RunE: commands.RunProfile,
	})

	// Add check command
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and exit",
		Long: `Validate the melt and logging configuration, and optionally a plan file and an
output directory, without reading any input. Useful in CI before a long run.`,
		Args: cobra.NoArgs,
		RunE: commands.PerformSelfCheck,
	}
	checkCmd.Flags().String("plan", "", "Also validate this plan file")
	checkCmd.Flags().String("output-dir", "", "Also check that this directory is writable")
	viper.BindPFlag("check_cmd.plan", checkCmd.Flags().Lookup("plan"))
	viper.BindPFlag("check_cmd.output_dir", checkCmd.Flags().Lookup("output-dir"))
	rootCmd.AddCommand(checkCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
