/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: plan.go
Description: Plan command implementation. Samples the head of the input, builds an
extraction plan and writes it as YAML for review or reuse with 'furnace melt --plan'.
*/

package commands

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/kleascm/furnace/pkg/melt"
	"github.com/kleascm/furnace/pkg/stream"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunPlan builds a plan from the input named by args (or stdin)
func RunPlan(cmd *cobra.Command, args []string) error {
	settings, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := SetupLogging(settings)
	if err != nil {
		return err
	}
	defer logger.Close()

	builder, err := melt.NewBuilder(settings.Melt)
	if err != nil {
		return fmt.Errorf("invalid melt configuration: %w", err)
	}

	src, err := openInput(args)
	if err != nil {
		return err
	}
	defer src.Close()

	fmt.Fprintf(os.Stderr, "🧭 Sampling up to %d records from %s\n", settings.Melt.SampleSize, src.Name())

	_, err = sampleRecords(src, settings, settings.Melt.SampleSize, builder.Add, func(m *stream.MalformedInputError) {
		logger.LogRecordSkipped(m.Record, m.Line, m.Err, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to sample input: %w", err)
	}

	plan, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build plan: %w", err)
	}
	logger.LogPlanBuilt(plan.Len(), plan.Samples(), src.Name(), nil)

	if viper.GetBool("plan_cmd.dump") {
		spew.Fdump(os.Stderr, plan.Rules())
	}

	if out := viper.GetString("plan_cmd.out"); out != "" {
		if err := melt.SavePlan(out, plan); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "💾 Plan written to %s\n", out)
	} else if err := melt.WritePlan(os.Stdout, plan); err != nil {
		return err
	}

	for _, line := range plan.Describe() {
		fmt.Fprintln(os.Stderr, line)
	}
	return nil
}
