/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: profile.go
Description: Profile command implementation. Walks the head of the input and prints
what every field path looks like and how the classifier would treat it.
*/

package commands

import (
	"fmt"
	"os"

	"github.com/kleascm/furnace/pkg/inference"
	"github.com/kleascm/furnace/pkg/jsonvalue"
	"github.com/kleascm/furnace/pkg/stream"
	"github.com/spf13/cobra"
)

// RunProfile profiles the input named by args (or stdin)
func RunProfile(cmd *cobra.Command, args []string) error {
	fmt.Println("🔍 furnace - Structure Profile")
	fmt.Println("==============================")
	fmt.Println()

	settings, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := SetupLogging(settings)
	if err != nil {
		return err
	}
	defer logger.Close()

	profiler, err := inference.NewProfiler(settings.Melt)
	if err != nil {
		return fmt.Errorf("invalid melt configuration: %w", err)
	}

	src, err := openInput(args)
	if err != nil {
		return err
	}
	defer src.Close()

	add := func(v jsonvalue.Value) error {
		profiler.Add(v)
		return nil
	}
	skipped := 0
	_, err = sampleRecords(src, settings, settings.Melt.SampleSize, add, func(m *stream.MalformedInputError) {
		skipped++
		logger.LogRecordSkipped(m.Record, m.Line, m.Err, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to sample input: %w", err)
	}
	if profiler.Samples() == 0 {
		fmt.Fprintln(os.Stderr, "⚠️  No records to profile")
		return nil
	}

	for _, line := range profiler.Profile().Describe() {
		fmt.Println(line)
	}
	if skipped > 0 {
		fmt.Println()
		fmt.Printf("⚠️  %d malformed records skipped\n", skipped)
	}
	return nil
}
