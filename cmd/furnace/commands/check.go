/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: check.go
Description: Check command implementation. Validates the effective configuration, an
optional plan file and an optional output directory without reading any input.
*/

package commands

import (
	"fmt"
	"os"

	"github.com/kleascm/furnace/pkg/melt"
	"github.com/kleascm/furnace/pkg/stream"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// PerformSelfCheck validates configuration and exits
func PerformSelfCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("🔍 furnace - Configuration Check")
	fmt.Println("================================")
	fmt.Println()

	settings, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	checks := []struct {
		name     string
		function func() error
	}{
		{"Melt Configuration", settings.Melt.Validate},
		{"Logging Configuration", settings.Log.Validate},
		{"Input Options", func() error { return checkInputOptions(settings) }},
		{"Plan File", func() error { return checkPlanFile(viper.GetString("check_cmd.plan")) }},
		{"Output Directory", func() error { return checkOutputDir(viper.GetString("check_cmd.output_dir")) }},
	}

	passed := 0
	total := len(checks)

	for _, check := range checks {
		fmt.Printf("🔍 %s... ", check.name)
		if err := check.function(); err != nil {
			fmt.Printf("❌ FAILED: %v\n", err)
		} else {
			fmt.Println("✅ PASSED")
			passed++
		}
	}

	fmt.Println()
	fmt.Printf("📊 Results: %d/%d checks passed\n", passed, total)

	if passed != total {
		fmt.Println("⚠️  Some checks failed. Please address the issues before melting.")
		return fmt.Errorf("%d/%d checks failed", total-passed, total)
	}
	fmt.Println("✨ All checks passed! Ready to melt.")
	return nil
}

func checkInputOptions(settings *Settings) error {
	if _, err := stream.ParseFraming(settings.Framing); err != nil {
		return err
	}
	if settings.MaxSkipped < 0 {
		return fmt.Errorf("max_skipped must not be negative")
	}
	return nil
}

// checkPlanFile loads and validates path; an empty path is skipped
func checkPlanFile(path string) error {
	if path == "" {
		return nil
	}
	plan, err := melt.LoadPlan(path)
	if err != nil {
		return err
	}
	fmt.Printf("(%d rules) ", plan.Len())
	return nil
}

// checkOutputDir makes sure entity files can be created in dir
func checkOutputDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".furnace-check-*")
	if err != nil {
		return fmt.Errorf("cannot write to %s: %w", dir, err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}
