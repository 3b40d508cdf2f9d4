/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: inference.go
Description: Entry point for structure profiling. Profiles show, per field path, which
shapes were seen, how often, and what the live classifier would decide, so extraction
settings can be tuned before a run.
*/

package inference

import (
	"fmt"

	"github.com/kleascm/furnace/pkg/jsonvalue"
	"github.com/kleascm/furnace/pkg/melt"
)

// ProfileSamples parses raw JSON samples and profiles them
func ProfileSamples(samples [][]byte, cfg melt.Config) (*Profile, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	p, err := NewProfiler(cfg)
	if err != nil {
		return nil, err
	}
	for i, sample := range samples {
		v, err := jsonvalue.Parse(sample)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i+1, err)
		}
		p.Add(v)
	}
	return p.Profile(), nil
}
