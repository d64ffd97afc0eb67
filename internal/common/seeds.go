package common

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Seed is one initial vault funding entry.
type Seed struct {
	Owner  string `yaml:"owner"`
	Amount uint64 `yaml:"amount"`
}

type seedsFile struct {
	Seeds []Seed `yaml:"seeds"`
}

// SeedReference builds the deterministic journal reference for a seed.
// The file position is part of the reference so a file that intentionally
// repeats an owner+amount pair still funds every entry; reruns of the same
// file reproduce the same references and are skipped as duplicates.
func SeedReference(index int, seed Seed) string {
	return fmt.Sprintf("seed-%d-%s-%d", index, seed.Owner, seed.Amount)
}

// LoadSeeds reads the seed file used by cmd/setup to fund vaults on a fresh
// deployment.
func LoadSeeds(seedFile string) ([]Seed, error) {
	var seedsPath string
	if filepath.IsAbs(seedFile) {
		seedsPath = seedFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		seedsPath = filepath.Join(wd, seedFile)
	}

	data, err := os.ReadFile(seedsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", seedFile, err)
	}

	var config seedsFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", seedFile, err)
	}

	for i, seed := range config.Seeds {
		if seed.Owner == "" {
			return nil, fmt.Errorf("seed at index %d missing owner", i)
		}
		if seed.Amount == 0 {
			return nil, fmt.Errorf("seed at index %d has zero amount", i)
		}
	}

	return config.Seeds, nil
}
