// Package shop implements a machine shop scenario on top of the simulation
// kernel: machines produce parts, break down at random, and compete with the
// repairman's other work for a single preemptive repairman.
package shop

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the parameters of the machine shop scenario. Virtual time is
// measured in minutes.
type Config struct {
	// NumMachines is the number of machines in the shop.
	NumMachines int `yaml:"num_machines"`

	// PTMean and PTSigma parameterize the normal distribution of per-part
	// processing times.
	PTMean  float64 `yaml:"pt_mean"`
	PTSigma float64 `yaml:"pt_sigma"`

	// MTTF is the mean time to failure of a machine.
	MTTF float64 `yaml:"mttf"`

	// RepairTime is the time it takes the repairman to repair a machine.
	RepairTime float64 `yaml:"repair_time"`

	// JobDuration is the duration of one of the repairman's unimportant jobs.
	JobDuration float64 `yaml:"job_duration"`

	// Weeks is the simulated duration.
	Weeks int `yaml:"weeks"`

	// Seed seeds the scenario's random source.
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns the canonical machine shop parameters.
func DefaultConfig() Config {
	return Config{
		NumMachines: 10,
		PTMean:      10.0,
		PTSigma:     2.0,
		MTTF:        300.0,
		RepairTime:  30.0,
		JobDuration: 7.0,
		Weeks:       4,
		Seed:        42,
	}
}

// SimTime returns the simulated duration in minutes.
func (c Config) SimTime() float64 {
	return float64(c.Weeks) * 7 * 24 * 60
}

func (c Config) mustBeValid() {
	if c.NumMachines <= 0 {
		panic(fmt.Sprintf("num_machines must be positive, got %d",
			c.NumMachines))
	}

	if c.MTTF <= 0 {
		panic(fmt.Sprintf("mttf must be positive, got %f", c.MTTF))
	}

	if c.JobDuration <= 0 {
		panic(fmt.Sprintf("job_duration must be positive, got %f",
			c.JobDuration))
	}
}

// LoadConfig reads a YAML config file. Fields absent from the file keep their
// default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
