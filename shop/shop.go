package shop

import (
	"fmt"
	"math/rand"

	"github.com/procsim/procsim/datarecording"
	"github.com/procsim/procsim/sim"
	"github.com/procsim/procsim/simulation"
)

// A Shop is a fully wired machine shop scenario: n machines, their failure
// processes, one preemptive repairman, and the repairman's unimportant work.
type Shop struct {
	cfg Config

	Repairman       *sim.PreemptiveResource
	Machines        []*Machine
	UnimportantWork *UnimportantWork
}

// Build wires the machine shop scenario into the simulation. All randomness
// comes from a single source seeded from the config, so runs with the same
// seed produce the same event sequence.
func Build(s *simulation.Simulation, cfg Config) *Shop {
	cfg.mustBeValid()

	rng := rand.New(rand.NewSource(cfg.Seed))
	engine := s.Engine()

	repairman := sim.NewPreemptiveResource("repairman", 1)
	s.RegisterResource(repairman)

	shop := &Shop{
		cfg:       cfg,
		Repairman: repairman,
	}

	shop.UnimportantWork = NewUnimportantWork(engine, repairman, cfg)
	s.RegisterProcess(shop.UnimportantWork.Process())

	for i := 0; i < cfg.NumMachines; i++ {
		m := NewMachine(engine, machineName(i, cfg.NumMachines),
			rng, repairman, cfg)
		s.RegisterProcess(m.Failure().Process())
		s.RegisterProcess(m.Process())

		shop.Machines = append(shop.Machines, m)
	}

	return shop
}

// machineName returns the name of the i-th of total machines, zero-padded so
// the names sort correctly.
func machineName(i, total int) string {
	width := len(fmt.Sprintf("%d", total-1))
	return fmt.Sprintf("machine %0*d", width, i)
}

// A ResultEntry is one recorded counter of a finished run.
type ResultEntry struct {
	Process string
	Metric  string
	Value   int
}

// RecordResults writes the per-process counters of a finished run into the
// data recorder.
func (s *Shop) RecordResults(recorder datarecording.DataRecorder) {
	recorder.CreateTable("results", ResultEntry{})

	for _, m := range s.Machines {
		recorder.InsertData("results", ResultEntry{
			Process: m.Name(),
			Metric:  "parts_made",
			Value:   m.PartsMade(),
		})
	}

	recorder.InsertData("results", ResultEntry{
		Process: s.UnimportantWork.Process().Name(),
		Metric:  "jobs_made",
		Value:   s.UnimportantWork.JobsMade(),
	})
}
