// The machineshop command runs the machine shop scenario: n machines
// producing parts, breaking down at random, and sharing one preemptive
// repairman with his less important work.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/procsim/procsim/shop"
	"github.com/procsim/procsim/sim"
	"github.com/procsim/procsim/simulation"
)

var rootCmd = &cobra.Command{
	Use:   "machineshop",
	Short: "Simulate a machine shop with failing machines and one repairman",
	RunE:  runShop,

	SilenceUsage: true,
}

func init() {
	flags := rootCmd.Flags()

	flags.String("config", "", "path to a YAML config file")
	flags.Int("machines", 0, "number of machines, overrides the config")
	flags.Int("weeks", 0, "simulated weeks, overrides the config")
	flags.Int64("seed", 0, "random seed, overrides the config")
	flags.Float64("horizon", 0,
		"stop time in minutes, overrides the configured duration")
	flags.Bool("monitor", false, "start the monitoring server")
	flags.Int("monitor-port", 0, "port for the monitoring server")
	flags.Bool("open-dashboard", false,
		"open the monitoring dashboard in a browser")
	flags.String("output", "", "output database file name")
	flags.Bool("no-recording", false, "disable result recording")
	flags.Bool("trace", false, "log every event to stderr")
}

func loadConfig(cmd *cobra.Command) (shop.Config, error) {
	cfg := shop.DefaultConfig()

	flags := cmd.Flags()

	if path, _ := flags.GetString("config"); path != "" {
		var err error
		cfg, err = shop.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
	}

	if flags.Changed("machines") {
		cfg.NumMachines, _ = flags.GetInt("machines")
	}

	if flags.Changed("weeks") {
		cfg.Weeks, _ = flags.GetInt("weeks")
	}

	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}

	return cfg, nil
}

func buildSimulation(cmd *cobra.Command) *simulation.Simulation {
	flags := cmd.Flags()

	builder := simulation.MakeBuilder()

	if monitor, _ := flags.GetBool("monitor"); !monitor {
		builder = builder.WithoutMonitoring()
	} else {
		if port, _ := flags.GetInt("monitor-port"); port > 0 {
			builder = builder.WithMonitorPort(port)
		}

		if open, _ := flags.GetBool("open-dashboard"); open {
			builder = builder.WithDashboardAutoOpen()
		}
	}

	if noRecording, _ := flags.GetBool("no-recording"); noRecording {
		builder = builder.WithoutDataRecording()
	} else if output, _ := flags.GetString("output"); output != "" {
		builder = builder.WithOutputFileName(output)
	}

	return builder.Build()
}

func runShop(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s := buildSimulation(cmd)

	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		logger := log.New(os.Stderr, "", 0)
		s.Engine().AcceptHook(sim.NewEventLogger(logger))
	}

	theShop := shop.Build(s, cfg)

	horizon := sim.VTime(cfg.SimTime())
	if cmd.Flags().Changed("horizon") {
		h, _ := cmd.Flags().GetFloat64("horizon")
		horizon = sim.VTime(h)
	}

	fmt.Println("Machine shop")

	err = s.Run(horizon)

	var deadlock *simulation.DeadlockError
	if errors.As(err, &deadlock) {
		fmt.Fprintln(os.Stderr, deadlock)
	} else if err != nil {
		return err
	}

	report(theShop, cfg)

	if s.DataRecorder() != nil {
		theShop.RecordResults(s.DataRecorder())
	}

	s.Terminate()

	return nil
}

func report(theShop *shop.Shop, cfg shop.Config) {
	fmt.Printf("Machine shop results after %d weeks\n", cfg.Weeks)

	for _, m := range theShop.Machines {
		fmt.Printf("%s made %d parts.\n", m.Name(), m.PartsMade())
	}

	fmt.Printf("The repairman completed %d unimportant jobs.\n",
		theShop.UnimportantWork.JobsMade())
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
