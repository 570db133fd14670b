package cmd

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/model"
	_ "github.com/distsim/distsim/sim/timewarp" // registers sim.OptimisticEngineFunc
	"github.com/distsim/distsim/sim/trace"
)

var (
	// Engine knobs (spec §6's CLI surface).
	cores       uint32
	gvtMicros   int64
	ckptInterval uint32
	machines    uint32
	tasks       uint32
	serial      bool
	coreBinding bool

	// Everything else needed to stand up a runnable topology; not part of
	// the mandated surface but necessary to actually drive a simulation
	// from the command line.
	seed        int64
	logLevel    string
	traceLevel  string
	topology    string
	taskProc    float64
	taskComm    float64
	power       float64
	loadFactor  float64
	coreCount   int
	bandwidth   float64
	linkLoad    float64
	latency     float64
	routeFile   string
)

var rootCmd = &cobra.Command{
	Use:   "distsim",
	Short: "Optimistic parallel discrete-event simulator for distributed workloads",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)

		if !trace.IsValidLevel(traceLevel) {
			return sim.NewConfigError("run", unknownTraceLevelError(traceLevel))
		}

		mode := sim.Optimistic
		if serial {
			mode = sim.Sequential
		}

		config := sim.Config{
			Mode:             mode,
			Threads:          int(cores),
			CkptInterval:     ckptInterval,
			GVTPeriodMicros:  gvtMicros,
			CoreBinding:      coreBinding,
			PRNGSeed:         seed,
			ReturnOffsetMode: sim.OffsetLegacy,
			TraceLevel:       traceLevel,
		}

		params := model.TopologyParams{
			MachineCount: int(machines),
			TaskCount:    int(tasks),
			TaskProc:     taskProc,
			TaskComm:     taskComm,
			Power:        power,
			LoadFactor:   loadFactor,
			CoreCount:    coreCount,
			Bandwidth:    bandwidth,
			LinkLoadFactor: linkLoad,
			Latency:      latency,
			Config:       config,
		}

		builder, err := buildTopology(topology, params, routeFile, config)
		if err != nil {
			logrus.Fatalf("failed to build topology: %v", err)
		}

		rt, err := builder.Build()
		if err != nil {
			logrus.Fatalf("failed to build runtime: %v", err)
		}

		logrus.Infof("starting run: topology=%s machines=%d tasks=%d mode=%v cores=%d gvt=%dus ckpt=%d",
			topology, machines, tasks, mode, cores, gvtMicros, ckptInterval)

		var out bytes.Buffer
		if err := rt.Run(&out); err != nil {
			logrus.Errorf("simulation aborted: %v", err)
			cmd.OutOrStdout().Write(out.Bytes())
			os.Exit(1)
		}

		cmd.OutOrStdout().Write(out.Bytes())
		return nil
	},
}

func buildTopology(name string, params model.TopologyParams, routePath string, config sim.Config) (*model.Builder, error) {
	if routePath != "" {
		return model.LoadTopology(routePath, config, nil)
	}
	switch name {
	case "linear":
		return model.LinearTopology(params)
	case "star":
		return model.StarTopology(params)
	case "ring", "":
		return model.RingTopology(params)
	default:
		return nil, sim.NewConfigError("buildTopology", unknownTopologyError(name))
	}
}

type unknownTopologyError string

func (e unknownTopologyError) Error() string { return "unknown topology: " + string(e) }

type unknownTraceLevelError string

func (e unknownTraceLevelError) Error() string {
	return "unknown trace level: " + string(e) + " (want none, rollback, or gvt)"
}

// Execute runs the CLI root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().Uint32Var(&cores, "cores", 0, "worker threads for optimistic mode (0 = all available)")
	runCmd.Flags().Int64Var(&gvtMicros, "gvt", 200, "GVT sweep period in microseconds")
	runCmd.Flags().Uint32Var(&ckptInterval, "ckpt", 1, "committed events between checkpoints (0 = every event)")
	runCmd.Flags().Uint32Var(&machines, "machines", 4, "number of machine LPs in the generated topology")
	runCmd.Flags().Uint32Var(&tasks, "tasks", 100, "number of tasks the master generates")
	runCmd.Flags().BoolVar(&serial, "serial", false, "run in sequential mode instead of optimistic Time-Warp")
	runCmd.Flags().BoolVar(&coreBinding, "core-binding", false, "pin each optimistic worker to one OS core")

	runCmd.Flags().Int64Var(&seed, "seed", 42, "PRNG seed")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "optimistic decision trace level (none, rollback, gvt); logged at --log debug")
	runCmd.Flags().StringVar(&topology, "topology", "ring", "generated topology: linear, ring, star")
	runCmd.Flags().StringVar(&routeFile, "route-file", "", "load a YAML topology spec instead of generating one")

	runCmd.Flags().Float64Var(&taskProc, "task-proc", 50, "per-task processing size (Mflop)")
	runCmd.Flags().Float64Var(&taskComm, "task-comm", 80, "per-task communication size (Mbit)")
	runCmd.Flags().Float64Var(&power, "power", 2, "machine compute power")
	runCmd.Flags().Float64Var(&loadFactor, "load-factor", 0, "machine/link load factor in [0,1]")
	runCmd.Flags().IntVar(&coreCount, "machine-cores", 2, "cores per machine")
	runCmd.Flags().Float64Var(&bandwidth, "bandwidth", 5, "link bandwidth")
	runCmd.Flags().Float64Var(&linkLoad, "link-load-factor", 0, "link load factor in [0,1]")
	runCmd.Flags().Float64Var(&latency, "latency", 1, "link latency")

	rootCmd.AddCommand(runCmd)
}
