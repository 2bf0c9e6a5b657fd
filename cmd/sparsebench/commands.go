// SPDX-License-Identifier: MIT

package main

import (
	"github.com/spf13/cobra"
)

// runFlags mirror the Config fields they override.
type runFlags struct {
	configPath string
	elements   int
	nodesPer   int
	blockSize  int
	nodes      int
	stddev     float64
	seed       uint64
	workers    int
	strategy   string
	kinds      []string
	reorder    bool
	out        string
	badgerDir  string
	compress   bool
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sparsebench",
		Short:         "Build and benchmark sparsity graphs of synthetic meshes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd(), newInspectCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a random mesh, assemble it and report timings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			return runBench(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	fl.IntVar(&f.elements, "elements", 0, "number of elements")
	fl.IntVar(&f.nodesPer, "nodes-per-element", 0, "nodes per element")
	fl.IntVar(&f.blockSize, "block-size", 0, "DOFs per node")
	fl.IntVar(&f.nodes, "nodes", 0, "mesh nodes (graph size is nodes*block-size)")
	fl.Float64Var(&f.stddev, "stddev", 0, "spread of node ids per element")
	fl.Uint64Var(&f.seed, "seed", 0, "generator seed")
	fl.IntVarP(&f.workers, "workers", "w", 0, "worker goroutines (0 = GOMAXPROCS)")
	fl.StringVar(&f.strategy, "strategy", "", "contiguous strategy: shared or partitioned")
	fl.StringSliceVar(&f.kinds, "kinds", nil, "graph kinds to build: map, contiguous")
	fl.BoolVar(&f.reorder, "reorder", false, "report reverse Cuthill-McKee bandwidth and profile")
	fl.StringVarP(&f.out, "out", "o", "", "write all patterns to this file")
	fl.StringVar(&f.badgerDir, "badger", "", "also save patterns into a BadgerDB directory")
	fl.BoolVar(&f.compress, "compress", false, "zstd-compress saved patterns")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fl.StringVar(&f.logFormat, "log-format", "", "text or json")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "List and validate the patterns stored in a file written by run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectFile(cmd.OutOrStdout(), args[0])
		},
	}
}

// resolveConfig loads the config file, then applies every flag the user set.
func resolveConfig(cmd *cobra.Command, f runFlags) (Config, error) {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return cfg, err
	}
	set := cmd.Flags().Changed
	if set("elements") {
		cfg.Mesh.Elements = f.elements
	}
	if set("nodes-per-element") {
		cfg.Mesh.NodesPerElement = f.nodesPer
	}
	if set("block-size") {
		cfg.Mesh.BlockSize = f.blockSize
	}
	if set("nodes") {
		cfg.Mesh.Nodes = f.nodes
	}
	if set("stddev") {
		cfg.Mesh.StdDev = f.stddev
	}
	if set("seed") {
		cfg.Mesh.Seed = f.seed
	}
	if set("workers") {
		cfg.Workers = f.workers
	}
	if set("strategy") {
		cfg.Strategy = f.strategy
	}
	if set("kinds") {
		cfg.Kinds = f.kinds
	}
	if set("reorder") {
		cfg.Reorder = f.reorder
	}
	if set("out") {
		cfg.Output.File = f.out
	}
	if set("badger") {
		cfg.Output.BadgerDir = f.badgerDir
	}
	if set("compress") {
		cfg.Output.Compress = f.compress
	}
	if set("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if set("log-format") {
		cfg.Log.Format = f.logFormat
	}
	return cfg, cfg.validate()
}
