package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wildstyl3r/freegas/internal/model"
)

var (
	inputFile string
	verbose   bool
	threads   int

	archiveFile     string
	sourceEnergy    float64
	histories       int
	collisions      int
	bins            int
	seed            int64
	atomicWeight    float64
	outputDir       string
	outputUnits     []string
	generateOutputs model.DataFlags
	thermalOutputs  model.DataFlags

	rootCmd = &cobra.Command{
		Use:   "freegas",
		Short: "Free gas thermal elastic scattering data generator",
		Long: `freegas Doppler broadens elastic cross sections with the free gas
model and tabulates the outgoing energy distributions below the thermal
threshold.`,
		SilenceUsage: true,
	}

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate free gas cross sections and energy distributions for every configured nuclide",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	inspectCmd = &cobra.Command{
		Use:   "inspect [archive]",
		Short: "Summarize an energy distribution archive",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	listCmd = &cobra.Command{
		Use:   "list [dir]",
		Short: "List the energy distribution archives of a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
	}
	thermalizeCmd = &cobra.Command{
		Use:   "thermalize",
		Short: "Follow neutron histories through collisions sampled from an archive",
		Args:  cobra.NoArgs,
		RunE:  runThermalize,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every energy point")
	rootCmd.PersistentFlags().IntVarP(&threads, "threads", "t", 1, "number of worker goroutines")

	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&inputFile, "input", "i", "freegas.toml", "run description")
	generateOutputs = model.NewDataFlags(generateCmd.Flags())

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(listCmd)

	rootCmd.AddCommand(thermalizeCmd)
	thermalizeCmd.Flags().StringVarP(&archiveFile, "archive", "a", "", "energy distribution archive")
	thermalizeCmd.Flags().Float64VarP(&sourceEnergy, "energy", "e", 0, "source energy [MeV]")
	thermalizeCmd.Flags().IntVarP(&histories, "histories", "n", 10000, "number of histories")
	thermalizeCmd.Flags().IntVarP(&collisions, "collisions", "k", 20, "collisions per history")
	thermalizeCmd.Flags().IntVar(&bins, "bins", 100, "spectrum bins")
	thermalizeCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	thermalizeCmd.Flags().Float64Var(&atomicWeight, "awr", 1, "atomic weight ratio used above the thermal table")
	thermalizeCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "output directory")
	thermalizeCmd.Flags().StringSliceVarP(&outputUnits, "units", "u", []string{"MeV"}, "output units")
	thermalizeCmd.MarkFlagRequired("archive")
	thermalizeCmd.MarkFlagRequired("energy")
	thermalOutputs = model.NewDataFlags(thermalizeCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
