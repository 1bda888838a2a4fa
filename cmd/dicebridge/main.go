// Package main is the entry point for the dicebridge CLI
package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/dicebridge/pkg/api"
	"github.com/james-see/dicebridge/pkg/config"
	"github.com/james-see/dicebridge/pkg/converter"
	"github.com/james-see/dicebridge/pkg/converter/kits"
	"github.com/james-see/dicebridge/pkg/dataset"
	"github.com/james-see/dicebridge/pkg/debug"
	"github.com/james-see/dicebridge/pkg/host"
	"github.com/james-see/dicebridge/pkg/matrix"
	"github.com/james-see/dicebridge/pkg/pattern"
	"github.com/james-see/dicebridge/pkg/tui"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfg        *config.Config
	configPath string
	kitName    string
	debugLog   bool

	outputFile    string
	dictFile      string
	remainderFile string
	storeDir      string
	dictName      string
	serverPort    int
	threshold     float64
	noiseLevel    float64
	seed          int64
	presetFile    string
	datasetDir    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dicebridge",
	Short: "Convert between host note dictionaries, DICE coordinate lists and MIDI",
	Long: `dicebridge converts 16x16 drum patterns between the note dictionaries a
music-production host stores and the sparse coordinate lists ("coo") the DICE
generative model reads and writes.

Examples:
  dicebridge decode 1 1 2 5
  dicebridge encode clip.json --remainder clip.json
  dicebridge convert beat.mid -o beat.coo
  dicebridge grid beat.mid
  dicebridge generate beat.coo --seed 7
  dicebridge dataset slice ./midi -o ./json
  dicebridge tui
  dicebridge serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <coo...|input.coo>",
	Short: "Decode a coordinate list into a note dictionary",
	Long: `Decodes coordinate pairs into notes. The notes are appended to --dict when
given. With --name the notes go into the named dictionary of the store instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

var encodeCmd = &cobra.Command{
	Use:   "encode [input.json]",
	Short: "Encode the on-grid notes of a note dictionary",
	Long: `Prints the coordinates of the notes that fit the 16x16 grid. Those notes are
consumed; --remainder writes the notes left over. With --name the named
dictionary of the store is encoded and updated instead of a file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEncode,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Auto-detect and convert between formats",
	Long:  `Automatically detects input format and converts to the output format based on file extension.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var gridCmd = &cobra.Command{
	Use:   "grid <input>",
	Short: "Print the pattern DICE sees in a coo, dictionary or MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runGrid,
}

var generateCmd = &cobra.Command{
	Use:   "generate <coo...|input.coo>",
	Short: "Run a pattern through the DICE pipeline",
	Long: `Flattens the pattern, adds seeded noise, runs the model and thresholds the
result back to a coordinate list. Without an exported model the pipeline only
denoises.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var patternCmd = &cobra.Command{
	Use:   "pattern",
	Short: "Random and sliced DICE patterns",
}

var patternRandomCmd = &cobra.Command{
	Use:   "random <preset.yaml>",
	Short: "Generate a random pattern from a weighted cluster preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatternRandom,
}

var patternCooCmd = &cobra.Command{
	Use:   "coo <bar.json>",
	Short: "Print the coordinate list of a sliced bar",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatternCoo,
}

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Build DICE training data",
}

var datasetSliceCmd = &cobra.Command{
	Use:   "slice <midi-dir>",
	Short: "Slice every MIDI file under a directory into DICE_NNNN.json bars",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetSlice,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

// pairCommands are the direct conversions, named like coo2dict
var pairCommands = []struct {
	from, to converter.Format
	short    string
}{
	{converter.FormatCoo, converter.FormatDict, "Decode a coo file into a dictionary"},
	{converter.FormatDict, converter.FormatCoo, "Encode a dictionary into a coo file"},
	{converter.FormatMIDI, converter.FormatCoo, "Encode a MIDI file into a coo file"},
	{converter.FormatCoo, converter.FormatMIDI, "Render a coo file as MIDI"},
	{converter.FormatMIDI, converter.FormatDict, "Convert MIDI to a dictionary"},
	{converter.FormatDict, converter.FormatMIDI, "Convert a dictionary to MIDI"},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&kitName, "kit", "k", "", "Row labels (drumrack, dice)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/dicebridge/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Write a debug log")

	// decode command
	decodeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .json file path (default stdout)")
	decodeCmd.Flags().StringVar(&dictFile, "dict", "", "Dictionary file to append to")
	decodeCmd.Flags().StringVar(&dictName, "name", "", "Decode into this dictionary of the store")
	decodeCmd.Flags().StringVar(&storeDir, "store", "", "Store directory (default from config)")

	// encode command
	encodeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .coo file path (default stdout)")
	encodeCmd.Flags().StringVar(&remainderFile, "remainder", "", "Write the notes left after encoding to this file")
	encodeCmd.Flags().StringVar(&dictName, "name", "", "Encode this dictionary of the store")
	encodeCmd.Flags().StringVar(&storeDir, "store", "", "Store directory (default from config)")

	// Convert command
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (required)")
	_ = convertCmd.MarkFlagRequired("output")

	// generate command
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .coo file path (default stdout)")
	generateCmd.Flags().Float64Var(&threshold, "threshold", 0, "Trigger threshold (default from config)")
	generateCmd.Flags().Float64Var(&noiseLevel, "noise", 0, "Noise level (default from config)")
	generateCmd.Flags().Int64Var(&seed, "seed", 0, "Noise seed (default from config)")

	// pattern commands
	patternRandomCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed")
	patternRandomCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .coo file path (default stdout)")
	patternCooCmd.Flags().StringVar(&presetFile, "fill", "", "Fill empty rows from this preset")
	patternCooCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for --fill")
	patternCmd.AddCommand(patternRandomCmd)
	patternCmd.AddCommand(patternCooCmd)

	// dataset commands
	datasetSliceCmd.Flags().StringVarP(&datasetDir, "output", "o", "json", "Output directory")
	datasetCmd.AddCommand(datasetSliceCmd)

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Server port (default from config)")

	for _, pc := range pairCommands {
		rootCmd.AddCommand(newPairCmd(pc.from, pc.to, pc.short))
	}

	// Add commands
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(patternCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("kit") {
		cfg.Kit = kitName
	}
	if debugLog {
		cfg.Debug = true
	}
	if cfg.Debug {
		if err := debug.Enable(config.DebugLogPath()); err != nil {
			return fmt.Errorf("failed to enable debug log: %w", err)
		}
	}
	return nil
}

func getKit() converter.Kit {
	return kits.Lookup(cfg.Kit)
}

func newPipeline() *matrix.Pipeline {
	p := matrix.NewPipeline()
	p.Threshold = float32(cfg.Generate.Threshold)
	p.NoiseLevel = float32(cfg.Generate.NoiseLevel)
	p.Seed = cfg.Generate.Seed
	return p
}

func getOutputPath(output, input string, format converter.Format) string {
	if output != "" {
		return output
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + converter.OutputExtension(format)
}

// readCoo takes a single existing file argument as a coo file, anything else as the numbers themselves
func readCoo(args []string) (converter.Coo, error) {
	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
			return converter.ParseCooFile(args[0])
		}
	}
	return converter.ParseCoo(strings.Join(args, " "))
}

// writeOutput writes data to --output, or stdout when unset
func writeOutput(data []byte) error {
	if outputFile == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(outputFile, data, 0644)
}

func openStore() (*host.Store, error) {
	dir := storeDir
	if dir == "" {
		dir = cfg.Store.Dir
	}
	if dir == "" {
		return nil, fmt.Errorf("--name needs --store or store.dir in the config")
	}
	// flushed explicitly before exit
	return host.NewPersistentStore(dir, cfg.Store.FlushDelay)
}

func runDecode(cmd *cobra.Command, args []string) error {
	coo, err := readCoo(args)
	if err != nil {
		return err
	}

	if dictName != "" {
		store, err := openStore()
		if err != nil {
			return err
		}
		decoder := host.NewDecoder(store, func(name string) {
			fmt.Printf("dictionary %s\n", name)
		})
		decoder.List(coo)
		decoder.Dictionary(dictName)
		return store.Flush()
	}

	var dict *converter.NoteDictionary
	if dictFile != "" {
		dict, err = converter.ReadDictFile(dictFile)
		if err != nil {
			return err
		}
	}

	data, err := converter.MarshalDict(converter.Decode(coo, dict))
	if err != nil {
		return err
	}
	return writeOutput(append(data, '\n'))
}

func runEncode(cmd *cobra.Command, args []string) error {
	if dictName != "" {
		store, err := openStore()
		if err != nil {
			return err
		}
		encoder := host.NewEncoder(store,
			func(coo converter.Coo) { fmt.Println(coo.String()) },
			func(name string) { fmt.Printf("dictionary %s\n", name) },
		)
		encoder.Dictionary(dictName)
		return store.Flush()
	}

	if len(args) == 0 {
		return fmt.Errorf("an input file or --name is required")
	}
	dict, err := converter.ReadDictFile(args[0])
	if err != nil {
		return err
	}

	coo := converter.Encode(dict)
	if err := writeOutput([]byte(coo.String() + "\n")); err != nil {
		return err
	}

	if remainderFile != "" {
		if err := converter.WriteDictFile(dict, remainderFile); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d notes left in %s\n", len(dict.Notes), remainderFile)
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	conv := converter.New(getKit())

	fmt.Printf("Converting %s -> %s\n", input, outputFile)
	if err := conv.ConvertFile(input, outputFile); err != nil {
		return err
	}
	fmt.Println("Conversion complete!")
	return nil
}

func newPairCmd(from, to converter.Format, short string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s2%s <input>", from, to),
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			out := getOutputPath(output, input, to)

			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}

			result, err := converter.New(getKit()).Convert(data, from, to)
			if err != nil {
				return err
			}

			if err := os.WriteFile(out, result, 0644); err != nil {
				return err
			}

			fmt.Printf("Converted %s -> %s\n", input, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", fmt.Sprintf("Output %s file path", converter.OutputExtension(to)))
	return cmd
}

func runGrid(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	format := converter.DetectFormat(args[0])
	if format == converter.FormatUnknown {
		format = converter.DetectFormatFromContent(data)
	}

	coo, err := converter.ExtractCoo(data, format)
	if err != nil {
		return err
	}
	fmt.Print(converter.New(getKit()).Grid(coo))
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	coo, err := readCoo(args)
	if err != nil {
		return err
	}

	p := newPipeline()
	if cmd.Flags().Changed("threshold") {
		p.Threshold = float32(threshold)
	}
	if cmd.Flags().Changed("noise") {
		p.NoiseLevel = float32(noiseLevel)
	}
	if cmd.Flags().Changed("seed") {
		p.Seed = seed
	}

	out, err := p.Run(cmd.Context(), coo)
	if err != nil {
		return err
	}
	return writeOutput([]byte(converter.Coo(out).String() + "\n"))
}

func runPatternRandom(cmd *cobra.Command, args []string) error {
	preset, err := pattern.LoadRandomPatternConfig(args[0])
	if err != nil {
		return err
	}

	p, err := pattern.NewRandomPattern(preset, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	coo := p.Coo(kits.DICE())
	if outputFile == "" {
		fmt.Print(converter.New(kits.DICE()).Grid(coo))
	}
	return writeOutput([]byte(coo.String() + "\n"))
}

func runPatternCoo(cmd *cobra.Command, args []string) error {
	p, err := pattern.Load(args[0])
	if err != nil {
		return err
	}

	if presetFile != "" {
		preset, err := pattern.LoadRandomPatternConfig(presetFile)
		if err != nil {
			return err
		}
		if err := p.FillEmptySequencesWithRandom(preset, rand.New(rand.NewSource(seed))); err != nil {
			return err
		}
	}

	fmt.Println(p.Coo(kits.DICE()).String())
	return nil
}

func runDatasetSlice(cmd *cobra.Command, args []string) error {
	fmt.Printf("Slicing %s -> %s\n", args[0], datasetDir)
	count, err := dataset.ExportDirectory(args[0], datasetDir)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d bars\n", count)
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(getKit(), newPipeline())
}

func runServe(cmd *cobra.Command, args []string) error {
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}
	fmt.Printf("Starting API server on port %d...\n", cfg.Server.Port)
	return api.StartServer(cfg)
}
