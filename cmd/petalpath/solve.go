package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/models"
	"github.com/fentz26/petalpath/internal/render"
	"github.com/fentz26/petalpath/internal/rules"
	"github.com/fentz26/petalpath/internal/strategy"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a board locally without the daemon",
	Long: `Plans a board from a YAML file, or a generated one, and prints the
resulting board and action log. Nothing is stored.`,
	RunE: runSolve,
}

var (
	offlineBoard    string
	offlineRows     int
	offlineCols     int
	offlineSeed     int64
	offlineStrategy string
	offlineShowLog  bool
	offlineJSON     bool
	offlinePlain    bool
)

func init() {
	solveCmd.Flags().StringVar(&offlineBoard, "board", "", "YAML board file")
	solveCmd.Flags().IntVar(&offlineRows, "rows", 10, "Rows of a generated board")
	solveCmd.Flags().IntVar(&offlineCols, "cols", 10, "Columns of a generated board")
	solveCmd.Flags().Int64Var(&offlineSeed, "seed", 1, "Seed for a generated board")
	solveCmd.Flags().StringVar(&offlineStrategy, "strategy", "", "Strategy to use (default from config)")
	solveCmd.Flags().BoolVar(&offlineShowLog, "log", false, "Print every action")
	solveCmd.Flags().BoolVar(&offlineJSON, "json", false, "Print the result as JSON")
	solveCmd.Flags().BoolVar(&offlinePlain, "plain", false, "Render boards without colour")
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)

	var w *grid.World
	if offlineBoard != "" {
		board, err := readBoardFile(offlineBoard)
		if err != nil {
			return err
		}
		if w, err = board.World(); err != nil {
			return fmt.Errorf("invalid board: %w", err)
		}
	} else {
		if w, err = grid.Generate(offlineRows, offlineCols, cfg.GenerateOptions(offlineSeed)); err != nil {
			return err
		}
	}

	name := offlineStrategy
	if name == "" {
		name = cfg.Strategies.Default
	}
	registry := strategy.NewRegistry(cfg.Strategies.Allowed, cfg.SolverOptions(logger.With("component", "solver"))...)
	strat, err := registry.Lookup(name)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	res, err := strat.Plan(ctx, w)
	if err != nil {
		return err
	}
	took := time.Since(start)

	if offlineJSON {
		out := struct {
			Result interface{}  `json:"result"`
			Board  models.Board `json:"board"`
		}{res, models.BoardFromWorld(res.World)}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if offlinePlain {
		fmt.Print(render.Plain(w))
		fmt.Println()
		fmt.Print(render.Plain(res.World))
	} else {
		fmt.Println(render.Board(w, "start"))
		fmt.Println(render.Board(res.World, "after "+name))
	}
	if offlineShowLog {
		fmt.Print(render.Log(res.Actions))
	}

	counts := rules.Counts(res.Actions)
	fmt.Printf("%s: %d actions (%d moves, %d cleans), %s in %s\n",
		name, len(res.Actions), counts[rules.ActionMove], counts[rules.ActionClean], res.Reason, took.Round(time.Microsecond))
	return nil
}

var boardValidator = validator.New()

// readBoardFile loads and validates a YAML board.
func readBoardFile(path string) (*models.Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading board file: %w", err)
	}
	var board models.Board
	if err := yaml.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("parsing board file: %w", err)
	}
	if err := boardValidator.Struct(board); err != nil {
		return nil, fmt.Errorf("invalid board: %w", err)
	}
	return &board, nil
}
