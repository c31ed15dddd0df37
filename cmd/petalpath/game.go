package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fentz26/petalpath/internal/api"
	"github.com/fentz26/petalpath/internal/models"
	"github.com/fentz26/petalpath/internal/render"
	"github.com/fentz26/petalpath/internal/rules"
)

var gameCmd = &cobra.Command{
	Use:   "game",
	Short: "Manage games on the daemon",
}

var gameNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a game from a board file or a generated board",
	RunE:  runGameNew,
}

var gameListCmd = &cobra.Command{
	Use:   "list",
	Short: "List games",
	RunE:  runGameList,
}

var gameShowCmd = &cobra.Command{
	Use:   "show [game-id]",
	Short: "Show a game's board",
	Args:  cobra.ExactArgs(1),
	RunE:  runGameShow,
}

var gameActCmd = &cobra.Command{
	Use:   "act [game-id] [action] [direction]",
	Short: "Apply one action (rotate, move, pick, drop, give, clean)",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runGameAct,
}

var gameSolveCmd = &cobra.Command{
	Use:   "solve [game-id]",
	Short: "Solve a game with a strategy",
	Args:  cobra.ExactArgs(1),
	RunE:  runGameSolve,
}

var gamePredictCmd = &cobra.Command{
	Use:   "predict [game-id]",
	Short: "Suggest the next action without applying it",
	Args:  cobra.ExactArgs(1),
	RunE:  runGamePredict,
}

var gameLogCmd = &cobra.Command{
	Use:   "log [game-id]",
	Short: "Show a game's action history",
	Args:  cobra.ExactArgs(1),
	RunE:  runGameLog,
}

var (
	gameRows      int
	gameCols      int
	gameSeed      int64
	gameBoardFile string
	gameStatus    string
	solveStrategy string
	solveAsync    bool
	plainOutput   bool
)

func init() {
	gameCmd.AddCommand(gameNewCmd, gameListCmd, gameShowCmd, gameActCmd, gameSolveCmd, gamePredictCmd, gameLogCmd)

	gameNewCmd.Flags().IntVar(&gameRows, "rows", 10, "Rows of a generated board")
	gameNewCmd.Flags().IntVar(&gameCols, "cols", 10, "Columns of a generated board")
	gameNewCmd.Flags().Int64Var(&gameSeed, "seed", 0, "Seed for a generated board (0 picks one)")
	gameNewCmd.Flags().StringVar(&gameBoardFile, "board", "", "YAML board file instead of a generated board")

	gameListCmd.Flags().StringVar(&gameStatus, "status", "", "Filter by status (in_progress, victory)")

	gameSolveCmd.Flags().StringVar(&solveStrategy, "strategy", "", "Strategy to use (default from daemon config)")
	gameSolveCmd.Flags().BoolVar(&solveAsync, "async", false, "Queue the solve instead of waiting for it")

	gameCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false, "Render boards without colour")
}

func runGameNew(cmd *cobra.Command, args []string) error {
	req := api.CreateGameRequest{Rows: gameRows, Cols: gameCols}
	if gameBoardFile != "" {
		board, err := readBoardFile(gameBoardFile)
		if err != nil {
			return err
		}
		req = api.CreateGameRequest{Board: board}
	} else if gameSeed != 0 {
		req.Seed = &gameSeed
	}

	resp, err := apiPost("/games", req)
	if err != nil {
		return err
	}

	var game models.Game
	if err := json.Unmarshal(resp, &game); err != nil {
		return err
	}

	fmt.Printf("Created game: %s\n", game.ID)
	return printBoard(game.Board, game.ID)
}

func runGameList(cmd *cobra.Command, args []string) error {
	url := "/games"
	if gameStatus != "" {
		url += "?status=" + gameStatus
	}

	var games []models.Game
	if err := apiDecode(url, &games); err != nil {
		return err
	}

	if len(games) == 0 {
		fmt.Println("No games found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSIZE\tSTATUS\tDELIVERED\tVERSION\tUPDATED")
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%dx%d\t%s\t%d/%d\t%d\t%s\n",
			truncateID(g.ID),
			g.Board.Rows, g.Board.Cols,
			g.Status,
			g.Board.Delivered, g.Board.InitialFlowers,
			g.Version,
			g.UpdatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()
	return nil
}

func runGameShow(cmd *cobra.Command, args []string) error {
	var game models.Game
	if err := apiDecode("/games/"+args[0], &game); err != nil {
		return err
	}

	fmt.Printf("ID:       %s\n", game.ID)
	fmt.Printf("Status:   %s\n", game.Status)
	fmt.Printf("Version:  %d\n", game.Version)
	fmt.Printf("Created:  %s\n", game.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:  %s\n", game.UpdatedAt.Format("2006-01-02 15:04:05"))
	return printBoard(game.Board, "")
}

func runGameAct(cmd *cobra.Command, args []string) error {
	req := api.ActRequest{Type: args[1]}
	if len(args) == 3 {
		req.Direction = args[2]
	}

	resp, err := apiPost("/games/"+args[0]+"/act", req)
	if err != nil {
		return err
	}

	var result api.ActResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	fmt.Print(render.Log([]rules.Record{result.Record}))
	return printBoard(result.Game.Board, "")
}

func runGameSolve(cmd *cobra.Command, args []string) error {
	req := api.SolveRequest{Strategy: solveStrategy, Async: solveAsync}
	resp, err := apiPost("/games/"+args[0]+"/solve", req)
	if err != nil {
		return err
	}

	if solveAsync {
		var job models.SolveJob
		if err := json.Unmarshal(resp, &job); err != nil {
			return err
		}
		fmt.Printf("Queued job %s (%s)\n", job.ID, job.Strategy)
		fmt.Printf("Check it with: petalpath job show %s\n", job.ID)
		return nil
	}

	var result api.SolveResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	counts := rules.Counts(result.Actions)
	fmt.Printf("Strategy:   %s\n", result.Strategy)
	fmt.Printf("Actions:    %d (%d moves, %d picks, %d gives, %d cleans)\n",
		len(result.Actions),
		counts[rules.ActionMove], counts[rules.ActionPick], counts[rules.ActionGive], counts[rules.ActionClean])
	fmt.Printf("Stopped:    %s\n", result.Reason)
	fmt.Printf("Iterations: %d\n", result.Iterations)
	return printBoard(result.Game.Board, "")
}

func runGamePredict(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/games/"+args[0]+"/predict", struct{}{})
	if err != nil {
		return err
	}

	var result api.PredictResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Suggested: %s\n", result.Action)
	fmt.Printf("Front:     %s\n", result.Features.Front)
	fmt.Printf("Held:      %d/%d\n", result.Features.Held, result.Features.Capacity)
	fmt.Printf("Flowers:   %d left\n", result.Features.FlowersLeft)
	return nil
}

func runGameLog(cmd *cobra.Command, args []string) error {
	var entries []models.ActionEntry
	if err := apiDecode("/games/"+args[0]+"/actions", &entries); err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No actions yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tACTION\tOK\tSOURCE\tMESSAGE")
	for _, e := range entries {
		source := e.Source
		if e.Strategy != "" {
			source += "/" + e.Strategy
		}
		fmt.Fprintf(w, "%d\t%s\t%t\t%s\t%s\n", e.Seq, e.Record().Action, e.OK, source, truncate(e.Message, 60))
	}
	w.Flush()
	return nil
}

func printBoard(board models.Board, title string) error {
	w, err := board.World()
	if err != nil {
		return err
	}
	if plainOutput {
		fmt.Print(render.Plain(w))
		return nil
	}
	fmt.Println(render.Board(w, title))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
