// Package console implements a line-oriented front-end for playing and
// analysing games. It talks to the core only through the board, engine
// and storage packages.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chessmind/internal/board"
	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/storage"
)

// progressInterval is how often a blocking search reports progress.
const progressInterval = 500 * time.Millisecond

// Console holds one game and the engine playing in it.
type Console struct {
	in  io.Reader
	out io.Writer

	engine *engine.Engine
	store  *storage.Storage // nil disables persistence
	prefs  *storage.UserPreferences

	game     *board.GameState
	startFEN string
	gameID   string
	started  time.Time
	recorded bool

	// searching is set while a search started by this console has not
	// been collected yet.
	searching bool
}

// New creates a console on a fresh game. store may be nil.
func New(in io.Reader, out io.Writer, eng *engine.Engine, store *storage.Storage, prefs *storage.UserPreferences) *Console {
	if prefs == nil {
		prefs = storage.DefaultPreferences()
	}
	c := &Console{
		in:     in,
		out:    out,
		engine: eng,
		store:  store,
		prefs:  prefs,
	}
	c.reset(board.StartFEN, board.NewGame())
	return c
}

// Game returns the live game.
func (c *Console) Game() *board.GameState {
	return c.game
}

func (c *Console) reset(fen string, g *board.GameState) {
	c.game = g
	c.startFEN = fen
	c.gameID = ""
	c.started = time.Now()
	c.recorded = false
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Run reads commands until quit, end of input or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	defer c.engine.Stop()

	scanner := bufio.NewScanner(c.in)
	c.printf("chessmind ready, type 'help' for commands\n")
	c.autoPlay(ctx)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		c.collect(ctx)
		if quit := c.Execute(ctx, line); quit {
			return nil
		}
	}
	return scanner.Err()
}

// Execute runs a single command line and reports whether it was quit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		c.handleHelp()
	case "new":
		c.handleNew(ctx)
	case "fen":
		c.handleFEN(ctx, args)
	case "show", "d":
		c.printf("%s\n", c.game)
	case "moves":
		c.handleMoves()
	case "move":
		if len(args) == 0 {
			c.printf("usage: move <move>\n")
			return false
		}
		c.handleMove(ctx, args[0])
	case "undo":
		c.handleUndo()
	case "redo":
		c.handleRedo()
	case "go":
		c.handleGo(ctx, args)
	case "stop":
		c.handleStop()
	case "wait":
		c.waitSearch(ctx)
		c.collect(ctx)
	case "status":
		c.handleStatus()
	case "eval":
		c.printf("eval: %s\n", engine.ScoreString(engine.Evaluate(c.game)))
	case "history":
		c.handleHistory()
	case "perft":
		c.handlePerft(args)
	case "engine":
		c.handleEngine(ctx, args)
	case "depth":
		c.handleDepth(args)
	case "save":
		c.handleSave()
	case "load":
		c.handleLoad(args)
	case "games":
		c.handleGames()
	case "stats":
		c.handleStats()
	default:
		// Anything else is a move in coordinate or SAN form.
		c.handleMove(ctx, cmd)
	}
	return false
}

func (c *Console) handleHelp() {
	c.printf(`commands:
  new                 start a new game
  fen [FEN]           print the position as FEN, or load one
  show                draw the board
  moves               list legal moves
  <move>, move <m>    play a move (e2e4, e7e8, Nf3, O-O)
  undo, redo          step back or forward through the game
  go [depth]          start a search in the background
  stop, wait          cancel or wait for the running search
  status              game status and search progress
  eval                static evaluation
  history             moves played so far
  perft <depth>       count leaf nodes
  engine <color>      engine side: white, black, both, none
  depth <n|auto>      search depth
  save, load <id>     store or restore the game
  games, stats        saved games and results
  quit
`)
}

func (c *Console) handleNew(ctx context.Context) {
	c.stopSearch()
	c.reset(board.StartFEN, board.NewGame())
	c.printf("%s\n", c.game)
	c.autoPlay(ctx)
}

func (c *Console) handleFEN(ctx context.Context, args []string) {
	if len(args) == 0 {
		c.printf("%s\n", c.game.FEN())
		return
	}
	fen := strings.Join(args, " ")
	g, err := board.ParseFEN(fen)
	if err != nil {
		c.printf("invalid FEN: %v\n", err)
		return
	}
	c.stopSearch()
	c.reset(fen, g)
	c.printf("%s\n", c.game)
	c.autoPlay(ctx)
}

func (c *Console) handleMoves() {
	moves := engine.OrderedMoves(c.game)
	if len(moves) == 0 {
		c.printf("no legal moves\n")
		return
	}
	sans := make([]string, len(moves))
	for i, m := range moves {
		sans[i] = c.game.SAN(m)
	}
	c.printf("%s\n", strings.Join(sans, " "))
}

// parseMove resolves text against the legal moves, trying coordinate
// notation first.
func (c *Console) parseMove(text string) (board.Move, error) {
	m, err := c.game.ParseMove(text)
	if err == nil {
		return m, nil
	}
	if m, sanErr := c.game.ParseSAN(text); sanErr == nil {
		return m, nil
	}
	return board.NoMove, err
}

func (c *Console) handleMove(ctx context.Context, text string) {
	if c.game.IsGameOver() {
		c.printf("game over: %s\n", c.game.Status())
		return
	}
	m, err := c.parseMove(text)
	if err != nil {
		// Illegal input leaves the game untouched.
		c.printf("ignored %q: %v\n", text, err)
		return
	}
	c.play(m)
	c.autoPlay(ctx)
}

// play makes a legal move and reports the new state.
func (c *Console) play(m board.Move) {
	san := c.game.SAN(m)
	c.game.MakeMove(m)
	log.Debug().Str("move", m.String()).Str("fen", c.game.FEN()).Msg("move played")
	c.printf("%d. %s\n", (c.game.Ply()+1)/2, san)
	c.announce()
}

func (c *Console) announce() {
	switch c.game.Status() {
	case board.Checkmate:
		c.printf("checkmate, %s wins\n", c.game.SideToMove().Other())
		c.recordResult()
	case board.Draw:
		c.printf("draw\n")
		c.recordResult()
	case board.Check:
		c.printf("check\n")
	}
}

func (c *Console) handleUndo() {
	c.stopSearch()
	if !c.game.UndoMove() {
		c.printf("nothing to undo\n")
		return
	}
	c.printf("%s\n", c.game)
}

func (c *Console) handleRedo() {
	c.stopSearch()
	if !c.game.RedoMove() {
		c.printf("nothing to redo\n")
		return
	}
	c.printf("%s\n", c.game)
	c.announce()
}

// searchDepth returns the configured depth for the live position.
func (c *Console) searchDepth() int {
	if c.prefs.AutoDepth {
		return engine.AutoDepth(c.game.NumLegalMoves())
	}
	return c.prefs.Depth
}

func (c *Console) handleGo(ctx context.Context, args []string) {
	depth := c.searchDepth()
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 1 {
			c.printf("invalid depth %q\n", args[0])
			return
		}
		depth = d
	}
	if c.game.IsGameOver() {
		c.printf("game over: %s\n", c.game.Status())
		return
	}
	c.startSearch(ctx, depth)
	c.printf("searching at depth %d\n", depth)
}

func (c *Console) startSearch(ctx context.Context, depth int) {
	c.engine.Start(ctx, c.game, depth)
	c.searching = true
}

func (c *Console) stopSearch() {
	if c.searching {
		c.engine.Stop()
		c.searching = false
	}
}

func (c *Console) handleStop() {
	if !c.searching {
		c.printf("no search running\n")
		return
	}
	c.stopSearch()
	c.printf("search stopped\n")
}

// waitSearch blocks until the running search returns, printing progress.
func (c *Console) waitSearch(ctx context.Context) {
	if !c.searching {
		return
	}
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.engine.Done():
			return
		case <-ctx.Done():
			c.stopSearch()
			return
		case <-ticker.C:
			p := c.engine.Progress()
			c.printf("searching %d/%d\n", p.Completed, p.Total)
		}
	}
}

// collect plays or reports the result of a finished search. Results for a
// position other than the live one are dropped.
func (c *Console) collect(ctx context.Context) {
	if !c.searching || !c.engine.Finished() {
		return
	}
	c.searching = false

	res, err := c.engine.Result()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.printf("search failed: %v\n", err)
		}
		return
	}
	if res.StaleFor(c.game) {
		log.Debug().Str("move", res.Move.String()).Msg("discarding stale search result")
		return
	}
	c.cacheResult(res)
	c.report(res)

	if c.prefs.EngineColor.Plays(c.game.SideToMove()) {
		c.play(res.Move)
		c.autoPlay(ctx)
	}
}

func (c *Console) report(res engine.Result) {
	c.printf("best %s (%s) depth %d, %d nodes in %s\n",
		c.game.SAN(res.Move), engine.ScoreString(res.Score), res.Depth, res.Nodes,
		res.Elapsed.Round(time.Millisecond))
}

// autoPlay lets the engine move for every side it controls until it is
// the human's turn or the game ends.
func (c *Console) autoPlay(ctx context.Context) {
	for !c.game.IsGameOver() && c.prefs.EngineColor.Plays(c.game.SideToMove()) {
		if ctx.Err() != nil {
			return
		}
		depth := c.searchDepth()
		if m, ok := c.cachedMove(depth); ok {
			c.play(m)
			continue
		}

		c.startSearch(ctx, depth)
		c.waitSearch(ctx)
		if !c.searching {
			return
		}
		c.searching = false
		res, err := c.engine.Result()
		if err != nil || res.StaleFor(c.game) {
			return
		}
		c.cacheResult(res)
		c.play(res.Move)
	}
}

// cachedMove returns a stored analysis for the live position, if any.
func (c *Console) cachedMove(depth int) (board.Move, bool) {
	if c.store == nil {
		return board.NoMove, false
	}
	entry, found, err := c.store.LookupAnalysis(c.game.Hash(), depth)
	if err != nil {
		log.Warn().Err(err).Msg("analysis lookup failed")
		return board.NoMove, false
	}
	if !found {
		return board.NoMove, false
	}
	m, err := c.game.ParseMove(entry.Move)
	if err != nil {
		// Hash collision or a stale entry.
		return board.NoMove, false
	}
	log.Debug().Str("move", entry.Move).Int("depth", depth).Msg("analysis cache hit")
	return m, true
}

func (c *Console) cacheResult(res engine.Result) {
	if c.store == nil {
		return
	}
	entry := storage.AnalysisEntry{
		Move:  res.Move.String(),
		Score: res.Score,
		Depth: res.Depth,
		Nodes: res.Nodes,
	}
	if err := c.store.StoreAnalysis(res.Hash, entry); err != nil {
		log.Warn().Err(err).Msg("failed to cache analysis")
	}
}

func (c *Console) handleStatus() {
	c.printf("%s to move, %s, ply %d\n", c.game.SideToMove(), c.game.Status(), c.game.Ply())
	if c.searching {
		p := c.engine.Progress()
		c.printf("search: %d dispatched, %d/%d done\n", p.Dispatched, p.Completed, p.Total)
	}
}

func (c *Console) handleHistory() {
	moves := c.game.HistorySAN()
	if len(moves) == 0 {
		c.printf("no moves\n")
		return
	}
	var sb strings.Builder
	for i, san := range moves {
		if i%2 == 0 {
			fmt.Fprintf(&sb, "%d. ", i/2+1)
		}
		sb.WriteString(san)
		sb.WriteByte(' ')
	}
	c.printf("%s\n", strings.TrimSpace(sb.String()))
}

func (c *Console) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 1 {
			c.printf("invalid depth %q\n", args[0])
			return
		}
		depth = d
	}

	start := time.Now()
	nodes := engine.Perft(c.game.Clone(), depth)
	elapsed := time.Since(start)

	c.printf("Nodes: %d\n", nodes)
	c.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		c.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}

func (c *Console) handleEngine(ctx context.Context, args []string) {
	if len(args) == 0 {
		c.printf("engine plays %s\n", c.prefs.EngineColor)
		return
	}
	color, err := storage.ParseEngineColor(args[0])
	if err != nil {
		c.printf("%v\n", err)
		return
	}
	c.prefs.EngineColor = color
	c.savePreferences()
	c.autoPlay(ctx)
}

func (c *Console) handleDepth(args []string) {
	if len(args) == 0 {
		if c.prefs.AutoDepth {
			c.printf("depth auto (%d here)\n", c.searchDepth())
		} else {
			c.printf("depth %d\n", c.prefs.Depth)
		}
		return
	}
	if args[0] == "auto" {
		c.prefs.AutoDepth = true
	} else {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 1 {
			c.printf("invalid depth %q\n", args[0])
			return
		}
		c.prefs.Depth = d
		c.prefs.AutoDepth = false
	}
	c.savePreferences()
}

func (c *Console) savePreferences() {
	if c.store == nil {
		return
	}
	if err := c.store.SavePreferences(c.prefs); err != nil {
		log.Warn().Err(err).Msg("failed to save preferences")
	}
}

// recordResult stores the outcome of a finished game once, from the
// human side. Games with no human player are not counted.
func (c *Console) recordResult() {
	if c.store == nil || c.recorded {
		return
	}
	var human board.Color
	switch c.prefs.EngineColor {
	case storage.EngineBlack:
		human = board.White
	case storage.EngineWhite:
		human = board.Black
	default:
		return
	}
	c.recorded = true

	outcome := storage.Draw
	if c.game.IsCheckmate() {
		outcome = storage.Win
		if c.game.SideToMove() == human {
			outcome = storage.Loss
		}
	}
	result := storage.GameResult{
		Outcome:  outcome,
		Plies:    c.game.Ply(),
		Duration: time.Since(c.started),
	}
	if err := c.store.RecordResult(result); err != nil {
		log.Warn().Err(err).Msg("failed to record result")
	}
}

func (c *Console) handleSave() {
	if c.store == nil {
		c.printf("storage disabled\n")
		return
	}
	rec := storage.NewGameRecord(c.startFEN, c.game)
	rec.ID = c.gameID
	id, err := c.store.SaveGame(rec)
	if err != nil {
		c.printf("save failed: %v\n", err)
		return
	}
	c.gameID = id
	c.printf("saved %s\n", id)
}

func (c *Console) handleLoad(args []string) {
	if c.store == nil {
		c.printf("storage disabled\n")
		return
	}
	if len(args) == 0 {
		c.printf("usage: load <id>\n")
		return
	}
	rec, err := c.store.LoadGame(args[0])
	if err != nil {
		c.printf("%v\n", err)
		return
	}
	g, err := rec.Replay()
	if err != nil {
		c.printf("corrupt game %s: %v\n", rec.ID, err)
		return
	}
	c.stopSearch()
	c.reset(rec.StartFEN, g)
	c.gameID = rec.ID
	c.printf("%s\n", c.game)
}

func (c *Console) handleGames() {
	if c.store == nil {
		c.printf("storage disabled\n")
		return
	}
	games, err := c.store.ListGames()
	if err != nil {
		c.printf("%v\n", err)
		return
	}
	if len(games) == 0 {
		c.printf("no saved games\n")
		return
	}
	for _, g := range games {
		c.printf("%s  %s  %3d plies  %s\n", g.ID, g.SavedAt.Format(time.DateTime), len(g.Moves), g.Status)
	}
}

func (c *Console) handleStats() {
	if c.store == nil {
		c.printf("storage disabled\n")
		return
	}
	stats, err := c.store.LoadStats()
	if err != nil {
		c.printf("%v\n", err)
		return
	}
	c.printf("played %d: %d won, %d lost, %d drawn (%.1f%%), best streak %d\n",
		stats.GamesPlayed, stats.Wins, stats.Losses, stats.Draws, stats.GetWinRate(), stats.LongestWinStrk)
}
