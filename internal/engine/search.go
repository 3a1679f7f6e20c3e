package engine

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/hailam/chessmind/internal/board"
)

// Search constants. MateScore and MateThreshold are far enough apart that
// no sum of static evaluations can cross the threshold.
const (
	MateScore     = 1_000_000_000
	MateThreshold = 999_000_000
	Infinity      = 2_000_000_000
)

// ErrNoLegalMoves is returned when asked to search a finished game.
var ErrNoLegalMoves = errors.New("no legal moves to search")

// Chooser picks an index in [0, n). It breaks ties between root moves.
type Chooser interface {
	Intn(n int) int
}

// sharedRand draws from frand's global generator, which is safe for
// concurrent use.
type sharedRand struct{}

func (sharedRand) Intn(n int) int { return frand.Intn(n) }

// worker runs minimax on one position at a time. It owns an evaluator
// with its own pawn cache and is never shared between goroutines.
type worker struct {
	eval  *Evaluator
	stop  *atomic.Bool
	nodes uint64
}

func newWorker(pawnCacheMB int, stop *atomic.Bool) *worker {
	return &worker{eval: NewEvaluator(pawnCacheMB), stop: stop}
}

func (w *worker) stopped() bool {
	return w.stop != nil && w.stop.Load()
}

// Minimax scores s to the given depth with alpha-beta pruning, white
// maximizing. The position is walked in place and restored on return.
func Minimax(s *board.GameState, depth, alpha, beta int, maximizing bool) int {
	return newWorker(0, nil).minimax(s, depth, alpha, beta, maximizing)
}

func (w *worker) minimax(s *board.GameState, depth, alpha, beta int, maximizing bool) int {
	w.nodes++

	// The previous move mated the side to move.
	if s.IsCheckmate() {
		if maximizing {
			return -MateScore
		}
		return MateScore
	}
	if s.IsDraw() {
		return 0
	}
	if depth <= 0 {
		return w.eval.Evaluate(s)
	}

	best := Infinity
	if maximizing {
		best = -Infinity
	}
	for _, m := range OrderedMoves(s) {
		if w.stopped() {
			break
		}
		s.Play(m)
		score := mateDistance(w.minimax(s, depth-1, alpha, beta, !maximizing))
		s.TakeBack()

		if maximizing {
			best = max(best, score)
			alpha = max(alpha, best)
		} else {
			best = min(best, score)
			beta = min(beta, best)
		}
		if beta <= alpha {
			break
		}
	}
	return best
}

// mateDistance pulls mate scores one step towards zero per ply, so a
// quicker mate always scores better than a slower one.
func mateDistance(score int) int {
	switch {
	case score > MateThreshold:
		return score - 1
	case score < -MateThreshold:
		return score + 1
	}
	return score
}

// MoveScore is the score of one root move.
type MoveScore struct {
	Move  board.Move
	Score int
}

// Result is the outcome of a root search.
type Result struct {
	Move    board.Move
	Score   int
	Depth   int
	Hash    uint64 // hash of the searched position
	Scores  []MoveScore
	Nodes   uint64
	Elapsed time.Duration
}

// StaleFor reports whether the result was computed for a different
// position than s. Callers must discard stale results.
func (r Result) StaleFor(s *board.GameState) bool {
	return r.Hash != s.Hash()
}

// Progress counts root moves for a running search.
type Progress struct {
	Dispatched int
	Completed  int
	Total      int
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithWorkers bounds the number of root moves searched at once.
func WithWorkers(n int) Option {
	return func(sr *Searcher) {
		if n > 0 {
			sr.workers = n
		}
	}
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(sr *Searcher) { sr.logger = l }
}

// WithChooser sets the tie-break source. A nil Chooser always picks the
// first of the tied moves, in legal-move order.
func WithChooser(c Chooser) Option {
	return func(sr *Searcher) { sr.chooser = c }
}

// WithPawnCache sets the per-worker pawn cache size in MB.
func WithPawnCache(mb int) Option {
	return func(sr *Searcher) { sr.pawnCacheMB = mb }
}

// Searcher runs root-parallel minimax. Each root move is searched on its
// own clone with a full window; root tasks share no bounds. A Searcher
// runs one search at a time.
type Searcher struct {
	workers     int
	pawnCacheMB int
	chooser     Chooser
	logger      zerolog.Logger

	dispatched atomic.Int64
	completed  atomic.Int64
	total      atomic.Int64
}

// NewSearcher creates a searcher with one worker per available CPU.
func NewSearcher(opts ...Option) *Searcher {
	sr := &Searcher{
		workers:     runtime.GOMAXPROCS(0),
		pawnCacheMB: 1,
		chooser:     sharedRand{},
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(sr)
	}
	return sr
}

// Progress returns the root move counters of the current or last search.
func (sr *Searcher) Progress() Progress {
	return Progress{
		Dispatched: int(sr.dispatched.Load()),
		Completed:  int(sr.completed.Load()),
		Total:      int(sr.total.Load()),
	}
}

// MinimaxRoot scores every legal move of s to the given depth and picks
// the best for the side to move, breaking ties with the Chooser. s is not
// modified. A depth below 1 searches one ply.
//
// Cancelling ctx stops dispatching new root moves and cuts running ones
// short; the search then returns ctx.Err().
func (sr *Searcher) MinimaxRoot(ctx context.Context, s *board.GameState, depth int) (Result, error) {
	start := time.Now()
	depth = max(depth, 1)

	root := s.Clone()
	moves := root.LegalMoves()
	sr.dispatched.Store(0)
	sr.completed.Store(0)
	sr.total.Store(int64(len(moves)))
	if len(moves) == 0 {
		return Result{}, ErrNoLegalMoves
	}

	maximize := root.SideToMove() == board.White
	workers := min(sr.workers, len(moves))

	sr.logger.Debug().
		Int("depth", depth).
		Int("moves", len(moves)).
		Int("workers", workers).
		Str("fen", root.FEN()).
		Msg("search-start")

	var stop atomic.Bool
	release := context.AfterFunc(ctx, func() { stop.Store(true) })
	defer release()

	pool := make(chan *worker, workers)
	for range workers {
		pool <- newWorker(sr.pawnCacheMB, &stop)
	}

	scores := make([]int, len(moves))
	var nodes atomic.Uint64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, m := range moves {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sr.dispatched.Add(1)

			w := <-pool
			defer func() { pool <- w }()

			before := w.nodes
			child := root.Clone()
			child.Play(m)
			scores[i] = w.minimax(child, depth-1, -Infinity, Infinity, !maximize)
			nodes.Add(w.nodes - before)

			if stop.Load() {
				return ctx.Err()
			}
			sr.completed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	best := selectBest(scores, maximize, sr.chooser)
	res := Result{
		Move:    moves[best],
		Score:   scores[best],
		Depth:   depth,
		Hash:    root.Hash(),
		Scores:  make([]MoveScore, len(moves)),
		Nodes:   nodes.Load(),
		Elapsed: time.Since(start),
	}
	for i, m := range moves {
		res.Scores[i] = MoveScore{Move: m, Score: scores[i]}
	}

	sr.logger.Debug().
		Str("move", res.Move.String()).
		Int("score", res.Score).
		Uint64("nodes", res.Nodes).
		Dur("elapsed", res.Elapsed).
		Msg("search-done")
	return res, nil
}

// selectBest returns the index of the best score for the side to move,
// choosing among equal scores with c.
func selectBest(scores []int, maximize bool, c Chooser) int {
	best := scores[0]
	for _, v := range scores[1:] {
		if (maximize && v > best) || (!maximize && v < best) {
			best = v
		}
	}

	var tied []int
	for i, v := range scores {
		if v == best {
			tied = append(tied, i)
		}
	}
	if c == nil || len(tied) == 1 {
		return tied[0]
	}
	return tied[c.Intn(len(tied))]
}
