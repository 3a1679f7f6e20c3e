package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/hailam/chessmind/internal/board"
)

// MaxAutoDepth caps the depth picked by AutoDepth.
const MaxAutoDepth = 4

// AutoDepth picks a search depth from the number of legal moves so the
// tree stays near 2^14 leaves: round(log_n(2^14)), capped at MaxAutoDepth.
func AutoDepth(legalMoves int) int {
	if legalMoves <= 1 {
		return MaxAutoDepth
	}
	d := int(math.Round(14 * math.Ln2 / math.Log(float64(legalMoves))))
	return max(1, min(d, MaxAutoDepth))
}

// Engine runs one search at a time in the background and exposes its
// progress and outcome for polling. Starting a new search cancels the
// previous one.
type Engine struct {
	searcher *Searcher
	logger   zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	result Result
	err    error

	finished atomic.Bool
}

// New creates an engine. Options are passed to the underlying Searcher.
func New(logger zerolog.Logger, opts ...Option) *Engine {
	opts = append([]Option{WithLogger(logger)}, opts...)
	done := make(chan struct{})
	close(done)
	e := &Engine{
		searcher: NewSearcher(opts...),
		logger:   logger,
		done:     done,
	}
	e.finished.Store(true)
	return e
}

// Start searches a snapshot of s in the background. A depth of zero or
// less picks one with AutoDepth. Any search already running is cancelled
// and its result dropped.
func (e *Engine) Start(ctx context.Context, s *board.GameState, depth int) {
	e.Stop()

	if depth <= 0 {
		depth = AutoDepth(s.NumLegalMoves())
	}
	snapshot := s.Clone()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	e.mu.Lock()
	e.cancel = cancel
	e.done = done
	e.result = Result{}
	e.err = nil
	e.finished.Store(false)
	e.mu.Unlock()

	e.logger.Info().Int("depth", depth).Str("side", snapshot.SideToMove().String()).Msg("engine thinking")

	go func() {
		defer close(done)
		defer cancel()

		res, err := e.searcher.MinimaxRoot(ctx, snapshot, depth)

		e.mu.Lock()
		e.result, e.err = res, err
		e.mu.Unlock()
		e.finished.Store(true)

		if err != nil {
			e.logger.Debug().Err(err).Msg("search ended without a result")
			return
		}
		e.logger.Info().
			Str("move", res.Move.String()).
			Str("score", ScoreString(res.Score)).
			Uint64("nodes", res.Nodes).
			Dur("elapsed", res.Elapsed).
			Msg("engine done")
	}()
}

// Stop cancels the running search, if any, and waits for it to return.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	<-done
}

// Finished reports whether no search is running.
func (e *Engine) Finished() bool {
	return e.finished.Load()
}

// Done returns a channel closed when the current search returns.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// Wait blocks until the current search returns and reports its outcome.
func (e *Engine) Wait() (Result, error) {
	<-e.Done()
	return e.Result()
}

// Result returns the outcome of the last finished search.
func (e *Engine) Result() (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result, e.err
}

// BestMove returns the move chosen by the last finished search.
func (e *Engine) BestMove() (board.Move, bool) {
	res, err := e.Result()
	if err != nil || res.Move.IsNull() {
		return board.NoMove, false
	}
	return res.Move, true
}

// Evaluation returns the score of the last finished search.
func (e *Engine) Evaluation() int {
	res, _ := e.Result()
	return res.Score
}

// Progress returns how many root moves have been dispatched and completed.
func (e *Engine) Progress() Progress {
	return e.searcher.Progress()
}

// Perft counts leaf nodes at the given depth (for debugging move generation).
// A depth of zero or less counts the position itself.
func Perft(s *board.GameState, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	if depth == 1 {
		return uint64(s.NumLegalMoves())
	}

	var nodes uint64
	for _, m := range s.LegalMoves() {
		s.Play(m)
		nodes += Perft(s, depth-1)
		s.TakeBack()
	}
	return nodes
}

// ScoreString formats a root score from white's point of view. Root scores
// carry no mate-distance step for the root move itself, so MateScore is a
// mate on the move.
func ScoreString(score int) string {
	if score > MateThreshold {
		return fmt.Sprintf("White mates in %d", (MateScore-score)/2+1)
	}
	if score < -MateThreshold {
		return fmt.Sprintf("Black mates in %d", (MateScore+score)/2+1)
	}
	return fmt.Sprintf("%+.2f", float64(score)/100)
}
