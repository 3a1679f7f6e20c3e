package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/hailam/chessmind/internal/board"
)

// Storage keys and prefixes
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	prefixGame     = "game/"
	prefixAnalysis = "analysis/"
)

// ErrGameNotFound is returned when no saved game has the requested ID.
var ErrGameNotFound = errors.New("game not found")

// EngineColor is the side the engine plays.
type EngineColor string

const (
	EngineNone  EngineColor = "none"
	EngineWhite EngineColor = "white"
	EngineBlack EngineColor = "black"
	EngineBoth  EngineColor = "both"
)

// ParseEngineColor validates an engine color name.
func ParseEngineColor(s string) (EngineColor, error) {
	switch c := EngineColor(s); c {
	case EngineNone, EngineWhite, EngineBlack, EngineBoth:
		return c, nil
	}
	return "", fmt.Errorf("unknown engine color %q", s)
}

// Plays reports whether the engine moves for the given side.
func (c EngineColor) Plays(side board.Color) bool {
	switch c {
	case EngineBoth:
		return true
	case EngineWhite:
		return side == board.White
	case EngineBlack:
		return side == board.Black
	}
	return false
}

// UserPreferences stores user settings
type UserPreferences struct {
	Depth       int         `json:"depth"`
	AutoDepth   bool        `json:"auto_depth"`
	EngineColor EngineColor `json:"engine_color"`
	LastPlayed  time.Time   `json:"last_played"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *UserPreferences {
	return &UserPreferences{
		Depth:       3,
		AutoDepth:   false,
		EngineColor: EngineBlack,
		LastPlayed:  time.Now(),
	}
}

// GameStats stores results of finished games against the engine.
type GameStats struct {
	GamesPlayed    int           `json:"games_played"`
	Wins           int           `json:"wins"`
	Losses         int           `json:"losses"`
	Draws          int           `json:"draws"`
	TotalPlies     int           `json:"total_plies"`
	TotalPlayTime  time.Duration `json:"total_play_time"`
	LongestWinStrk int           `json:"longest_win_streak"`
	CurrentStreak  int           `json:"current_streak"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{}
}

// GetWinRate returns the win rate as a percentage (0-100)
func (s *GameStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

// Outcome is a finished game from the human player's side.
type Outcome int

const (
	Win Outcome = iota
	Loss
	Draw
)

// GameResult represents the result of a completed game
type GameResult struct {
	Outcome  Outcome
	Plies    int
	Duration time.Duration
}

// GameRecord is a saved game: where it started and the moves played, in
// coordinate notation.
type GameRecord struct {
	ID       string    `json:"id"`
	StartFEN string    `json:"start_fen"`
	Moves    []string  `json:"moves"`
	Status   string    `json:"status"`
	SavedAt  time.Time `json:"saved_at"`
}

// NewGameRecord captures the history of s, which started at startFEN.
func NewGameRecord(startFEN string, s *board.GameState) *GameRecord {
	history := s.History()
	moves := make([]string, len(history))
	for i, m := range history {
		moves[i] = m.String()
	}
	return &GameRecord{
		StartFEN: startFEN,
		Moves:    moves,
		Status:   s.Status().String(),
	}
}

// Replay rebuilds the game state the record describes.
func (r *GameRecord) Replay() (*board.GameState, error) {
	return board.Replay(r.StartFEN, r.Moves)
}

// AnalysisEntry caches the outcome of a root search.
type AnalysisEntry struct {
	Move  string `json:"move"`
	Score int    `json:"score"`
	Depth int    `json:"depth"`
	Nodes uint64 `json:"nodes"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	return Open("")
}

// Open opens (or creates) the database under dataDir.
func Open(dataDir string) (*Storage, error) {
	dbDir, err := GetDatabaseDir(dataDir)
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbDir, err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// getJSON decodes the value at key into v and reports whether it existed.
func (s *Storage) getJSON(key string, v any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return found, err
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *UserPreferences) error {
	prefs.LastPlayed = time.Now()
	return s.putJSON(keyPreferences, prefs)
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*UserPreferences, error) {
	prefs := DefaultPreferences()
	_, err := s.getJSON(keyPreferences, prefs)
	return prefs, err
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.putJSON(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	_, err := s.getJSON(keyStats, stats)
	return stats, err
}

// RecordResult records a completed game and updates statistics
func (s *Storage) RecordResult(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TotalPlies += result.Plies
	stats.TotalPlayTime += result.Duration

	switch result.Outcome {
	case Win:
		stats.Wins++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.LongestWinStrk {
			stats.LongestWinStrk = stats.CurrentStreak
		}
	case Loss:
		stats.Losses++
		stats.CurrentStreak = 0
	default:
		stats.Draws++
		stats.CurrentStreak = 0
	}

	return s.SaveStats(stats)
}

// SaveGame stores a game record, assigning a new ID when it has none.
// It returns the record's ID.
func (s *Storage) SaveGame(rec *GameRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.SavedAt = time.Now()
	if err := s.putJSON(prefixGame+rec.ID, rec); err != nil {
		return "", fmt.Errorf("save game %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

// LoadGame returns the saved game with the given ID.
func (s *Storage) LoadGame(id string) (*GameRecord, error) {
	rec := &GameRecord{}
	found, err := s.getJSON(prefixGame+id, rec)
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return rec, nil
}

// ListGames returns every saved game, most recently saved first.
func (s *Storage) ListGames() ([]*GameRecord, error) {
	var games []*GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixGame)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rec := &GameRecord{}
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, rec)
			})
			if err != nil {
				return err
			}
			games = append(games, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(games, func(i, j int) bool {
		return games[i].SavedAt.After(games[j].SavedAt)
	})
	return games, nil
}

// DeleteGame removes a saved game.
func (s *Storage) DeleteGame(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixGame + id))
	})
}

func analysisKey(hash uint64, depth int) string {
	return fmt.Sprintf("%s%016x/%d", prefixAnalysis, hash, depth)
}

// StoreAnalysis caches a search result for a position hash and depth.
func (s *Storage) StoreAnalysis(hash uint64, entry AnalysisEntry) error {
	return s.putJSON(analysisKey(hash, entry.Depth), entry)
}

// LookupAnalysis returns a cached search result for a position hash and depth.
func (s *Storage) LookupAnalysis(hash uint64, depth int) (AnalysisEntry, bool, error) {
	var entry AnalysisEntry
	found, err := s.getJSON(analysisKey(hash, depth), &entry)
	return entry, found, err
}
