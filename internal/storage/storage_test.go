package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hailam/chessmind/internal/board"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	t.Run("DefaultPreferences", func(t *testing.T) {
		prefs := DefaultPreferences()
		if prefs.Depth != 3 {
			t.Errorf("Expected depth 3, got %d", prefs.Depth)
		}
		if prefs.AutoDepth {
			t.Errorf("Expected a fixed depth by default")
		}
		if prefs.EngineColor != EngineBlack {
			t.Errorf("Expected engine to play black, got %s", prefs.EngineColor)
		}
	})

	t.Run("NewGameStats", func(t *testing.T) {
		stats := NewGameStats()
		if stats.GamesPlayed != 0 {
			t.Errorf("Expected 0 games played")
		}
		if stats.GetWinRate() != 0 {
			t.Errorf("Expected 0 win rate")
		}
	})

	t.Run("WinRate", func(t *testing.T) {
		stats := &GameStats{
			GamesPlayed: 10,
			Wins:        5,
			Losses:      3,
			Draws:       2,
		}
		rate := stats.GetWinRate()
		if rate != 50 {
			t.Errorf("Expected 50%% win rate, got %.2f%%", rate)
		}
	})
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := openTemp(t)

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if prefs.Depth != DefaultPreferences().Depth {
		t.Error("empty database should yield defaults")
	}

	prefs.Depth = 5
	prefs.AutoDepth = false
	prefs.EngineColor = EngineWhite
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if got.Depth != 5 || got.AutoDepth || got.EngineColor != EngineWhite {
		t.Errorf("loaded %+v", got)
	}
}

func TestRecordResult(t *testing.T) {
	s := openTemp(t)

	results := []GameResult{
		{Outcome: Win, Plies: 40, Duration: time.Minute},
		{Outcome: Win, Plies: 30, Duration: time.Minute},
		{Outcome: Loss, Plies: 20},
		{Outcome: Draw, Plies: 60},
	}
	for _, r := range results {
		if err := s.RecordResult(r); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 4 || stats.Wins != 2 || stats.Losses != 1 || stats.Draws != 1 {
		t.Errorf("stats %+v", stats)
	}
	if stats.LongestWinStrk != 2 || stats.CurrentStreak != 0 {
		t.Errorf("streaks %d/%d", stats.LongestWinStrk, stats.CurrentStreak)
	}
	if stats.TotalPlies != 150 || stats.TotalPlayTime != 2*time.Minute {
		t.Errorf("totals %d plies, %s", stats.TotalPlies, stats.TotalPlayTime)
	}
}

func TestSaveLoadGame(t *testing.T) {
	s := openTemp(t)

	g := board.NewGame()
	for _, text := range []string{"e2e4", "e7e5", "g1f3"} {
		m, err := g.ParseMove(text)
		if err != nil {
			t.Fatal(err)
		}
		g.MakeMove(m)
	}

	rec := NewGameRecord(board.StartFEN, g)
	id, err := s.SaveGame(rec)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" || rec.ID != id {
		t.Fatalf("SaveGame id %q, record id %q", id, rec.ID)
	}

	loaded, err := s.LoadGame(id)
	if err != nil {
		t.Fatal(err)
	}
	replayed, err := loaded.Replay()
	if err != nil {
		t.Fatal(err)
	}
	if replayed.FEN() != g.FEN() {
		t.Errorf("replayed FEN %q, want %q", replayed.FEN(), g.FEN())
	}

	second, err := s.SaveGame(NewGameRecord(board.StartFEN, board.NewGame()))
	if err != nil {
		t.Fatal(err)
	}
	games, err := s.ListGames()
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 2 || games[0].ID != second {
		t.Errorf("ListGames returned %d games, newest %v", len(games), games)
	}

	if err := s.DeleteGame(id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadGame(id); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("LoadGame after delete: %v", err)
	}
}

func TestAnalysisCache(t *testing.T) {
	s := openTemp(t)
	hash := board.NewGame().Hash()

	if _, found, err := s.LookupAnalysis(hash, 3); err != nil || found {
		t.Fatalf("empty cache: found=%v err=%v", found, err)
	}

	entry := AnalysisEntry{Move: "e2e4", Score: 35, Depth: 3, Nodes: 1234}
	if err := s.StoreAnalysis(hash, entry); err != nil {
		t.Fatal(err)
	}

	got, found, err := s.LookupAnalysis(hash, 3)
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if got != entry {
		t.Errorf("got %+v, want %+v", got, entry)
	}
	if _, found, _ := s.LookupAnalysis(hash, 4); found {
		t.Error("a different depth must miss")
	}
}

func TestParseEngineColor(t *testing.T) {
	c, err := ParseEngineColor("black")
	if err != nil || c != EngineBlack {
		t.Errorf("ParseEngineColor(black) = %s, %v", c, err)
	}
	if !c.Plays(board.Black) || c.Plays(board.White) {
		t.Error("black engine plays black only")
	}
	if !EngineBoth.Plays(board.White) || EngineNone.Plays(board.White) {
		t.Error("both/none mismatch")
	}
	if _, err := ParseEngineColor("purple"); err == nil {
		t.Error("expected an error for an unknown color")
	}
}

func TestDataPaths(t *testing.T) {
	base := t.TempDir()
	dbDir, err := GetDatabaseDir(base)
	if err != nil {
		t.Fatalf("GetDatabaseDir failed: %v", err)
	}
	if dbDir != filepath.Join(base, "db") {
		t.Errorf("GetDatabaseDir = %s", dbDir)
	}
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		t.Errorf("Database directory was not created: %s", dbDir)
	}

	t.Setenv("XDG_DATA_HOME", base)
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}
	t.Logf("Data directory: %s", dataDir)
}
