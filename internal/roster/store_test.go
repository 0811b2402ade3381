package roster

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "players.json"))

	players, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(players) != 0 {
		t.Fatalf("expected empty registry, got %d players", len(players))
	}
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.json")
	store := NewStore(path)

	if err := store.Save([]Player{
		{ID: 1, Name: "alice", Rating: 82, Team: "Red"},
		{ID: 2, Name: "bob", Rating: 67, Team: "N/A"},
	}); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	players, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(players))
	}
	if players[0].Name != "alice" || players[1].Rating != 67 {
		t.Fatalf("unexpected round trip: %+v", players)
	}
}

func TestStore_LoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write malformed file: %v", err)
	}

	store := NewStore(path)
	if _, err := store.Load(); err == nil {
		t.Fatal("expected malformed registry to fail loading")
	}
}
