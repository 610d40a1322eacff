package mediacontext

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReuseIndex_NameHeuristics(t *testing.T) {
	idx := NewReuseIndex(nil)

	tests := []struct {
		key      string
		expected bool
	}{
		{"old_news_fire_photo.jpg", true},
		{"archive-2014-flood.png", true},
		{"https://cdn.example/stock/photo.jpg?w=200", false},
		{"https://cdn.example/img/stock_photo.jpg", true},
		{"official_video_clean_shot.mp4", false},
		{"golden_hour.jpg", false},
	}

	for _, tt := range tests {
		got, _ := idx.Check(tt.key)
		if got != tt.expected {
			t.Errorf("Check(%q) = %v, expected %v", tt.key, got, tt.expected)
		}
	}
}

func TestReuseIndex_KnownKeys(t *testing.T) {
	idx := NewReuseIndex(map[string]string{"Flood.JPG": "first published 2014"})

	reused, why := idx.Check("uploads/flood.jpg")
	if !reused {
		t.Fatal("Expected known key to be reused")
	}
	if why == "" {
		t.Error("Expected an explanation")
	}
}

func TestLoadReuseIndex(t *testing.T) {
	dir := t.TempDir()

	list := filepath.Join(dir, "list.yaml")
	_ = os.WriteFile(list, []byte("- flood.jpg\n- riot.png\n"), 0644)
	idx, err := LoadReuseIndex(list)
	if err != nil {
		t.Fatalf("LoadReuseIndex(list) failed: %v", err)
	}
	if reused, _ := idx.Check("riot.png"); !reused {
		t.Error("Expected listed key to be reused")
	}

	m := filepath.Join(dir, "map.json")
	_ = os.WriteFile(m, []byte(`{"flood.jpg": "2014 flood in another country"}`), 0644)
	idx, err = LoadReuseIndex(m)
	if err != nil {
		t.Fatalf("LoadReuseIndex(map) failed: %v", err)
	}
	if reused, _ := idx.Check("flood.jpg"); !reused {
		t.Error("Expected mapped key to be reused")
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("just a string"), 0644)
	if _, err := LoadReuseIndex(bad); err == nil {
		t.Error("Expected error for scalar document")
	}

	if _, err := LoadReuseIndex(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
