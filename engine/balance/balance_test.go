package balance

import (
	"errors"
	"testing"

	"github.com/nathoo/storycore/engine/errs"
)

func TestGet_NormalStartingEconomy(t *testing.T) {
	cfg, err := Get("")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cfg.Name != "normal" {
		t.Errorf("default preset = %q, want normal", cfg.Name)
	}
	if cfg.StartBudget != 150 || cfg.StartCapacity != 5 || cfg.ActionPoints != 5 {
		t.Errorf("normal economy = budget %d capacity %d ap %d", cfg.StartBudget, cfg.StartCapacity, cfg.ActionPoints)
	}
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get("nightmare")
	if !errors.Is(err, errs.ErrInvalidReference) {
		t.Fatalf("expected invalid reference, got %v", err)
	}
}

func TestNames_OrderedByDifficulty(t *testing.T) {
	want := []string{"tutorial", "easy", "normal", "hard", "expert"}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPresets_ScaleMonotonically(t *testing.T) {
	names := Names()
	for i := 1; i < len(names); i++ {
		prev, _ := Get(names[i-1])
		cur, _ := Get(names[i])
		if cur.DetectionThreshold > prev.DetectionThreshold {
			t.Errorf("%s detection threshold %v above %s %v", cur.Name, cur.DetectionThreshold, prev.Name, prev.DetectionThreshold)
		}
		if cur.MaxDefensiveActors < prev.MaxDefensiveActors {
			t.Errorf("%s allows fewer defenders than %s", cur.Name, prev.Name)
		}
	}
}

func TestOverride(t *testing.T) {
	cfg, _ := Get("normal")
	got := Override(cfg, map[string]float64{
		"start_budget": 999,
		"news_chance":  0,
		"not_a_key":    1,
	})
	if got.StartBudget != 999 {
		t.Errorf("StartBudget = %d", got.StartBudget)
	}
	if got.NewsChance != 0 {
		t.Errorf("NewsChance = %v", got.NewsChance)
	}
	if got.MaxRounds != cfg.MaxRounds {
		t.Error("untouched field changed")
	}
}
