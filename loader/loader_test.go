package loader

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func TestLoad_MinimalCampaign(t *testing.T) {
	defs, err := Load("testdata/minimal", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if defs.Game.Title != "Minimal Campaign" {
		t.Errorf("Title = %q, want %q", defs.Game.Title, "Minimal Campaign")
	}
	a, ok := defs.Actions["1.1"]
	if !ok {
		t.Fatal("action 1.1 not found")
	}
	if a.Cost.Budget != 5 || a.Cost.ActionPoints != 1 {
		t.Errorf("cost = %+v", a.Cost)
	}
	if len(defs.Objectives) != 1 || defs.Objectives[0].Type != "primary" {
		t.Errorf("objectives = %+v, want one primary", defs.Objectives)
	}
}

func TestLoad_FullCampaign(t *testing.T) {
	defs, err := Load("testdata/full", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Game metadata.
	if defs.Game.Author != "Tester" {
		t.Errorf("Author = %q", defs.Game.Author)
	}
	if len(defs.Game.StartFlags) != 1 || defs.Game.StartFlags[0] != "office_open" {
		t.Errorf("StartFlags = %v", defs.Game.StartFlags)
	}

	// Actions in natural id order.
	want := []string{"1.1", "1.2", "2.1", "10.1"}
	if strings.Join(defs.ActionOrder, ",") != strings.Join(want, ",") {
		t.Errorf("ActionOrder = %v, want %v", defs.ActionOrder, want)
	}

	bots := defs.Actions["1.1"]
	if bots.Target != "press" || bots.NPC != "alexei" {
		t.Errorf("1.1 target/npc = %q/%q", bots.Target, bots.NPC)
	}
	if bots.Cost.Capacity != 1 || bots.Risk != 5 || bots.Attention != 3 {
		t.Errorf("1.1 numbers = %+v risk=%v attention=%v", bots.Cost, bots.Risk, bots.Attention)
	}
	if len(bots.Unlocks) != 1 || bots.Unlocks[0] != "bots_online" {
		t.Errorf("1.1 unlocks = %v", bots.Unlocks)
	}

	story := defs.Actions["1.2"]
	if story.Consequence == nil {
		t.Fatal("1.2 has no consequence")
	}
	if story.Consequence.ID != "leak" || story.Consequence.Chance != 0.4 || story.Consequence.Delay != 2 {
		t.Errorf("consequence = %+v", *story.Consequence)
	}
	if story.MoralWeight != 4 {
		t.Errorf("moral weight = %d", story.MoralWeight)
	}

	big := defs.Actions["10.1"]
	if !big.Once || big.MinPhase != 6 {
		t.Errorf("10.1 once=%v minPhase=%d", big.Once, big.MinPhase)
	}
	if len(big.Requires) != 2 || big.Requires[1].Type != "not" || big.Requires[1].Inner.Type != "resource_gte" {
		t.Errorf("10.1 requires = %+v", big.Requires)
	}

	// Consequences and choices.
	leak := defs.Consequences["leak"]
	if leak.DefaultDelay != 3 || leak.Severity != "high" {
		t.Errorf("leak = %+v", leak)
	}
	if len(leak.Choices) != 2 || leak.Choices[0].ID != "deny" || leak.Choices[0].Cost.Budget != 10 {
		t.Errorf("leak choices = %+v", leak.Choices)
	}

	// Team.
	if len(defs.NPCs) != 2 {
		t.Fatalf("expected 2 NPCs, got %d", len(defs.NPCs))
	}
	igor, _ := defs.NPC("igor")
	if igor.Morale != 50 {
		t.Errorf("igor default morale = %d, want 50", igor.Morale)
	}
	if igor.MoralThreshold != 6 || len(igor.Objections) != 1 {
		t.Errorf("igor = %+v", igor)
	}
	alexei, _ := defs.NPC("alexei")
	if alexei.DiscountPerLevel != 0.1 || alexei.Morale != 65 {
		t.Errorf("alexei = %+v", alexei)
	}

	// World.
	press, ok := defs.Actor("press")
	if !ok || press.Vulnerabilities["content"] != 1.5 {
		t.Errorf("press = %+v", press)
	}
	fc, ok := defs.DefensiveActor("factcheckers")
	if !ok || fc.Focus["debunk"] != 1.0 || fc.Weight != 3 {
		t.Errorf("factcheckers = %+v", fc)
	}
	if len(defs.WorldEvents) != 2 {
		t.Fatalf("expected 2 world events, got %d", len(defs.WorldEvents))
	}
	election := defs.WorldEvents[0]
	if election.Window == nil || election.Window.Tag != "content" || election.Window.Duration != 2 {
		t.Errorf("election window = %+v", election.Window)
	}
	if defs.WorldEvents[1].Weight != 1 {
		t.Errorf("default weight = %d, want 1", defs.WorldEvents[1].Weight)
	}

	// Crises, combos, handlers, balance.
	if len(defs.Crises) != 1 || defs.Crises[0].NPC != "igor" || defs.Crises[0].Cooldown != 4 {
		t.Errorf("crises = %+v", defs.Crises)
	}
	if len(defs.Combos) != 1 || defs.Combos[0].Window != 3 || len(defs.Combos[0].Requires) != 2 {
		t.Errorf("combos = %+v", defs.Combos)
	}
	if len(defs.Handlers) != 1 || defs.Handlers[0].EventType != "combo_completed" {
		t.Errorf("handlers = %+v", defs.Handlers)
	}
	if defs.Balance["hard"]["start_budget"] != 90 {
		t.Errorf("balance = %+v", defs.Balance)
	}

	// Dialogue file next to the Lua sources.
	nodes := defs.Dialogues["igor"]
	if len(nodes) != 1 || nodes[0].NPC != "igor" || !nodes[0].RequiresGrievance {
		t.Errorf("igor dialogue = %+v", nodes)
	}
}

func TestLoad_BalanceOverridesApply(t *testing.T) {
	defs, err := Load("testdata/full", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg, err := defs.BalanceFor("hard")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StartBudget != 90 || cfg.NewsChance != 0.5 {
		t.Errorf("hard = budget %d, news %.2f", cfg.StartBudget, cfg.NewsChance)
	}
}

func TestLoad_InvalidRefs_Fails(t *testing.T) {
	_, err := Load("testdata/invalid_refs", nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	assertContains(t, ve.Errors, `undefined actor "nobody"`)
	assertContains(t, ve.Errors, `undefined consequence "missing"`)
	assertContains(t, ve.Errors, `undefined objective "nowhere"`)
	assertContains(t, ve.Errors, `undefined NPC "ghost"`)
}

func TestLoad_DuplicateActions_Fails(t *testing.T) {
	_, err := Load("testdata/duplicate_actions", nil)
	if err == nil {
		t.Fatal("expected error for duplicate action ids")
	}
	if !strings.Contains(err.Error(), `duplicate action "1.1"`) {
		t.Errorf("error = %q", err.Error())
	}
}

func TestLoad_BadLuaSyntax_Fails(t *testing.T) {
	_, err := Load("testdata/bad_lua", nil)
	if err == nil {
		t.Fatal("expected error for bad Lua syntax")
	}
	if !strings.Contains(err.Error(), "game.lua") {
		t.Errorf("error %q does not name the file", err.Error())
	}
}

func TestLoad_NoGameDef_Fails(t *testing.T) {
	_, err := Load("testdata/no_game", nil)
	if err == nil {
		t.Fatal("expected error for missing Game{} definition")
	}
	if !strings.Contains(err.Error(), "no Game{} definition") {
		t.Errorf("error = %q, expected 'no Game{} definition'", err.Error())
	}
}

func TestLoad_MissingDir_Fails(t *testing.T) {
	if _, err := Load("testdata/does_not_exist", nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestLoadFS_WarningsAreLogged(t *testing.T) {
	fsys := fstest.MapFS{
		"game.lua": {Data: []byte(`
			Game { title = "Warn" }
			Objective "side" { title = "Nebenbei", type = "secondary", target = 10 }
			Action "1.1" { name = "Eins", category = "content" }
		`)},
	}
	core, logs := observer.New(zapcore.WarnLevel)

	if _, err := LoadFS(fsys, zap.New(core)); err != nil {
		t.Fatalf("LoadFS failed: %v", err)
	}
	if logs.FilterMessage("content warning").Len() != 1 {
		t.Errorf("warnings logged = %v", logs.All())
	}
}

func TestLoadFS_BadDialogue_Fails(t *testing.T) {
	fsys := fstest.MapFS{
		"game.lua": {Data: []byte(`
			Game { title = "Talk" }
			Objective "o" { title = "O", target = 10 }
			Action "1.1" { name = "Eins", category = "content" }
		`)},
		DialogueFile: {Data: []byte("igor:\n  - id: x\n    text: hi\n")},
	}
	_, err := LoadFS(fsys, nil)
	if err == nil || !strings.Contains(err.Error(), DialogueFile) {
		t.Fatalf("expected dialogue parse error, got %v", err)
	}
}

func TestLoad_SandboxEnforced(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	blocked := []string{
		`os.execute("echo pwned")`,
		`io.open("/etc/passwd")`,
		`dofile("x.lua")`,
		`math.randomseed(1)`,
		`require("os")`,
	}
	for _, src := range blocked {
		if err := L.DoString(src); err == nil {
			t.Errorf("expected sandbox to block %s", src)
		}
	}
}

func TestLoad_FileOrdering(t *testing.T) {
	files := sortedLuaFiles([]string{"world.lua", "game.lua", "actions.lua", "team.lua"})
	if files[0] != "game.lua" {
		t.Errorf("first file = %q, want game.lua", files[0])
	}
	if files[1] != "actions.lua" {
		t.Errorf("second file = %q, want actions.lua", files[1])
	}
}
