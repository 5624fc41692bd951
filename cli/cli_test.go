package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nathoo/storycore/engine"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/savestore"
	"github.com/nathoo/storycore/types"
)

// testDefs returns a minimal campaign for CLI testing.
func testDefs() *state.Defs {
	return &state.Defs{
		Game: types.GameDef{
			Title:   "Test Kampagne",
			Author:  "Test",
			Version: "1.0",
			Intro:   "Willkommen im Büro.",
		},
		Actions: map[string]types.ActionDef{
			"1.1": {
				ID: "1.1", Name: "Gerücht streuen", Category: "content",
				Cost:   types.Costs{Budget: 10, ActionPoints: 1},
				Target: "press",
				Effects: []types.Effect{{Type: "objective", Params: map[string]any{
					"objective": "reach", "amount": 5.0,
				}}},
			},
		},
		ActionOrder:  []string{"1.1"},
		Consequences: map[string]types.ConsequenceDef{},
		NPCs:         []types.NPCDef{{ID: "marina", Name: "Marina", Role: "Content", Morale: 60}},
		Actors:       []types.ActorDef{{ID: "press", Name: "Presse", Trust: 60}},
		Objectives:   []types.ObjectiveDef{{ID: "reach", Title: "Reichweite", Type: "primary", Target: 100}},
		Dialogues:    map[string][]types.DialogueNode{},
	}
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	eng, err := engine.New(testDefs(), engine.Options{Seed: "cli-test"})
	if err != nil {
		t.Fatal(err)
	}
	store, err := savestore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	c := &CLI{
		Engine: eng,
		Store:  store,
		In:     strings.NewReader(input),
		Out:    &out,
	}
	return c, &out
}

func TestCLI_IntroAndStatus(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Test Kampagne v1.0 von Test") {
		t.Error("expected title line in output")
	}
	if !strings.Contains(output, "Willkommen im Büro.") {
		t.Error("expected intro text in output")
	}
	if !strings.Contains(output, "Phase 1 (Januar, Jahr 1)") {
		t.Error("expected status in output")
	}
	if !strings.Contains(output, "[Auf Wiedersehen.]") {
		t.Error("expected goodbye message")
	}
}

func TestCLI_BasicGameplay(t *testing.T) {
	c, out := newTestCLI(t, "1.1\nend\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Gerücht streuen ausgeführt") {
		t.Errorf("expected action output, got:\n%s", output)
	}
	if !strings.Contains(output, "--- Phase 2") {
		t.Errorf("expected phase change, got:\n%s", output)
	}
	if c.Engine.CurrentPhase().Number != 2 {
		t.Errorf("phase = %d, want 2", c.Engine.CurrentPhase().Number)
	}
}

func TestCLI_EndOfInputStops(t *testing.T) {
	c, _ := newTestCLI(t, "status\n")
	c.Run(context.Background())
}

func TestCLI_AgainRepeatsLastCommand(t *testing.T) {
	c, out := newTestCLI(t, "g\n1.1\ng\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "Nichts zu wiederholen.") {
		t.Error("expected nothing-to-repeat message")
	}
	if got := strings.Count(out.String(), "Gerücht streuen ausgeführt"); got != 2 {
		t.Errorf("action ran %d times, want 2", got)
	}
}

func TestCLI_ScriptCommentsAndEcho(t *testing.T) {
	c, out := newTestCLI(t, "# setup\nstatus\n/quit\n")
	c.EchoInput = true
	c.Run(context.Background())

	output := out.String()
	if strings.Contains(output, "setup") {
		t.Error("comment line should be skipped")
	}
	if !strings.Contains(output, "> status\n") {
		t.Error("expected echoed input after prompt")
	}
}

func TestCLI_SaveAndLoad(t *testing.T) {
	c, out := newTestCLI(t, "1.1\n/save kampagne\nend\nend\n/load kampagne\n/saves\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "[Spiel gespeichert als kampagne.]") {
		t.Errorf("expected save confirmation, got:\n%s", output)
	}
	if !strings.Contains(output, "[Spiel kampagne geladen (Phase 1).]") {
		t.Errorf("expected load confirmation, got:\n%s", output)
	}
	if c.Engine.CurrentPhase().Number != 1 {
		t.Errorf("phase after load = %d, want 1", c.Engine.CurrentPhase().Number)
	}
	if !strings.Contains(output, "[kampagne ") {
		t.Errorf("expected slot listing, got:\n%s", output)
	}
}

func TestCLI_LoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing slot", "/load nichts\n/quit\n", `kein Spielstand "nichts"`},
		{"bad slot name", "/save ../etc\n/quit\n", "Speichern fehlgeschlagen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := newTestCLI(t, tt.input)
			c.Run(context.Background())
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("expected %q in output, got:\n%s", tt.want, out.String())
			}
		})
	}
}

func TestCLI_NoStore(t *testing.T) {
	c, out := newTestCLI(t, "/save\n/saves\n/quit\n")
	c.Store = nil
	c.Run(context.Background())

	if !strings.Contains(out.String(), "kein Spielstandspeicher") {
		t.Error("expected missing store message")
	}
}

func TestCLI_Trace(t *testing.T) {
	c, out := newTestCLI(t, "/trace\n1.1\n/trace\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "[Trace-Ausgabe an.]") || !strings.Contains(output, "[Trace-Ausgabe aus.]") {
		t.Error("expected trace toggle messages")
	}
	if !strings.Contains(output, "[trace]   action_executed") {
		t.Errorf("expected traced event, got:\n%s", output)
	}
}

func TestCLI_MetaCommands(t *testing.T) {
	c, out := newTestCLI(t, "/help\n/state\n/tanz\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	for _, want := range []string{"[System:]", "[Seed: cli-test]", "[Schwierigkeit: normal]", "Unbekannter Befehl: /tanz"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestCLI_WrapsLongLines(t *testing.T) {
	c, out := newTestCLI(t, "")
	c.Width = 20
	c.printLine("eins zwei drei vier fünf sechs sieben acht")

	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if len([]rune(line)) > 20 {
			t.Errorf("line %q exceeds width", line)
		}
	}
}

func TestTraceLines_Empty(t *testing.T) {
	if lines := TraceLines(types.Result{}); lines != nil {
		t.Errorf("TraceLines = %v, want nil", lines)
	}
}
