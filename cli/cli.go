// Package cli provides line-based terminal play, output wrapping and
// meta-command dispatch for the storycore engine.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/nathoo/storycore/engine"
	"github.com/nathoo/storycore/savestore"
	"github.com/nathoo/storycore/types"
)

// DefaultSlot is used by /save and /load without a name.
const DefaultSlot = "quicksave"

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	Store     savestore.Store
	In        io.Reader
	Out       io.Writer
	Width     int // wrap width; 0 disables wrapping
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine and save store.
func New(eng *engine.Engine, store savestore.Store) *CLI {
	return &CLI{
		Engine: eng,
		Store:  store,
		In:     os.Stdin,
		Out:    os.Stdout,
		Width:  80,
	}
}

// Run starts the game loop: intro and status, then prompt, input,
// dispatch, output until /quit or end of input. The context bounds
// save store calls.
func (c *CLI) Run(ctx context.Context) {
	for _, line := range Intro(c.Engine) {
		c.printLine(line)
	}
	c.printResult(c.Engine.Step("status"))

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Script comments.
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(ctx, input) {
				return
			}
			continue
		}

		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nichts zu wiederholen.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Engine.Step(input)
		c.printResult(result)
		if c.Trace {
			c.printTrace(result)
		}
	}
}

// Intro returns the title block shown before the first command.
func Intro(eng *engine.Engine) []string {
	g := eng.Defs().Game
	title := g.Title
	if g.Version != "" {
		title += " v" + g.Version
	}
	if g.Author != "" {
		title += " von " + g.Author
	}
	lines := []string{title, ""}
	if g.Intro != "" {
		lines = append(lines, eng.ResolveText(g.Intro, ""), "")
	}
	return lines
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(ctx context.Context, input string) bool {
	res := Meta(ctx, c.Engine, c.Store, input, &c.Trace)
	for _, line := range res.Lines {
		c.printSystem(line)
	}
	if res.Loaded {
		c.printResult(c.Engine.Step("status"))
	}
	return res.Quit
}

// MetaResult is the outcome of a slash command.
type MetaResult struct {
	Lines  []string
	Quit   bool
	Loaded bool // a save replaced the running game
}

// Meta runs a slash command against eng and store. trace is toggled by
// /trace.
func Meta(ctx context.Context, eng *engine.Engine, store savestore.Store, input string, trace *bool) MetaResult {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit", "/ende":
		return MetaResult{Lines: []string{"Auf Wiedersehen."}, Quit: true}
	case "/save":
		return MetaResult{Lines: []string{saveGame(ctx, eng, store, arg)}}
	case "/load":
		line, err := loadGame(ctx, eng, store, arg)
		if err != nil {
			return MetaResult{Lines: []string{fmt.Sprintf("Laden fehlgeschlagen: %v", err)}}
		}
		return MetaResult{Lines: []string{line}, Loaded: true}
	case "/saves":
		return MetaResult{Lines: listSaves(ctx, store)}
	case "/help":
		return MetaResult{Lines: Help()}
	case "/state":
		return MetaResult{Lines: dumpState(eng)}
	case "/trace":
		*trace = !*trace
		if *trace {
			return MetaResult{Lines: []string{"Trace-Ausgabe an."}}
		}
		return MetaResult{Lines: []string{"Trace-Ausgabe aus."}}
	default:
		return MetaResult{Lines: []string{fmt.Sprintf("Unbekannter Befehl: %s. /help zeigt alle Befehle.", cmd)}}
	}
}

func saveGame(ctx context.Context, eng *engine.Engine, store savestore.Store, slot string) string {
	if store == nil {
		return "Speichern fehlgeschlagen: kein Spielstandspeicher konfiguriert"
	}
	if slot == "" {
		slot = DefaultSlot
	}
	blob, err := eng.SaveState()
	if err != nil {
		return fmt.Sprintf("Speichern fehlgeschlagen: %v", err)
	}
	if err := store.Put(ctx, slot, blob); err != nil {
		return fmt.Sprintf("Speichern fehlgeschlagen: %v", err)
	}
	return fmt.Sprintf("Spiel gespeichert als %s.", slot)
}

func loadGame(ctx context.Context, eng *engine.Engine, store savestore.Store, slot string) (string, error) {
	if store == nil {
		return "", errors.New("kein Spielstandspeicher konfiguriert")
	}
	if slot == "" {
		slot = DefaultSlot
	}
	blob, err := store.Get(ctx, slot)
	if errors.Is(err, savestore.ErrNotFound) {
		return "", fmt.Errorf("kein Spielstand %q", slot)
	}
	if err != nil {
		return "", err
	}
	if err := eng.LoadState(blob); err != nil {
		return "", err
	}
	return fmt.Sprintf("Spiel %s geladen (Phase %d).", slot, eng.CurrentPhase().Number), nil
}

func listSaves(ctx context.Context, store savestore.Store) []string {
	if store == nil {
		return []string{"Kein Spielstandspeicher konfiguriert."}
	}
	entries, err := store.List(ctx)
	if err != nil {
		return []string{fmt.Sprintf("Spielstände nicht lesbar: %v", err)}
	}
	if len(entries) == 0 {
		return []string{"Keine Spielstände."}
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%-20s %s (%d Bytes)", e.Slot, e.UpdatedAt.Format("2006-01-02 15:04"), e.Size))
	}
	return out
}

// Help lists the commands of both front ends.
func Help() []string {
	return []string{
		"System:",
		"  /save [name]   Spiel speichern (Standard: quicksave)",
		"  /load [name]   Spiel laden (Standard: quicksave)",
		"  /saves         Spielstände auflisten",
		"  /quit          Beenden",
		"  /help          Diese Hilfe",
		"  /state         Debug: Zustand ausgeben",
		"  /trace         Ereignis-Trace umschalten",
		"",
		"Spiel:",
		"  status (s)             Lage und Ziele",
		"  actions [kategorie]    Verfügbare Aktionen (\"actions alle\" zeigt alle)",
		"  do <id> [<id>...]      Aktionen ausführen, auch nur \"1.1\"",
		"  end (e)                Phase beenden",
		"  news (n) [alle]        Nachrichten lesen",
		"  team                   Team und Stimmung",
		"  advise (rat)           Ratschläge des Teams",
		"  combos                 Kombinationen in Arbeit",
		"  choose <option>        Auf eine Konsequenz reagieren",
		"  crisis <option>        Eine Krise lösen",
		"  talk <name>            Mit jemandem reden",
		"  answer <nummer>        Im Gespräch antworten",
		"  again (g)              Letzten Befehl wiederholen",
	}
}

func dumpState(eng *engine.Engine) []string {
	r := eng.Resources()
	out := []string{
		fmt.Sprintf("Seed: %s", eng.Seed()),
		fmt.Sprintf("Schwierigkeit: %s", eng.Difficulty().Name),
		fmt.Sprintf("Phase: %d", eng.CurrentPhase().Number),
		fmt.Sprintf("Ressourcen: %+v", r),
	}
	if flags := eng.Flags(); len(flags) > 0 {
		out = append(out, fmt.Sprintf("Flags: %s", strings.Join(flags, ", ")))
	}
	if p := eng.PendingConsequences(); len(p) > 0 {
		out = append(out, fmt.Sprintf("Ausstehende Konsequenzen: %d", len(p)))
	}
	return out
}

// TraceLines renders the events of one command.
func TraceLines(result types.Result) []string {
	if len(result.Events) == 0 {
		return nil
	}
	lines := []string{fmt.Sprintf("[trace] Ereignisse: %d", len(result.Events))}
	for _, e := range result.Events {
		lines = append(lines, "[trace]   "+e)
	}
	return lines
}

func (c *CLI) printTrace(result types.Result) {
	for _, line := range TraceLines(result) {
		c.printLine(line)
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	if c.Width > 0 {
		text = wordwrap.String(text, c.Width)
	}
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
