package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nathoo/storycore/engine/errs"
	"github.com/nathoo/storycore/engine/events"
	"github.com/nathoo/storycore/engine/parser"
	"github.com/nathoo/storycore/engine/resolve"
	"github.com/nathoo/storycore/types"
)

// conversation is the dialogue node the player is answering.
type conversation struct {
	npcID string
	node  types.DialogueNode
}

// Step runs one typed command and returns the text to show. Slash
// commands belong to the front end and are rejected here.
func (e *Engine) Step(input string) types.Result {
	intent := parser.Parse(input)
	if intent.Verb == "" {
		return types.Result{Output: []string{"Wie bitte?"}}
	}
	if intent.Meta {
		return types.Result{Output: []string{fmt.Sprintf("Unbekannter Befehl: /%s", intent.Verb)}}
	}

	var fired []string
	var unsubs []func()
	for _, t := range events.Types {
		unsubs = append(unsubs, e.bus.Subscribe(t, func(ev events.Event) {
			fired = append(fired, string(ev.Type))
		}))
	}
	defer func() {
		for _, u := range unsubs {
			u()
		}
	}()

	out, err := e.dispatch(intent)
	if err != nil {
		out = append(out, describeError(err))
	}
	return types.Result{Output: out, Events: fired, GameEnd: e.state.GameEnd}
}

func (e *Engine) dispatch(intent types.Intent) ([]string, error) {
	args := intent.Args
	switch intent.Verb {
	case parser.VerbStatus:
		return e.reportStatus(), nil
	case parser.VerbActions:
		return e.reportActions(strings.Join(args, " ")), nil
	case parser.VerbDo:
		return e.stepDo(args)
	case parser.VerbEnd:
		return e.stepEnd()
	case parser.VerbNews:
		return e.reportNews(len(args) > 0 && (args[0] == "alle" || args[0] == "all")), nil
	case parser.VerbNPCs:
		return e.reportTeam(), nil
	case parser.VerbAdvise:
		return e.reportAdvice(), nil
	case parser.VerbCombos:
		return e.reportCombos(), nil
	case parser.VerbChoose:
		return e.stepChoose(args)
	case parser.VerbCrisis:
		return e.stepCrisis(args)
	case parser.VerbTalk:
		return e.stepTalk(args)
	case parser.VerbAnswer:
		return e.stepAnswer(args)
	default:
		return nil, fmt.Errorf("unbekannter Befehl %q", intent.Verb)
	}
}

// stepDo executes one or more actions. Arguments that are all action ids
// run one after the other; anything else is taken as a single name.
func (e *Engine) stepDo(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{"Welche Aktion? Zum Beispiel: do 1.1"}, nil
	}
	ids := args
	if !allActionIDs(args) {
		id, err := resolve.Action(e.defs, strings.Join(args, " "))
		if err != nil {
			return nil, err
		}
		ids = []string{id}
	}

	var out []string
	for _, id := range ids {
		res, err := e.ExecuteAction(id)
		if err != nil {
			return out, err
		}
		out = append(out, e.describeAction(res)...)
		if e.state.GameEnd != nil {
			break
		}
	}
	return out, nil
}

func (e *Engine) stepEnd() ([]string, error) {
	e.talk = nil
	res, err := e.AdvancePhase()
	if err != nil {
		return nil, err
	}
	return e.describePhase(res), nil
}

func (e *Engine) stepChoose(args []string) ([]string, error) {
	active := e.ActiveConsequence()
	if active == nil {
		return nil, errs.ErrNoActiveConsequence
	}
	if len(args) == 0 {
		return describeDecision(active.Title, active.Description, active.Choices), nil
	}
	id, err := resolve.Choice(active.Choices, strings.Join(args, " "))
	if err != nil {
		return nil, err
	}
	return e.HandleConsequenceChoice(id)
}

func (e *Engine) stepCrisis(args []string) ([]string, error) {
	active := e.ActiveCrisis()
	if active == nil {
		return nil, errs.ErrNoActiveCrisis
	}
	if len(args) == 0 {
		return describeDecision(active.Name, active.Description, active.Choices), nil
	}
	id, err := resolve.Choice(active.Choices, strings.Join(args, " "))
	if err != nil {
		return nil, err
	}
	return e.ResolveCrisis(id)
}

// stepTalk opens the first node an NPC offers. Answers go through
// stepAnswer until the node is answered or the phase ends.
func (e *Engine) stepTalk(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{"Mit wem? Zum Beispiel: talk marina"}, nil
	}
	npcID, err := resolve.NPC(e.state, strings.Join(args, " "))
	if err != nil {
		return nil, err
	}
	nodes, err := e.DialogueNodes(npcID)
	if err != nil {
		return nil, err
	}
	name := e.npcName(npcID)
	if len(nodes) == 0 {
		e.talk = nil
		return []string{fmt.Sprintf("%s hat gerade nichts zu besprechen.", name)}, nil
	}
	e.talk = &conversation{npcID: npcID, node: nodes[0]}

	out := []string{fmt.Sprintf("%s: %s", name, nodes[0].Text)}
	for i, c := range nodes[0].Choices {
		out = append(out, fmt.Sprintf("  %d) %s", i+1, c.Label))
	}
	return append(out, "Antworte mit: answer <nummer>"), nil
}

func (e *Engine) stepAnswer(args []string) ([]string, error) {
	if e.talk == nil {
		return []string{"Du führst gerade kein Gespräch."}, nil
	}
	if len(args) == 0 {
		return []string{"Welche Antwort? Zum Beispiel: answer 1"}, nil
	}
	options := make([]types.Choice, len(e.talk.node.Choices))
	for i, c := range e.talk.node.Choices {
		options[i] = types.Choice{ID: c.ID, Label: c.Label}
	}
	choiceID, err := resolve.Choice(options, strings.Join(args, " "))
	if err != nil {
		return nil, err
	}

	talk := e.talk
	out, err := e.ChooseDialogue(talk.npcID, talk.node.ID, choiceID)
	if err != nil {
		return nil, err
	}
	e.talk = nil

	lines := []string{fmt.Sprintf("%s: %s", e.npcName(talk.npcID), out.Response)}
	if out.MoraleDelta != 0 {
		lines = append(lines, fmt.Sprintf("Moral %+d", out.MoraleDelta))
	}
	if out.Relationship != 0 {
		lines = append(lines, fmt.Sprintf("Beziehung %+d", out.Relationship))
	}
	if out.Addressed != nil {
		lines = append(lines, fmt.Sprintf("Beschwerde ausgeräumt: %s", out.Addressed.Reason))
	}
	return lines, nil
}

// describeError turns engine errors into player-facing text.
func describeError(err error) string {
	var ambiguous *resolve.AmbiguityError
	var unknown *resolve.NotFoundError
	var ref *errs.ReferenceError
	switch {
	case errors.As(err, &ambiguous), errors.As(err, &unknown):
		return capitalize(err.Error())
	case errors.Is(err, errs.ErrGameOver):
		return "Das Spiel ist vorbei."
	case errors.Is(err, errs.ErrActionUnavailable):
		return "Diese Aktion ist gerade nicht verfügbar: " + err.Error()
	case errors.Is(err, errs.ErrNoActiveConsequence):
		return "Es steht keine Entscheidung an."
	case errors.Is(err, errs.ErrNoActiveCrisis):
		return "Es gibt gerade keine Krise."
	case errors.As(err, &ref):
		return fmt.Sprintf("Unbekannt: %s %q", ref.Kind, ref.ID)
	default:
		return capitalize(err.Error()) + "."
	}
}

func allActionIDs(args []string) bool {
	for _, a := range args {
		if _, err := fmt.Sscanf(a, "%d.%d", new(int), new(int)); err != nil {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
