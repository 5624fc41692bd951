// Package parser converts command strings into Intent structs.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strings"

	"github.com/nathoo/storycore/types"
)

// Verbs understood by the front ends.
const (
	VerbStatus  = "status"
	VerbActions = "actions"
	VerbDo      = "do"
	VerbEnd     = "end"
	VerbNews    = "news"
	VerbNPCs    = "npcs"
	VerbAdvise  = "advise"
	VerbCombos  = "combos"
	VerbChoose  = "choose"
	VerbCrisis  = "crisis"
	VerbTalk    = "talk"
	VerbAnswer  = "answer"
)

var verbAliases = map[string]string{
	// Status
	"s":         VerbStatus,
	"lage":      VerbStatus,
	"übersicht": VerbStatus,

	// Actions
	"a":        VerbActions,
	"aktionen": VerbActions,
	"list":     VerbActions,

	// Execute
	"tun":     VerbDo,
	"mach":    VerbDo,
	"mache":   VerbDo,
	"run":     VerbDo,
	"exec":    VerbDo,
	"execute": VerbDo,

	// End phase
	"e":      VerbEnd,
	"next":   VerbEnd,
	"weiter": VerbEnd,
	"ende":   VerbEnd,
	"monat":  VerbEnd,

	// News
	"n":           VerbNews,
	"nachrichten": VerbNews,
	"meldungen":   VerbNews,
	"feed":        VerbNews,

	// Team
	"team": VerbNPCs,
	"npc":  VerbNPCs,

	// Advisors
	"rat":     VerbAdvise,
	"berater": VerbAdvise,
	"advice":  VerbAdvise,
	"tipps":   VerbAdvise,

	// Combos
	"kombos": VerbCombos,
	"combo":  VerbCombos,

	// Consequence choice
	"wahl":   VerbChoose,
	"wähle":  VerbChoose,
	"decide": VerbChoose,

	// Crisis
	"krise": VerbCrisis,

	// Dialogue
	"rede":     VerbTalk,
	"sprich":   VerbTalk,
	"speak":    VerbTalk,
	"chat":     VerbTalk,
	"antwort":  VerbAnswer,
	"antworte": VerbAnswer,
	"reply":    VerbAnswer,
}

// Filler words dropped from arguments ("talk to marina", "rede mit igor").
var fillers = map[string]bool{
	"to": true, "with": true, "the": true, "action": true,
	"mit": true, "zu": true, "die": true, "der": true, "den": true, "aktion": true,
}

// Parse converts a raw command string into an Intent. Slash commands keep
// their verb without the slash and set Meta. Action ids may be separated
// by spaces or commas ("do 1.1, 1.2").
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(strings.ReplaceAll(input, ",", " ")))

	if strings.HasPrefix(words[0], "/") {
		return types.Intent{Verb: strings.TrimPrefix(words[0], "/"), Args: words[1:], Meta: true}
	}

	// A bare action id is shorthand for "do <id>".
	if looksLikeActionID(words[0]) {
		return types.Intent{Verb: VerbDo, Args: words}
	}

	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	return types.Intent{
		Verb: words[0],
		Args: stripFillers(words[1:]),
	}
}

// looksLikeActionID reports whether w is a dotted number such as "3.4".
func looksLikeActionID(w string) bool {
	parts := strings.Split(w, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return false
		}
	}
	return true
}

// stripFillers removes filler words from the argument list.
func stripFillers(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !fillers[w] {
			result = append(result, w)
		}
	}
	return result
}
