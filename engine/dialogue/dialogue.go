// Package dialogue implements NPC conversations: text inserts resolved
// from localized catalogs, and dialogue trees whose choices move morale,
// relationships and grievances.
package dialogue

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/storycore/engine/errs"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

// Per-phase morale drift.
const (
	GrievanceMoraleCost    = 2
	RelationshipMoraleGain = 1
	RelationshipGainLevel  = 2
)

// Grievances is the part of the betrayal bookkeeping dialogue touches.
type Grievances interface {
	Unaddressed(npcID string) []types.BetrayalGrievance
	Address(npcID, grievanceID string) (types.BetrayalGrievance, error)
}

// Outcome is the applied result of one dialogue choice.
type Outcome struct {
	NPCID        string
	NodeID       string
	ChoiceID     string
	Response     string
	MoraleDelta  int
	Relationship int
	Addressed    *types.BetrayalGrievance
}

// ParseTrees decodes a dialogue file: a map of NPC id to its nodes.
func ParseTrees(data []byte) (map[string][]types.DialogueNode, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var raw map[string][]types.DialogueNode
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	for npc, nodes := range raw {
		seen := map[string]bool{}
		for i := range nodes {
			n := &nodes[i]
			if n.ID == "" {
				return nil, fmt.Errorf("%s: node %d has no id", npc, i)
			}
			if seen[n.ID] {
				return nil, fmt.Errorf("%s: duplicate node %q", npc, n.ID)
			}
			seen[n.ID] = true
			n.NPC = npc
			if len(n.Choices) == 0 {
				return nil, fmt.Errorf("%s/%s: node has no choices", npc, n.ID)
			}
		}
	}
	return raw, nil
}

// Manager serves dialogue trees.
type Manager struct {
	trees map[string][]types.DialogueNode
}

// NewManager creates a manager over npc id -> nodes.
func NewManager(trees map[string][]types.DialogueNode) *Manager {
	if trees == nil {
		trees = map[string][]types.DialogueNode{}
	}
	return &Manager{trees: trees}
}

// NPCs returns the ids that have a dialogue tree, sorted.
func (m *Manager) NPCs() []string {
	ids := make([]string, 0, len(m.trees))
	for id := range m.trees {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Available returns the nodes an NPC offers right now.
func (m *Manager) Available(npc types.NPCState, g Grievances) []types.DialogueNode {
	if !npc.Available {
		return nil
	}
	var out []types.DialogueNode
	for _, n := range m.trees[npc.ID] {
		if offered(n, npc, g) {
			out = append(out, n)
		}
	}
	return out
}

// Choose applies a dialogue choice to the NPC. Choosing an unoffered node
// fails with ErrActionUnavailable and changes nothing.
func (m *Manager) Choose(s *types.GameState, g Grievances, npcID, nodeID, choiceID string) (Outcome, error) {
	npc := state.NPC(s, npcID)
	if npc == nil {
		return Outcome{}, errs.NewReference(errs.KindNPC, npcID)
	}
	node, ok := m.node(npcID, nodeID)
	if !ok {
		return Outcome{}, errs.NewReference(errs.KindDialogue, npcID+"/"+nodeID)
	}
	if !npc.Available || !offered(node, *npc, g) {
		return Outcome{}, fmt.Errorf("dialogue %s/%s: %w", npcID, nodeID, errs.ErrActionUnavailable)
	}
	var choice *types.DialogueChoice
	for i := range node.Choices {
		if node.Choices[i].ID == choiceID {
			choice = &node.Choices[i]
			break
		}
	}
	if choice == nil {
		return Outcome{}, errs.NewReference(errs.KindChoice, choiceID)
	}

	out := Outcome{
		NPCID:        npcID,
		NodeID:       nodeID,
		ChoiceID:     choiceID,
		Response:     choice.Response,
		MoraleDelta:  choice.Morale,
		Relationship: choice.Relationship,
	}
	state.AdjustMorale(npc, choice.Morale)
	state.AdjustRelationship(npc, choice.Relationship)
	if choice.AddressGrievance && g != nil {
		if gr, err := g.Address(npcID, ""); err == nil {
			out.Addressed = &gr
		}
	}
	return out, nil
}

// PhaseReactions drifts every available NPC's morale for the phase:
// open grievances cost morale, a close relationship restores some. The
// returned reactions carry no flavor line; the caller adds one.
func (m *Manager) PhaseReactions(s *types.GameState, g Grievances) []types.NPCReaction {
	var out []types.NPCReaction
	for i := range s.NPCs {
		npc := &s.NPCs[i]
		if !npc.Available {
			continue
		}
		delta := 0
		if g != nil && len(g.Unaddressed(npc.ID)) > 0 {
			delta -= GrievanceMoraleCost
		}
		if npc.RelationshipLevel >= RelationshipGainLevel {
			delta += RelationshipMoraleGain
		}
		state.AdjustMorale(npc, delta)
		out = append(out, types.NPCReaction{NPCID: npc.ID, MoraleDelta: delta, Mood: npc.CurrentMood})
	}
	return out
}

func (m *Manager) node(npcID, nodeID string) (types.DialogueNode, bool) {
	for _, n := range m.trees[npcID] {
		if n.ID == nodeID {
			return n, true
		}
	}
	return types.DialogueNode{}, false
}

func offered(n types.DialogueNode, npc types.NPCState, g Grievances) bool {
	if npc.RelationshipLevel < n.MinRelationship {
		return false
	}
	if n.RequiresGrievance && (g == nil || len(g.Unaddressed(npc.ID)) == 0) {
		return false
	}
	return true
}
