// Package save implements the versioned save blob: encoding, the
// migration chain for older versions, and strict validated decoding.
package save

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nathoo/storycore/engine/errs"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/types"
)

const (
	CurrentVersion          = "2.0.0"
	CurrentMigrationVersion = 2
)

// namespace seeds deterministic save ids.
var namespace = uuid.MustParse("0b7e3c52-9d14-5a6f-8e21-4c3b2a1f0e9d")

// SaveData is the JSON save format. Every field is required on load.
type SaveData struct {
	Version          string                    `json:"version"`
	MigrationVersion int                       `json:"migrationVersion"`
	SaveID           string                    `json:"saveId"`
	Game             string                    `json:"game"`
	Seed             string                    `json:"seed"`
	RNGPosition      int64                     `json:"rngPosition"`
	Difficulty       string                    `json:"difficulty"`
	StoryPhase       types.StoryPhase          `json:"storyPhase"`
	StoryResources   types.StoryResources      `json:"storyResources"`
	NPCs             []types.NPCState          `json:"npcs"`
	Objectives       []types.Objective         `json:"objectives"`
	Actors           []types.ActorState        `json:"actors"`
	NewsEvents       []types.NewsEvent         `json:"newsEvents"`
	NewsSeq          int                       `json:"newsSeq"`
	NewsCooldowns    map[string]int            `json:"newsCooldowns"`
	Flags            map[string]bool           `json:"flags"`
	UsedActions      []string                  `json:"usedActions"`
	ActionHistory    []types.ActionRecord      `json:"actionHistory"`
	MetricsHistory   []types.MetricsSnapshot   `json:"metricsHistory"`
	Windows          []types.OpportunityWindow `json:"windows"`
	Exposure         int                       `json:"exposureCountdown"`
	GameEnd          *types.GameEndState       `json:"gameEnd,omitempty"`
	ConsequenceState types.ConsequenceState    `json:"consequenceState"`
	ComboState       types.ComboState          `json:"comboState"`
	BetrayalState    []types.BetrayalState     `json:"betrayalState"`
	BetrayalSeq      int                       `json:"betrayalSeq"`
	CrisisState      types.CrisisState         `json:"crisisState"`
	ActorAIState     types.ActorAIState        `json:"actorAIState"`
}

// Encode stamps the current version and serializes sd.
func Encode(sd *SaveData) (string, error) {
	sd.Version = CurrentVersion
	sd.MigrationVersion = CurrentMigrationVersion
	sd.SaveID = uuid.NewSHA1(namespace, []byte(fmt.Sprintf("%s/%d/%d", sd.Seed, sd.StoryPhase.Number, sd.RNGPosition))).String()
	normalize(sd)
	data, err := json.Marshal(sd)
	if err != nil {
		return "", fmt.Errorf("encode save: %w", err)
	}
	return string(data), nil
}

// Decode migrates a blob of any supported version forward, decodes it
// strictly and validates it. Every failure is a *errs.CorruptSaveError.
func Decode(blob string) (*SaveData, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, errs.Corrupt("not a JSON object", err)
	}
	if err := Migrate(raw); err != nil {
		return nil, errs.Corrupt("migration failed", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, errs.Corrupt("re-encode", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var sd SaveData
	if err := dec.Decode(&sd); err != nil {
		return nil, errs.Corrupt("unrecognized shape", err)
	}
	normalize(&sd)
	if err := Validate(&sd); err != nil {
		return nil, errs.Corrupt("invalid state", err)
	}
	return &sd, nil
}

// Validate checks invariants a well-formed save always satisfies.
func Validate(sd *SaveData) error {
	if sd.Version != CurrentVersion {
		return fmt.Errorf("version %q, want %q", sd.Version, CurrentVersion)
	}
	if sd.Seed == "" {
		return fmt.Errorf("missing seed")
	}
	if sd.RNGPosition < 0 {
		return fmt.Errorf("negative rng position")
	}
	if sd.StoryPhase.Number < 1 {
		return fmt.Errorf("phase %d", sd.StoryPhase.Number)
	}
	if sd.StoryPhase != state.PhaseFor(sd.StoryPhase.Number) {
		return fmt.Errorf("calendar does not match phase %d", sd.StoryPhase.Number)
	}

	r := sd.StoryResources
	switch {
	case r.Capacity < 0 || r.Capacity > r.CapacityMax:
		return fmt.Errorf("capacity %d outside 0..%d", r.Capacity, r.CapacityMax)
	case r.Risk < 0 || r.Risk > 100:
		return fmt.Errorf("risk %v outside 0..100", r.Risk)
	case r.Attention < 0 || r.Attention > 100:
		return fmt.Errorf("attention %v outside 0..100", r.Attention)
	case r.ActionPointsRemaining < 0 || r.ActionPointsRemaining > r.ActionPointsMax:
		return fmt.Errorf("action points %d outside 0..%d", r.ActionPointsRemaining, r.ActionPointsMax)
	case r.MoralWeight < 0:
		return fmt.Errorf("negative moral weight")
	}

	seen := map[string]bool{}
	for _, n := range sd.NPCs {
		if n.ID == "" || seen[n.ID] {
			return fmt.Errorf("npc id %q missing or duplicated", n.ID)
		}
		seen[n.ID] = true
		if n.Morale < 0 || n.Morale > 100 {
			return fmt.Errorf("npc %s morale %d", n.ID, n.Morale)
		}
		if n.RelationshipLevel < 0 || n.RelationshipLevel > state.MaxRelationshipLevel {
			return fmt.Errorf("npc %s relationship level %d", n.ID, n.RelationshipLevel)
		}
		if n.RelationshipProgress < 0 || n.RelationshipProgress > 100 {
			return fmt.Errorf("npc %s relationship progress %d", n.ID, n.RelationshipProgress)
		}
	}
	for _, o := range sd.Objectives {
		if o.ID == "" || o.TargetValue <= 0 {
			return fmt.Errorf("objective %q malformed", o.ID)
		}
	}

	seqs := map[int]bool{}
	for _, p := range sd.ConsequenceState.Pending {
		if seqs[p.Seq] {
			return fmt.Errorf("duplicate consequence seq %d", p.Seq)
		}
		seqs[p.Seq] = true
		if p.ActivatesAtPhase <= p.TriggeredPhase {
			return fmt.Errorf("consequence %s activates before it triggers", p.ConsequenceID)
		}
	}
	for _, b := range sd.BetrayalState {
		if b.BetrayalRisk < 0 || b.BetrayalRisk > 1 {
			return fmt.Errorf("betrayal risk %v for %s", b.BetrayalRisk, b.NPCID)
		}
	}
	return nil
}

// normalize replaces nil collections so encoding and reloading are stable.
func normalize(sd *SaveData) {
	if sd.NPCs == nil {
		sd.NPCs = []types.NPCState{}
	}
	if sd.Objectives == nil {
		sd.Objectives = []types.Objective{}
	}
	if sd.Actors == nil {
		sd.Actors = []types.ActorState{}
	}
	if sd.NewsEvents == nil {
		sd.NewsEvents = []types.NewsEvent{}
	}
	if sd.NewsCooldowns == nil {
		sd.NewsCooldowns = map[string]int{}
	}
	if sd.Flags == nil {
		sd.Flags = map[string]bool{}
	}
	if sd.UsedActions == nil {
		sd.UsedActions = []string{}
	}
	if sd.ActionHistory == nil {
		sd.ActionHistory = []types.ActionRecord{}
	}
	if sd.MetricsHistory == nil {
		sd.MetricsHistory = []types.MetricsSnapshot{}
	}
	if sd.Windows == nil {
		sd.Windows = []types.OpportunityWindow{}
	}
	if sd.ConsequenceState.Pending == nil {
		sd.ConsequenceState.Pending = []types.PendingConsequence{}
	}
	if sd.ConsequenceState.Resolved == nil {
		sd.ConsequenceState.Resolved = []types.ResolvedConsequence{}
	}
	if sd.ComboState.Active == nil {
		sd.ComboState.Active = []types.StoryComboProgress{}
	}
	if sd.ComboState.Completed == nil {
		sd.ComboState.Completed = []types.StoryComboActivation{}
	}
	if sd.BetrayalState == nil {
		sd.BetrayalState = []types.BetrayalState{}
	}
	if sd.CrisisState.LastStarted == nil {
		sd.CrisisState.LastStarted = map[string]int{}
	}
}
