// Package types defines the shared data structures for the storycore engine.
// This package contains only type definitions. No logic, no methods.
package types

// Intent is a parsed front-end command.
type Intent struct {
	Verb string
	Args []string
	Meta bool // slash command (/save, /quit, ...)
}

// Effect is a single atomic state mutation instruction.
type Effect struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// Condition is a predicate evaluated against the running game.
type Condition struct {
	Type   string         // "flag_set", "flag_not", "min_phase", "resource_gte", etc.
	Params map[string]any // condition-specific parameters
	Negate bool           // true if wrapped in Not()
	Inner  *Condition     // for Not(): the negated inner condition
}

// Costs is what an action or choice charges against StoryResources.
type Costs struct {
	Budget       int `json:"budget"`
	Capacity     int `json:"capacity"`
	ActionPoints int `json:"actionPoints"`
}

// StoryResources is the mutable scalar state of the campaign.
type StoryResources struct {
	Budget                int     `json:"budget"`
	Capacity              int     `json:"capacity"`
	CapacityMax           int     `json:"capacityMax"`
	Risk                  float64 `json:"risk"`
	Attention             float64 `json:"attention"`
	MoralWeight           int     `json:"moralWeight"`
	ActionPointsRemaining int     `json:"actionPointsRemaining"`
	ActionPointsMax       int     `json:"actionPointsMax"`
}

// StoryPhase is the calendar position of the simulation. One phase is one month.
type StoryPhase struct {
	Number    int  `json:"number"`
	Year      int  `json:"year"`
	Month     int  `json:"month"`
	IsNewYear bool `json:"isNewYear"`
}

// Mood is derived from NPC morale bands.
type Mood string

const (
	MoodEnthusiastic  Mood = "enthusiastic"
	MoodContent       Mood = "content"
	MoodNeutral       Mood = "neutral"
	MoodWorried       Mood = "worried"
	MoodDisillusioned Mood = "disillusioned"
)

// NPCDef is the static roster entry of a team member.
type NPCDef struct {
	ID               string
	Name             string
	Role             string
	Affinity         []string // action categories the NPC supports
	Objections       []string // action tags the NPC objects to
	MoralThreshold   int      // action moral weight at or above this is objected to
	DiscountPerLevel float64  // cost discount per relationship level
	Morale           int
	Relationship     int
}

// NPCState is the runtime state of a team member.
type NPCState struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Role                 string `json:"role"`
	RelationshipLevel    int    `json:"relationshipLevel"`
	RelationshipProgress int    `json:"relationshipProgress"`
	Morale               int    `json:"morale"`
	CurrentMood          Mood   `json:"currentMood"`
	Available            bool   `json:"available"`
	InCrisis             bool   `json:"inCrisis"`
}

// ActorDef is a static target of the campaign (media, institutions, platforms).
type ActorDef struct {
	ID              string
	Name            string
	Category        string
	Trust           float64
	Resilience      float64            // 0..1, dampens effectiveness
	Vulnerabilities map[string]float64 // action category -> effectiveness multiplier
}

// DefensiveActorDef is a template the actor AI spawns from.
type DefensiveActorDef struct {
	ID       string
	Name     string
	Weight   int                // spawn selection weight
	Strength float64            // base effect strength
	Focus    map[string]float64 // AI action kind -> utility weight
}

// ActorState is the runtime state of a campaign target or defensive actor.
type ActorState struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Trust        float64 `json:"trust"`
	Defensive    bool    `json:"defensive"`
	Template     string  `json:"template,omitempty"` // defensive template id
	SpawnedPhase int     `json:"spawnedPhase,omitempty"`
}

// ConsequenceRef attaches a probabilistic delayed consequence to an action.
type ConsequenceRef struct {
	ID     string
	Chance float64
	Delay  int
}

// ActionDef is a static action definition.
type ActionDef struct {
	ID          string
	Name        string
	Category    string
	Tags        []string
	Cost        Costs
	Risk        float64
	Attention   float64
	MoralWeight int
	Target      string // actor id, empty when untargeted
	NPC         string // affinity NPC granting a discount
	Aggression  float64
	MinPhase    int
	Requires    []Condition
	Unlocks     []string
	Once        bool
	Consequence *ConsequenceRef
	Effects     []Effect
	Narrative   string
}

// LoadedAction is an ActionDef resolved against the current game state.
type LoadedAction struct {
	Def               ActionDef
	EffectiveCost     Costs
	Discount          float64
	DiscountNPC       string
	Available         bool
	Affordable        bool
	UnavailableReason string
}

// Objective is a campaign goal.
type Objective struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Type         string  `json:"type"` // "primary" or "secondary"
	CurrentValue float64 `json:"currentValue"`
	TargetValue  float64 `json:"targetValue"`
	Completed    bool    `json:"completed"`
}

// ObjectiveDef is the static definition of an objective.
type ObjectiveDef struct {
	ID     string
	Title  string
	Type   string
	Target float64
}

// Choice is a player option attached to a consequence or crisis.
type Choice struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Cost    Costs    `json:"cost"`
	Effects []Effect `json:"effects,omitempty"`
}

// ConsequenceDef is a static delayed consequence.
type ConsequenceDef struct {
	ID           string
	Title        string
	Description  string
	Severity     string
	DefaultDelay int
	OnActivate   []Effect
	Choices      []Choice
}

// PendingConsequence is a scheduled consequence waiting for its phase.
type PendingConsequence struct {
	Seq              int    `json:"seq"`
	ConsequenceID    string `json:"consequenceId"`
	SourceActionID   string `json:"sourceActionId"`
	TriggeredPhase   int    `json:"triggeredPhase"`
	ActivatesAtPhase int    `json:"activatesAtPhase"`
}

// ActiveConsequence is the single live consequence awaiting a player choice.
type ActiveConsequence struct {
	PendingConsequence
	ActivatedPhase int      `json:"activatedPhase"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Choices        []Choice `json:"choices"`
}

// ResolvedConsequence records a player's answer to a consequence.
type ResolvedConsequence struct {
	Seq           int    `json:"seq"`
	ConsequenceID string `json:"consequenceId"`
	ChoiceID      string `json:"choiceId"`
	Phase         int    `json:"phase"`
}

// ConsequenceState is the persisted consequence bookkeeping.
type ConsequenceState struct {
	Seq      int                   `json:"seq"`
	Pending  []PendingConsequence  `json:"pending"`
	Active   *ActiveConsequence    `json:"active,omitempty"`
	Resolved []ResolvedConsequence `json:"resolved"`
}

// ComboDef is a multi-step ability combo.
type ComboDef struct {
	ID          string
	Name        string
	Description string
	Requires    []string // ability tags or action ids
	Window      int      // phases from first match to expiry
	Repeatable  bool
	Bonus       []Effect
}

// StoryComboProgress tracks partial progress toward one combo.
type StoryComboProgress struct {
	ComboID      string   `json:"comboId"`
	Required     []string `json:"required"`
	Matched      []string `json:"matched"`
	StartedPhase int      `json:"startedPhase"`
	ExpiresPhase int      `json:"expiresPhase"`
}

// StoryComboActivation records a completed combo.
type StoryComboActivation struct {
	ComboID string   `json:"comboId"`
	Name    string   `json:"name"`
	Phase   int      `json:"phase"`
	Bonus   []Effect `json:"bonus,omitempty"`
}

// ComboState is the persisted combo bookkeeping.
type ComboState struct {
	Active    []StoryComboProgress   `json:"active"`
	Completed []StoryComboActivation `json:"completed"`
}

// BetrayalGrievance is a recorded NPC objection.
type BetrayalGrievance struct {
	ID        string  `json:"id"`
	Reason    string  `json:"reason"`
	Severity  float64 `json:"severity"`
	Phase     int     `json:"phase"`
	Addressed bool    `json:"addressed"`
}

// BetrayalState is the grievance bookkeeping for one NPC.
type BetrayalState struct {
	NPCID        string              `json:"npcId"`
	WarningLevel int                 `json:"warningLevel"`
	BetrayalRisk float64             `json:"betrayalRisk"`
	Grievances   []BetrayalGrievance `json:"grievances"`
	Betrayed     bool                `json:"betrayed"`
}

// CrisisDef is a static crisis moment.
type CrisisDef struct {
	ID          string
	Name        string
	Description string
	NPC         string // NPC put in crisis while active, optional
	Priority    int
	Conditions  []Condition
	Cooldown    int
	Once        bool
	Choices     []Choice
}

// ActiveCrisis is a crisis awaiting player resolution.
type ActiveCrisis struct {
	CrisisID     string   `json:"crisisId"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	NPCID        string   `json:"npcId,omitempty"`
	StartedPhase int      `json:"startedPhase"`
	Choices      []Choice `json:"choices"`
}

// CrisisState is the persisted crisis bookkeeping.
type CrisisState struct {
	Active      *ActiveCrisis  `json:"active,omitempty"`
	LastStarted map[string]int `json:"lastStarted"`
}

// AIAction is a defensive actor's move for one phase.
type AIAction struct {
	ActorID  string   `json:"actorId"`
	Kind     string   `json:"kind"`
	Utility  float64  `json:"utility"`
	Strength float64  `json:"strength"`
	Effects  []Effect `json:"effects,omitempty"`
}

// ActorAIState is the persisted arms-race bookkeeping.
type ActorAIState struct {
	Pressure        float64 `json:"pressure"`
	EscalationLevel int     `json:"escalationLevel"`
	LastSpawnPhase  int     `json:"lastSpawnPhase"`
}

// WorldEventDef is a template for generated world or NPC news.
type WorldEventDef struct {
	ID          string
	Kind        string // "world" or "npc"
	Title       string
	Description string
	Severity    string
	Weight      int
	MinPhase    int
	NPC         string
	Effects     []Effect
	Window      *WindowDef
}

// WindowDef describes an opportunity window opened by a world event.
type WindowDef struct {
	Tag      string
	Bonus    float64
	Duration int
}

// OpportunityWindow is a time-limited effectiveness bonus for tagged actions.
type OpportunityWindow struct {
	ID            string  `json:"id"`
	Tag           string  `json:"tag"`
	Bonus         float64 `json:"bonus"`
	OpenedPhase   int     `json:"openedPhase"`
	DeadlinePhase int     `json:"deadlinePhase"`
}

// DialogueChoice is one answer the player can give in a dialogue node.
type DialogueChoice struct {
	ID               string `yaml:"id"`
	Label            string `yaml:"label"`
	Response         string `yaml:"response"`
	Morale           int    `yaml:"morale"`
	Relationship     int    `yaml:"relationship"`
	AddressGrievance bool   `yaml:"addressGrievance"`
}

// DialogueNode is one conversation opener of an NPC's dialogue tree.
type DialogueNode struct {
	ID                string           `yaml:"id"`
	NPC               string           `yaml:"-"`
	Text              string           `yaml:"text"`
	MinRelationship   int              `yaml:"minRelationship"`
	RequiresGrievance bool             `yaml:"requiresGrievance"`
	Choices           []DialogueChoice `yaml:"choices"`
}

// NewsEvent is a user-facing record of something that happened.
type NewsEvent struct {
	ID          string `json:"id"`
	Phase       int    `json:"phase"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	NPCID       string `json:"npcId,omitempty"`
	ActionID    string `json:"actionId,omitempty"`
	Read        bool   `json:"read"`
}

// NewsFilter narrows NewsEvents queries. Zero values match everything.
type NewsFilter struct {
	Type       string
	SincePhase int
	UnreadOnly bool
	Limit      int
}

// ActionRecord is one entry of the action history shared by advisors.
type ActionRecord struct {
	ActionID       string   `json:"actionId"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	Phase          int      `json:"phase"`
	Cost           Costs    `json:"cost"`
	Effectiveness  float64  `json:"effectiveness"`
	ObjectiveDelta float64  `json:"objectiveDelta"`
	Success        bool     `json:"success"`
}

// MetricsSnapshot is the end-of-phase resource picture.
type MetricsSnapshot struct {
	Phase        int     `json:"phase"`
	Budget       int     `json:"budget"`
	Capacity     int     `json:"capacity"`
	Risk         float64 `json:"risk"`
	Attention    float64 `json:"attention"`
	MoralWeight  int     `json:"moralWeight"`
	AverageTrust float64 `json:"averageTrust"`
}

// ActorReaction is an NPC's response to an executed action.
type ActorReaction struct {
	NPCID             string `json:"npcId"`
	Kind              string `json:"kind"` // "approve", "disapprove"
	MoraleDelta       int    `json:"moraleDelta"`
	RelationshipDelta int    `json:"relationshipDelta"`
}

// ResourceDelta summarizes resource changes made by one operation.
type ResourceDelta struct {
	Budget       int     `json:"budget"`
	Capacity     int     `json:"capacity"`
	Risk         float64 `json:"risk"`
	Attention    float64 `json:"attention"`
	MoralWeight  int     `json:"moralWeight"`
	ActionPoints int     `json:"actionPoints"`
}

// ActionResult is the outcome of executing one action.
type ActionResult struct {
	ActionID             string                 `json:"actionId"`
	Success              bool                   `json:"success"`
	Error                string                 `json:"error,omitempty"`
	Phase                int                    `json:"phase"`
	CostPaid             Costs                  `json:"costPaid"`
	Discount             float64                `json:"discount"`
	DiscountNPC          string                 `json:"discountNpc,omitempty"`
	Effectiveness        float64                `json:"effectiveness"`
	Resources            ResourceDelta          `json:"resources"`
	ObjectiveChanges     map[string]float64     `json:"objectiveChanges,omitempty"`
	TrustChanges         map[string]float64     `json:"trustChanges,omitempty"`
	Reactions            []ActorReaction        `json:"reactions,omitempty"`
	ScheduledConsequence *PendingConsequence    `json:"scheduledConsequence,omitempty"`
	Combos               []StoryComboActivation `json:"combos,omitempty"`
	News                 *NewsEvent             `json:"news,omitempty"`
	Narrative            []string               `json:"narrative,omitempty"`
}

// GameEndState describes a finished game.
type GameEndState struct {
	Reason  string `json:"reason"` // "victory", "timeout", "exposed", "collapsed"
	Victory bool   `json:"victory"`
	Phase   int    `json:"phase"`
	Message string `json:"message"`
}

// NPCReaction is an NPC's end-of-phase mood shift and flavor line.
type NPCReaction struct {
	NPCID       string `json:"npcId"`
	MoraleDelta int    `json:"moraleDelta"`
	Mood        Mood   `json:"mood"`
	Line        string `json:"line,omitempty"`
}

// PhaseResult is the outcome of advancing one phase.
type PhaseResult struct {
	NewPhase              StoryPhase          `json:"newPhase"`
	WorldEvents           []NewsEvent         `json:"worldEvents"`
	TriggeredConsequences []ActiveConsequence `json:"triggeredConsequences"`
	AIActions             []AIAction          `json:"aiActions,omitempty"`
	NPCReactions          []NPCReaction       `json:"npcReactions,omitempty"`
	Crisis                *ActiveCrisis       `json:"crisis,omitempty"`
	GameEnd               *GameEndState       `json:"gameEnd,omitempty"`
}

// EventHandler is a data-defined reaction to a bus event.
type EventHandler struct {
	EventType  string
	Conditions []Condition
	Effects    []Effect
}

// GameDef holds content metadata.
type GameDef struct {
	Title      string
	Author     string
	Version    string
	Intro      string
	StartFlags []string
}

// GameState is the engine-owned mutable state outside the subsystems.
type GameState struct {
	Seed              string
	Difficulty        string
	Phase             StoryPhase
	Resources         StoryResources
	NPCs              []NPCState
	Objectives        []Objective
	Actors            []ActorState
	News              []NewsEvent
	Flags             map[string]bool
	UsedActions       map[string]bool
	ActionHistory     []ActionRecord
	Metrics           []MetricsSnapshot
	Windows           []OpportunityWindow
	NewsCooldowns     map[string]int // news kind -> phase last fired
	ExposureCountdown int            // -1 when inactive
	NewsSeq           int
	GameEnd           *GameEndState
}

// Result is the outcome of one front-end command.
type Result struct {
	Output  []string
	Events  []string // lifecycle events published while handling the command
	GameEnd *GameEndState
}
