package rules

import (
	"sort"

	"github.com/nathoo/storycore/types"
)

// Candidate is one conditional option competing for selection.
type Candidate struct {
	ID         string
	Conditions []types.Condition
	Priority   int
	Order      int // source order in content
}

// Select filters candidates whose conditions hold, ranks them and returns
// the winners in rank order: specificity (desc) → priority (desc) →
// source order (asc). eligible may veto a candidate before its conditions
// are evaluated (cooldowns, one-shot use); nil accepts all.
func Select(cands []Candidate, env Env, eligible func(Candidate) bool) []Candidate {
	var matched []Candidate
	for _, c := range cands {
		if eligible != nil && !eligible(c) {
			continue
		}
		if !EvalAllConditions(c.Conditions, env) {
			continue
		}
		matched = append(matched, c)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := Specificity(matched[i]), Specificity(matched[j])
		if si != sj {
			return si > sj
		}
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].Order < matched[j].Order
	})
	return matched
}

// Specificity scores a candidate by how much of the state it constrains.
// Negated conditions count the same as their inner condition.
func Specificity(c Candidate) int {
	score := 0
	for _, cond := range c.Conditions {
		for cond.Type == "not" && cond.Inner != nil {
			cond = *cond.Inner
		}
		switch cond.Type {
		case "betrayal_warning", "min_relationship", "morale_lt", "trust_lt", "objective_gte":
			score += 2
		default:
			score++
		}
	}
	return score
}
