// Package rewrite implements the tagged rule registry and the fixed-point
// engine that drives pattern-based graph rewriting.
package rewrite

import (
	"github.com/pkg/errors"

	"github.com/conjugo/conjugo/graph"
	"github.com/conjugo/conjugo/internal/log"
)

var logger = log.DefaultLogger.With("section", "rewrite")

// Rule is one local pattern: Apply inspects the node behind id and either
// leaves the graph alone (false) or acts on it (true). Acting may mean
// rewriting the view's outputs through ReplaceAll, or recording a finding
// on a graph feature. The engine re-applies rules until a whole pass acts
// on nothing, so a rule whose action does not change the graph must report
// false once its finding is already recorded.
type Rule interface {
	Name() string
	Apply(fg *graph.FGraph, id graph.NodeID) (bool, error)
}

type taggedRule struct {
	rule Rule
	tags []string
}

// DB is a registry of rules grouped by tag.
type DB struct {
	rules []taggedRule
}

func NewDB() *DB {
	return &DB{}
}

func (db *DB) Register(r Rule, tags ...string) {
	db.rules = append(db.rules, taggedRule{rule: r, tags: tags})
}

// Query collects the rules carrying the given tag, in registration order.
func (db *DB) Query(tag string) *Set {
	s := &Set{name: tag}
	for _, tr := range db.rules {
		for _, t := range tr.tags {
			if t == tag {
				s.rules = append(s.rules, tr.rule)
				break
			}
		}
	}
	return s
}

// Rules lists every registered rule with its tags, in registration order.
func (db *DB) Rules() []RuleInfo {
	infos := make([]RuleInfo, len(db.rules))
	for i, tr := range db.rules {
		infos[i] = RuleInfo{Name: tr.rule.Name(), Tags: tr.tags}
	}
	return infos
}

type RuleInfo struct {
	Name string
	Tags []string
}

// Set is an ordered collection of rules applied together to fixed point.
type Set struct {
	name  string
	rules []Rule
}

func NewSet(name string, rules ...Rule) *Set {
	return &Set{name: name, rules: rules}
}

// maxPasses bounds the fixed-point loop; a well-formed rule set converges
// long before this.
const maxPasses = 100

// Rewrite applies every rule to every reachable node, repeating with a
// fresh node snapshot until a full pass applies nothing. Returns the number
// of applications.
func (s *Set) Rewrite(fg *graph.FGraph) (int, error) {
	total := 0
	for pass := 0; ; pass++ {
		if pass == maxPasses {
			return total, errors.Errorf("rule set %q did not reach a fixed point after %d passes", s.name, maxPasses)
		}
		applied := 0
		for _, id := range fg.Toposort(fg.Outputs()...) {
			for _, rule := range s.rules {
				ok, err := rule.Apply(fg, id)
				if err != nil {
					return total, errors.Wrapf(err, "rule %s on %s", rule.Name(), fg.ShowNode(id))
				}
				if !ok {
					continue
				}
				applied++
				logger.Debug("rule applied", "set", s.name, "rule", rule.Name(), "node", id)
			}
		}
		total += applied
		if applied == 0 {
			return total, nil
		}
	}
}
