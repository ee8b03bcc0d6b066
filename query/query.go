// Package query is an external collaborator of warehouse: a composable
// archetype filter built only on the storage core's exported introspection
// (Archetype.Contains), per warehouse's package-boundary design — query
// fetch/filter machinery is explicitly out of the storage core's scope.
package query

import (
	"fmt"

	"github.com/TheBitDrifter/bark"

	"github.com/hollowforge/warehouse"
)

// Term names one archetype slot a query cares about: a plain component
// (HasTarget false) or a relation parameterized by a specific target.
type Term struct {
	Kind      warehouse.RelationKindId
	Target    warehouse.Entity
	HasTarget bool
}

// Component builds a plain-component term.
func Component(kind warehouse.RelationKindId) Term {
	return Term{Kind: kind}
}

// Relation builds a target-bearing relation term.
func Relation(kind warehouse.RelationKindId, target warehouse.Entity) Term {
	return Term{Kind: kind, Target: target, HasTarget: true}
}

// Node is one evaluable piece of a query tree.
type Node interface {
	Evaluate(arch *warehouse.Archetype) bool
}

// Operation is the logical combinator a composite node applies to its
// terms and children.
type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

type compositeNode struct {
	op       Operation
	terms    []Term
	children []Node
}

func (n *compositeNode) Evaluate(arch *warehouse.Archetype) bool {
	has := func(t Term) bool { return arch.Contains(t.Kind, t.Target, t.HasTarget) }
	switch n.op {
	case OpAnd:
		for _, t := range n.terms {
			if !has(t) {
				return false
			}
		}
		for _, c := range n.children {
			if !c.Evaluate(arch) {
				return false
			}
		}
		return true
	case OpOr:
		for _, t := range n.terms {
			if has(t) {
				return true
			}
		}
		for _, c := range n.children {
			if c.Evaluate(arch) {
				return true
			}
		}
		return len(n.terms) == 0 && len(n.children) == 0
	case OpNot:
		if len(n.children) == 0 {
			for _, t := range n.terms {
				if has(t) {
					return false
				}
			}
			return true
		}
		for _, t := range n.terms {
			if has(t) {
				return false
			}
		}
		for _, c := range n.children {
			if c.Evaluate(arch) {
				return false
			}
		}
		return true
	}
	return false
}

// Query is a composable, reusable filter: each call to And/Or/Not returns
// a Node that can itself be nested into a further call.
type Query interface {
	Node
	And(items ...interface{}) Node
	Or(items ...interface{}) Node
	Not(items ...interface{}) Node
}

type query struct {
	root Node
}

// New creates an empty query. Calling And/Or/Not on it builds the query
// tree; the first call also becomes the query's evaluated root.
func New() Query {
	return &query{}
}

func (q *query) Evaluate(arch *warehouse.Archetype) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(arch)
}

func (q *query) And(items ...interface{}) Node { return q.compose(OpAnd, items) }
func (q *query) Or(items ...interface{}) Node  { return q.compose(OpOr, items) }
func (q *query) Not(items ...interface{}) Node { return q.compose(OpNot, items) }

func (q *query) compose(op Operation, items []interface{}) Node {
	terms, children := processItems(items...)
	node := &compositeNode{op: op, terms: terms, children: children}
	if q.root == nil {
		q.root = node
	}
	return node
}

// processItems splits the heterogeneous And/Or/Not argument list into
// leaf terms and nested nodes, panicking (programmer error) on any other
// type.
func processItems(items ...interface{}) ([]Term, []Node) {
	var terms []Term
	var children []Node
	for _, item := range items {
		switch v := item.(type) {
		case Term:
			terms = append(terms, v)
		case []Term:
			terms = append(terms, v...)
		case Node:
			children = append(children, v)
		default:
			panic(bark.AddTrace(fmt.Errorf(
				"query: invalid item type %T, want Term, []Term, or Node", item)))
		}
	}
	return terms, children
}
