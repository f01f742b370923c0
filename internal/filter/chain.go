package filter

import (
	"github.com/vburojevic/logview/internal/domain"
)

// Filter decides whether a group of lines is forwarded. A group is one line
// for read and search scans and one log entry for searchSmart.
type Filter interface {
	Match(group []domain.Line) bool
}

// Chain passes a group only when every filter does. An empty chain passes
// everything.
type Chain struct {
	filters []Filter
}

func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

func (c *Chain) Match(group []domain.Line) bool {
	for _, f := range c.filters {
		if !f.Match(group) {
			return false
		}
	}
	return true
}

// Add appends a stage
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Len returns the number of stages
func (c *Chain) Len() int { return len(c.filters) }

// OrChain passes a group when any filter does. An empty OrChain passes
// everything.
type OrChain struct {
	filters []Filter
}

func NewOrChain(filters ...Filter) *OrChain {
	return &OrChain{filters: filters}
}

func (c *OrChain) Match(group []domain.Line) bool {
	if len(c.filters) == 0 {
		return true
	}
	for _, f := range c.filters {
		if f.Match(group) {
			return true
		}
	}
	return false
}
