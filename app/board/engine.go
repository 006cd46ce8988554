package board

import (
	"errors"
	"fmt"

	"github.com/umputun/jobboard/app/store"
)

// ErrTargetMissing returned (wrapped with target name) if sink lacks one of required containers
var ErrTargetMissing = errors.New("render target missing")

// Target is a named container of the sink
type Target string

// containers the engine renders into
const (
	TargetJobs       Target = "jobs"
	TargetFilterBar  Target = "filter-bar"
	TargetFilterTags Target = "filter-tags"
)

// Targets lists all containers required by the engine
var Targets = []Target{TargetJobs, TargetFilterBar, TargetFilterTags}

// Sink is the presentation layer accepting card and chip descriptions
type Sink interface {
	Has(t Target) bool
	Clear(t Target)
	AppendCard(t Target, c Card)
	AppendChip(t Target, c Chip)
	SetVisible(t Target, visible bool)
}

// Engine renders visible job cards and filter bar into the sink and redraws
// both on every filter change. Redraw is always full, no diffing.
type Engine struct {
	filters *FilterSet
	sink    Sink
	records []store.JobRecord
}

// NewEngine makes engine for filters and sink and subscribes to filter changes.
// Fails if sink doesn't have any of Targets.
func NewEngine(filters *FilterSet, sink Sink) (*Engine, error) {
	for _, t := range Targets {
		if !sink.Has(t) {
			return nil, fmt.Errorf("%w: %s", ErrTargetMissing, t)
		}
	}
	e := &Engine{filters: filters, sink: sink}
	filters.Subscribe(func(Change) { e.Render() })
	return e, nil
}

// SetRecords installs loaded records and renders
func (e *Engine) SetRecords(records []store.JobRecord) {
	e.records = append([]store.JobRecord{}, records...)
	e.Render()
}

// Render redraws job list and filter bar
func (e *Engine) Render() {
	e.renderJobs()
	e.renderFilterBar()
}

// Total returns number of all records, visible or not
func (e *Engine) Total() int { return len(e.records) }

func (e *Engine) renderJobs() {
	e.sink.Clear(TargetJobs)
	for _, rec := range Visible(e.records, e.filters) {
		e.sink.AppendCard(TargetJobs, BuildCard(rec))
	}
}

func (e *Engine) renderFilterBar() {
	e.sink.Clear(TargetFilterTags)
	for _, chip := range BuildChips(e.filters.Tags()) {
		e.sink.AppendChip(TargetFilterTags, chip)
	}
	e.sink.SetVisible(TargetFilterBar, !e.filters.Empty())
}
