package dataprocessing

import (
	"investcli/pkg/contracts/domain"
)

// StepName identifies one normalization step.
type StepName string

// Steps in execution order. Later steps rely on the types produced by
// earlier ones.
const (
	StepFundingCoercion     StepName = "funding_coercion"
	StepCategoricalDefaults StepName = "categorical_defaults"
	StepMarketStandardize   StepName = "market_standardization"
	StepCountryCorrection   StepName = "country_correction"
	StepDeduplicate         StepName = "deduplication"
	StepDateParsing         StepName = "date_parsing"
	StepFoundedYear         StepName = "founded_year"
)

// categoricalColumns are defaulted to "Unknown" when missing.
var categoricalColumns = []string{
	domain.ColumnCountryCode,
	domain.ColumnMarket,
	domain.ColumnStatus,
	domain.ColumnCategoryList,
}

var dateColumns = []string{
	domain.ColumnFoundedAt,
	domain.ColumnFirstFundingAt,
	domain.ColumnLastFundingAt,
}

// managedColumns receive typed treatment; anything else passes through.
var managedColumns = map[string]bool{
	domain.ColumnPermalink:       true,
	domain.ColumnFundingTotalUSD: true,
	domain.ColumnCountryCode:     true,
	domain.ColumnMarket:          true,
	domain.ColumnStatus:          true,
	domain.ColumnCategoryList:    true,
	domain.ColumnFoundedAt:       true,
	domain.ColumnFirstFundingAt:  true,
	domain.ColumnLastFundingAt:   true,
	domain.ColumnFoundedYear:     true,
}

// Step is one planned transformation and the columns it touches, paired
// with their positions in the raw header.
type Step struct {
	Name    StepName
	Columns []string
	indexes []int
}

// Plan is the fixed list of steps for one header. It is computed once per
// run so the transformation never re-checks column presence.
type Plan struct {
	steps  []Step
	column map[string]int
}

// NewPlan inspects columns and keeps only the steps whose columns exist.
func NewPlan(columns []string) Plan {
	p := Plan{column: make(map[string]int, len(columns))}
	for i, c := range columns {
		if _, dup := p.column[c]; !dup {
			p.column[c] = i
		}
	}

	p.add(StepFundingCoercion, domain.ColumnFundingTotalUSD)
	p.add(StepCategoricalDefaults, categoricalColumns...)
	p.add(StepMarketStandardize, domain.ColumnMarket)
	p.add(StepCountryCorrection, domain.ColumnCountryCode)
	p.add(StepDeduplicate, domain.ColumnPermalink)
	p.add(StepDateParsing, dateColumns...)
	p.add(StepFoundedYear, domain.ColumnFoundedYear)
	return p
}

func (p *Plan) add(name StepName, candidates ...string) {
	step := Step{Name: name}
	for _, c := range candidates {
		if i, ok := p.column[c]; ok {
			step.Columns = append(step.Columns, c)
			step.indexes = append(step.indexes, i)
		}
	}
	if len(step.Columns) > 0 {
		p.steps = append(p.steps, step)
	}
}

// Steps returns the planned steps in execution order.
func (p Plan) Steps() []Step {
	return p.steps
}

// Names lists the planned step names.
func (p Plan) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = string(s.Name)
	}
	return names
}

// Has reports whether a step is planned.
func (p Plan) Has(name StepName) bool {
	for _, s := range p.steps {
		if s.Name == name {
			return true
		}
	}
	return false
}

// index returns the raw position of a column, or -1.
func (p Plan) index(column string) int {
	if i, ok := p.column[column]; ok {
		return i
	}
	return -1
}
