package convert

import (
	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
	"github.com/wdm0006/datasweeper/pkg/transform/dedupe"
	"github.com/wdm0006/datasweeper/pkg/transform/impute"
	"github.com/wdm0006/datasweeper/pkg/transform/project"
)

// Plan is the set of choices made for one file.
type Plan struct {
	RemoveDuplicates bool     `json:"dedupe"`
	FillMissing      bool     `json:"fill"`
	Columns          []string `json:"columns,omitempty"` // nil keeps every column
	Chart            bool     `json:"chart"`
	Target           Format   `json:"to"`
}

// DefaultPlan converts to CSV without touching the data.
func DefaultPlan() Plan { return Plan{Target: FormatCSV} }

// Pipeline builds the cleaning and selection steps in their fixed order:
// duplicates, then missing values, then columns.
func (p Plan) Pipeline() *sw.Pipeline {
	pl := sw.NewPipeline()
	if p.RemoveDuplicates {
		pl.Add(&dedupe.Rows{})
	}
	if p.FillMissing {
		pl.Add(&impute.MeanNumeric{})
	}
	if len(p.Columns) > 0 {
		pl.Add(&project.Columns{Names: p.Columns})
	}
	return pl
}

// Override changes selected fields of a Plan; nil fields keep the base value.
type Override struct {
	RemoveDuplicates *bool    `json:"dedupe,omitempty"`
	FillMissing      *bool    `json:"fill,omitempty"`
	Columns          []string `json:"columns,omitempty"`
	Chart            *bool    `json:"chart,omitempty"`
	Target           *Format  `json:"to,omitempty"`
}

func (o Override) Apply(base Plan) Plan {
	out := base
	if o.RemoveDuplicates != nil {
		out.RemoveDuplicates = *o.RemoveDuplicates
	}
	if o.FillMissing != nil {
		out.FillMissing = *o.FillMissing
	}
	if o.Columns != nil {
		out.Columns = o.Columns
	}
	if o.Chart != nil {
		out.Chart = *o.Chart
	}
	if o.Target != nil {
		out.Target = *o.Target
	}
	return out
}

// Plans maps file names to their overrides of a shared default plan. Uploads
// that share a name share its override.
type Plans map[string]Override

// For returns the plan for the named file.
func (ps Plans) For(name string, def Plan) Plan {
	if o, ok := ps[name]; ok {
		return o.Apply(def)
	}
	return def
}
