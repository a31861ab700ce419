package report

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/dlpscan/dlpscan/internal/types"
)

const toolInfoURI = "https://cloud.google.com/sensitive-data-protection/docs/infotypes-reference"

func likelihoodToLevel(l types.Likelihood) string {
	switch {
	case l.AtLeast(types.Likely):
		return "error"
	case l == types.Possible:
		return "warning"
	default:
		return "note"
	}
}

// Input is the result of scanning one named input.
type Input struct {
	URI    string
	Result types.Result
}

// WriteSARIF writes findings as SARIF 2.1.0 in a single run with one rule per
// info type. Each input's URI becomes the artifact location. Quotes are
// never included.
func WriteSARIF(w io.Writer, inputs ...Input) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("dlpscan", toolInfoURI)
	addRules(run, inputs)
	for _, in := range inputs {
		addResults(run, in)
	}
	report.AddRun(run)

	return report.PrettyWrite(w)
}

// addRules registers one rule per info type in first-seen order. A rule's
// default level follows the most likely finding of that type.
func addRules(run *sarif.Run, inputs []Input) {
	var order []string
	highest := map[string]types.Likelihood{}
	for _, in := range inputs {
		for _, f := range in.Result.Findings {
			prev, seen := highest[f.InfoType]
			if !seen {
				order = append(order, f.InfoType)
			}
			if !seen || f.Likelihood.AtLeast(prev) {
				highest[f.InfoType] = f.Likelihood
			}
		}
	}
	for _, id := range order {
		run.AddRule(id).
			WithDescription(id + " sensitive data").
			WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: likelihoodToLevel(highest[id]),
			})
	}
}

func addResults(run *sarif.Run, in Input) {
	for _, f := range in.Result.Findings {
		region := sarif.NewRegion().WithStartLine(1)
		if f.Location != nil {
			region = sarif.NewRegion().
				WithByteOffset(int(f.Location.Start)).
				WithByteLength(int(f.Location.End - f.Location.Start))
		}
		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(in.URI)).
				WithRegion(region),
		)

		result := sarif.NewRuleResult(f.InfoType).
			WithMessage(sarif.NewTextMessage(fmt.Sprintf("%s detected (%s)", f.InfoType, f.Likelihood))).
			WithLevel(likelihoodToLevel(f.Likelihood)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}
}
