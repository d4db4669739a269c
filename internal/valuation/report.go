package valuation

import (
	"github.com/google/uuid"
)

// Assembler runs the four pipeline stages in strict order and packages the
// results into one immutable PricingReport. It is the only component with
// an observable side effect (the timestamp read) and the only one that
// short-circuits on stage failure, surfacing the first error with the
// stage name attached.
type Assembler struct {
	cfg       Config
	condition *ConditionAnalyzer
	selector  *ComparableSelector
	estimator *PriceEstimator
	generator *JustificationGenerator
}

func NewAssembler(cfg Config) *Assembler {
	return &Assembler{
		cfg:       cfg,
		condition: NewConditionAnalyzer(cfg),
		selector:  NewComparableSelector(cfg),
		estimator: NewPriceEstimator(cfg),
		generator: NewJustificationGenerator(),
	}
}

// Analyze executes the full pipeline. No partial reports: any stage
// failure aborts assembly.
func (a *Assembler) Analyze(req AnalyzeRequest) (PricingReport, error) {
	condition, err := a.condition.Analyze(req.Subject, req.Photos, req.Transcript)
	if err != nil {
		return PricingReport{}, withStage(err, StageConditionAnalysis)
	}

	comparables, err := a.selector.Select(req.Subject, req.Comparables, req.NumComps)
	if err != nil {
		return PricingReport{}, withStage(err, StageComparableSelection)
	}

	price, err := a.estimator.Estimate(req.Subject, comparables, condition)
	if err != nil {
		return PricingReport{}, withStage(err, StagePriceEstimation)
	}

	justification := a.generator.Generate(req.Subject, condition, comparables, price)

	return PricingReport{
		ReportID:      uuid.NewString(),
		Subject:       req.Subject,
		Condition:     condition,
		Comparables:   comparables,
		Price:         price,
		Justification: justification,
		GeneratedAt:   a.cfg.now().UTC(),
	}, nil
}

// AnalyzeCondition runs only the condition stage.
func (a *Assembler) AnalyzeCondition(subject SubjectHome, photos []string, transcript string) (ConditionSummary, error) {
	summary, err := a.condition.Analyze(subject, photos, transcript)
	if err != nil {
		return ConditionSummary{}, withStage(err, StageConditionAnalysis)
	}
	return summary, nil
}

// SelectComparables runs only the ranking stage.
func (a *Assembler) SelectComparables(subject SubjectHome, candidates []ComparableSale, n int) ([]ComparableSale, error) {
	comparables, err := a.selector.Select(subject, candidates, n)
	if err != nil {
		return nil, withStage(err, StageComparableSelection)
	}
	return comparables, nil
}
