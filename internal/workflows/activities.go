package workflows

import (
	"context"
	"fmt"

	"github.com/soundpin/soundpin/internal/core/domain"
	"github.com/soundpin/soundpin/internal/core/ports"
	"github.com/soundpin/soundpin/internal/core/usecases"
	"github.com/soundpin/soundpin/internal/pkg/metrics"
)

// AnalysisOutput carries the analyzer result between activities. It is
// a plain copy of the domain annotation so Temporal's default data
// converter can round-trip it.
type AnalysisOutput struct {
	Transcription string              `json:"transcription"`
	Categories    domain.AICategories `json:"categories"`
	Summary       string              `json:"summary"`
}

// AnalysisActivities holds the activity implementations for the
// analysis workflow.
type AnalysisActivities struct {
	Pins     *usecases.PinService
	Analyzer ports.AnalyzerClient
}

// AnalyzeAudio calls the external analyzer for a recording.
func (a *AnalysisActivities) AnalyzeAudio(ctx context.Context, audioURL string) (AnalysisOutput, error) {
	analysis, err := a.Analyzer.Analyze(ctx, audioURL)
	if err != nil {
		metrics.AnalysisCompleted.WithLabelValues("failed").Inc()
		return AnalysisOutput{}, fmt.Errorf("analyze %s: %w", audioURL, err)
	}
	return AnalysisOutput{
		Transcription: analysis.Transcription,
		Categories:    analysis.Categories,
		Summary:       analysis.Summary,
	}, nil
}

// AttachAnalysis stores the annotation on the pin.
func (a *AnalysisActivities) AttachAnalysis(ctx context.Context, pinID string, out AnalysisOutput) error {
	err := a.Pins.AttachAnalysis(ctx, pinID, &domain.AIAnalysis{
		Transcription: out.Transcription,
		Categories:    out.Categories,
		Summary:       out.Summary,
	})
	if err != nil {
		return fmt.Errorf("attach analysis to %s: %w", pinID, err)
	}
	metrics.AnalysisCompleted.WithLabelValues("succeeded").Inc()
	return nil
}
