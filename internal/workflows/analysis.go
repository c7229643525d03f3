package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// AnalysisInput is the input for the audio analysis workflow.
type AnalysisInput struct {
	PinID    string
	AudioURL string
}

// AnalysisWorkflow runs the asynchronous enrichment of a freshly created
// pin: send the audio to the analyzer, then attach the result. The pin
// stays visible and unannotated throughout; if the analyzer never
// succeeds the workflow fails and the pin simply keeps no analysis.
func AnalysisWorkflow(ctx workflow.Context, input AnalysisInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting analysis workflow", "pinID", input.PinID)

	actOpts := workflow.ActivityOptions{
		// Model inference on cold start can take a while.
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Classify the recording
	var result AnalysisOutput
	if err := workflow.ExecuteActivity(ctx, "AnalyzeAudio", input.AudioURL).Get(ctx, &result); err != nil {
		logger.Warn("analysis failed, pin stays unannotated", "pinID", input.PinID, "error", err)
		return err
	}

	// Step 2: Attach the annotation to the pin
	if err := workflow.ExecuteActivity(ctx, "AttachAnalysis", input.PinID, result).Get(ctx, nil); err != nil {
		return err
	}

	logger.Info("Analysis attached", "pinID", input.PinID)
	return nil
}
