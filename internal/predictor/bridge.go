// Package predictor bridges quote evaluation to an out-of-process price
// model. The model runs as a subordinate process that reads a JSON context
// file and writes a trailing JSON object to its output.
package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/frontera-freight/frontera/internal/common"
	"github.com/frontera-freight/frontera/internal/model"
)

// Config configures the prediction bridge.
type Config struct {
	PythonPath       string        // interpreter binary, defaults to python3
	ScriptPath       string        // model entry point, required
	ModelVariant     string        // passed through to the script
	Timeout          time.Duration // per-invocation deadline
	RetrainThreshold int           // samples between retraining runs
}

// Bridge invokes the external model and owns the continuous-learning
// counter. Safe for concurrent use.
type Bridge struct {
	cfg     Config
	counter *retrainCounter
}

// New creates a bridge, verifying the interpreter is resolvable.
func New(cfg Config) (*Bridge, error) {
	if cfg.ScriptPath == "" {
		return nil, fmt.Errorf("predictor script path is required: %w", common.ErrMissingConfig)
	}
	if cfg.PythonPath == "" {
		cfg.PythonPath = "python3"
	}
	if cfg.ModelVariant == "" {
		cfg.ModelVariant = "random_forest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetrainThreshold <= 0 {
		cfg.RetrainThreshold = 10
	}

	if _, err := exec.LookPath(cfg.PythonPath); err != nil {
		return nil, fmt.Errorf("interpreter %s not found: %w", cfg.PythonPath, err)
	}

	return &Bridge{cfg: cfg, counter: newRetrainCounter(cfg.RetrainThreshold)}, nil
}

// Predict serializes the context, invokes the model process, and parses the
// trailing JSON object from its combined output. A failed prediction never
// affects quote ranking; callers treat it as optional enrichment.
func (b *Bridge) Predict(ctx context.Context, pctx model.PredictionContext) (*model.PredictionResult, error) {
	payload, err := json.Marshal(pctx)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize prediction context: %w", err)
	}

	// The context goes through a file rather than an argument; place names
	// carry quoting hazards and long routes can exceed argv limits.
	tmp, err := os.CreateTemp("", "frontera-predict-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create context file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			slog.Warn("Failed to remove prediction context file", "path", tmpPath, "error", removeErr)
		}
	}()

	if _, err = tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to write context file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close context file: %w", err)
	}

	output, err := b.runModel(ctx, tmpPath, b.cfg.ModelVariant)
	if err != nil {
		return nil, err
	}

	raw, err := extractLastJSONObject(output)
	if err != nil {
		return nil, err
	}

	var result model.PredictionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("prediction output does not match result shape: %w", common.ErrMalformedResult)
	}
	result.ModelType = b.cfg.ModelVariant

	slog.Debug("Prediction completed",
		"recommended_value", result.RecommendedValue,
		"confidence", result.Confidence,
		"method", result.Method)
	return &result, nil
}

// NotifyQuote records an accepted quote sample and schedules retraining when
// the sample counter reaches its threshold. Fire-and-forget.
func (b *Bridge) NotifyQuote(sample model.QuoteSample) {
	if !sample.Complete() {
		slog.Debug("Ignoring incomplete quote sample for model learning")
		return
	}
	b.recordSample("quote")
}

// NotifyFeedback records a user feedback submission. Both helpful and
// unhelpful feedback count toward retraining.
func (b *Bridge) NotifyFeedback(_ model.PredictionFeedback) {
	b.recordSample("feedback")
}

// PendingSamples reports the number of samples accumulated since the last
// successful retraining run.
func (b *Bridge) PendingSamples() int {
	return b.counter.pending()
}

// Retrain runs a blocking retraining invocation. The async threshold path
// uses the same entry point.
func (b *Bridge) Retrain(ctx context.Context) error {
	_, err := b.runModel(ctx, "--retrain", b.cfg.ModelVariant)
	if err != nil {
		return fmt.Errorf("model retraining failed: %w", err)
	}
	return nil
}

func (b *Bridge) recordSample(kind string) {
	count, shouldRetrain := b.counter.increment()
	slog.Debug("Recorded model learning sample",
		"kind", kind,
		"pending_samples", count,
		"threshold", b.cfg.RetrainThreshold)

	if !shouldRetrain {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.cfg.Timeout)
		defer cancel()

		slog.Info("Retraining threshold reached, starting background retraining",
			"samples", count)
		if err := b.Retrain(ctx); err != nil {
			// Leave the counter untouched so the next sample re-triggers.
			b.counter.finish(false)
			common.LogError(err, "background retraining failed", common.Fields{
				"pending_samples": count,
			})
			return
		}
		b.counter.finish(true)
		slog.Info("Background retraining completed", "samples_consumed", count)
	}()
}

// runModel executes the model script with the given positional argument and
// variant, returning its combined output.
func (b *Bridge) runModel(ctx context.Context, arg, variant string) ([]byte, error) {
	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, b.cfg.PythonPath, b.cfg.ScriptPath, arg, variant)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if cmdCtx.Err() != nil {
			return nil, fmt.Errorf("model process exceeded %s: %w", b.cfg.Timeout, common.ErrProcessTimeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("model process exited with code %d: %s: %w",
				exitErr.ExitCode(), tailOf(output), common.ErrProcessInvocationFailed)
		}
		return nil, fmt.Errorf("failed to start model process: %w: %v", common.ErrProcessInvocationFailed, err)
	}

	return output, nil
}

// tailOf trims process output to the last few lines for error messages.
func tailOf(output []byte) string {
	text := strings.TrimSpace(string(output))
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}
