package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/rx-intake/constants"
	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/core/proc"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

const DefaultExternalTimeout = 10 * time.Second

// Reasons an external run is abandoned for the fallback.
const (
	ReasonTimeout   = "timeout"
	ReasonExec      = "exec"
	ReasonEmpty     = "empty"
	ReasonMalformed = "malformed"
	ReasonSchema    = "schema"
)

// EngineError describes why the external engine produced no usable result.
// It matches common.ErrValidationEngineUnavailable under errors.Is.
type EngineError struct {
	Reason string
	Err    error
}

func (e *EngineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("validation engine unavailable (%s)", e.Reason)
	}
	return fmt.Sprintf("validation engine unavailable (%s): %v", e.Reason, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

func (e *EngineError) Is(target error) bool {
	return target == common.ErrValidationEngineUnavailable
}

// ExternalConfig configures the external validation command.
type ExternalConfig struct {
	Command string
	Args    []string
	// PassAsArg also appends the JSON payload as the final argument.
	PassAsArg bool
	Timeout   time.Duration
}

// ExternalStrategy delegates validation to an out-of-process engine.
type ExternalStrategy struct {
	cfg    ExternalConfig
	runner proc.Runner
	logger *slog.Logger
}

func NewExternalStrategy(cfg ExternalConfig, runner proc.Runner, logger *slog.Logger) (*ExternalStrategy, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, common.NewAppError("INVALID_CONFIG", "validation command is required", common.ErrInvalidInput)
	}
	if runner == nil {
		return nil, common.NewAppError("INVALID_CONFIG", "runner is required", common.ErrInvalidInput)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultExternalTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := resultSchema(); err != nil {
		return nil, fmt.Errorf("result schema: %w", err)
	}
	return &ExternalStrategy{cfg: cfg, runner: runner, logger: logger}, nil
}

func (s *ExternalStrategy) Name() string { return constants.StrategyExternal }

func (s *ExternalStrategy) Validate(ctx context.Context, in Input) (entity.ValidationResult, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return entity.ValidationResult{}, &EngineError{Reason: ReasonMalformed, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	args := append([]string(nil), s.cfg.Args...)
	if s.cfg.PassAsArg {
		args = append(args, string(payload))
	}

	stdout, stderr, err := s.runner.Run(runCtx, s.cfg.Command, payload, args...)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return entity.ValidationResult{}, &EngineError{Reason: ReasonTimeout, Err: fmt.Errorf("after %s: %w", s.cfg.Timeout, runCtx.Err())}
	}
	if err != nil {
		return entity.ValidationResult{}, &EngineError{Reason: ReasonExec, Err: err}
	}
	if len(stderr) > 0 {
		s.logger.Debug("validation engine stderr", "cmd", s.cfg.Command, "stderr", strings.TrimSpace(string(stderr)))
	}

	return s.parse(stdout)
}

func (s *ExternalStrategy) parse(stdout []byte) (entity.ValidationResult, error) {
	out := strings.TrimSpace(string(stdout))
	if out == "" {
		return entity.ValidationResult{}, &EngineError{Reason: ReasonEmpty}
	}

	doc, ok := LastJSONObject([]byte(out))
	if !ok {
		return entity.ValidationResult{}, &EngineError{Reason: ReasonMalformed, Err: errors.New("no JSON object in output")}
	}

	doc, changed, err := SanitizeResult(doc)
	if err != nil {
		return entity.ValidationResult{}, &EngineError{Reason: ReasonMalformed, Err: err}
	}
	if len(changed) > 0 {
		s.logger.Debug("sanitized engine output", "fields", changed)
	}

	if err := ValidateResultJSON(doc); err != nil {
		return entity.ValidationResult{}, &EngineError{Reason: ReasonSchema, Err: err}
	}

	var result entity.ValidationResult
	if err := json.Unmarshal(doc, &result); err != nil {
		return entity.ValidationResult{}, &EngineError{Reason: ReasonMalformed, Err: err}
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	if len(result.Errors) > 0 && result.IsValid {
		s.logger.Warn("validation engine reported errors on a valid result; marking invalid", "errors", result.Errors)
		result.IsValid = false
	}
	return result, nil
}
