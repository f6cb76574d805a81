package validate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/core/proc"
)

func newExternal(t *testing.T, runner proc.Runner, mutate ...func(*ExternalConfig)) *ExternalStrategy {
	t.Helper()
	cfg := ExternalConfig{Command: "Rscript", Args: []string{"validate_prescription.R"}, Timeout: time.Second}
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := NewExternalStrategy(cfg, runner, nil)
	require.NoError(t, err)
	return s
}

func reply(out string) *proc.StubRunner {
	return &proc.StubRunner{Fn: func(context.Context, string, []byte, ...string) ([]byte, []byte, error) {
		return []byte(out), nil, nil
	}}
}

func TestExternal_PayloadOnStdin(t *testing.T) {
	runner := reply(`{"is_valid":true,"errors":[],"warnings":[],"confidence":0.95}`)
	s := newExternal(t, runner)

	res, err := s.Validate(context.Background(), Input{Draft: completeDraft(), ReportedConfidence: 0.9, IsHandwritten: true})
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.InDelta(t, 0.95, res.Confidence, 1e-9)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Rscript", calls[0].Name)
	assert.Equal(t, []string{"validate_prescription.R"}, calls[0].Args)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(calls[0].Stdin, &payload))
	assert.Contains(t, payload, "parsed_data")
	assert.Equal(t, 0.9, payload["confidence"])
	assert.Equal(t, true, payload["is_handwritten"])
	parsed := payload["parsed_data"].(map[string]any)
	assert.Equal(t, "Maria Silva", parsed["patient_name"])
}

func TestExternal_PassAsArg(t *testing.T) {
	runner := reply(`{"is_valid":true,"errors":[],"warnings":[],"confidence":1}`)
	s := newExternal(t, runner, func(c *ExternalConfig) { c.PassAsArg = true })

	_, err := s.Validate(context.Background(), Input{Draft: completeDraft()})
	require.NoError(t, err)

	args := runner.Calls()[0].Args
	require.Len(t, args, 2)
	assert.JSONEq(t, string(runner.Calls()[0].Stdin), args[1])
}

func TestExternal_WarningsBeforeResult(t *testing.T) {
	out := "Loading required package: jsonlite\nWarning message:\nNAs introduced {by coercion}\n" +
		`{"is_valid":false,"errors":["CRM not registered"],"warnings":null,"confidence":"0.4"}` + "\n"
	s := newExternal(t, reply(out))

	res, err := s.Validate(context.Background(), Input{Draft: completeDraft()})
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"CRM not registered"}, res.Errors)
	assert.Equal(t, []string{}, res.Warnings)
	assert.InDelta(t, 0.4, res.Confidence, 1e-9)
}

func TestExternal_ErrorsForceInvalid(t *testing.T) {
	s := newExternal(t, reply(`{"is_valid":true,"errors":["CRM not registered"],"warnings":[],"confidence":0.95}`))

	res, err := s.Validate(context.Background(), Input{Draft: completeDraft()})
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"CRM not registered"}, res.Errors)
	assert.InDelta(t, 0.95, res.Confidence, 1e-9)
}

func TestExternal_Failures(t *testing.T) {
	cases := map[string]struct {
		fn     func(ctx context.Context, name string, stdin []byte, args ...string) ([]byte, []byte, error)
		reason string
	}{
		"non-zero exit": {
			fn: func(context.Context, string, []byte, ...string) ([]byte, []byte, error) {
				return nil, []byte("Error in library(jsonlite)"), errors.New("exit status 1")
			},
			reason: ReasonExec,
		},
		"empty output": {
			fn: func(context.Context, string, []byte, ...string) ([]byte, []byte, error) {
				return []byte("  \n"), nil, nil
			},
			reason: ReasonEmpty,
		},
		"not json": {
			fn: func(context.Context, string, []byte, ...string) ([]byte, []byte, error) {
				return []byte("TRUE"), nil, nil
			},
			reason: ReasonMalformed,
		},
		"schema mismatch": {
			fn: func(context.Context, string, []byte, ...string) ([]byte, []byte, error) {
				return []byte(`{"is_valid":"yes","errors":[],"warnings":[],"confidence":0.9}`), nil, nil
			},
			reason: ReasonSchema,
		},
		"confidence out of range": {
			fn: func(context.Context, string, []byte, ...string) ([]byte, []byte, error) {
				return []byte(`{"is_valid":true,"errors":[],"warnings":[],"confidence":90}`), nil, nil
			},
			reason: ReasonSchema,
		},
		"timeout": {
			fn: func(ctx context.Context, _ string, _ []byte, _ ...string) ([]byte, []byte, error) {
				<-ctx.Done()
				return nil, nil, ctx.Err()
			},
			reason: ReasonTimeout,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := newExternal(t, &proc.StubRunner{Fn: tc.fn}, func(c *ExternalConfig) { c.Timeout = 20 * time.Millisecond })

			_, err := s.Validate(context.Background(), Input{Draft: completeDraft()})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidationEngineUnavailable)
			var engErr *EngineError
			require.ErrorAs(t, err, &engErr)
			assert.Equal(t, tc.reason, engErr.Reason)
		})
	}
}

func TestNewExternalStrategy_Config(t *testing.T) {
	_, err := NewExternalStrategy(ExternalConfig{}, &proc.StubRunner{}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = NewExternalStrategy(ExternalConfig{Command: "Rscript"}, nil, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	s, err := NewExternalStrategy(ExternalConfig{Command: "Rscript"}, &proc.StubRunner{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultExternalTimeout, s.cfg.Timeout)
}

func TestLastJSONObject(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
		ok   bool
	}{
		"plain":         {`{"a":1}`, `{"a":1}`, true},
		"nested":        {`{"a":{"b":1}}`, `{"a":{"b":1}}`, true},
		"noise before":  {"warn {\n" + `{"a":1}`, `{"a":1}`, true},
		"two objects":   {`{"a":1} {"a":2}`, `{"a":2}`, true},
		"trailing text": {`{"a":1}` + "\nDone.", `{"a":1}`, true},
		"none":          {"no json here", "", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := LastJSONObject([]byte(tc.in))
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.JSONEq(t, tc.want, string(got))
			}
		})
	}
}
