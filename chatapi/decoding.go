package chatapi

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultModel is used when a DecodingConfig omits Model.
const DefaultModel = "deepseek-chat"

// DecodingConfig is the validated sampling-parameter bundle sent with every
// chat request (spec §4.9). Validate is called by the client before every
// request, not only at construction, since CopyWith can produce an invalid
// override.
type DecodingConfig struct {
	Model            string
	Temperature      float64
	TopP             float64
	MaxTokens        int
	FrequencyPenalty float64
	PresencePenalty  float64
	Stop             []string
	Logprobs         bool
	TopLogprobs      *int
}

// DefaultDecodingConfig returns the conservative, always-valid baseline
// configuration used when a caller supplies none.
func DefaultDecodingConfig() DecodingConfig {
	return DecodingConfig{
		Model:            DefaultModel,
		Temperature:      1,
		TopP:             1,
		MaxTokens:        4096,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}
}

// Validate checks every field against its documented range. Boundary values
// are inclusive: temperature [0,2], top_p [0,1], max_tokens [1,8192],
// frequency/presence penalty [-2,2], top_logprobs [0,20].
func (c DecodingConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: model is required", ErrInvalidConfig))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%w: temperature must be within [0, 2], got %v", ErrInvalidConfig, c.Temperature))
	}
	if c.TopP < 0 || c.TopP > 1 {
		errs = append(errs, fmt.Errorf("%w: top_p must be within [0, 1], got %v", ErrInvalidConfig, c.TopP))
	}
	if c.MaxTokens < 1 || c.MaxTokens > 8192 {
		errs = append(errs, fmt.Errorf("%w: max_tokens must be within [1, 8192], got %v", ErrInvalidConfig, c.MaxTokens))
	}
	if c.FrequencyPenalty < -2 || c.FrequencyPenalty > 2 {
		errs = append(errs, fmt.Errorf("%w: frequency_penalty must be within [-2, 2], got %v", ErrInvalidConfig, c.FrequencyPenalty))
	}
	if c.PresencePenalty < -2 || c.PresencePenalty > 2 {
		errs = append(errs, fmt.Errorf("%w: presence_penalty must be within [-2, 2], got %v", ErrInvalidConfig, c.PresencePenalty))
	}
	if c.TopLogprobs != nil && (*c.TopLogprobs < 0 || *c.TopLogprobs > 20) {
		errs = append(errs, fmt.Errorf("%w: top_logprobs must be within [0, 20], got %v", ErrInvalidConfig, *c.TopLogprobs))
	}
	return errors.Join(errs...)
}

// DecodingConfigOverrides carries zero-or-more fields to override via
// CopyWith. A nil pointer field means "leave unchanged"; Stop is compared by
// nilness rather than wrapped in a pointer since an empty non-nil slice is a
// meaningful override (clear the stop sequence).
type DecodingConfigOverrides struct {
	Model            *string
	Temperature      *float64
	TopP             *float64
	MaxTokens        *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Stop             []string
	Logprobs         *bool
	TopLogprobs      *int
}

// CopyWith returns a new DecodingConfig with every non-nil override field
// applied and every other field preserved from c.
func (c DecodingConfig) CopyWith(overrides DecodingConfigOverrides) DecodingConfig {
	out := c
	if overrides.Model != nil {
		out.Model = *overrides.Model
	}
	if overrides.Temperature != nil {
		out.Temperature = *overrides.Temperature
	}
	if overrides.TopP != nil {
		out.TopP = *overrides.TopP
	}
	if overrides.MaxTokens != nil {
		out.MaxTokens = *overrides.MaxTokens
	}
	if overrides.FrequencyPenalty != nil {
		out.FrequencyPenalty = *overrides.FrequencyPenalty
	}
	if overrides.PresencePenalty != nil {
		out.PresencePenalty = *overrides.PresencePenalty
	}
	if overrides.Stop != nil {
		out.Stop = overrides.Stop
	}
	if overrides.Logprobs != nil {
		out.Logprobs = *overrides.Logprobs
	}
	if overrides.TopLogprobs != nil {
		out.TopLogprobs = overrides.TopLogprobs
	}
	return out
}

func (c DecodingConfig) toWire() wireDecodingConfig {
	return wireDecodingConfig{
		Model:            c.Model,
		Temperature:      c.Temperature,
		TopP:             c.TopP,
		MaxTokens:        c.MaxTokens,
		FrequencyPenalty: c.FrequencyPenalty,
		PresencePenalty:  c.PresencePenalty,
		Stop:             c.Stop,
		Logprobs:         c.Logprobs,
		TopLogprobs:      c.TopLogprobs,
	}
}
