package agentloop

import "github.com/relaykit/agentmcp/chatapi"

// CurrentDecodingConfig returns a copy of the agent's current decoding
// config, the baseline SendMessage uses when no configOverride is passed.
func (a *Agent) CurrentDecodingConfig() chatapi.DecodingConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config
}

// SetDecodingConfig replaces the agent's current decoding config wholesale.
func (a *Agent) SetDecodingConfig(config chatapi.DecodingConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config = config
}

// Temperature returns the current sampling temperature.
func (a *Agent) Temperature() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config.Temperature
}

// SetTemperature updates the sampling temperature used by future turns.
func (a *Agent) SetTemperature(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.Temperature = value
}

// TopP returns the current nucleus-sampling threshold.
func (a *Agent) TopP() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config.TopP
}

// SetTopP updates the nucleus-sampling threshold used by future turns.
func (a *Agent) SetTopP(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.TopP = value
}

// MaxTokens returns the current response length cap.
func (a *Agent) MaxTokens() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config.MaxTokens
}

// SetMaxTokens updates the response length cap used by future turns.
func (a *Agent) SetMaxTokens(value int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.MaxTokens = value
}

// FrequencyPenalty returns the current frequency penalty.
func (a *Agent) FrequencyPenalty() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config.FrequencyPenalty
}

// SetFrequencyPenalty updates the frequency penalty used by future turns.
func (a *Agent) SetFrequencyPenalty(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.FrequencyPenalty = value
}

// PresencePenalty returns the current presence penalty.
func (a *Agent) PresencePenalty() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config.PresencePenalty
}

// SetPresencePenalty updates the presence penalty used by future turns.
func (a *Agent) SetPresencePenalty(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.PresencePenalty = value
}
