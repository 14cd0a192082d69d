package config

import "time"

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider, model, geminiProject, geminiAPIKey, anthropicAPIKey string) *LLM {
	return &LLM{
		provider:        provider,
		model:           model,
		timeout:         time.Minute,
		geminiProject:   geminiProject,
		geminiLocation:  "us-central1",
		geminiAPIKey:    geminiAPIKey,
		anthropicAPIKey: anthropicAPIKey,
	}
}

// NewSearchForTest creates a Search config for testing purposes
func NewSearchForTest(url string, timeout, cacheTTL time.Duration) *Search {
	return &Search{url: url, timeout: timeout, cacheTTL: cacheTTL}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewAgentForTest creates an Agent config for testing purposes
func NewAgentForTest(maxToolCalls int, stepTimeout time.Duration) *Agent {
	return &Agent{maxToolCalls: maxToolCalls, stepTimeout: stepTimeout}
}

// NewSessionForTest creates a Session config for testing purposes
func NewSessionForTest(idleWindow, reaperInterval time.Duration) *Session {
	return &Session{idleWindow: idleWindow, reaperInterval: reaperInterval}
}

// NewAppConfigForTest creates an AppConfig pointing at path
func NewAppConfigForTest(path string) *AppConfig {
	return &AppConfig{path: path}
}
