package usecase

// BuildRegularPrompt is exported for testing
var BuildRegularPrompt = buildRegularPrompt

// BuildAgentSystemPrompt is exported for testing
var BuildAgentSystemPrompt = buildAgentSystemPrompt

// BuildAgentUserPrompt is exported for testing
var BuildAgentUserPrompt = buildAgentUserPrompt

// WithKind is exported for testing
var WithKind = withKind
