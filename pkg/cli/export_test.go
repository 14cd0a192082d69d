package cli

// PrintResult is exported for testing
var PrintResult = printResult
