package identifier

// BuildCommandIdentifier assembles the processing-scope target identifier
// for a given (command, environment) pair, mirroring the source's
// build_command_identifier. Task.QualifiesForProcessing compares every
// registered task's ExecutionScope identifiers against this target.
func BuildCommandIdentifier(command, environment string) Identifier {
	contexts := NewContexts(
		Context{Type: "Environment", Name: environment},
		Context{Type: "Command", Name: command},
	)
	return NewContextual(TypeExecutionScope, "processing", nil, contexts)
}
