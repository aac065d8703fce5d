package entities

// ArtifactState mirrors the ML Metadata Artifact.State enum
type ArtifactState string

const (
	ArtifactStateUnknown           ArtifactState = "UNKNOWN"
	ArtifactStatePending           ArtifactState = "PENDING"
	ArtifactStateLive              ArtifactState = "LIVE"
	ArtifactStateMarkedForDeletion ArtifactState = "MARKED_FOR_DELETION"
	ArtifactStateDeleted           ArtifactState = "DELETED"
)

var artifactStates = []ArtifactState{
	ArtifactStateUnknown,
	ArtifactStatePending,
	ArtifactStateLive,
	ArtifactStateMarkedForDeletion,
	ArtifactStateDeleted,
}

// ArtifactStateFromCode converts the stored enum number
func ArtifactStateFromCode(code int64) ArtifactState {
	if code < 0 || int(code) >= len(artifactStates) {
		return ArtifactStateUnknown
	}
	return artifactStates[code]
}

// Code returns the stored enum number
func (s ArtifactState) Code() int64 {
	for i, v := range artifactStates {
		if v == s {
			return int64(i)
		}
	}
	return 0
}

// ExecutionState mirrors the ML Metadata Execution.State enum
type ExecutionState string

const (
	ExecutionStateUnknown  ExecutionState = "UNKNOWN"
	ExecutionStateNew      ExecutionState = "NEW"
	ExecutionStateRunning  ExecutionState = "RUNNING"
	ExecutionStateComplete ExecutionState = "COMPLETE"
	ExecutionStateFailed   ExecutionState = "FAILED"
	ExecutionStateCached   ExecutionState = "CACHED"
	ExecutionStateCanceled ExecutionState = "CANCELED"
)

var executionStates = []ExecutionState{
	ExecutionStateUnknown,
	ExecutionStateNew,
	ExecutionStateRunning,
	ExecutionStateComplete,
	ExecutionStateFailed,
	ExecutionStateCached,
	ExecutionStateCanceled,
}

// ExecutionStateFromCode converts the stored enum number
func ExecutionStateFromCode(code int64) ExecutionState {
	if code < 0 || int(code) >= len(executionStates) {
		return ExecutionStateUnknown
	}
	return executionStates[code]
}

// Code returns the stored enum number
func (s ExecutionState) Code() int64 {
	for i, v := range executionStates {
		if v == s {
			return int64(i)
		}
	}
	return 0
}
