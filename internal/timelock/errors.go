package timelock

import "errors"

// State violations.
var (
	ErrAlreadySet = errors.New("unlock date already set")
	ErrNotSet     = errors.New("unlock date not set")
)

// Trust and temporal gating.
var (
	ErrDateManipulationDetected = errors.New("device clock disagrees with verified time")
	ErrNotYetUnlocked           = errors.New("journal is still locked")
	ErrTimeUnverified           = errors.New("current time could not be verified")
)

// Witness outcomes.
var (
	ErrNoWitness       = errors.New("no beacon witness stored")
	ErrWitnessSealed   = errors.New("beacon has not reached the witness round")
	ErrWitnessMismatch = errors.New("beacon witness does not match the commitment")
)
