package deployer

import "errors"

// Sentinel errors - Deployment
var (
	ErrNoAccount          = errors.New("deployer: network has no deployer account")
	ErrChainIDMismatch    = errors.New("deployer: chain ID mismatch")
	ErrDeploymentReverted = errors.New("deployer: contract deployment reverted")
	ErrNoContractAddress  = errors.New("deployer: receipt has no contract address")
	ErrNoCodeAtAddress    = errors.New("deployer: no code at deployed address")
	ErrNotConfirmed       = errors.New("deployer: deployment not confirmed yet")
)

// redactedError keeps the chain of a wrapped error while replacing its message.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
