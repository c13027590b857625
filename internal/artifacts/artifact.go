// Package artifacts resolves compiled contract artifacts produced by Hardhat or Foundry.
package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Sentinel errors - Artifacts
var (
	ErrArtifactNotFound  = errors.New("artifacts: artifact not found")
	ErrAmbiguousArtifact = errors.New("artifacts: multiple artifacts match")
	ErrNoBytecode        = errors.New("artifacts: artifact has no creation bytecode")
	ErrUnlinkedLibrary   = errors.New("artifacts: bytecode has unlinked library references")
	ErrCompilerMismatch  = errors.New("artifacts: compiler version mismatch")
	ErrMalformedArtifact = errors.New("artifacts: malformed artifact")
)

// Artifact is a compiled contract: creation bytecode plus its callable interface.
type Artifact struct {
	ContractName string
	SourceName   string
	ABI          abi.ABI
	Bytecode     []byte
	SolcVersion  string // empty when the build output does not record it
	Path         string
}

// FullyQualifiedName returns "<source>:<contract>", or the contract name if the source is unknown.
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.ContractName
	}
	return a.SourceName + ":" + a.ContractName
}

// CheckCompiler reports ErrCompilerMismatch when the recorded compiler version differs
// from expected. Build metadata such as "+commit.7893614a" is ignored. An unknown
// version on either side is not a mismatch.
func (a *Artifact) CheckCompiler(expected string) error {
	if a.SolcVersion == "" || expected == "" {
		return nil
	}

	want, err := semver.NewVersion(expected)
	if err != nil {
		return fmt.Errorf("parse expected compiler version %q: %w", expected, err)
	}
	got, err := semver.NewVersion(a.SolcVersion)
	if err != nil {
		return fmt.Errorf("parse artifact compiler version %q: %w", a.SolcVersion, err)
	}

	if !got.Equal(want) {
		return fmt.Errorf("%w: %s was compiled with solc %s, project expects %s",
			ErrCompilerMismatch, a.ContractName, got, want)
	}
	return nil
}

// rawArtifact is the on-disk JSON shape shared by Hardhat and Foundry.
type rawArtifact struct {
	ContractName string          `json:"contractName"`
	SourceName   string          `json:"sourceName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     Bytecode        `json:"bytecode"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// Bytecode contains the contract bytecode.
// It handles both formats:
// - Simple string: "0x608060..." (Hardhat)
// - Object with "object" field: {"object": "0x608060..."} (Foundry)
type Bytecode struct {
	hex string
}

// UnmarshalJSON handles both string and object bytecode formats.
func (b *Bytecode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.hex = s
		return nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		b.hex = obj.Object
		return nil
	}

	return fmt.Errorf("bytecode must be a string or object with 'object' field")
}

// String returns the bytecode hex string.
func (b Bytecode) String() string {
	return b.hex
}

// Bytes decodes the bytecode. Library placeholders ("__$...$__") are reported
// as ErrUnlinkedLibrary.
func (b Bytecode) Bytes() ([]byte, error) {
	h := strings.TrimSpace(b.hex)
	if h == "" || h == "0x" {
		return nil, ErrNoBytecode
	}
	if strings.Contains(h, "__") {
		return nil, ErrUnlinkedLibrary
	}
	if !strings.HasPrefix(h, "0x") {
		h = "0x" + h
	}
	code, err := hexutil.Decode(h)
	if err != nil {
		return nil, fmt.Errorf("%w: decode bytecode: %v", ErrMalformedArtifact, err)
	}
	return code, nil
}

// foundryMetadata is the subset of Foundry's metadata holding the compiler version.
type foundryMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
}

// parseArtifact decodes an artifact file. fallbackName is used when the file
// does not carry contractName (Foundry).
func parseArtifact(data []byte, path, fallbackName string) (*Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedArtifact, path, err)
	}
	if len(raw.ABI) == 0 {
		return nil, fmt.Errorf("%w: %s: missing abi", ErrMalformedArtifact, path)
	}

	parsedABI, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parse abi: %v", ErrMalformedArtifact, path, err)
	}

	name := raw.ContractName
	if name == "" {
		name = fallbackName
	}

	code, err := raw.Bytecode.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", name, path, err)
	}

	a := &Artifact{
		ContractName: name,
		SourceName:   raw.SourceName,
		ABI:          parsedABI,
		Bytecode:     code,
		Path:         path,
	}

	if len(raw.Metadata) > 0 {
		var md foundryMetadata
		// Older Foundry versions store metadata as a string; the version is then left unknown.
		if err := json.Unmarshal(raw.Metadata, &md); err == nil {
			a.SolcVersion = md.Compiler.Version
		}
	}

	return a, nil
}
