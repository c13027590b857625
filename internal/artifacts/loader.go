package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader resolves artifacts by name from a build-output directory.
// Both the Hardhat layout (artifacts/contracts/**/X.sol/X.json) and the
// Foundry layout (out/X.sol/X.json) are recognised.
type Loader struct {
	root string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{root: dir}
}

// Load resolves name, either a bare contract name ("NFTst") or a fully qualified
// name ("contracts/NFTst.sol:NFTst"). Candidates are matched on their names first;
// only the selected artifact has its ABI and bytecode validated.
func (l *Loader) Load(name string) (*Artifact, error) {
	sourceName, contractName := splitQualifiedName(name)
	if contractName == "" {
		return nil, fmt.Errorf("%w: empty contract name", ErrArtifactNotFound)
	}

	paths, err := l.find(contractName)
	if err != nil {
		return nil, err
	}

	var matches []candidate
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read artifact %s: %w", path, err)
		}

		var header artifactHeader
		if err := json.Unmarshal(data, &header); err != nil {
			if sourceName != "" && !dirMatchesSource(path, sourceName) {
				continue
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedArtifact, path, err)
		}
		if sourceName != "" && !matchesSource(header.SourceName, path, sourceName) {
			continue
		}
		matches = append(matches, candidate{path: path, data: data})
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s in %s", ErrArtifactNotFound, name, l.root)
	case 1:
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.path)
		}
		return nil, fmt.Errorf("%w: %s (%s); use a fully qualified name",
			ErrAmbiguousArtifact, name, strings.Join(names, ", "))
	}

	a, err := parseArtifact(matches[0].data, matches[0].path, contractName)
	if err != nil {
		return nil, err
	}
	if a.SolcVersion == "" {
		a.SolcVersion = readHardhatSolcVersion(a.Path)
	}
	return a, nil
}

type candidate struct {
	path string
	data []byte
}

// artifactHeader is the part of an artifact needed to tell same-named contracts apart.
type artifactHeader struct {
	SourceName string `json:"sourceName"`
}

// find returns every X.json that sits in a *.sol directory, skipping build-info and debug files.
func (l *Loader) find(contractName string) ([]string, error) {
	if _, err := os.Stat(l.root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: artifacts directory %s does not exist (compile the contracts first)",
				ErrArtifactNotFound, l.root)
		}
		return nil, fmt.Errorf("stat artifacts directory: %w", err)
	}

	want := contractName + ".json"
	var paths []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != want {
			return nil
		}
		if !strings.HasSuffix(filepath.Base(filepath.Dir(path)), ".sol") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk artifacts directory: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

func splitQualifiedName(name string) (source, contract string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// matchesSource compares against the recorded sourceName (Hardhat) or the
// enclosing X.sol directory (Foundry, which does not record the full path).
func matchesSource(recorded, path, sourceName string) bool {
	if recorded != "" {
		return recorded == sourceName
	}
	return filepath.Base(filepath.Dir(path)) == filepath.Base(sourceName)
}

// dirMatchesSource reports whether the artifact directory mirrors sourceName,
// as Hardhat lays out artifacts/<sourceName>/<Name>.json.
func dirMatchesSource(path, sourceName string) bool {
	dir := filepath.ToSlash(filepath.Dir(path))
	return dir == sourceName || strings.HasSuffix(dir, "/"+sourceName)
}

// readHardhatSolcVersion follows X.dbg.json to the build-info file and returns
// its solcVersion, or "" if either file is absent or unreadable.
func readHardhatSolcVersion(artifactPath string) string {
	dbgPath := strings.TrimSuffix(artifactPath, ".json") + ".dbg.json"
	data, err := os.ReadFile(dbgPath)
	if err != nil {
		return ""
	}

	var dbg struct {
		BuildInfo string `json:"buildInfo"`
	}
	if err := json.Unmarshal(data, &dbg); err != nil || dbg.BuildInfo == "" {
		return ""
	}

	f, err := os.Open(filepath.Join(filepath.Dir(dbgPath), filepath.FromSlash(dbg.BuildInfo)))
	if err != nil {
		return ""
	}
	defer f.Close()

	var info struct {
		SolcVersion string `json:"solcVersion"`
	}
	if err := json.NewDecoder(f).Decode(&info); err != nil {
		return ""
	}
	return info.SolcVersion
}
