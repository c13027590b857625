// Package network assembles the immutable descriptor used to reach a chain and sign for it.
package network

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Bidon15/nftst-deployer/internal/config"
)

// ErrUnknownNetwork is returned when no registered network matches the requested name.
var ErrUnknownNetwork = errors.New("network: unknown network")

// Definition describes a known network. URLTemplate contains a single %s that
// receives the API key.
type Definition struct {
	Name        string
	ChainID     int64
	URLTemplate string
}

// Known networks. Sepolia is reached through Alchemy.
var registry = map[string]Definition{
	"sepolia": {
		Name:        "sepolia",
		ChainID:     11155111,
		URLTemplate: "https://eth-sepolia.g.alchemy.com/v2/%s",
	},
}

// Lookup returns the definition for name.
func Lookup(name string) (Definition, error) {
	def, ok := registry[strings.ToLower(name)]
	if !ok {
		return Definition{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownNetwork, name, strings.Join(Names(), ", "))
	}
	return def, nil
}

// Names returns the registered network names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Network is the connection descriptor handed to the deployment step.
// It has no behavior beyond redacted rendering; treat it as read-only.
type Network struct {
	Name     string
	ChainID  int64
	URL      string
	Accounts []string

	secrets []string
}

// New builds the descriptor for the named network from validated secrets.
// The API key is substituted into the URL template verbatim and the private
// key becomes the single account.
func New(name string, secrets *config.Secrets) (*Network, error) {
	def, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	return &Network{
		Name:     def.Name,
		ChainID:  def.ChainID,
		URL:      fmt.Sprintf(def.URLTemplate, secrets.AlchemyAPIKey),
		Accounts: []string{secrets.PrivateKey},
		secrets:  []string{secrets.AlchemyAPIKey, secrets.PrivateKey},
	}, nil
}

// RedactedURL returns URL with the path segment holding the API key masked.
func (n *Network) RedactedURL() string {
	idx := strings.LastIndex(n.URL, "/")
	if idx < 0 || idx == len(n.URL)-1 {
		return n.URL
	}
	return n.URL[:idx+1] + "<redacted>"
}

// minRedactLen is the shortest secret Redact masks outside the URL.
const minRedactLen = 8

// Redact masks the endpoint URL and any secret the descriptor was built from.
// Transport errors quote the request URL, so anything printed from the
// deployment path goes through here.
func (n *Network) Redact(s string) string {
	if n.URL != "" {
		s = strings.ReplaceAll(s, n.URL, n.RedactedURL())
	}
	for _, secret := range n.secrets {
		// Shorter values are not masked as substrings; they would mangle unrelated text.
		if len(secret) >= minRedactLen {
			s = strings.ReplaceAll(s, secret, "<redacted>")
		}
	}
	return s
}

// String implements fmt.Stringer without exposing secrets.
func (n *Network) String() string {
	return fmt.Sprintf("%s (chain_id=%d, url=%s, accounts=%d)", n.Name, n.ChainID, n.RedactedURL(), len(n.Accounts))
}

// LogValue implements slog.LogValuer without exposing secrets.
func (n *Network) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", n.Name),
		slog.Int64("chain_id", n.ChainID),
		slog.String("url", n.RedactedURL()),
		slog.Int("accounts", len(n.Accounts)),
	)
}
