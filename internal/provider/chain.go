package provider

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Role is a discovery provider's position in the enrichment chain.
type Role string

const (
	// RolePrimary runs first unless the domain looks content-heavy or the
	// provider's quota gate is open.
	RolePrimary Role = "primary"
	// RoleSecondary runs whenever it is available.
	RoleSecondary Role = "secondary"
	// RoleTertiary runs only when no secondary is available and the primary
	// produced nothing or ran out of quota.
	RoleTertiary Role = "tertiary"
)

// ChainConfig orders the providers used for each capability.
type ChainConfig struct {
	Search     string            `yaml:"search"`
	Authority  []string          `yaml:"authority"`
	Discovery  []DiscoveryConfig `yaml:"discovery"`
	Validation string            `yaml:"validation"`
}

// DiscoveryConfig places one discovery provider in the chain.
type DiscoveryConfig struct {
	Name string `yaml:"name"`
	Role Role   `yaml:"role"`
}

// DefaultChainConfig is used when no chain file is configured.
func DefaultChainConfig() *ChainConfig {
	return &ChainConfig{
		Search:    NameSERP,
		Authority: []string{NameOpenPageRank, NameSERPAuthority},
		Discovery: []DiscoveryConfig{
			{Name: NameHunter, Role: RolePrimary},
			{Name: NameContacts, Role: RoleSecondary},
			{Name: NameSERPScan, Role: RoleTertiary},
		},
		Validation: NameZeroBounce,
	}
}

// LoadChainConfig reads the chain from a YAML file. Sections missing from the
// file keep their defaults.
func LoadChainConfig(path string) (*ChainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: read chain config %s", path)
	}
	return ParseChainConfig(data)
}

// ParseChainConfig parses a chain from YAML. The document has a top-level
// "providers" key.
func ParseChainConfig(data []byte) (*ChainConfig, error) {
	var wrapper struct {
		Providers ChainConfig `yaml:"providers"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "provider: parse chain config")
	}

	cfg := &wrapper.Providers
	def := DefaultChainConfig()
	if cfg.Search == "" {
		cfg.Search = def.Search
	}
	if len(cfg.Authority) == 0 {
		cfg.Authority = def.Authority
	}
	if len(cfg.Discovery) == 0 {
		cfg.Discovery = def.Discovery
	}
	if cfg.Validation == "" {
		cfg.Validation = def.Validation
	}
	for i := range cfg.Discovery {
		cfg.Discovery[i].Role = Role(strings.ToLower(string(cfg.Discovery[i].Role)))
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ChainConfig) validate() error {
	seen := make(map[Role]bool)
	for _, d := range c.Discovery {
		if d.Name == "" {
			return eris.New("provider: discovery entry without name")
		}
		switch d.Role {
		case RolePrimary, RoleSecondary, RoleTertiary:
		default:
			return eris.Errorf("provider: discovery %q has unknown role %q", d.Name, d.Role)
		}
		if seen[d.Role] {
			return eris.Errorf("provider: more than one %s discovery provider", d.Role)
		}
		seen[d.Role] = true
	}
	return nil
}

// Resolve looks every configured name up in the registry. Names that are not
// registered, or that lack the required capability, are reported together.
func (c *ChainConfig) Resolve(r *Registry) (*Resolved, error) {
	var missing []string
	out := &Resolved{}

	if s, ok := r.Searcher(c.Search); ok {
		out.Search = s
	} else {
		missing = append(missing, c.Search)
	}

	var auth []AuthorityProvider
	for _, name := range c.Authority {
		a, ok := r.Authority(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		auth = append(auth, a)
	}
	out.Authority = NewAuthorityChain(auth...)

	for _, d := range c.Discovery {
		disc, ok := r.Discoverer(d.Name)
		if !ok {
			missing = append(missing, d.Name)
			continue
		}
		out.Discovery = append(out.Discovery, Step{Provider: disc, Role: d.Role})
	}

	if c.Validation != "" {
		v, ok := r.Validator(c.Validation)
		if !ok {
			missing = append(missing, c.Validation)
		} else {
			out.Validation = v
		}
	}

	if len(missing) > 0 {
		return nil, eris.Errorf("provider: unknown or incapable providers: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Step is one resolved discovery provider and its role.
type Step struct {
	Provider EmailDiscoverer
	Role     Role
}

// Resolved is a chain with every name bound to an adapter.
type Resolved struct {
	Search     Searcher
	Authority  *AuthorityChain
	Discovery  []Step
	Validation EmailValidator
}
