// Package catalog loads the industry role catalog and the student profile options.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/jonathan/skill-gap-analyzer/internal/schemas"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed roles.yaml
var defaultCatalog []byte

// InvariantError reports catalog data that is well-formed but inconsistent.
type InvariantError struct {
	RoleID  string
	Message string
}

func (e *InvariantError) Error() string {
	if e.RoleID != "" {
		return fmt.Sprintf("role catalog: role %q: %s", e.RoleID, e.Message)
	}
	return fmt.Sprintf("role catalog: %s", e.Message)
}

// Options are the choices offered on the student profile form.
type Options struct {
	Skills   []string `json:"skills"`
	Branches []string `json:"branches"`
	Years    []int    `json:"years"`
}

type document struct {
	Roles    []types.RoleCatalogEntry `yaml:"roles"`
	Skills   []string                 `yaml:"skills"`
	Branches []string                 `yaml:"branches"`
	Years    []int                    `yaml:"years"`
}

// Catalog is read-only after Load and safe for concurrent use.
type Catalog struct {
	roles []types.RoleCatalogEntry
	byID  map[string]int
	opts  Options
}

// Load parses the catalog embedded in the binary.
func Load() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile parses a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML catalog data, validates it against the role catalog schema and checks
// cross-field invariants.
func Parse(data []byte) (*Catalog, error) {
	var generic map[string]interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("failed to parse role catalog: %w", err)
	}
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("failed to convert role catalog: %w", err)
	}
	if err := schemas.ValidateBytes(schemas.RoleCatalog, asJSON); err != nil {
		return nil, fmt.Errorf("invalid role catalog: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode role catalog: %w", err)
	}
	return build(doc)
}

func build(doc document) (*Catalog, error) {
	c := &Catalog{
		roles: make([]types.RoleCatalogEntry, 0, len(doc.Roles)),
		byID:  make(map[string]int, len(doc.Roles)),
		opts: Options{
			Skills:   nonNil(doc.Skills),
			Branches: nonNil(doc.Branches),
			Years:    nonNil(doc.Years),
		},
	}

	for _, role := range doc.Roles {
		if err := checkRole(role); err != nil {
			return nil, err
		}
		if _, dup := c.byID[role.ID]; dup {
			return nil, &InvariantError{RoleID: role.ID, Message: "duplicate role id"}
		}
		role.RequiredSkills = nonNil(role.RequiredSkills)
		role.PrioritySkills = nonNil(role.PrioritySkills)
		c.byID[role.ID] = len(c.roles)
		c.roles = append(c.roles, role)
	}
	return c, nil
}

func checkRole(role types.RoleCatalogEntry) error {
	required := make(map[string]struct{}, len(role.RequiredSkills))
	for _, s := range role.RequiredSkills {
		if !s.Priority.Valid() {
			return &InvariantError{RoleID: role.ID, Message: fmt.Sprintf("skill %q has unknown priority %q", s.Name, s.Priority)}
		}
		if _, dup := required[s.Name]; dup {
			return &InvariantError{RoleID: role.ID, Message: fmt.Sprintf("skill %q listed twice", s.Name)}
		}
		required[s.Name] = struct{}{}
	}
	for _, p := range role.PrioritySkills {
		if _, ok := required[p]; !ok {
			return &InvariantError{RoleID: role.ID, Message: fmt.Sprintf("priority skill %q is not a required skill", p)}
		}
	}
	return nil
}

// Roles returns every role in catalog order.
func (c *Catalog) Roles() []types.RoleCatalogEntry {
	return slices.Clone(c.roles)
}

// Get looks a role up by id.
func (c *Catalog) Get(id string) (types.RoleCatalogEntry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.RoleCatalogEntry{}, false
	}
	return c.roles[i], true
}

// FindByName looks a role up by display name, ignoring case.
func (c *Catalog) FindByName(name string) (types.RoleCatalogEntry, bool) {
	name = strings.TrimSpace(name)
	for _, r := range c.roles {
		if strings.EqualFold(r.RoleName, name) {
			return r, true
		}
	}
	return types.RoleCatalogEntry{}, false
}

// Resolve accepts either a role id or a role name.
func (c *Catalog) Resolve(idOrName string) (types.RoleCatalogEntry, bool) {
	if r, ok := c.Get(idOrName); ok {
		return r, true
	}
	return c.FindByName(idOrName)
}

// Skills returns the skill picker list.
func (c *Catalog) Skills() []string { return slices.Clone(c.opts.Skills) }

// Branches returns the academic branches a student may choose.
func (c *Catalog) Branches() []string { return slices.Clone(c.opts.Branches) }

// Years returns the study years a student may choose.
func (c *Catalog) Years() []int { return slices.Clone(c.opts.Years) }

// Options returns the profile form options.
func (c *Catalog) Options() Options {
	return Options{Skills: c.Skills(), Branches: c.Branches(), Years: c.Years()}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
