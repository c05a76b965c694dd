package ai

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFunction is returned when a function name is not in the catalogue.
var ErrUnknownFunction = errors.New("unknown AI function")

//go:embed functions.yaml
var functionsYAML []byte

// Function is one named AI function of the catalogue.
type Function struct {
	Name         string   `yaml:"-"`
	Instruction  string   `yaml:"instruction"`
	BrandContext bool     `yaml:"brand_context"`
	Temperature  *float32 `yaml:"temperature"`
}

// Catalogue maps function names to their definitions.
type Catalogue struct {
	preamble    string
	temperature float32
	functions   map[string]Function
}

type catalogueFile struct {
	Defaults struct {
		Temperature float32 `yaml:"temperature"`
		Preamble    string  `yaml:"preamble"`
	} `yaml:"defaults"`
	Functions map[string]Function `yaml:"functions"`
}

// DefaultCatalogue parses the embedded function catalogue.
func DefaultCatalogue() (*Catalogue, error) {
	return ParseCatalogue(functionsYAML)
}

// ParseCatalogue parses a YAML function catalogue.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse function catalogue: %w", err)
	}
	if len(f.Functions) == 0 {
		return nil, errors.New("function catalogue is empty")
	}

	c := &Catalogue{
		preamble:    strings.TrimSpace(f.Defaults.Preamble),
		temperature: f.Defaults.Temperature,
		functions:   make(map[string]Function, len(f.Functions)),
	}
	for name, fn := range f.Functions {
		if strings.TrimSpace(fn.Instruction) == "" {
			return nil, fmt.Errorf("function %q has no instruction", name)
		}
		fn.Name = name
		if fn.Temperature == nil {
			t := c.temperature
			fn.Temperature = &t
		}
		c.functions[name] = fn
	}
	return c, nil
}

// Lookup returns the function called name.
func (c *Catalogue) Lookup(name string) (Function, error) {
	fn, ok := c.functions[name]
	if !ok {
		return Function{}, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return fn, nil
}

// Names lists the catalogue's function names, sorted.
func (c *Catalogue) Names() []string {
	names := make([]string, 0, len(c.functions))
	for name := range c.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SystemInstruction is the full system prompt of fn.
func (c *Catalogue) SystemInstruction(fn Function) string {
	return c.preamble + "\n\n" + strings.TrimSpace(fn.Instruction)
}
