// internal/pageobject/catalog.go
package pageobject

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownPage is returned when a page name is not in the catalog.
	ErrUnknownPage = errors.New("unknown page")
	// ErrUnknownElement is returned when an element name is not defined for a page.
	ErrUnknownElement = errors.New("unknown element")
)

// Page is one view of the application: where it lives and the selectors of
// the elements tests act on.
type Page struct {
	Name string `yaml:"-"`
	// URL is absolute or relative to the suite base URL.
	URL string `yaml:"url"`
	// Match is an optional AssertLink expectation identifying the page when
	// its URL carries ids or query strings. Defaults to the resolved URL.
	Match    string            `yaml:"match"`
	Elements map[string]string `yaml:"elements" validate:"required,min=1,dive,keys,required,endkeys,required"`
}

// Selector returns the selector registered for element.
func (p Page) Selector(element string) (string, error) {
	sel, ok := p.Elements[element]
	if !ok {
		return "", fmt.Errorf("%w %q on page %q", ErrUnknownElement, element, p.Name)
	}
	return sel, nil
}

// ElementNames returns the element names in sorted order.
func (p Page) ElementNames() []string {
	names := make([]string, 0, len(p.Elements))
	for name := range p.Elements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog maps page names to their definitions.
type Catalog struct {
	Pages map[string]Page `yaml:"pages" validate:"required,min=1,dive"`
}

// LoadCatalog reads a YAML catalog from path. A leading ~ is expanded.
func LoadCatalog(path string) (*Catalog, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("could not expand catalog path %q: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", expanded, err)
	}
	return catalog, nil
}

// ParseCatalog decodes and validates a YAML catalog. Unknown keys are rejected
// so a misspelled "elements" block fails loudly instead of producing an empty page.
func ParseCatalog(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var catalog Catalog
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := validator.New().Struct(&catalog); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	for name, page := range catalog.Pages {
		page.Name = name
		catalog.Pages[name] = page
	}
	return &catalog, nil
}

// Page returns the named page.
func (c *Catalog) Page(name string) (Page, error) {
	page, ok := c.Pages[name]
	if !ok {
		return Page{}, fmt.Errorf("%w %q", ErrUnknownPage, name)
	}
	return page, nil
}

// PageNames returns the page names in sorted order.
func (c *Catalog) PageNames() []string {
	names := make([]string, 0, len(c.Pages))
	for name := range c.Pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
