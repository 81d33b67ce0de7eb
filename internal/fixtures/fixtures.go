// internal/fixtures/fixtures.go
package fixtures

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-playground/validator/v10"
	json "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
)

// ErrMissingParameter is returned when a lookup names a parameter the fixture does not define.
var ErrMissingParameter = errors.New("missing fixture parameter")

// strictJSON rejects unknown keys so a typo in a fixture fails at load time.
var strictJSON = json.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// Credentials is one login identity.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Task is one activity configured in a challenge week.
type Task struct {
	Name   string `json:"name" validate:"required"`
	Target int    `json:"target" validate:"gte=0"`
	Unit   string `json:"unit"`
	Week   int    `json:"week" validate:"gte=0"`
}

// Challenge holds the parameters of the challenge a journey creates.
type Challenge struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Type        string `json:"type"`
	StartDate   Date   `json:"startDate"`
	EndDate     Date   `json:"endDate"`
	Weeks       int    `json:"weeks" validate:"gte=0"`
	Tasks       []Task `json:"tasks" validate:"dive"`
}

// Upload is a file a journey attaches, with an optional size limit in KB.
type Upload struct {
	Path  string  `json:"path" validate:"required"`
	MaxKB float64 `json:"maxKB" validate:"gte=0"`
}

// Parameters is the literal test input of a journey.
type Parameters struct {
	Credentials map[string]Credentials `json:"credentials" validate:"dive,keys,required,endkeys"`
	Challenge   *Challenge             `json:"challenge" validate:"omitempty"`
	Uploads     map[string]Upload      `json:"uploads" validate:"dive,keys,required,endkeys"`
	Values      map[string]string      `json:"values"`

	source string
}

// Source returns the path the parameters were loaded from, if any.
func (p *Parameters) Source() string { return p.source }

// Credential returns the credentials for role.
func (p *Parameters) Credential(role string) (Credentials, error) {
	c, ok := p.Credentials[role]
	if !ok {
		return Credentials{}, fmt.Errorf("%w: credentials %q", ErrMissingParameter, role)
	}
	return c, nil
}

// Upload returns the named upload with its path already resolved.
func (p *Parameters) Upload(name string) (Upload, error) {
	u, ok := p.Uploads[name]
	if !ok {
		return Upload{}, fmt.Errorf("%w: upload %q", ErrMissingParameter, name)
	}
	return u, nil
}

// Value returns a free-form value.
func (p *Parameters) Value(key string) (string, bool) {
	v, ok := p.Values[key]
	return v, ok
}

// Keys returns the free-form value keys in sorted order.
func (p *Parameters) Keys() []string {
	keys := make([]string, 0, len(p.Values))
	for k := range p.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateChallengeDates, Challenge{})
	return v
}

// validateChallengeDates requires both dates and a non-inverted range.
func validateChallengeDates(sl validator.StructLevel) {
	c := sl.Current().Interface().(Challenge)
	if c.StartDate.IsZero() {
		sl.ReportError(c.StartDate, "StartDate", "startDate", "required", "")
	}
	if c.EndDate.IsZero() {
		sl.ReportError(c.EndDate, "EndDate", "endDate", "required", "")
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate.Time) {
		sl.ReportError(c.EndDate, "EndDate", "endDate", "gtefield", "StartDate")
	}
}

// Load reads, validates and resolves a fixture file. A leading ~ in path or in
// upload paths is expanded; relative upload paths resolve against the fixture's directory.
func Load(path string) (*Parameters, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("could not expand fixture path %q: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	params, err := Parse(data, filepath.Dir(expanded))
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", expanded, err)
	}
	if params.source, err = filepath.Abs(expanded); err != nil {
		return nil, err
	}
	return params, nil
}

// Parse decodes and validates fixture JSON. Relative upload paths resolve against baseDir.
func Parse(data []byte, baseDir string) (*Parameters, error) {
	var params Parameters
	if err := strictJSON.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	if err := newValidator().Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}

	for name, u := range params.Uploads {
		resolved, err := resolvePath(u.Path, baseDir)
		if err != nil {
			return nil, fmt.Errorf("upload %q: %w", name, err)
		}
		u.Path = resolved
		params.Uploads[name] = u
	}
	return &params, nil
}

func resolvePath(p, baseDir string) (string, error) {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) && baseDir != "" {
		expanded = filepath.Join(baseDir, expanded)
	}
	return filepath.Abs(expanded)
}
