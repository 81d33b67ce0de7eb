// internal/pageobject/base_page.go
package pageobject

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
	"github.com/xkilldash9x/vfit-e2e/internal/interaction"
)

// Navigator loads a URL in the tab. browser.Session implements it.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// BasePage binds a catalog page to a tab. Page objects embed it and expose
// semantic actions in terms of element names instead of raw selectors.
type BasePage struct {
	page    Page
	helper  *interaction.Helper
	nav     Navigator
	baseURL string
}

// NewBasePage binds the named catalog page to helper and nav.
func NewBasePage(catalog *Catalog, name string, helper *interaction.Helper, nav Navigator, baseURL string) (*BasePage, error) {
	page, err := catalog.Page(name)
	if err != nil {
		return nil, err
	}
	return &BasePage{page: page, helper: helper, nav: nav, baseURL: baseURL}, nil
}

// Name returns the catalog name of the page.
func (p *BasePage) Name() string { return p.page.Name }

// Helper exposes the interaction helper for actions the catalog does not cover.
func (p *BasePage) Helper() *interaction.Helper { return p.helper }

// Selector resolves an element name.
func (p *BasePage) Selector(element string) (string, error) {
	return p.page.Selector(element)
}

// URL resolves the page URL against the base URL.
func (p *BasePage) URL() (string, error) {
	return resolveURL(p.baseURL, p.page.URL)
}

func resolveURL(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", ref, err)
	}
	if r.IsAbs() || base == "" {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	return b.ResolveReference(r).String(), nil
}

// Open navigates to the page.
func (p *BasePage) Open(ctx context.Context) schemas.ActionResult {
	start := time.Now()
	target, err := p.URL()
	if err != nil {
		return schemas.Failure(p.page.URL, "%v", err)
	}
	if p.nav == nil {
		return schemas.Failure(target, "page %q has no navigator", p.page.Name)
	}
	if err := p.nav.Navigate(ctx, target); err != nil {
		return schemas.Failure(target, "%v", err)
	}
	result := schemas.Success(target)
	result.Attempts = 1
	result.Duration = time.Since(start)
	return result
}

// AssertAt checks the tab is on this page, using Match when set.
func (p *BasePage) AssertAt(ctx context.Context) schemas.ActionResult {
	expected := p.page.Match
	if expected == "" {
		var err error
		if expected, err = p.URL(); err != nil {
			return schemas.Failure("", "%v", err)
		}
	}
	return p.helper.AssertLink(ctx, expected)
}

// with resolves element and runs fn on its selector. Unknown names are failures.
func (p *BasePage) with(element string, fn func(selector string) schemas.ActionResult) schemas.ActionResult {
	sel, err := p.page.Selector(element)
	if err != nil {
		return schemas.Failure(element, "%v", err)
	}
	return fn(sel)
}

// Click clicks element.
func (p *BasePage) Click(ctx context.Context, element string) schemas.ActionResult {
	return p.with(element, func(sel string) schemas.ActionResult { return p.helper.ClickElement(ctx, sel) })
}

// ClickOrForce clicks element, falling back to a force click.
func (p *BasePage) ClickOrForce(ctx context.Context, element string) schemas.ActionResult {
	return p.with(element, func(sel string) schemas.ActionResult { return p.helper.ClickOrForce(ctx, sel) })
}

// ForceClick force-clicks element using the configured force-click policy.
func (p *BasePage) ForceClick(ctx context.Context, element string) schemas.ActionResult {
	policy := p.helper.Config().ForceClickRetry.Normalize()
	return p.with(element, func(sel string) schemas.ActionResult {
		return p.helper.ForceClickWithRetry(ctx, sel, policy.MaxAttempts, policy.Delay)
	})
}

// Fill clears element and types value.
func (p *BasePage) Fill(ctx context.Context, element, value string) schemas.ActionResult {
	return p.with(element, func(sel string) schemas.ActionResult { return p.helper.FillInput(ctx, sel, value) })
}

// Upload sets filePath on the file input element.
func (p *BasePage) Upload(ctx context.Context, element, filePath string) schemas.ActionResult {
	return p.with(element, func(sel string) schemas.ActionResult { return p.helper.FileUpload(ctx, sel, filePath) })
}

// UploadWithLimit uploads filePath unless it exceeds maxKB.
func (p *BasePage) UploadWithLimit(ctx context.Context, element, filePath string, maxKB float64) schemas.ActionResult {
	return p.with(element, func(sel string) schemas.ActionResult {
		return p.helper.FileUploadWithLimit(ctx, sel, filePath, maxKB)
	})
}

// WaitFor waits for element to become visible.
func (p *BasePage) WaitFor(ctx context.Context, element string, timeout time.Duration) schemas.ActionResult {
	return p.with(element, func(sel string) schemas.ActionResult { return p.helper.WaitForElement(ctx, sel, timeout) })
}

// AssertText compares the text of element with expected.
func (p *BasePage) AssertText(ctx context.Context, element, expected string) schemas.ActionResult {
	return p.with(element, func(sel string) schemas.ActionResult { return p.helper.AssertText(ctx, sel, expected) })
}
