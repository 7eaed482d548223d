package content

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Fixture is the YAML description of a content tree.
//
//	database: master
//	page_template_id: "{2B3E0A6F-4C1D-4E8A-9F70-5D6C7B8A9E01}"
//	nodes:
//	  - path: /sitecore
//	  - path: /sitecore/templates
//	  - path: /sitecore/templates/Tenant1/T1
//	    id: "{111}"
//	    template: Template
//	    bases: ["{2B3E0A6F-4C1D-4E8A-9F70-5D6C7B8A9E01}"]
//
// Nodes are created in order, so parents must be listed before children.
type Fixture struct {
	Database       string        `yaml:"database" validate:"required"`
	PageTemplateID string        `yaml:"page_template_id"`
	Nodes          []FixtureNode `yaml:"nodes" validate:"dive"`
}

// FixtureNode describes a single node in a Fixture.
type FixtureNode struct {
	Path       string            `yaml:"path" validate:"required,startswith=/"`
	ID         string            `yaml:"id"`
	Template   string            `yaml:"template"`
	TemplateID string            `yaml:"template_id"`
	Bases      []string          `yaml:"bases"`
	Fields     map[string]string `yaml:"fields"`
}

var fixtureValidate = validator.New()

// LoadFixture decodes a fixture from r and builds a MemoryStore from it.
// Options are applied after the fixture's own page template, so they may
// override it. A publisher passed in opts only sees mutations made after
// loading completes.
func LoadFixture(ctx context.Context, r io.Reader, opts ...MemoryStoreOption) (*MemoryStore, error) {
	var f Fixture
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("content: decode fixture: %w", err)
	}
	if err := fixtureValidate.Struct(f); err != nil {
		return nil, fmt.Errorf("content: invalid fixture: %w", err)
	}

	all := make([]MemoryStoreOption, 0, len(opts)+1)
	if f.PageTemplateID != "" {
		page, err := ParseID(f.PageTemplateID)
		if err != nil {
			return nil, fmt.Errorf("content: fixture page_template_id: %w", err)
		}
		all = append(all, WithPageTemplate(page))
	}
	all = append(all, opts...)
	store := NewMemoryStore(f.Database, all...)

	publisher := store.publisher
	store.publisher = nil
	for i, fn := range f.Nodes {
		bases := make([]ID, 0, len(fn.Bases))
		for _, b := range fn.Bases {
			bases = append(bases, ID(b))
		}
		_, err := store.Create(ctx, Node{
			ID:            ID(fn.ID),
			Path:          ParsePath(fn.Path),
			TemplateName:  fn.Template,
			TemplateID:    ID(fn.TemplateID),
			Fields:        fn.Fields,
			BaseTemplates: bases,
		})
		if err != nil {
			return nil, fmt.Errorf("content: fixture node %d (%s): %w", i, fn.Path, err)
		}
	}
	store.publisher = publisher
	return store, nil
}

// LoadFixtureFile opens path and calls LoadFixture.
func LoadFixtureFile(ctx context.Context, path string, opts ...MemoryStoreOption) (*MemoryStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("content: open fixture: %w", err)
	}
	defer f.Close()
	return LoadFixture(ctx, f, opts...)
}
