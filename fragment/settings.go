package fragment

import (
	"fmt"
	"strings"

	"github.com/jonwraymond/sitetokens/content"
)

// TenantSettings is the typed view of the settings a Builder reads from a
// site settings node.
type TenantSettings struct {
	TemplatesRoot content.ID
}

// ParseTenantSettings reads field from settings and validates it as a node
// identifier. It returns ErrNoSettings for a nil node, ErrNoTemplatesRoot for
// an empty value and ErrInvalidTemplatesRoot (wrapping content.ErrInvalidID)
// for a malformed one.
func ParseTenantSettings(settings *content.Node, field string) (TenantSettings, error) {
	if settings == nil {
		return TenantSettings{}, ErrNoSettings
	}
	raw := strings.TrimSpace(settings.Field(field))
	if raw == "" {
		return TenantSettings{}, fmt.Errorf("%w: field %q on %s", ErrNoTemplatesRoot, field, settings.FullPath())
	}
	id, err := content.ParseID(raw)
	if err != nil {
		return TenantSettings{}, fmt.Errorf("%w: %w", ErrInvalidTemplatesRoot, err)
	}
	return TenantSettings{TemplatesRoot: id}, nil
}
