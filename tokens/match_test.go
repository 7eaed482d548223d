package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContains(t *testing.T) {
	tests := []struct {
		query, tok string
		want       bool
	}{
		{"$site/Home", Site, true},
		{"$siteMedia/Images", Site, false},
		{"$siteMedia/Images", SiteMedia, true},
		{"x|$site", Site, true},
		{"$site_x", Site, false},
		{"$site1", Site, false},
		{"$siteMedia|$site", Site, true},
		{"", Site, false},
		{"$templates", Templates, true},
	}
	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.tok, func(t *testing.T) {
			assert.Equal(t, tt.want, Contains(tt.query, tt.tok))
		})
	}
}

func TestReplace(t *testing.T) {
	tests := []struct {
		name, query, tok, value, want string
	}{
		{"single", "$site/Home", Site, "/s", "/s/Home"},
		{"every occurrence", "$site|$site//*", Site, "/s", "/s|/s//*"},
		{"skips longer token", "$siteMedia|$site", Site, "/s", "$siteMedia|/s"},
		{"absent", "query", Site, "/s", "query"},
		{"value containing token is not rescanned", "$site", Site, "$site/x", "$site/x"},
		{"adjacent", "$site$site", Site, "a", "aa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Replace(tt.query, tt.tok, tt.value))
		})
	}
}

func TestEscapePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/sitecore/content/Tenant1", "/sitecore/content/Tenant1"},
		{"/sitecore/content/Tenant1/Home/About Us", "/sitecore/content/Tenant1/Home/#About Us#"},
		{"/sitecore/content/Tenant3/Site-3/Home", "/sitecore/content/Tenant3/#Site-3#/Home"},
		{"/sitecore/content/#Site-3#", "/sitecore/content/#Site-3#"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapePath(tt.in))
	}
}
