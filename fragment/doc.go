// Package fragment builds the tenant templates query fragment substituted
// for the $templates token.
//
// For a context node the Builder locates the tenant templates root through
// the site settings node, then scans the root's descendants for templates
// that inherit from Page. The result is a query fragment of the form
//
//	/sitecore/templates/Tenant1//*[@@id='{A}' or @@id='{B}']
//
// Fragments are cached by the root's full path in a cache.Loader shared with
// the invalidation listener. When no templates root can be resolved the
// global fallback is returned:
//
//	/sitecore/templates//*[@@templatename='Template']
package fragment
