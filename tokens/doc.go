// Package tokens substitutes multisite tokens in content queries.
//
// Supported tokens, resolved in this order:
//
//	$tenant     full path of the tenant owning the context node
//	$siteMedia  full path of the site's media folder
//	$site       full path of the site owning the context node
//	$home       start path of the site
//	$templates  tenant templates query fragment
//
// A token only matches when it is not followed by a letter, digit or
// underscore, so $site never matches inside $siteMedia. Tokens are resolved
// only when present. A token whose target cannot be found is left in the
// query unchanged.
//
// Resolver is one Processor; Pipeline runs a sequence of processors over the
// same Args, tracing each stage.
package tokens
