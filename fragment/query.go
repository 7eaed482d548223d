package fragment

import "strings"

// TemplateNamePredicate returns the generic predicate matching every node
// whose template name is name.
func TemplateNamePredicate(name string) string {
	return "@@templatename='" + name + "'"
}

// IDPredicate returns an OR-clause matching any of ids, in order.
// It returns "" for no ids.
func IDPredicate(ids []string) string {
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(" or ")
		}
		sb.WriteString("@@id='")
		sb.WriteString(id)
		sb.WriteString("'")
	}
	return sb.String()
}

// Query joins a root path and a predicate into a descendant query fragment.
func Query(rootPath, predicate string) string {
	return rootPath + "//*[" + predicate + "]"
}
