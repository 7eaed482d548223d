// Package service wires the token resolution components together.
//
// New builds, from a config.Config, one content store, one event bus, one
// fragment cache with its loader, the fragment builder, the invalidation
// listener (registered on the bus), the token resolver and the pipeline that
// runs it. Every caller of a Service shares the same cache, and mutations
// made through the store evict the affected fragments before the mutation
// call returns.
//
//	cfg, err := config.Load("sitetokens.yaml")
//	svc, err := service.New(ctx, cfg)
//	defer svc.Close(ctx)
//	q, err := svc.ResolvePath(ctx, "$templates", "/sitecore/content/Tenant1/Site1/Home", false)
package service
