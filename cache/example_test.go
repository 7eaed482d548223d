package cache_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/sitetokens/cache"
)

func ExampleNewShardedCache() {
	c := cache.NewShardedCache(16)
	ctx := context.Background()

	_ = c.Set(ctx, "/sitecore/templates/Tenant1", "/sitecore/templates/Tenant1//*[@@id='{111}']")

	value, ok := c.Get(ctx, "/sitecore/templates/Tenant1")
	fmt.Println(ok, value)
	// Output:
	// true /sitecore/templates/Tenant1//*[@@id='{111}']
}

func ExampleShardedCache_Evict() {
	c := cache.NewShardedCache(0)
	ctx := context.Background()
	for _, k := range []string{"/a", "/a/b", "/c"} {
		_ = c.Set(ctx, k, "fragment")
	}

	removed := c.Evict(ctx, func(key string) bool { return strings.HasPrefix(key, "/a") })
	fmt.Println("removed:", removed)
	fmt.Println("left:", c.Keys())
	// Output:
	// removed: [/a /a/b]
	// left: [/c]
}

func ExampleLoader_Load() {
	loader, _ := cache.NewLoader(cache.NewShardedCache(0))
	ctx := context.Background()
	scan := func(context.Context) (string, error) {
		fmt.Println("scanning")
		return "/root//*[@@templatename='Template']", nil
	}

	v, hit, _ := loader.Load(ctx, "/root", scan)
	fmt.Println(hit, v)
	v, hit, _ = loader.Load(ctx, "/root", scan)
	fmt.Println(hit, v)
	// Output:
	// scanning
	// false /root//*[@@templatename='Template']
	// true /root//*[@@templatename='Template']
}

func ExampleLoader_Stats() {
	loader, _ := cache.NewLoader(cache.NewShardedCache(0))
	ctx := context.Background()
	load := func(context.Context) (string, error) { return "v", nil }

	_, _, _ = loader.Load(ctx, "/a", load)
	_, _, _ = loader.Load(ctx, "/a", load)
	_, _, _ = loader.Load(ctx, "/a", load)
	loader.Evict(ctx, func(k string) bool { return k == "/a" })

	st := loader.Stats()
	fmt.Printf("hits=%d misses=%d evictions=%d entries=%d rate=%.2f\n",
		st.Hits, st.Misses, st.Evictions, st.Entries, st.HitRate())
	// Output:
	// hits=2 misses=1 evictions=1 entries=0 rate=0.67
}

func ExampleValidateKey() {
	fmt.Println(cache.ValidateKey("/sitecore/templates"))
	fmt.Println(cache.ValidateKey(""))
	// Output:
	// <nil>
	// cache: key is invalid
}
