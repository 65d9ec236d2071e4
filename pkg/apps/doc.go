// Package apps is the component registry.
//
// A component is a Go package that registers a Namespace with a Catalog
// (usually Default) from its init function. The process entry point creates
// one Registry and populates it with the components to install:
//
//	reg := apps.New(apps.Default, apps.WithLogger(logger))
//	err := reg.Populate(ctx, apps.Modules("shop.customers", "shop.billing"))
//
// Populate resolves every entry into a Descriptor, runs each component's
// ModelsFunc to declare its entities, then calls each ReadyHook in order.
// The registry is then passed to the collaborators that need it (the
// persistence connector, the router) rather than looked up globally.
package apps
