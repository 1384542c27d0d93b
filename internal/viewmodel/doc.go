// Package viewmodel holds the screen logic of the storefront client.
//
// Each view-model owns the state of one screen and talks to the backend
// through the gateway interfaces. Methods block until the remote call
// finishes and are safe to call from any goroutine; hosts (the CLI, the
// interactive shell, tests) decide which goroutine runs them.
//
// Fetches are stamped with a request sequence number from a Clock. Only
// the result of the most recent request is applied, and a deactivated
// screen drops every result still in flight:
//
//	list := viewmodel.NewCatalogList(gw, nav, notifier, confirmer)
//	list.OnActivate(ctx)                  // Loading -> Ready | Error
//	ok, err := list.RequestDelete(ctx, 2) // confirm, delete, refetch
//	list.Deactivate()
package viewmodel
