/*
Package stubapi is a development backend that speaks the same REST dialect
as the CI/CD server pipectl talks to.

It serves the agent, role, user, general-settings and plugin routes under
/api/v1, wraps every answer in the {code, message, data} envelope and
paginates list routes with pageNum (page for users) and pageSize. Errors
use the same envelope with the HTTP status as code:

	{"code": 404, "message": "agent agent-99 not found"}

Records live in a storage.Store; Seed fills an empty store with a dozen
agents, built-in roles, a handful of users, settings with schemas and a
few plugins. /health, /ready and /metrics are served outside the API root
and never require a token.

	store := storage.NewMemoryStore()
	_ = stubapi.Seed(store)
	srv := stubapi.New(store, stubapi.Options{Token: "dev"})
	go srv.Start(":8080")
	defer srv.Shutdown(ctx)

The server is a fixture for local development and integration tests. It
does not implement authentication beyond a single shared token.
*/
package stubapi
