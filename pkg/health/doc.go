/*
Package health probes whether a backend API is reachable.

Two checkers implement Checker:

	TCPChecker    dials host:port
	HTTPChecker   issues a request and accepts a status range (200-399 by default)

ForBackend derives both probes from an API root such as
https://ci.example.com/api/v1: the TCP dial targets ci.example.com:443 and
the HTTP probe targets https://ci.example.com/health. When the health body
is JSON with a "status" field, the reported status is appended to the
result message.

Wait polls one checker until it is healthy, giving up after Config.Retries
consecutive failures:

	checks, err := health.ForBackend(apiURL)
	if err != nil {
		return err
	}
	for _, c := range checks {
		result, err := health.Wait(ctx, c, health.DefaultConfig())
		...
	}

`pipectl status` is built on these probes.
*/
package health
