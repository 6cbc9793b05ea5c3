/*
Package dedupe coalesces concurrent identical reads.

A read is identified by a Key built from the endpoint path and its
parameters. Parameter order does not matter and nil parameters are dropped,
so every caller that asks the same question produces the same key string.

# Cache

Cache keeps one entry per key for as long as the underlying call runs:

	caller A ──Do(key)──┐
	                    ├──▶ fn() ──▶ backend
	caller B ──Do(key)──┘      (B joins A's call)

	settle ──▶ entry removed ──▶ next Do(key) calls fn again

Nothing is retained after settlement, success or failure. Errors reach every
caller that shared the call, unchanged, so errors.Is and errors.As keep
working.

A caller whose context ends stops waiting and receives ctx.Err(). The shared
call runs on with a context detached from that cancellation and its entry is
still removed when it settles.

Caches are values, not globals: each resource client receives the cache it
should use, and tests build their own.
*/
package dedupe
