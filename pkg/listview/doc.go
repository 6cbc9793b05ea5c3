/*
Package listview drives paginated, searchable list views.

A Controller owns the query of one view (page, page size, search text,
filters) and turns it into a backend Request. Two modes exist:

	server mode  no search, every filter "all"
	             Request{PageNum: p, PageSize: s}; rows shown as returned

	client mode  search text or any filter set
	             Request{PageNum: 1, PageSize: BulkPageSize, forwarded filters}
	             rows matched locally, then paged locally

The Request is the view's signature. A fetch happens only when the signature
changes and the same signature is not already loading, so paging through a
client-mode result or editing the search text in client mode works on the
rows already fetched. Changing the search text or a filter returns to page
one.

Results are applied only if their signature is still current when they
arrive; late answers to earlier requests are dropped. A failed fetch keeps
the rows shown before and records the error in the snapshot.

Pagination helpers mirror the console's pager: "Showing X to Y of Z",
page numbers with ellipses, and the empty message that tells "nothing
exists" apart from "nothing matches".
*/
package listview
