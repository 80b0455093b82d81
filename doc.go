/*
Package sparouter serves "Single Page Applications" (SPAs) that do client-side
routing. The root path and every client route get the SPA's entry document,
while paths referencing files get the static assets.

A client route is a path of at most [DefaultMaxDepth] segments whose final
segment contains no dot, such as "/projects/42/edit". A path whose final
segment contains a dot, such as "/assets/app.js", always references a static
asset. Forwarding happens server-side: clients keep their URL and never see a
redirect.

The [Router] type implements http.Handler and fetches the entry document and
static assets from any fs.FS, so an SPA can be embedded into a Go binary just
as well as being served from a directory. Behind path rewriting proxies the
entry document's base element gets adjusted to the base path the client sees.
*/
package sparouter
