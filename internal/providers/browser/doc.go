/*
Package browser provides an in-memory tabbed browser that sessions are
captured from and restored into.

# Overview

A Browser owns windows, a Window owns tabs, and a Tab owns its back/forward
history. Every tab starts on about:blank. Navigating fetches the page through
a Loader, follows redirects and records one history entry whose URL is the
final location and whose original URL is the one requested.

# Backends

Two capability profiles mirror real rendering engines:

  - webkit reports scroll offset and zoom for every history entry
  - webengine reports them only for the displayed entry, and hides the
    leading about:blank entry of a tab that has navigated away from it

The session extractor reads the Browser through session.Renderer and the
restorer drives it through session.Controller.

# Locking

Lock order is Browser, then Window, then Tab. A navigating tab releases its
lock while the page loads, so snapshots of other tabs (and of its current
history) never wait on the network. The requested URL is visible through
Tab.Pending until the load finishes.
*/
package browser
