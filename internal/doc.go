// Package internal contains the core implementation packages for the Thaw
// dev-loop core.
//
// The internal packages are organized by functional domain:
//
//   - config: Thaw.toml loading, defaulting, and validation
//   - devcontext: the shared, immutable process-wide context and derived paths
//   - pipeline: the multi-stage build pipeline and asset manifest
//   - watcher: debounced file-system monitoring
//   - reloadbus: the in-process pub/sub reload event bus
//   - wshub: the WebSocket hub bridging reloadbus to connected browsers
//   - devserver: the CSR and SSR dev HTTP servers
//   - backend: the SSR backend process supervisor
//   - devloop: the supervisor wiring watcher, pipeline, servers, and backend together
//   - htmlx: the HTML transformer that injects loader/reload script tags
//   - envfile: layered .env file loading
//   - logging: the structured message channel and console consumer
//   - version: build-time version metadata
package internal
