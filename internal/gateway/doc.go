// Package gateway is the HTTP surface the console shell talks to: health and
// metrics endpoints, the session state API, and the websocket stream that
// carries toast events.
package gateway
