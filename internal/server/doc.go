// Package server implements the HTTP and WebSocket transport of the room chat relay.
//
// Each WebSocket connection becomes a Client with its own read and write
// pumps. Inbound frames are handed to a chat.Relay, which owns room presence;
// the Hub keeps the table of live clients that the relay's router delivers
// through.
package server
