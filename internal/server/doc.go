// Package server exposes the engine over HTTP with gin.
//
// Routes:
//
//	GET  /health         204, no body
//	GET  /metrics        prometheus exposition
//	GET  /config-schema  connection config schema
//	POST /query          query request → query response
//	POST /mutation       mutation request → mutation response
//
// Each request's connection config is the server's base config overlaid
// with the JSON object in the X-Hasura-DataConnector-Config header. Errors
// are returned as {"type": CODE, "message": ..., "details": {...}} with the
// status chosen by StatusFor.
package server
