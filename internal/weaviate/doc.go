// Package weaviate implements engine.Store over the Weaviate Go client.
//
// Searches and aggregates are rendered to GraphQL text by querygql and sent
// through the raw GraphQL endpoint, so the engine's selection shapes reach
// the store unchanged. Key lookups, batch inserts and batch deletes use the
// REST object and batch APIs.
//
// Each Connect call builds a client for one request's configuration. The
// OpenAI key travels as the X-Azure-Api-Key header so generative and
// question-answering modules can call the model provider.
package weaviate
