// Package handlers implements the HTTP API of the web utility.
//
// Handlers parse and validate requests, call the services layer and wrap
// every answer in the {code, msg, data} envelope. The HTTP status always
// equals code.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                     HTTP Request (Gin)                          │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Handler (this package)                     │
//	│  - JSON binding and validator tags (api/v1)                     │
//	│  - Error mapping to HTTP status codes                           │
//	│  - Model-to-API conversion                                      │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Services Layer                             │
//	│  Env │ SSH │ SQL │ SavedQuery                                   │
//	└─────────────────────────────────────────────────────────────────┘
//
// Handler implements v1.ServerInterface and is mounted with
//
//	v1.RegisterHandlers(router, handler)
//
// # API Endpoints
//
//	┌────────┬──────────────────────────┬───────────────────────────────────┐
//	│ Method │ Endpoint                 │ Description                       │
//	├────────┼──────────────────────────┼───────────────────────────────────┤
//	│ POST   │ /ssh/exec                │ Run a command on the env host     │
//	│ POST   │ /sql/exec                │ Run raw SQL on an env or alias    │
//	│ POST   │ /sql/export?format=      │ Download read rows as csv or xlsx │
//	│ GET    │ /env/list                │ Environment names (detail=true)   │
//	│ GET    │ /sql/meta                │ Builder choices and aliases       │
//	│ POST   │ /sql/generate            │ Preview builder SQL               │
//	│ POST   │ /sql/queries             │ Save a builder configuration      │
//	│ GET    │ /sql/queries             │ List saved configurations         │
//	│ GET    │ /sql/queries/{id}        │ Get one configuration             │
//	│ DELETE │ /sql/queries/{id}        │ Delete one configuration          │
//	│ POST   │ /sql/queries/{id}/exec   │ Run a saved configuration         │
//	└────────┴──────────────────────────┴───────────────────────────────────┘
//
// # Error Handling
//
//	┌─────────────────────────────────────┬────────┐
//	│ Error                               │ Status │
//	├─────────────────────────────────────┼────────┤
//	│ bad JSON, validator failure         │ 400    │
//	│ ValidationError                     │ 400    │
//	│ ResourceNotFoundError               │ 404    │
//	│ ResourceError, RetriesExhausted     │ 502    │
//	│ anything else                       │ 500    │
//	└─────────────────────────────────────┴────────┘
//
// 5xx answers are logged with the handler's named logger.
package handlers
