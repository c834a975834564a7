// Package store implements the local persistence of the web utility.
//
// The store is a single DuckDB file (web.store_path, default
// data/web.duckdb). Only saved visual SQL configurations live there; target
// databases are reached through pkg/database and never through this package.
//
// # Architecture Overview
//
//	┌──────────────────────────────────────────────┐
//	│                Store (facade)                │
//	├──────────────────────────────────────────────┤
//	│               SavedQueryStore                │
//	│                      ▼                       │
//	│               QueryInterceptor               │
//	│                      ▼                       │
//	│               saved_sql_queries              │
//	└──────────────────────────────────────────────┘
//
// # Tables
//
//	┌────────────────────┬──────────────────────────────────────────┐
//	│  Table             │  Purpose                                 │
//	├────────────────────┼──────────────────────────────────────────┤
//	│  saved_sql_queries │  Visual query configs and generated SQL  │
//	│  schema_migrations │  Migration version tracking              │
//	└────────────────────┴──────────────────────────────────────────┘
//
// fields, conditions and update_fields hold JSON arrays. db_password holds
// the AES-CBC ciphertext produced by pkg/secret. List never returns
// passwords; Get returns them decrypted so the query can be executed.
//
// # Usage
//
//	db, err := store.NewDB(cfg.Web.StorePath)
//	if err != nil { ... }
//	s := store.NewStore(db, cipher)
//	if err := s.Migrate(ctx); err != nil { ... }
//
//	q := &models.SavedQuery{ConfigName: "paid orders", ...}
//	err = s.SavedQuery().Save(ctx, q)
//
//	list, err := s.SavedQuery().List(ctx,
//	    store.ByAliases("shop_db"),
//	    store.WithDefaultSort(),
//	    store.WithLimit(20),
//	)
//
// Every statement goes through QueryInterceptor, which logs it at debug
// level under the "store" logger.
package store
