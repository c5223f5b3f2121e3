// Package database provides SurrealDB connectivity for the guild store.
//
// The Database interface abstracts the connection so repositories can be
// tested against a fake:
//
//	db := database.NewSurrealDB(database.Config{
//	    Host:      "localhost",
//	    Port:      "8000",
//	    Namespace: "guilds",
//	    Database:  "main",
//	    User:      "root",
//	    Password:  "root",
//	})
//	if err := db.Connect(ctx); err != nil {
//	    return err
//	}
//	defer db.Close()
//
// # Atomic Batches
//
// AtomicBatch wraps several statements in BEGIN/COMMIT TRANSACTION and
// namespaces their variables so statements built independently cannot
// collide:
//
//	batch := database.NewAtomicBatch()
//	batch.Add("UPSERT type::thing('guild', $id) CONTENT $content", saved)
//	batch.Add("DELETE type::thing('guild', $id)", disbanded)
//	err := batch.Execute(ctx, db)
//
// Batches are accumulated in memory and sent as one request. There is no
// isolation between Add calls.
//
// # Error Types
//
//   - ErrNotFound: Record does not exist
//   - ErrConnection: Database connection failed
//   - ErrQuery: Statement failed
package database
