// Package rundeck provides types, interfaces, and helpers for working with the
// Rundeck administrative API (version 14).
//
// # Overview
//
// The rundeck package defines the domain types (Project, Job, Execution,
// Paging) and the interfaces for resource-oriented clients (ProjectsClient,
// JobsClient, ExecutionsClient). A concrete implementation is provided by the
// rdclient package, which normalises the endpoint, resolves the token and
// probes the instance before handing back a client.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/rundeck-admin/pkg/rdclient"
//	  "github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := rdclient.New(ctx, &rundeck.Config{
//	    Endpoint: "https://rundeck.example.com",
//	    Token:    "secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  names, err := cli.Projects().ListNames(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = names
//	}
//
// # Pagination and bulk deletes
//
// EnumerateIDs walks a listing in fixed-size pages until the server reports
// nothing remaining and returns the distinct ids. DeleteInChunks splits an id
// list into chunks of DefaultChunkSize and issues one request per chunk,
// continuing past failed chunks and summing the server's counters.
//
// # Errors
//
// Failures the caller is expected to act on are typed:
// InstanceUnavailableError, ImportError, AmbiguousMatchError,
// ConfigTypeError, DeleteError and APIError. Use errors.As to inspect them.
package rundeck
