// Command quarry compiles condition documents, rewrites placeholders, and
// composes paginated relation queries from the command line.
//
// Usage:
//
//	quarry [flags] <command>
//
// Commands that touch the database (paginate --execute, doctor) need
// database settings from quarry.yaml, QUARRY_DATABASE_* or --db.
package main

import "os"

func main() {
	os.Exit(Execute())
}
