// Package sqldbpool implements a process-wide pool of named SQL
// connections for a multi-threaded request server: for each configured
// database id it pre-creates a fixed number of connection slots, hands
// them out on checkout, takes them back on return, and reaps sockets that
// have sat idle too long.
package sqldbpool
