/*
Package snapshot holds the most recently published metric snapshot.

The aggregator is the only writer of a Cell. Queries and reporters read the
cell concurrently without locking. A published snapshot never changes.
*/
package snapshot
