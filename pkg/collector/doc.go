/*
Package collector provides local collectors.

A collector is owned by a producer. It keeps one accumulator per metric and
hands the compacted state to its upstream aggregator whenever it is flushed.
*/
package collector
