// Package main provides the entry point for the csvharvest CLI.
//
// csvharvest downloads the CSV reports a council publishes on an open-data
// listing page and unifies their column headers into a single table.
//
// Usage:
//
//	csvharvest harvest
//	csvharvest vocab --unmapped
//	csvharvest normalize -o parking.csv
//
// See --help for all available options.
package main

// main is the entry point for csvharvest.
func main() {
	Execute()
}
