// Package normalize unifies the column headers of downloaded CSV reports.
//
// The council publishes the same report under many header spellings:
// "Issued", "Issued At", "Issued Time/Date", sometimes with a byte order mark
// glued to the first name. A Mapping folds every known spelling onto one
// canonical column name so that all files can be concatenated into a single
// table.
//
// The Normalizer runs in three phases:
//   - Discover: list the *.csv files of the source directory
//   - Validate: read only the header rows and reject the whole batch if any
//     header is missing from the mapping
//   - Remap and concatenate: load every file, rename its columns and append
//     its rows to the unified table
//
// Design decision: Validation is fail-closed. A single unmapped header in any
// file aborts the batch with an *UnmappedColumnsError naming every offending
// file, and Remap applies the same rule, so an unmapped column can never leak
// into the unified table under its raw name.
package normalize
