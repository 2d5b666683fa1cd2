// Package protocol reads the experiment protocol table.
//
// A protocol is a CSV file with a header row. Each data row describes one
// trial; the workflows group rows by key columns (GroupBy), order rows inside
// a group by a sequence column (SortBy), and read individual cells through
// Row helpers that distinguish empty cells from malformed ones.
package protocol
