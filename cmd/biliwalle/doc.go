// Command biliwalle builds stimulus media for behavioral experiments from a
// protocol table and a configuration document.
//
//	biliwalle weave     one audio file per protocol group
//	biliwalle clips     one video clip per protocol row
//	biliwalle movie     one concatenated movie per Order value
//
// Support commands create and check configuration files (config init,
// config validate) and preview how a protocol will be read (protocol show).
// Logs go to stderr; summaries and progress go to stdout.
package main
