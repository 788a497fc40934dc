// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates flags and the config file into the application's configuration
// and wires the cobra command tree:
//
//	texgrid render  [PROJECT]   evaluate a project and write its outputs
//	texgrid nodes               list the node types of the library
//	texgrid graph   PROJECT     print the node graph as dot or svg
//	texgrid layout  PROJECT     arrange the nodes by evaluation order
package cli
