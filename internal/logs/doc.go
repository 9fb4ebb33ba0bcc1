// Package logs reads the audiosurv log file for the CLI "logs" command.
//
// Tail prints the last lines of the file and, in follow mode, polls for new
// lines until the context ends. Memory use is bounded by the requested line
// count regardless of file size.
package logs
