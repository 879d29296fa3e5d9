// Package parser turns the human-oriented text of a terraform/tofu plan into
// a structured change model: an ordered sequence of resource changes with
// nested attribute diff trees, output changes, and the trailing summary
// counts. Input is expected to be UTF-8 with terminal escapes already
// stripped by the caller; the parser performs no I/O of its own.
package parser
