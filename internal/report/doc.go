// Package report turns the status map of a build job into summaries for the
// terminal and YAML job logs written under the state directory.
package report
