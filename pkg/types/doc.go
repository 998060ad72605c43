// Package types defines the storage contract a SQL engine executes against,
// the cell and schema model it exchanges, the custom-field model of a remote
// project, and the standard errors of the ghsql system.
package types
