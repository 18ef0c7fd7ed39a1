// Package preflight provides readiness checks for the files, directories and
// services an nrw run depends on.
//
// The CLI "nrw doctor" command runs RunAll and prints one line per check.
// Network checks are skipped while the network gate is closed.
package preflight
