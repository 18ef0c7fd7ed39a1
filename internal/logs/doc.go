// Package logs reads the JSON log file written alongside every nrw run.
//
// It returns the trailing lines of the file with bounded memory, follows the
// file for new records, and filters records by run id and minimum level so
// `nrw logs --run <id>` can show what a single batch did.
package logs
