package pq

import "fmt"

// MissingOutputNameError is §4.4.5's error for a transform that needs a
// column name but ensure_column_name found none (a wildcard column used
// where a name is required, e.g. in ORDER BY across a split).
type MissingOutputNameError struct{ CId int }

func (e *MissingOutputNameError) Error() string {
	return fmt.Sprintf("pq: column %d has no name and none could be generated here", e.CId)
}

// StarNotAllowedError is §4.4.5's error for a wildcard requested in a
// position the dialect does not allow.
type StarNotAllowedError struct{ Where string }

func (e *StarNotAllowedError) Error() string {
	return fmt.Sprintf("pq: wildcard `*` is not allowed in %s", e.Where)
}

// DialectLacksFeatureError is §4.4.5's error for a set operator variant
// (e.g. EXCEPT ALL on SQLite) the target dialect cannot express.
type DialectLacksFeatureError struct{ Feature string }

func (e *DialectLacksFeatureError) Error() string {
	return fmt.Sprintf("pq: target dialect does not support %s; redesign the pipeline with explicit columns", e.Feature)
}
