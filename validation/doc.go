// Package validation holds the structured findings shared by the schema and
// graph validators, and the schema validator itself.
//
// Findings are data, not errors: a Result lists every Issue with a stable
// RuleID so callers and tests can assert on them.
//
//	r := validation.NewSchemaValidator().Validate(s)
//	if !r.Valid {
//	    for _, is := range r.Errors {
//	        fmt.Println(is.RuleID, is.NodeID, is.Message)
//	    }
//	}
//
// Parameter shapes are checked with go-playground/validator struct tags; the
// package registers amount, amount_or_all, move_type, object_id, move_target
// and slot_id. The programmatic Validator collects field errors for config
// sections.
package validation
