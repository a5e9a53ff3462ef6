package envelope

import "fmt"

// SyntaxError reports JSON the tokenizer cannot parse, or a document whose
// shape is not an envelope at all. Line and Column locate the offending
// byte in the payload.
type SyntaxError struct {
	Msg    string
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at [line %d column %d]", e.Msg, e.Line, e.Column)
}

// SemanticError reports a well-formed envelope that violates a content
// rule: missing schema metadata, a record without key or value, or a record
// owned by another user. Location is omitted when Line is zero.
type SemanticError struct {
	Msg    string
	Line   int
	Column int
}

func (e *SemanticError) Error() string {
	if e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s at [line %d column %d]", e.Msg, e.Line, e.Column)
}
