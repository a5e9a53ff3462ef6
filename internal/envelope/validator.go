// Package envelope validates Kafka REST proxy Avro JSON envelopes in a
// single streaming pass. The validator checks that key and value schema
// metadata are present and that every record's key.userId matches the
// authenticated user, without materializing the document: memory use is
// bounded by nesting depth, not by record count or payload size.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Validate streams data through a JSON tokenizer and checks envelope shape,
// schema metadata, and per-record ownership against subject. The input
// bytes are left untouched for forwarding. Unknown fields are skipped
// generically, so envelope extensions do not break validation.
func Validate(data []byte, subject string) error {
	w := &walker{
		dec:     json.NewDecoder(bytes.NewReader(data)),
		data:    data,
		subject: subject,
	}
	return w.walkEnvelope()
}

type walker struct {
	dec     *json.Decoder
	data    []byte
	subject string
}

func (w *walker) walkEnvelope() error {
	tok, err := w.next()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return w.syntaxError("Expecting JSON object in payload")
	}

	var hasKeySchema, hasValueSchema bool
	for {
		tok, err := w.next()
		if err != nil {
			return err
		}
		if tok == json.Delim('}') {
			break
		}
		// Inside an object, the decoder only yields field-name strings here.
		name, _ := tok.(string)
		switch name {
		case "key_schema", "key_schema_id":
			hasKeySchema = true
			err = w.skipValue()
		case "value_schema", "value_schema_id":
			hasValueSchema = true
			err = w.skipValue()
		case "records":
			err = w.walkRecords()
		default:
			err = w.skipValue()
		}
		if err != nil {
			return err
		}
	}

	if !hasKeySchema {
		return &SemanticError{Msg: "Missing key schema"}
	}
	if !hasValueSchema {
		return &SemanticError{Msg: "Missing value schema"}
	}
	return nil
}

func (w *walker) walkRecords() error {
	tok, err := w.next()
	if err != nil {
		return err
	}
	if tok != json.Delim('[') {
		return w.semanticError("Expecting JSON array for records field")
	}

	for {
		tok, err := w.next()
		if err != nil {
			return err
		}
		if tok == json.Delim(']') {
			return nil
		}
		if tok != json.Delim('{') {
			return w.syntaxError("Expecting JSON object for record")
		}

		var foundKey, foundValue bool
		for {
			tok, err := w.next()
			if err != nil {
				return err
			}
			if tok == json.Delim('}') {
				break
			}
			name, _ := tok.(string)
			switch name {
			case "key":
				foundKey = true
				err = w.walkKey()
			case "value":
				foundValue = true
				err = w.skipValue()
			default:
				err = w.skipValue()
			}
			if err != nil {
				return err
			}
		}

		if !foundKey {
			return w.semanticError("Missing key field in record")
		}
		if !foundValue {
			return w.semanticError("Missing value field in record")
		}
	}
}

// walkKey validates a single record key, comparing its userId against the
// authenticated subject. The check fails fast on the first mismatch.
func (w *walker) walkKey() error {
	tok, err := w.next()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return w.semanticError("Field key must be a JSON object")
	}

	for {
		tok, err := w.next()
		if err != nil {
			return err
		}
		if tok == json.Delim('}') {
			return nil
		}
		name, _ := tok.(string)
		if name != "userId" {
			if err := w.skipValue(); err != nil {
				return err
			}
			continue
		}

		tok, err = w.next()
		if err != nil {
			return err
		}
		userID, ok := tok.(string)
		if !ok {
			return w.semanticError("userId field must be a string")
		}
		if userID != w.subject {
			return w.semanticError(fmt.Sprintf(
				"record userId '%s' does not match authenticated user ID '%s'",
				userID, w.subject))
		}
	}
}

// skipValue consumes the next value without interpreting it. Nested arrays
// and objects are consumed to their matching close by tracking depth.
func (w *walker) skipValue() error {
	tok, err := w.next()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') && tok != json.Delim('[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := w.next()
		if err != nil {
			return err
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
	return nil
}

// next returns the next token, translating tokenizer failures into located
// syntax errors. A document that ends mid-structure surfaces as a syntax
// error at the end of the payload.
func (w *walker) next() (json.Token, error) {
	tok, err := w.dec.Token()
	if err == nil {
		return tok, nil
	}
	if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
		line, col := w.location(int64(len(w.data)))
		return nil, &SyntaxError{Msg: "Unexpected end of JSON payload", Line: line, Column: col}
	}
	var jsonErr *json.SyntaxError
	if errors.As(err, &jsonErr) {
		line, col := w.location(jsonErr.Offset)
		return nil, &SyntaxError{Msg: jsonErr.Error(), Line: line, Column: col}
	}
	return nil, err
}

func (w *walker) syntaxError(msg string) error {
	line, col := w.location(w.dec.InputOffset())
	return &SyntaxError{Msg: msg, Line: line, Column: col}
}

func (w *walker) semanticError(msg string) error {
	line, col := w.location(w.dec.InputOffset())
	return &SemanticError{Msg: msg, Line: line, Column: col}
}

// location converts a byte offset into 1-based line and column numbers.
func (w *walker) location(offset int64) (line, col int) {
	if offset > int64(len(w.data)) {
		offset = int64(len(w.data))
	}
	line, col = 1, 1
	for _, b := range w.data[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
