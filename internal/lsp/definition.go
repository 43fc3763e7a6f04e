package lsp

import (
	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// EncodeDefinitionParams builds the JSON body of a textDocument/definition
// request:
//
//	{"textDocument":{"uri":"..."},"position":{"line":0,"character":0}}
func EncodeDefinitionParams(uri DocumentURI, pos Position) (string, error) {
	if uri == "" {
		return "", ErrEmptyURI
	}
	if err := pos.Validate(); err != nil {
		return "", err
	}

	body, err := sjson.Set("", "textDocument.uri", string(uri))
	if err != nil {
		return "", errors.Wrap(err, "encoding uri")
	}
	if body, err = sjson.Set(body, "position.line", pos.Line); err != nil {
		return "", errors.Wrap(err, "encoding line")
	}
	if body, err = sjson.Set(body, "position.character", pos.Character); err != nil {
		return "", errors.Wrap(err, "encoding character")
	}
	return body, nil
}

// DecodeDefinitionParams reads a request body produced by
// EncodeDefinitionParams.
func DecodeDefinitionParams(body string) (TextDocumentPositionParams, error) {
	var params TextDocumentPositionParams

	if !gjson.Valid(body) {
		return params, errors.Wrap(ErrInvalidResponse, "not json")
	}
	uri := gjson.Get(body, "textDocument.uri")
	if uri.Type != gjson.String || uri.Str == "" {
		return params, errors.Wrap(ErrInvalidResponse, "missing textDocument.uri")
	}
	pos, err := parsePosition(gjson.Get(body, "position"))
	if err != nil {
		return params, err
	}

	params.TextDocument.URI = DocumentURI(uri.Str)
	params.Position = pos
	return params, nil
}

// ParseDefinitionResult extracts the first location from a response body
// whose "result" is a Location, a LocationLink, or an array of either.
//
// It returns ok == false with a nil error when there is no definition: the
// result is null, missing or empty, or the body carries an "error" member.
// Malformed bodies return an error wrapping ErrInvalidResponse.
func ParseDefinitionResult(body string) (loc Location, ok bool, err error) {
	if !gjson.Valid(body) {
		return loc, false, errors.Wrap(ErrInvalidResponse, "not json")
	}

	root := gjson.Parse(body)
	if !root.IsObject() {
		return loc, false, errors.Wrapf(ErrInvalidResponse, "body is %s, want object", root.Type)
	}

	result := root.Get("result")
	switch {
	case !result.Exists() || result.Type == gjson.Null:
		return loc, false, nil
	case result.IsArray():
		items := result.Array()
		if len(items) == 0 {
			return loc, false, nil
		}
		result = items[0]
	case !result.IsObject():
		return loc, false, errors.Wrapf(ErrInvalidResponse, "result is %s", result.Type)
	}

	loc, err = parseLocation(result)
	if err != nil {
		return Location{}, false, err
	}
	return loc, true, nil
}

// ResponseError returns the JSON-RPC error carried by body, if any.
func ResponseError(body string) *RPCError {
	e := gjson.Get(body, "error")
	if !e.IsObject() {
		return nil
	}
	return &RPCError{
		Code:    int(e.Get("code").Int()),
		Message: e.Get("message").String(),
	}
}

// parseLocation reads a Location or LocationLink object.
func parseLocation(v gjson.Result) (Location, error) {
	if !v.IsObject() {
		return Location{}, errors.Wrapf(ErrInvalidResponse, "location is %s", v.Type)
	}

	uriField, rangeField := "uri", "range"
	if v.Get("targetUri").Exists() {
		uriField, rangeField = "targetUri", "targetSelectionRange"
		if !v.Get(rangeField).Exists() {
			rangeField = "targetRange"
		}
	}

	uri := v.Get(uriField)
	if uri.Type != gjson.String || uri.Str == "" {
		return Location{}, errors.Wrapf(ErrInvalidResponse, "missing %s", uriField)
	}

	rng := v.Get(rangeField)
	if !rng.IsObject() {
		return Location{}, errors.Wrapf(ErrInvalidResponse, "missing %s", rangeField)
	}
	start, err := parsePosition(rng.Get("start"))
	if err != nil {
		return Location{}, err
	}
	end := start
	if e := rng.Get("end"); e.Exists() {
		if end, err = parsePosition(e); err != nil {
			return Location{}, err
		}
	}

	return Location{
		URI:   DocumentURI(uri.Str),
		Range: Range{Start: start, End: end},
	}, nil
}

func parsePosition(v gjson.Result) (Position, error) {
	line, char := v.Get("line"), v.Get("character")
	if line.Type != gjson.Number || char.Type != gjson.Number {
		return Position{}, errors.Wrap(ErrInvalidResponse, "position needs numeric line and character")
	}
	pos := Position{Line: int(line.Int()), Character: int(char.Int())}
	if err := pos.Validate(); err != nil {
		return Position{}, errors.Wrapf(ErrInvalidResponse, "%v", err)
	}
	return pos, nil
}

// EncodeResult wraps a raw JSON result as a response body: {"result": raw}.
// An empty raw value encodes as null.
func EncodeResult(raw string) (string, error) {
	if raw == "" {
		raw = "null"
	}
	if !gjson.Valid(raw) {
		return "", errors.Wrap(ErrInvalidResponse, "result is not json")
	}
	body, err := sjson.SetRaw("{}", "result", raw)
	if err != nil {
		return "", errors.Wrap(err, "encoding result")
	}
	return body, nil
}

// EncodeError builds an error response body:
// {"error":{"code":n,"message":"..."}}.
func EncodeError(e *RPCError) (string, error) {
	body, err := sjson.Set("{}", "error.code", e.Code)
	if err != nil {
		return "", errors.Wrap(err, "encoding error code")
	}
	if body, err = sjson.Set(body, "error.message", e.Message); err != nil {
		return "", errors.Wrap(err, "encoding error message")
	}
	return body, nil
}

// Pretty indents a JSON body for debug output. Invalid JSON is returned as is.
func Pretty(body string) string {
	if !gjson.Valid(body) {
		return body
	}
	return string(pretty.PrettyOptions([]byte(body), &pretty.Options{
		Width:    80,
		Prefix:   "",
		Indent:   "  ",
		SortKeys: true,
	}))
}
