package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/valyala/fastjson"

	"github.com/mcncl/jsonstruct/internal/errors"
	"github.com/mcncl/jsonstruct/internal/models"
)

// MaxDepth is the deepest array/object nesting accepted by the parser.
const MaxDepth = 256

// numberPattern is the JSON number grammar. fastjson is more lenient and
// also accepts NaN and Inf.
var numberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Parse reads a single JSON document from reader and converts it into a
// models.JSONValue. Comments and trailing commas are tolerated.
func Parse(reader io.Reader) (models.JSONValue, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewInputError("failed to read input", err)
	}
	return ParseBytes(data)
}

// ParseBytes converts a JSON document into a models.JSONValue.
func ParseBytes(data []byte) (models.JSONValue, error) {
	stripped := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(stripped)) == 0 {
		return nil, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}

	var p fastjson.Parser
	root, err := p.ParseBytes(stripped)
	if err != nil {
		return nil, classifyParseError(err)
	}

	value, err := convert(root, 0)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.JSONValue, error) {
	if strings.TrimSpace(jsonString) == "" {
		return nil, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return ParseBytes([]byte(jsonString))
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.JSONValue, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return nil, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return Parse(file)
}

// classifyParseError maps fastjson's error strings onto the sentinel errors.
func classifyParseError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unexpected tail"):
		return errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	case strings.Contains(msg, "too big depth"):
		return errors.NewParsingError(fmt.Sprintf("nesting exceeds %d levels", MaxDepth), errors.ErrTooDeep)
	default:
		return errors.NewParsingError(msg, errors.ErrInvalidJSON)
	}
}

func convert(v *fastjson.Value, depth int) (models.JSONValue, error) {
	switch v.Type() {
	case fastjson.TypeNull:
		return models.JSONNull{}, nil
	case fastjson.TypeTrue:
		return models.JSONBool(true), nil
	case fastjson.TypeFalse:
		return models.JSONBool(false), nil
	case fastjson.TypeString:
		return models.JSONString(v.GetStringBytes()), nil
	case fastjson.TypeNumber:
		return convertNumber(v)
	case fastjson.TypeArray:
		if depth >= MaxDepth {
			return nil, tooDeep()
		}
		items, err := v.Array()
		if err != nil {
			return nil, errors.NewParsingError("failed to read array", err)
		}
		arr := make(models.JSONArray, len(items))
		for i, item := range items {
			child, err := convert(item, depth+1)
			if err != nil {
				return nil, err
			}
			arr[i] = child
		}
		return arr, nil
	case fastjson.TypeObject:
		if depth >= MaxDepth {
			return nil, tooDeep()
		}
		o, err := v.Object()
		if err != nil {
			return nil, errors.NewParsingError("failed to read object", err)
		}
		obj := make(models.JSONObject, 0, o.Len())
		// A repeated key keeps its first position and takes the last value.
		seen := make(map[string]int, o.Len())
		var visitErr error
		o.Visit(func(key []byte, item *fastjson.Value) {
			if visitErr != nil {
				return
			}
			child, err := convert(item, depth+1)
			if err != nil {
				visitErr = err
				return
			}
			if i, ok := seen[string(key)]; ok {
				obj[i].Value = child
				return
			}
			seen[string(key)] = len(obj)
			obj = append(obj, models.Member{Key: string(key), Value: child})
		})
		if visitErr != nil {
			return nil, visitErr
		}
		return obj, nil
	}

	return nil, errors.NewParsingError(fmt.Sprintf("unexpected JSON type %s", v.Type()), errors.ErrInvalidJSON)
}

// convertNumber rejects literals outside the JSON number grammar and
// classifies the rest as JSONInt or JSONFloat.
func convertNumber(v *fastjson.Value) (models.JSONValue, error) {
	literal := v.String()
	if !numberPattern.MatchString(literal) {
		return nil, errors.NewParsingError(fmt.Sprintf("invalid number '%s'", literal), errors.ErrInvalidJSON)
	}
	if isIntegral(literal) {
		return models.JSONInt{Literal: literal}, nil
	}
	return models.JSONFloat{Literal: literal}, nil
}

// isIntegral reports whether a valid JSON number literal has no fractional
// part. It works on the decimal digits rather than a float64, so 3.0, 3e2
// and 1e400 are integral while 1e-400 is not.
func isIntegral(literal string) bool {
	mantissa, exponent := literal, ""
	if i := strings.IndexAny(literal, "eE"); i >= 0 {
		mantissa, exponent = literal[:i], literal[i+1:]
	}
	mantissa = strings.TrimPrefix(mantissa, "-")

	intPart, frac, _ := strings.Cut(mantissa, ".")
	digits := strings.TrimRight(intPart+frac, "0")
	if strings.Trim(digits, "0") == "" {
		return true
	}
	trailingZeros := len(intPart) + len(frac) - len(digits)

	exp := int64(0)
	if exponent != "" {
		var err error
		exp, err = strconv.ParseInt(exponent, 10, 64)
		if err != nil {
			// Out of range: only a huge positive exponent stays integral.
			return !strings.HasPrefix(exponent, "-")
		}
	}
	// value = digits * 10^(exp - len(frac) + trailingZeros)
	return exp-int64(len(frac))+int64(trailingZeros) >= 0
}

func tooDeep() error {
	return errors.NewParsingError(fmt.Sprintf("nesting exceeds %d levels", MaxDepth), errors.ErrTooDeep)
}
