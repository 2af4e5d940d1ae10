package es

import (
	"fmt"
	"strconv"
	"strings"
)

// applyParameters substitutes `%(key)s` style named parameters into the
// operation after escaping each value. A nil parameter map returns the
// operation untouched, without validating placeholders.
func applyParameters(operation string, parameters map[string]interface{}) (string, error) {
	if parameters == nil {
		return operation, nil
	}
	for key, value := range parameters {
		escaped, err := escape(key, value)
		if err != nil {
			return "", err
		}
		operation = strings.ReplaceAll(operation, "%("+key+")s", escaped)
	}
	return operation, nil
}

// escape renders one parameter value as a SQL literal. The literal "*"
// passes through unescaped by convention. Booleans must render as
// TRUE/FALSE, never as numbers.
func escape(key string, value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		if v == "*" {
			return v, nil
		}
		return "'" + strings.ReplaceAll(v, "'", "''") + "'", nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case []interface{}:
		return escapeList(key, v)
	case []string:
		elements := make([]interface{}, len(v))
		for i, e := range v {
			elements[i] = e
		}
		return escapeList(key, elements)
	case []int:
		elements := make([]interface{}, len(v))
		for i, e := range v {
			elements[i] = e
		}
		return escapeList(key, elements)
	case []float64:
		elements := make([]interface{}, len(v))
		for i, e := range v {
			elements[i] = e
		}
		return escapeList(key, elements)
	default:
		return "", newError(KindProgramming, "",
			"unsupported parameter type %T for %q", value, key)
	}
}

// escapeList renders a sequence as a comma-joined list of escaped elements,
// for IN (...) style clauses.
func escapeList(key string, elements []interface{}) (string, error) {
	escaped := make([]string, len(elements))
	for i, element := range elements {
		e, err := escape(fmt.Sprintf("%s[%d]", key, i), element)
		if err != nil {
			return "", err
		}
		escaped[i] = e
	}
	return strings.Join(escaped, ", "), nil
}
