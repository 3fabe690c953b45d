package model

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dunglas/httpsfv"
)

// ParseAttributes reads line-item custom attributes written as an RFC 8941 dictionary.
//
// Examples:
//   - gift_wrap=?1, note="for mom"  → {"gift_wrap": "true", "note": "for mom"}
//   - engraving="J.S.";font=serif   → {"engraving": "J.S."} (params ignored)
//
// An empty input yields a nil map.
func ParseAttributes(s string) (map[string]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{s})
	if err != nil {
		return nil, fmt.Errorf("invalid attributes: %w", err)
	}

	attrs := make(map[string]string, len(dict.Names()))
	for _, name := range dict.Names() {
		member, _ := dict.Get(name)
		item, ok := member.(httpsfv.Item)
		if !ok {
			return nil, fmt.Errorf("attribute %q: inner lists are not supported", name)
		}
		v, err := itemString(item.Value)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		attrs[name] = v
	}
	return attrs, nil
}

func itemString(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case httpsfv.Token:
		return string(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case []byte:
		return base64.StdEncoding.EncodeToString(val), nil
	default:
		return "", errors.New("unsupported value type")
	}
}
