package command

import (
	"encoding/json"
	"encoding/xml"
	"strings"
)

// ParseCommandResult extracts the value of the <Parameter name="result" .../>
// element from a raw command response. The response body may be a JSON-quoted
// XML string; one level of quoting is unwrapped first. Malformed input yields
// ("", false), never an error: the caller decides whether that is fatal.
func ParseCommandResult(raw string) (string, bool) {
	raw = unwrapJSONString(raw)

	decoder := xml.NewDecoder(strings.NewReader(raw))
	for {
		tok, err := decoder.Token()
		if err != nil {
			return "", false
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Parameter" {
			continue
		}
		var name, value string
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "name":
				name = attr.Value
			case "value":
				value = attr.Value
			}
		}
		if name == "result" {
			return value, true
		}
	}
}

// unwrapJSONString removes one level of JSON string quoting if present.
// Falls back to manual unescaping of \" and \\ when the payload is quoted
// but not valid JSON.
func unwrapJSONString(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, `"`) {
		return raw
	}

	var unquoted string
	if err := json.Unmarshal([]byte(trimmed), &unquoted); err == nil {
		return unquoted
	}

	trimmed = strings.TrimPrefix(trimmed, `"`)
	trimmed = strings.TrimSuffix(trimmed, `"`)
	trimmed = strings.ReplaceAll(trimmed, `\"`, `"`)
	trimmed = strings.ReplaceAll(trimmed, `\\`, `\`)
	return trimmed
}
