package discover

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// The login-record blob keys records by 64-bit ids while the userdata
// directories use the short local id; the two differ by a fixed offset.
const id64Offset = 76561197960265728

// personaKey is the display-name field inside a login record.
const personaKey = "PersonaName"

// ParseLoginUsers decodes the semi-structured key/value login-record
// blob into a mapping from numeric id to persona name. It is a
// best-effort decoder: unknown fields, missing records and malformed
// nesting are tolerated, and malformed input never produces an error —
// the result simply omits what could not be understood.
func ParseLoginUsers(data []byte) map[uint64]string {
	names := make(map[uint64]string)

	var currentID uint64
	haveID := false

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "{" || line == "}" {
			continue
		}

		fields := quotedFields(line)
		switch len(fields) {
		case 1:
			// A bare quoted numeric string opens a record block;
			// any other bare key (including the outer "users")
			// just clears the current record.
			id, err := strconv.ParseUint(fields[0], 10, 64)
			if err == nil {
				currentID = id
				haveID = true
			} else {
				haveID = false
			}
		case 2:
			if haveID && fields[0] == personaKey && fields[1] != "" {
				names[currentID] = fields[1]
			}
		}
	}

	return names
}

// NameForID resolves a display name for a local id, trying the id
// directly and then its 64-bit form. The second return value reports
// whether a record was found.
func NameForID(names map[uint64]string, id int) (string, bool) {
	if id < 0 {
		return "", false
	}
	if name, ok := names[uint64(id)]; ok {
		return name, true
	}
	if name, ok := names[uint64(id)+id64Offset]; ok {
		return name, true
	}
	return "", false
}

// SyntheticName derives a usable fallback identifier from an id so that
// downstream selection and transfer logic never receive an empty name.
func SyntheticName(id int) string {
	return fmt.Sprintf("user-%d", id)
}

// quotedFields extracts the double-quoted strings of a line. Text
// outside quotes is ignored.
func quotedFields(line string) []string {
	var fields []string
	for {
		start := strings.IndexByte(line, '"')
		if start < 0 {
			return fields
		}
		line = line[start+1:]
		end := strings.IndexByte(line, '"')
		if end < 0 {
			return fields
		}
		fields = append(fields, line[:end])
		line = line[end+1:]
	}
}
