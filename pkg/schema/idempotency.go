package schema

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/tidwall/gjson"
)

// KeyDelimiter separates field values before hashing.
const KeyDelimiter = "|"

// GenerateIdempotencyKey derives a deduplication key from the dotted-path
// fields of sample. The hash is a 32-bit rolling hash, not a cryptographic
// digest: equal inputs always give equal keys.
func GenerateIdempotencyKey(sample any, fields []string) string {
	encoded, err := json.Marshal(sample)
	if err != nil {
		encoded = nil
	}

	values := make([]string, 0, len(fields))
	for _, field := range fields {
		values = append(values, lookup(encoded, field).String())
	}

	return hashString(strings.Join(values, KeyDelimiter))
}

// Lookup resolves a dotted path such as "customer.phone" or "recipients.0"
// against value. Missing paths give a result that does not exist.
func Lookup(value any, path string) gjson.Result {
	encoded, err := json.Marshal(value)
	if err != nil {
		return gjson.Result{}
	}

	return lookup(encoded, path)
}

func lookup(encoded []byte, path string) gjson.Result {
	if path == "" || len(encoded) == 0 {
		return gjson.Result{}
	}

	return gjson.GetBytes(encoded, path)
}

// hashString computes h = h*31 + c over UTF-16 code units with 32-bit
// wraparound and renders |h| in hex.
func hashString(input string) string {
	var hash int32

	for _, unit := range utf16.Encode([]rune(input)) {
		hash = hash*31 + int32(unit)
	}

	magnitude := int64(hash)
	if magnitude < 0 {
		magnitude = -magnitude
	}

	return strconv.FormatInt(magnitude, 16)
}
