package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// DefaultLimit is used when the caller does not ask for a page size.
const DefaultLimit = 20

// EncodeToken creates a base64 encoded keyset token from the sort date and the id
// of the last row of a page.
func EncodeToken(date time.Time, id int64) string {
	tokenStr := fmt.Sprintf("%s|%d", date.Format(timeFormat), id)
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses the base64 encoded token back into the date and id.
func DecodeToken(token string) (time.Time, int64, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (split)")
	}

	date, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (date parse): %w", err)
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (id parse): %w", err)
	}

	return date, id, nil
}

// NormalizeLimit clamps a requested page size.
func NormalizeLimit(limit, def, max int) int {
	if def <= 0 {
		def = DefaultLimit
	}
	if limit <= 0 {
		return def
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}
