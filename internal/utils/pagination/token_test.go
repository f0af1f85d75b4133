package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeToken(t *testing.T) {
	date := time.Date(2023, 5, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeToken(date, 4711)
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedDate, decodedID, err := DecodeToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, date, decodedDate, "Date should match after decode")
	assert.Equal(t, int64(4711), decodedID, "ID should match after decode")

	// Zero time values
	zeroToken := EncodeToken(time.Time{}, 0)
	decodedZero, decodedZeroID, err := DecodeToken(zeroToken)
	assert.NoError(t, err)
	assert.Equal(t, time.Time{}, decodedZero)
	assert.Equal(t, int64(0), decodedZeroID)

	now := time.Now().UTC()
	decodedNow, _, err := DecodeToken(EncodeToken(now, 1))
	assert.NoError(t, err)
	assert.True(t, now.Equal(decodedNow), "Current date should match after decode")
}

func TestDecodeTokenError(t *testing.T) {
	_, _, err := DecodeToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode")

	noSeparator := base64.StdEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z"))
	_, _, err = DecodeToken(noSeparator)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	badDate := base64.StdEncoding.EncodeToString([]byte("notadate|12"))
	_, _, err = DecodeToken(badDate)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "date parse")

	badID := base64.StdEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z|abc"))
	_, _, err = DecodeToken(badID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "id parse")
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, 20, NormalizeLimit(0, 0, 100))
	assert.Equal(t, 50, NormalizeLimit(0, 50, 100))
	assert.Equal(t, 100, NormalizeLimit(500, 20, 100))
	assert.Equal(t, 7, NormalizeLimit(7, 20, 100))
}
