package checkout

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const orderNumberSuffixLen = 5

var base36Max = big.NewInt(36)

// NewOrderNumber returns ORD-<epoch-ms>-<5 upper-case base36 chars>.
func NewOrderNumber(now time.Time) (string, error) {
	var suffix strings.Builder
	for i := 0; i < orderNumberSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, base36Max)
		if err != nil {
			return "", err
		}
		suffix.WriteString(strings.ToUpper(strconv.FormatInt(n.Int64(), 36)))
	}
	return "ORD-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix.String(), nil
}
