package ledger

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	codePrefixLen     = 6
	codeSuffixLen     = 6
	codeAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultCodePrefix = "MESA"
)

// CodeGenerator produces candidate table codes from a table name.
// Candidates are not guaranteed unique; the manager checks and retries.
type CodeGenerator func(name string) (string, error)

// GenerateCode returns PREFIX-SUFFIX where PREFIX is up to six ASCII letters
// and digits of name, uppercased (MESA when none remain), and SUFFIX is six
// random characters independent of the name.
func GenerateCode(name string) (string, error) {
	suffix := make([]byte, codeSuffixLen)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = codeAlphabet[n.Int64()]
	}
	return CodePrefix(name) + "-" + string(suffix), nil
}

// CodePrefix sanitises name into a code prefix.
func CodePrefix(name string) string {
	var b strings.Builder
	for _, r := range name {
		if b.Len() == codePrefixLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return defaultCodePrefix
	}
	return b.String()
}
