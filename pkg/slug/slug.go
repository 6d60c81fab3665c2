package slug

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const shortIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ShortID 长度范围
const (
	ShortIDMinLen     = 4
	ShortIDMaxLen     = 8
	ShortIDDefaultLen = 6
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	shortIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{4,8}$`)
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9]+`)
)

// Make 由标题生成 URL slug：去除重音、小写、非字母数字折叠为连字符
func Make(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, title)
	if err != nil {
		plain = title
	}
	s := nonSlugChars.ReplaceAllString(strings.ToLower(plain), "-")
	return strings.Trim(s, "-")
}

// Valid 是否为合法slug
func Valid(s string) bool {
	return slugPattern.MatchString(s)
}

// NewShortID 生成指定长度的短ID，长度越界时使用默认值
func NewShortID(length int) (string, error) {
	if length < ShortIDMinLen || length > ShortIDMaxLen {
		length = ShortIDDefaultLen
	}
	max := big.NewInt(int64(len(shortIDAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = shortIDAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// ValidShortID 是否为合法短ID
func ValidShortID(s string) bool {
	return shortIDPattern.MatchString(s)
}
