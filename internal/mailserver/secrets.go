package mailserver

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/GehirnInc/crypt"
	_ "github.com/GehirnInc/crypt/sha512_crypt" // registers SHA512-CRYPT
)

const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*"
	allChars     = lowerChars + upperChars + digitChars + specialChars

	// MinPasswordLength is the shortest password GeneratePassword accepts;
	// it must fit one character from each required class.
	MinPasswordLength = 8
)

var firstNames = []string{
	"alex", "jordan", "morgan", "casey", "taylor", "riley", "sage",
	"quinn", "blake", "jamie", "drew", "cameron", "avery", "logan",
	"harper", "emerson", "phoenix", "river", "dakota", "skyler",
}

var lastNames = []string{
	"smith", "johnson", "williams", "brown", "jones", "garcia",
	"miller", "davis", "rodriguez", "martinez", "hernandez",
	"lopez", "gonzalez", "wilson", "anderson", "thomas", "taylor",
	"moore", "jackson", "martin",
}

// GenerateUsername returns a random first.last username.
func GenerateUsername() (string, error) {
	first, err := pick(firstNames)
	if err != nil {
		return "", err
	}
	last, err := pick(lastNames)
	if err != nil {
		return "", err
	}
	return first + "." + last, nil
}

// GeneratePassword returns a random password of the given length
// guaranteed to contain at least one lowercase letter, one uppercase
// letter, one digit and one special character.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", fmt.Errorf("password length %d below minimum %d", length, MinPasswordLength)
	}

	chars := make([]byte, length)
	required := []string{lowerChars, upperChars, digitChars, specialChars}
	for i := range chars {
		set := allChars
		if i < len(required) {
			set = required[i]
		}
		c, err := pickByte(set)
		if err != nil {
			return "", err
		}
		chars[i] = c
	}

	// Fisher-Yates so the required characters are not always in front
	for i := len(chars) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", err
		}
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

// HashPassword returns the SHA512-CRYPT hash of password, in the $6$
// format Dovecot expects for its default_pass_scheme.
func HashPassword(password string) (string, error) {
	hash, err := crypt.SHA512.New().Generate([]byte(password), nil)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func pick(values []string) (string, error) {
	i, err := randInt(len(values))
	if err != nil {
		return "", err
	}
	return values[i], nil
}

func pickByte(set string) (byte, error) {
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return int(v.Int64()), nil
}
