package mailserver

import (
	"context"
	"strings"
	"testing"

	"github.com/GehirnInc/crypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccounts(t *testing.T) {
	t.Parallel()
	fake := &fakeRunner{}
	c := testConfigurator(fake)

	accounts, err := c.CreateAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 6, "3 accounts for each of 2 domains")

	perDomain := map[string]int{}
	for _, a := range accounts {
		perDomain[a.Domain]++

		assert.Equal(t, a.Username+"@"+a.Domain, a.Email)
		assert.Len(t, a.Password, 16)
		assert.Contains(t, a.Username, ".")

		assert.Equal(t, "mail."+a.Domain, a.SMTP.Host)
		assert.Equal(t, 587, a.SMTP.Port)
		assert.Equal(t, "STARTTLS", a.SMTP.Security)
		assert.Equal(t, a.Email, a.SMTP.Username)
		assert.Equal(t, a.Password, a.SMTP.Password)

		assert.Equal(t, "mail."+a.Domain, a.IMAP.Host)
		assert.Equal(t, 993, a.IMAP.Port)
		assert.Equal(t, "SSL", a.IMAP.Security)
	}
	assert.Equal(t, map[string]int{"example.com": 3, "example.org": 3}, perDomain)

	// statements travel shell-quoted, so the inner quotes arrive as '\''
	assert.True(t, fake.executed(`mysql -u root -p'root-secret' -e 'INSERT IGNORE INTO mailserver.domains`))
	assert.True(t, fake.executed(`VALUES ('\''example.com'\'')`))
	assert.True(t, fake.executed(`VALUES ('\''example.org'\'')`))
	assert.True(t, fake.executed("INSERT INTO mailserver.users"))
	assert.True(t, fake.executed("mkdir -p /var/mail/vhosts/example.com/"))
	assert.True(t, fake.executed("chown -R vmail:vmail /var/mail/vhosts/example.org"))
}

func TestCreateAccounts_UniqueUsernamesPerDomain(t *testing.T) {
	t.Parallel()
	fake := &fakeRunner{}
	c := testConfigurator(fake)

	accounts, err := c.CreateAccounts(context.Background())
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, a := range accounts {
		if a.Domain != "example.com" {
			continue
		}
		assert.False(t, seen[a.Username], "username %s repeated within domain", a.Username)
		seen[a.Username] = true
	}
}

func TestCreateAccounts_PlaintextPasswordNeverSent(t *testing.T) {
	t.Parallel()
	fake := &fakeRunner{}
	c := testConfigurator(fake)

	accounts, err := c.CreateAccounts(context.Background())
	require.NoError(t, err)

	for _, a := range accounts {
		for _, cmd := range fake.commands {
			assert.NotContains(t, cmd, a.Password, "plaintext password leaked into a remote command")
		}
	}
}

func TestGeneratePassword(t *testing.T) {
	t.Parallel()
	password, err := GeneratePassword(16)
	require.NoError(t, err)
	assert.Len(t, password, 16)

	assert.True(t, strings.ContainsAny(password, lowerChars), "missing lowercase in %q", password)
	assert.True(t, strings.ContainsAny(password, upperChars), "missing uppercase in %q", password)
	assert.True(t, strings.ContainsAny(password, digitChars), "missing digit in %q", password)
	assert.True(t, strings.ContainsAny(password, specialChars), "missing special in %q", password)
}

func TestGeneratePassword_TooShort(t *testing.T) {
	t.Parallel()
	_, err := GeneratePassword(4)
	require.Error(t, err)
}

func TestGenerateUsername(t *testing.T) {
	t.Parallel()
	username, err := GenerateUsername()
	require.NoError(t, err)

	parts := strings.Split(username, ".")
	require.Len(t, parts, 2)
	assert.Contains(t, firstNames, parts[0])
	assert.Contains(t, lastNames, parts[1])
}

func TestHashPassword(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$6$"), "hash %q is not SHA512-CRYPT", hash)

	// the hash verifies against the original password
	require.NoError(t, crypt.SHA512.New().Verify(hash, []byte("correct horse battery staple")))
	require.Error(t, crypt.SHA512.New().Verify(hash, []byte("wrong")))
}
