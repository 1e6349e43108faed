// storage/directory/decode_test.go
package directory

import (
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/asinfra/adconsole/errors"
)

var testGUID = uuid.MustParse("01020304-0506-0708-090a-0b0c0d0e0f10")

func userTestEntry(overrides map[string][]string) *ldap.Entry {
	attrs := map[string][]string{
		attrObjectGUID:         {string(testGUID[:])},
		attrSAMAccountName:     {"jdoe"},
		attrDisplayName:        {"John Doe"},
		attrGivenName:          {"John"},
		attrSurname:            {"Doe"},
		attrMail:               {"jdoe@as.com"},
		attrTitle:              {"Analyst"},
		attrDepartment:         {"IT"},
		attrCity:               {"Buenos Aires"},
		attrUserAccountControl: {"512"},
		attrLockoutTime:        {"0"},
		attrPwdLastSet:         {"133000000000000000"},
		attrWhenCreated:        {"20240115103045.0Z"},
	}
	for k, v := range overrides {
		if v == nil {
			delete(attrs, k)
		} else {
			attrs[k] = v
		}
	}
	return ldap.NewEntry("CN=John Doe,OU=Staff,DC=as,DC=com", attrs)
}

func TestDecodeUser(t *testing.T) {
	u, err := decodeUser(userTestEntry(nil))
	require.NoError(t, err)

	assert.Equal(t, testGUID.String(), u.ID)
	assert.Equal(t, "jdoe", u.SAMAccountName)
	assert.Equal(t, "John Doe", u.DisplayName)
	assert.Equal(t, "jdoe@as.com", u.Email)
	assert.Equal(t, "Buenos Aires", u.City)
	assert.True(t, u.Enabled)
	assert.False(t, u.AccountLocked)
	assert.False(t, u.MustChangePassword)
	require.NotNil(t, u.PasswordLastSet)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC), u.CreatedAt)
}

func TestDecodeUserControlAttributes(t *testing.T) {
	t.Run("disabled bit", func(t *testing.T) {
		u, err := decodeUser(userTestEntry(map[string][]string{
			attrUserAccountControl: {"514"},
		}))
		require.NoError(t, err)
		assert.False(t, u.Enabled)
	})

	t.Run("lockout time set", func(t *testing.T) {
		u, err := decodeUser(userTestEntry(map[string][]string{
			attrLockoutTime: {"133000000000000000"},
		}))
		require.NoError(t, err)
		assert.True(t, u.AccountLocked)
	})

	t.Run("password reset pending", func(t *testing.T) {
		u, err := decodeUser(userTestEntry(map[string][]string{
			attrPwdLastSet: {"0"},
		}))
		require.NoError(t, err)
		assert.True(t, u.MustChangePassword)
		assert.Nil(t, u.PasswordLastSet)
	})

	t.Run("expires never sentinel", func(t *testing.T) {
		u, err := decodeUser(userTestEntry(map[string][]string{
			attrAccountExpires: {"9223372036854775807"},
		}))
		require.NoError(t, err)
		assert.Nil(t, u.AccountExpires)
	})
}

func TestDecodeUserMalformedEntries(t *testing.T) {
	cases := map[string]map[string][]string{
		"missing logon name":   {attrSAMAccountName: nil},
		"truncated guid":       {attrObjectGUID: {"short"}},
		"garbage uac":          {attrUserAccountControl: {"not-a-number"}},
		"garbage pwd_last_set": {attrPwdLastSet: {"yesterday"}},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeUser(userTestEntry(overrides))
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestDecodeGroup(t *testing.T) {
	entry := ldap.NewEntry("CN=Engineering,OU=Groups,DC=as,DC=com", map[string][]string{
		attrObjectGUID:  {string(testGUID[:])},
		attrCN:          {"Engineering"},
		attrDescription: {"Engineering staff"},
		attrWhenCreated: {"20230601120000.0Z"},
	})
	g, err := decodeGroup(entry)
	require.NoError(t, err)

	assert.Equal(t, testGUID.String(), g.ID)
	assert.Equal(t, "Engineering", g.Name)
	assert.Equal(t, "Engineering staff", g.Description)
	assert.Equal(t, 2023, g.CreatedAt.Year())
}

func TestDecodeDevice(t *testing.T) {
	entry := ldap.NewEntry("CN=WS-0042,OU=Workstations,DC=as,DC=com", map[string][]string{
		attrObjectGUID: {string(testGUID[:])},
		attrCN:         {"WS-0042"},
		attrLastLogon:  {"133000000000000000"},
	})
	d, err := decodeDevice(entry)
	require.NoError(t, err)

	assert.Equal(t, "WS-0042", d.Hostname)
	assert.Equal(t, "OU=Workstations,DC=as,DC=com", d.OU)
	require.NotNil(t, d.LastSeen)
}

func TestFiletimeRoundTrip(t *testing.T) {
	want := time.Date(2024, 3, 10, 8, 15, 30, 0, time.UTC)

	got, err := filetimeToTime(timeToFiletime(want))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got))
}

func TestFiletimeUnsetValues(t *testing.T) {
	for _, raw := range []string{"", "0", "9223372036854775807"} {
		got, err := filetimeToTime(raw)
		require.NoError(t, err)
		assert.Nil(t, got, "raw %q", raw)
	}
}

func TestGUIDFilterEscapesEveryByte(t *testing.T) {
	filter, err := guidFilter(testGUID.String())
	require.NoError(t, err)
	assert.Equal(t, `\01\02\03\04\05\06\07\08\09\0a\0b\0c\0d\0e\0f\10`, filter)

	_, err = guidFilter("not-a-guid")
	assert.Error(t, err)
}

func TestEncodeUnicodePwd(t *testing.T) {
	got := encodeUnicodePwd("abc")
	want := []byte{0x22, 0x00, 0x61, 0x00, 0x62, 0x00, 0x63, 0x00, 0x22, 0x00}
	assert.Equal(t, string(want), got)
}

func TestDomainFromBaseDN(t *testing.T) {
	assert.Equal(t, "as.com", domainFromBaseDN("DC=as,DC=com"))
	assert.Equal(t, "corp.as.com", domainFromBaseDN("OU=Staff, DC=corp, DC=as, DC=com"))
	assert.Equal(t, "", domainFromBaseDN("OU=Staff"))
}

func TestParentDN(t *testing.T) {
	assert.Equal(t, "OU=Staff,DC=as,DC=com", parentDN("CN=John Doe,OU=Staff,DC=as,DC=com"))
	assert.Equal(t, "DC=com", parentDN("DC=com"))
}
