// storage/directory/decode.go
package directory

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"

	apperrors "github.com/asinfra/adconsole/errors"
	"github.com/asinfra/adconsole/model"
)

// Active Directory attribute names for the canonical entity fields.
const (
	attrObjectGUID         = "objectGUID"
	attrSAMAccountName     = "sAMAccountName"
	attrDisplayName        = "displayName"
	attrGivenName          = "givenName"
	attrSurname            = "sn"
	attrMail               = "mail"
	attrTitle              = "title"
	attrDepartment         = "department"
	attrCompany            = "company"
	attrTelephoneNumber    = "telephoneNumber"
	attrMobile             = "mobile"
	attrStreetAddress      = "streetAddress"
	attrCity               = "l"
	attrState              = "st"
	attrCountry            = "co"
	attrUserAccountControl = "userAccountControl"
	attrLockoutTime        = "lockoutTime"
	attrPwdLastSet         = "pwdLastSet"
	attrLastLogon          = "lastLogonTimestamp"
	attrAccountExpires     = "accountExpires"
	attrWhenCreated        = "whenCreated"
	attrUnicodePwd         = "unicodePwd"
	attrMember             = "member"
	attrDescription        = "description"
	attrCN                 = "cn"
	attrName               = "name"
	attrDNSHostName        = "dNSHostName"
	attrUPN                = "userPrincipalName"
)

// ACCOUNTDISABLE bit of userAccountControl.
const uacAccountDisable = 0x2

// accountExpires uses 0 and this sentinel for "never".
const accountNeverExpires = int64(0x7FFFFFFFFFFFFFFF)

// Offset between the Windows FILETIME epoch (1601-01-01) and the Unix epoch,
// in 100-nanosecond intervals.
const filetimeUnixOffset = 116444736000000000

var userAttributes = []string{
	attrObjectGUID, attrSAMAccountName, attrDisplayName, attrGivenName,
	attrSurname, attrMail, attrTitle, attrDepartment, attrCompany,
	attrTelephoneNumber, attrMobile, attrStreetAddress, attrCity, attrState,
	attrCountry, attrUserAccountControl, attrLockoutTime, attrPwdLastSet,
	attrLastLogon, attrAccountExpires, attrWhenCreated,
}

var groupAttributes = []string{
	attrObjectGUID, attrCN, attrDescription, attrWhenCreated,
}

var deviceAttributes = []string{
	attrObjectGUID, attrCN, attrDescription, attrDNSHostName, attrLastLogon,
}

// decodeUser maps a directory entry onto the canonical User. Missing or
// malformed required attributes are decode failures, never zero-valued
// fields.
func decodeUser(entry *ldap.Entry) (*model.User, error) {
	id, err := guidString(entry.GetRawAttributeValue(attrObjectGUID))
	if err != nil {
		return nil, apperrors.NewInvalidInput("malformed objectGUID on directory entry", "id")
	}
	sam := entry.GetAttributeValue(attrSAMAccountName)
	if sam == "" {
		return nil, apperrors.NewInvalidInput("directory entry has no logon name", "sam_account_name")
	}

	enabled := true
	if raw := entry.GetAttributeValue(attrUserAccountControl); raw != "" {
		uac, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, apperrors.NewInvalidInput("malformed userAccountControl", "enabled")
		}
		enabled = uac&uacAccountDisable == 0
	}

	locked := false
	if raw := entry.GetAttributeValue(attrLockoutTime); raw != "" && raw != "0" {
		locked = true
	}

	mustChange := entry.GetAttributeValue(attrPwdLastSet) == "0"

	pwdLastSet, err := filetimeToTime(entry.GetAttributeValue(attrPwdLastSet))
	if err != nil {
		return nil, apperrors.NewInvalidInput("malformed pwdLastSet", "password_last_set")
	}
	lastLogon, err := filetimeToTime(entry.GetAttributeValue(attrLastLogon))
	if err != nil {
		return nil, apperrors.NewInvalidInput("malformed lastLogonTimestamp", "last_logon")
	}
	expires, err := filetimeToTime(entry.GetAttributeValue(attrAccountExpires))
	if err != nil {
		return nil, apperrors.NewInvalidInput("malformed accountExpires", "account_expires")
	}

	created := time.Time{}
	if raw := entry.GetAttributeValue(attrWhenCreated); raw != "" {
		created, err = parseGeneralizedTime(raw)
		if err != nil {
			return nil, apperrors.NewInvalidInput("malformed whenCreated", "created_at")
		}
	}

	return &model.User{
		ID:                 id,
		SAMAccountName:     sam,
		DisplayName:        entry.GetAttributeValue(attrDisplayName),
		GivenName:          entry.GetAttributeValue(attrGivenName),
		Surname:            entry.GetAttributeValue(attrSurname),
		Email:              entry.GetAttributeValue(attrMail),
		Title:              entry.GetAttributeValue(attrTitle),
		Department:         entry.GetAttributeValue(attrDepartment),
		Company:            entry.GetAttributeValue(attrCompany),
		OfficePhone:        entry.GetAttributeValue(attrTelephoneNumber),
		Mobile:             entry.GetAttributeValue(attrMobile),
		StreetAddress:      entry.GetAttributeValue(attrStreetAddress),
		City:               entry.GetAttributeValue(attrCity),
		State:              entry.GetAttributeValue(attrState),
		Country:            entry.GetAttributeValue(attrCountry),
		Enabled:            enabled,
		AccountLocked:      locked,
		MustChangePassword: mustChange,
		PasswordLastSet:    pwdLastSet,
		LastLogon:          lastLogon,
		AccountExpires:     expires,
		CreatedAt:          created,
	}, nil
}

func decodeGroup(entry *ldap.Entry) (*model.Group, error) {
	id, err := guidString(entry.GetRawAttributeValue(attrObjectGUID))
	if err != nil {
		return nil, apperrors.NewInvalidInput("malformed objectGUID on directory entry", "id")
	}
	name := entry.GetAttributeValue(attrCN)
	if name == "" {
		return nil, apperrors.NewInvalidInput("directory entry has no group name", "name")
	}

	created := time.Time{}
	if raw := entry.GetAttributeValue(attrWhenCreated); raw != "" {
		created, err = parseGeneralizedTime(raw)
		if err != nil {
			return nil, apperrors.NewInvalidInput("malformed whenCreated", "created_at")
		}
	}

	return &model.Group{
		ID:          id,
		Name:        name,
		Description: entry.GetAttributeValue(attrDescription),
		CreatedAt:   created,
	}, nil
}

func decodeDevice(entry *ldap.Entry) (*model.Device, error) {
	id, err := guidString(entry.GetRawAttributeValue(attrObjectGUID))
	if err != nil {
		return nil, apperrors.NewInvalidInput("malformed objectGUID on directory entry", "id")
	}
	hostname := entry.GetAttributeValue(attrCN)
	if hostname == "" {
		return nil, apperrors.NewInvalidInput("directory entry has no hostname", "hostname")
	}
	lastSeen, err := filetimeToTime(entry.GetAttributeValue(attrLastLogon))
	if err != nil {
		return nil, apperrors.NewInvalidInput("malformed lastLogonTimestamp", "last_seen")
	}

	return &model.Device{
		ID:          id,
		Hostname:    hostname,
		Description: entry.GetAttributeValue(attrDescription),
		OU:          parentDN(entry.DN),
		LastSeen:    lastSeen,
	}, nil
}

// guidString renders the binary objectGUID as the backend's opaque
// identifier.
func guidString(raw []byte) (string, error) {
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// guidFilter builds an equality match for a binary objectGUID, escaping each
// byte as the filter grammar requires.
func guidFilter(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range parsed[:] {
		fmt.Fprintf(&sb, `\%02x`, b)
	}
	return sb.String(), nil
}

// filetimeToTime converts a FILETIME attribute value. Zero, empty and the
// "never" sentinel all mean unset.
func filetimeToTime(raw string) (*time.Time, error) {
	if raw == "" || raw == "0" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	if v == accountNeverExpires {
		return nil, nil
	}
	intervals := v - filetimeUnixOffset
	t := time.Unix(intervals/1e7, (intervals%1e7)*100).UTC()
	return &t, nil
}

// parseGeneralizedTime parses the directory's whenCreated format
// (YYYYMMDDHHMMSS.0Z).
func parseGeneralizedTime(raw string) (time.Time, error) {
	return time.Parse("20060102150405.0Z", raw)
}

// encodeUnicodePwd produces the write-only unicodePwd value: the quoted
// password in UTF-16LE.
func encodeUnicodePwd(password string) string {
	quoted := utf16.Encode([]rune(`"` + password + `"`))
	buf := make([]byte, len(quoted)*2)
	for i, r := range quoted {
		buf[i*2] = byte(r)
		buf[i*2+1] = byte(r >> 8)
	}
	return string(buf)
}

// parentDN strips the leading RDN: the remainder is the container the entry
// lives in.
func parentDN(dn string) string {
	if i := strings.Index(dn, ","); i >= 0 {
		return dn[i+1:]
	}
	return dn
}

// domainFromBaseDN turns DC=as,DC=com into as.com for building UPNs.
func domainFromBaseDN(baseDN string) string {
	var parts []string
	for _, rdn := range strings.Split(baseDN, ",") {
		rdn = strings.TrimSpace(rdn)
		if strings.HasPrefix(strings.ToUpper(rdn), "DC=") {
			parts = append(parts, rdn[3:])
		}
	}
	return strings.Join(parts, ".")
}
