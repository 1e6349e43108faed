// storage/directory/directory.go

// Package directory implements the storage contract against a live
// LDAP/Active Directory domain. The directory is the system of record:
// enabled/locked state is decoded from control attributes, authentication is
// a bind, and identifiers are the entries' objectGUIDs. Switching domains
// means constructing a new Backend from a fresh configuration and swapping
// it into the active handle; a Backend is never re-pointed in place.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/asinfra/adconsole/config"
	apperrors "github.com/asinfra/adconsole/errors"
	"github.com/asinfra/adconsole/model"
	"github.com/asinfra/adconsole/storage"
)

const defaultUserFilter = "(&(objectCategory=person)(objectClass=user))"

type Backend struct {
	cfg  config.DirectoryConfig
	dial DialFunc
	conn Client
}

var _ storage.Store = (*Backend)(nil)

type Option func(*Backend)

// WithDialer substitutes the connection factory; tests use it to inject a
// fake client.
func WithDialer(dial DialFunc) Option {
	return func(b *Backend) {
		b.dial = dial
	}
}

// New validates the configuration, dials the directory and binds the service
// account. Invalid configuration fails here, before any caller can reach the
// backend.
func New(cfg config.DirectoryConfig, opts ...Option) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Backend{cfg: cfg.WithDefaults(), dial: dialLDAP}
	for _, opt := range opts {
		opt(b)
	}

	conn, err := b.dial(b.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
	}
	if err := conn.Bind(b.cfg.BindUser, b.cfg.BindPassword); err != nil {
		conn.Close()
		return nil, mapLDAPError(err, apperrors.ErrBackendUnavailable, apperrors.ErrConflict)
	}
	b.conn = conn
	return b, nil
}

// Close tears down the service connection. In-flight calls racing a domain
// switch fail with the backend-unavailable error and must be retried against
// the new handle; writes the directory already accepted are not rolled back.
func (b *Backend) Close() error {
	return b.conn.Close()
}

func (b *Backend) userFilter() string {
	if b.cfg.SearchFilter != "" {
		return b.cfg.SearchFilter
	}
	return defaultUserFilter
}

// search pages through results transparently and returns one merged slice.
func (b *Backend) search(filter string, attrs []string) ([]*ldap.Entry, error) {
	req := ldap.NewSearchRequest(
		b.cfg.SearchBase, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		0, 0, false, filter, attrs, nil,
	)
	res, err := b.conn.SearchWithPaging(req, b.cfg.PageSize)
	if err != nil {
		return nil, mapLDAPError(err, apperrors.ErrNotFound, apperrors.ErrConflict)
	}
	return res.Entries, nil
}

// searchOne resolves a single entry or reports the caller's not-found
// sentinel. The filters used here key on unique attributes, so extra matches
// past the size limit are ignored rather than treated as a failure.
func (b *Backend) searchOne(filter string, attrs []string, notFound error) (*ldap.Entry, error) {
	req := ldap.NewSearchRequest(
		b.cfg.SearchBase, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		1, 0, false, filter, attrs, nil,
	)
	res, err := b.conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) && res != nil && len(res.Entries) > 0 {
			return res.Entries[0], nil
		}
		return nil, mapLDAPError(err, notFound, apperrors.ErrConflict)
	}
	if len(res.Entries) == 0 {
		return nil, notFound
	}
	return res.Entries[0], nil
}

func (b *Backend) findUserByID(id string) (*ldap.Entry, error) {
	guid, err := guidFilter(id)
	if err != nil {
		return nil, apperrors.ErrUserNotFound
	}
	return b.searchOne(
		fmt.Sprintf("(&%s(objectGUID=%s))", b.userFilter(), guid),
		userAttributes, apperrors.ErrUserNotFound,
	)
}

func (b *Backend) findGroupByID(id string) (*ldap.Entry, error) {
	guid, err := guidFilter(id)
	if err != nil {
		return nil, apperrors.ErrGroupNotFound
	}
	return b.searchOne(
		fmt.Sprintf("(&(objectClass=group)(objectGUID=%s))", guid),
		groupAttributes, apperrors.ErrGroupNotFound,
	)
}

func (b *Backend) findDeviceByID(id string) (*ldap.Entry, error) {
	guid, err := guidFilter(id)
	if err != nil {
		return nil, apperrors.ErrDeviceNotFound
	}
	return b.searchOne(
		fmt.Sprintf("(&(objectClass=computer)(objectGUID=%s))", guid),
		deviceAttributes, apperrors.ErrDeviceNotFound,
	)
}

// Users

func (b *Backend) ListUsers(ctx context.Context) ([]*model.User, error) {
	entries, err := b.search(b.userFilter(), userAttributes)
	if err != nil {
		return nil, err
	}
	users := make([]*model.User, 0, len(entries))
	for _, entry := range entries {
		u, err := decodeUser(entry)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (b *Backend) GetUser(ctx context.Context, id string) (*model.User, error) {
	entry, err := b.findUserByID(id)
	if err != nil {
		return nil, err
	}
	return decodeUser(entry)
}

func (b *Backend) CreateUser(ctx context.Context, ins model.InsertUser) (*model.User, error) {
	dn := fmt.Sprintf("CN=%s,%s", ldap.EscapeDN(ins.DisplayName), b.cfg.SearchBase)

	uac := "512" // NORMAL_ACCOUNT
	if ins.Enabled != nil && !*ins.Enabled {
		uac = "514" // NORMAL_ACCOUNT | ACCOUNTDISABLE
	}

	add := ldap.NewAddRequest(dn, nil)
	add.Attribute("objectClass", []string{"top", "person", "organizationalPerson", "user"})
	add.Attribute(attrSAMAccountName, []string{ins.SAMAccountName})
	add.Attribute(attrUPN, []string{ins.SAMAccountName + "@" + domainFromBaseDN(b.cfg.BaseDN)})
	add.Attribute(attrUserAccountControl, []string{uac})
	for attr, value := range map[string]string{
		attrDisplayName:     ins.DisplayName,
		attrGivenName:       ins.GivenName,
		attrSurname:         ins.Surname,
		attrMail:            ins.Email,
		attrTitle:           ins.Title,
		attrDepartment:      ins.Department,
		attrCompany:         ins.Company,
		attrTelephoneNumber: ins.OfficePhone,
		attrMobile:          ins.Mobile,
		attrStreetAddress:   ins.StreetAddress,
		attrCity:            ins.City,
		attrState:           ins.State,
		attrCountry:         ins.Country,
	} {
		if value != "" {
			add.Attribute(attr, []string{value})
		}
	}

	if err := b.conn.Add(add); err != nil {
		return nil, mapLDAPError(err, apperrors.ErrUserNotFound, apperrors.ErrUserConflict)
	}

	// Read back so the caller gets the directory-assigned identifier and
	// timestamps.
	entry, err := b.searchOne(
		fmt.Sprintf("(&%s(sAMAccountName=%s))", b.userFilter(), ldap.EscapeFilter(ins.SAMAccountName)),
		userAttributes, apperrors.ErrUserNotFound,
	)
	if err != nil {
		return nil, err
	}
	return decodeUser(entry)
}

func (b *Backend) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	entry, err := b.findUserByID(id)
	if err != nil {
		return nil, err
	}

	mod := ldap.NewModifyRequest(entry.DN, nil)
	replace := func(attr string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			mod.Replace(attr, []string{})
		} else {
			mod.Replace(attr, []string{*v})
		}
	}
	replace(attrDisplayName, patch.DisplayName)
	replace(attrGivenName, patch.GivenName)
	replace(attrSurname, patch.Surname)
	replace(attrMail, patch.Email)
	replace(attrTitle, patch.Title)
	replace(attrDepartment, patch.Department)
	replace(attrCompany, patch.Company)
	replace(attrTelephoneNumber, patch.OfficePhone)
	replace(attrMobile, patch.Mobile)
	replace(attrStreetAddress, patch.StreetAddress)
	replace(attrCity, patch.City)
	replace(attrState, patch.State)
	replace(attrCountry, patch.Country)
	if patch.AccountExpires != nil {
		mod.Replace(attrAccountExpires, []string{timeToFiletime(*patch.AccountExpires)})
	}

	if len(mod.Changes) > 0 {
		if err := b.conn.Modify(mod); err != nil {
			return nil, mapLDAPError(err, apperrors.ErrUserNotFound, apperrors.ErrUserConflict)
		}
	}

	user, err := decodeUser(entry)
	if err != nil {
		return nil, err
	}
	patch.Apply(user)
	return user, nil
}

func (b *Backend) DeleteUser(ctx context.Context, id string) error {
	entry, err := b.findUserByID(id)
	if err != nil {
		return err
	}
	// The directory drops the entry's member references itself, so
	// memberships cascade exactly as the in-memory backend does.
	if err := b.conn.Del(ldap.NewDelRequest(entry.DN, nil)); err != nil {
		return mapLDAPError(err, apperrors.ErrUserNotFound, apperrors.ErrUserConflict)
	}
	return nil
}

func (b *Backend) ResetPassword(ctx context.Context, id string) (*model.User, string, error) {
	entry, err := b.findUserByID(id)
	if err != nil {
		return nil, "", err
	}

	password, err := storage.GeneratePassword()
	if err != nil {
		return nil, "", err
	}

	mod := ldap.NewModifyRequest(entry.DN, nil)
	mod.Replace(attrUnicodePwd, []string{encodeUnicodePwd(password)})
	// pwdLastSet=0 forces a change on next logon.
	mod.Replace(attrPwdLastSet, []string{"0"})
	if err := b.conn.Modify(mod); err != nil {
		return nil, "", mapLDAPError(err, apperrors.ErrUserNotFound, apperrors.ErrUserConflict)
	}

	user, err := decodeUser(entry)
	if err != nil {
		return nil, "", err
	}
	now := time.Now().UTC()
	user.MustChangePassword = true
	user.PasswordLastSet = &now
	return user, password, nil
}

func (b *Backend) ToggleLock(ctx context.Context, id string) (*model.User, error) {
	entry, err := b.findUserByID(id)
	if err != nil {
		return nil, err
	}
	user, err := decodeUser(entry)
	if err != nil {
		return nil, err
	}

	if !user.AccountLocked {
		// Lockout originates from failed logons; the directory refuses
		// writes that would set it.
		return nil, apperrors.NewInvalidInput(
			"directory accounts can only be unlocked, not locked", "account_locked")
	}

	mod := ldap.NewModifyRequest(entry.DN, nil)
	mod.Replace(attrLockoutTime, []string{"0"})
	if err := b.conn.Modify(mod); err != nil {
		return nil, mapLDAPError(err, apperrors.ErrUserNotFound, apperrors.ErrUserConflict)
	}
	user.AccountLocked = false
	return user, nil
}

func (b *Backend) SetEnabled(ctx context.Context, id string, enabled bool) (*model.User, error) {
	entry, err := b.findUserByID(id)
	if err != nil {
		return nil, err
	}
	user, err := decodeUser(entry)
	if err != nil {
		return nil, err
	}

	uac := int64(512)
	if raw := entry.GetAttributeValue(attrUserAccountControl); raw != "" {
		uac, _ = strconv.ParseInt(raw, 10, 64)
	}
	if enabled {
		uac &^= uacAccountDisable
	} else {
		uac |= uacAccountDisable
	}

	mod := ldap.NewModifyRequest(entry.DN, nil)
	mod.Replace(attrUserAccountControl, []string{strconv.FormatInt(uac, 10)})
	if err := b.conn.Modify(mod); err != nil {
		return nil, mapLDAPError(err, apperrors.ErrUserNotFound, apperrors.ErrUserConflict)
	}
	user.Enabled = enabled
	return user, nil
}

// Groups

func (b *Backend) ListGroups(ctx context.Context) ([]*model.Group, error) {
	entries, err := b.search("(objectClass=group)", groupAttributes)
	if err != nil {
		return nil, err
	}
	groups := make([]*model.Group, 0, len(entries))
	for _, entry := range entries {
		g, err := decodeGroup(entry)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (b *Backend) GetGroup(ctx context.Context, id string) (*model.Group, error) {
	entry, err := b.findGroupByID(id)
	if err != nil {
		return nil, err
	}
	return decodeGroup(entry)
}

func (b *Backend) CreateGroup(ctx context.Context, ins model.InsertGroup) (*model.Group, error) {
	dn := fmt.Sprintf("CN=%s,%s", ldap.EscapeDN(ins.Name), b.cfg.SearchBase)

	add := ldap.NewAddRequest(dn, nil)
	add.Attribute("objectClass", []string{"top", "group"})
	add.Attribute(attrSAMAccountName, []string{ins.Name})
	if ins.Description != "" {
		add.Attribute(attrDescription, []string{ins.Description})
	}
	if err := b.conn.Add(add); err != nil {
		return nil, mapLDAPError(err, apperrors.ErrGroupNotFound, apperrors.ErrGroupConflict)
	}

	entry, err := b.searchOne(
		fmt.Sprintf("(&(objectClass=group)(cn=%s))", ldap.EscapeFilter(ins.Name)),
		groupAttributes, apperrors.ErrGroupNotFound,
	)
	if err != nil {
		return nil, err
	}
	return decodeGroup(entry)
}

func (b *Backend) UpdateGroup(ctx context.Context, id string, patch model.GroupPatch) (*model.Group, error) {
	entry, err := b.findGroupByID(id)
	if err != nil {
		return nil, err
	}

	mod := ldap.NewModifyRequest(entry.DN, nil)
	if patch.Description != nil {
		if *patch.Description == "" {
			mod.Replace(attrDescription, []string{})
		} else {
			mod.Replace(attrDescription, []string{*patch.Description})
		}
	}
	// Renames need a ModifyDN; description is the only mutable attribute
	// this console exposes for directory groups.
	if patch.Name != nil {
		return nil, apperrors.NewInvalidInput("directory groups cannot be renamed here", "name")
	}

	if len(mod.Changes) > 0 {
		if err := b.conn.Modify(mod); err != nil {
			return nil, mapLDAPError(err, apperrors.ErrGroupNotFound, apperrors.ErrGroupConflict)
		}
	}

	group, err := decodeGroup(entry)
	if err != nil {
		return nil, err
	}
	patch.Apply(group)
	return group, nil
}

func (b *Backend) DeleteGroup(ctx context.Context, id string) error {
	entry, err := b.findGroupByID(id)
	if err != nil {
		return err
	}
	if err := b.conn.Del(ldap.NewDelRequest(entry.DN, nil)); err != nil {
		return mapLDAPError(err, apperrors.ErrGroupNotFound, apperrors.ErrGroupConflict)
	}
	return nil
}

// Devices

func (b *Backend) ListDevices(ctx context.Context) ([]*model.Device, error) {
	entries, err := b.search("(objectClass=computer)", deviceAttributes)
	if err != nil {
		return nil, err
	}
	devices := make([]*model.Device, 0, len(entries))
	for _, entry := range entries {
		d, err := decodeDevice(entry)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func (b *Backend) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	entry, err := b.findDeviceByID(id)
	if err != nil {
		return nil, err
	}
	return decodeDevice(entry)
}

func (b *Backend) CreateDevice(ctx context.Context, ins model.InsertDevice) (*model.Device, error) {
	container := ins.OU
	if container == "" {
		container = b.cfg.SearchBase
	}
	dn := fmt.Sprintf("CN=%s,%s", ldap.EscapeDN(ins.Hostname), container)

	add := ldap.NewAddRequest(dn, nil)
	add.Attribute("objectClass", []string{"top", "computer"})
	add.Attribute(attrSAMAccountName, []string{ins.Hostname + "$"})
	if ins.Description != "" {
		add.Attribute(attrDescription, []string{ins.Description})
	}
	if err := b.conn.Add(add); err != nil {
		return nil, mapLDAPError(err, apperrors.ErrDeviceNotFound, apperrors.ErrDeviceConflict)
	}

	entry, err := b.searchOne(
		fmt.Sprintf("(&(objectClass=computer)(cn=%s))", ldap.EscapeFilter(ins.Hostname)),
		deviceAttributes, apperrors.ErrDeviceNotFound,
	)
	if err != nil {
		return nil, err
	}
	return decodeDevice(entry)
}

func (b *Backend) UpdateDevice(ctx context.Context, id string, patch model.DevicePatch) (*model.Device, error) {
	entry, err := b.findDeviceByID(id)
	if err != nil {
		return nil, err
	}

	// Moving between OUs needs a ModifyDN; only the description is patched
	// in place.
	if patch.OU != nil {
		return nil, apperrors.NewInvalidInput("directory devices cannot be moved here", "ou")
	}

	mod := ldap.NewModifyRequest(entry.DN, nil)
	if patch.Description != nil {
		if *patch.Description == "" {
			mod.Replace(attrDescription, []string{})
		} else {
			mod.Replace(attrDescription, []string{*patch.Description})
		}
	}
	if len(mod.Changes) > 0 {
		if err := b.conn.Modify(mod); err != nil {
			return nil, mapLDAPError(err, apperrors.ErrDeviceNotFound, apperrors.ErrDeviceConflict)
		}
	}

	device, err := decodeDevice(entry)
	if err != nil {
		return nil, err
	}
	patch.Apply(device)
	return device, nil
}

func (b *Backend) DeleteDevice(ctx context.Context, id string) error {
	entry, err := b.findDeviceByID(id)
	if err != nil {
		return err
	}
	if err := b.conn.Del(ldap.NewDelRequest(entry.DN, nil)); err != nil {
		return mapLDAPError(err, apperrors.ErrDeviceNotFound, apperrors.ErrDeviceConflict)
	}
	return nil
}

// Memberships

func (b *Backend) AddUserToGroup(ctx context.Context, userID, groupID string) (*model.Membership, error) {
	userEntry, err := b.findUserByID(userID)
	if err != nil {
		return nil, err
	}
	groupEntry, err := b.findGroupByID(groupID)
	if err != nil {
		return nil, err
	}

	mod := ldap.NewModifyRequest(groupEntry.DN, nil)
	mod.Add(attrMember, []string{userEntry.DN})
	if err := b.conn.Modify(mod); err != nil {
		return nil, mapLDAPError(err, apperrors.ErrMembershipNotFound, apperrors.ErrMembershipConflict)
	}

	return &model.Membership{
		ID:      userID + ":" + groupID,
		UserID:  userID,
		GroupID: groupID,
	}, nil
}

func (b *Backend) RemoveUserFromGroup(ctx context.Context, userID, groupID string) error {
	userEntry, err := b.findUserByID(userID)
	if err != nil {
		return err
	}
	groupEntry, err := b.findGroupByID(groupID)
	if err != nil {
		return err
	}

	mod := ldap.NewModifyRequest(groupEntry.DN, nil)
	mod.Delete(attrMember, []string{userEntry.DN})
	if err := b.conn.Modify(mod); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchAttribute) ||
			ldap.IsErrorWithCode(err, ldap.LDAPResultUnwillingToPerform) {
			return apperrors.ErrMembershipNotFound
		}
		return mapLDAPError(err, apperrors.ErrMembershipNotFound, apperrors.ErrMembershipConflict)
	}
	return nil
}

func (b *Backend) GroupsForUser(ctx context.Context, userID string) ([]*model.Group, error) {
	userEntry, err := b.findUserByID(userID)
	if err != nil {
		return nil, err
	}

	entries, err := b.search(
		fmt.Sprintf("(&(objectClass=group)(member=%s))", ldap.EscapeFilter(userEntry.DN)),
		groupAttributes,
	)
	if err != nil {
		return nil, err
	}
	groups := make([]*model.Group, 0, len(entries))
	for _, entry := range entries {
		g, err := decodeGroup(entry)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// Auth

// VerifyCredentials resolves the account and binds as it on a short-lived
// connection. The service connection keeps its own bind.
func (b *Backend) VerifyCredentials(ctx context.Context, username, password string) error {
	if password == "" {
		// An empty password would be an unauthenticated bind, which the
		// directory treats as success.
		return apperrors.ErrInvalidCredentials
	}

	entry, err := b.searchOne(
		fmt.Sprintf("(&%s(sAMAccountName=%s))", b.userFilter(), ldap.EscapeFilter(username)),
		[]string{attrSAMAccountName}, apperrors.ErrInvalidCredentials,
	)
	if err != nil {
		return err
	}

	conn, err := b.dial(b.cfg.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
	}
	defer conn.Close()

	if err := conn.Bind(entry.DN, password); err != nil {
		return mapLDAPError(err, apperrors.ErrInvalidCredentials, apperrors.ErrConflict)
	}
	return nil
}

// timeToFiletime renders a timestamp as the accountExpires FILETIME value.
func timeToFiletime(t time.Time) string {
	intervals := t.Unix()*1e7 + int64(t.Nanosecond())/100 + filetimeUnixOffset
	return strconv.FormatInt(intervals, 10)
}

// mapLDAPError translates directory failures into the error taxonomy so
// callers never see vendor result codes. NotFound and Conflict targets vary
// by entity, hence the parameters.
func mapLDAPError(err error, notFound, conflict error) error {
	var lerr *ldap.Error
	if errors.As(err, &lerr) {
		switch lerr.ResultCode {
		case ldap.LDAPResultNoSuchObject:
			return notFound
		// constraintViolation is how the directory reports a duplicate
		// sAMAccountName on an Add whose DN is distinct.
		case ldap.LDAPResultEntryAlreadyExists, ldap.LDAPResultAttributeOrValueExists,
			ldap.LDAPResultConstraintViolation:
			return conflict
		case ldap.LDAPResultInvalidCredentials:
			return apperrors.ErrInvalidCredentials
		case ldap.LDAPResultInsufficientAccessRights:
			return fmt.Errorf("%w: directory refused the operation", apperrors.ErrUnauthorized)
		case ldap.LDAPResultInvalidDNSyntax, ldap.ErrorFilterCompile, ldap.ErrorFilterDecompile:
			return apperrors.NewInvalidInput("directory rejected the request syntax", "filter")
		case ldap.ErrorNetwork:
			return fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
}
