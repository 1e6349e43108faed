// storage/directory/client.go
package directory

import (
	"github.com/go-ldap/ldap/v3"
)

// Client is the subset of the LDAP connection this backend uses. Tests
// substitute a mock; production uses a real *ldap.Conn.
type Client interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	SearchWithPaging(req *ldap.SearchRequest, pagingSize uint32) (*ldap.SearchResult, error)
	Add(req *ldap.AddRequest) error
	Modify(req *ldap.ModifyRequest) error
	Del(req *ldap.DelRequest) error
	Close() error
}

// DialFunc opens a connection to the directory. Credential verification
// dials a second, short-lived connection so the service bind is never
// downgraded to a user bind.
type DialFunc func(url string) (Client, error)

func dialLDAP(url string) (Client, error) {
	conn, err := ldap.DialURL(url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
