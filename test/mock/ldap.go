// test/mock/ldap.go
package mock

import (
	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/mock"
)

// MockLDAPClient is a mock implementation of directory.Client
type MockLDAPClient struct {
	mock.Mock
}

func (m *MockLDAPClient) Bind(username, password string) error {
	args := m.Called(username, password)
	return args.Error(0)
}

func (m *MockLDAPClient) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	args := m.Called(req)
	if res := args.Get(0); res != nil {
		return res.(*ldap.SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLDAPClient) SearchWithPaging(req *ldap.SearchRequest, pagingSize uint32) (*ldap.SearchResult, error) {
	args := m.Called(req, pagingSize)
	if res := args.Get(0); res != nil {
		return res.(*ldap.SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLDAPClient) Add(req *ldap.AddRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockLDAPClient) Modify(req *ldap.ModifyRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockLDAPClient) Del(req *ldap.DelRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockLDAPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}
