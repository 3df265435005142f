// Package ldaptest provides an in-memory directory for LDAP login tests.
package ldaptest

import (
	"errors"
	"regexp"
	"slices"
	"sync"

	"github.com/go-ldap/ldap/v3"
)

var equalityFilter = regexp.MustCompile(`^\(([A-Za-z][\w-]*)=([^()*]*)\)$`)

type account struct {
	password string
	attrs    map[string][]string
}

// Directory answers Bind and Search for a fixed set of accounts. It
// understands single equality filters such as (uid=alice).
type Directory struct {
	mu              sync.Mutex
	serviceDN       string
	servicePassword string
	accounts        map[string]account
	order           []string
	binds           []string
	closed          int
}

// New returns a directory whose service account is serviceDN.
func New(serviceDN, servicePassword string) *Directory {
	return &Directory{
		serviceDN:       serviceDN,
		servicePassword: servicePassword,
		accounts:        make(map[string]account),
	}
}

// AddUser adds or replaces the entry dn.
func (d *Directory) AddUser(dn, password string, attrs map[string][]string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.accounts[dn]; !ok {
		d.order = append(d.order, dn)
	}

	d.accounts[dn] = account{password: password, attrs: attrs}
}

// Bind accepts the service account and user entries with their password.
func (d *Directory) Bind(username, password string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.binds = append(d.binds, username)

	if username == d.serviceDN && password == d.servicePassword {
		return nil
	}

	if a, ok := d.accounts[username]; ok && password != "" && a.password == password {
		return nil
	}

	return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
}

// Search returns the entries matching an equality filter.
func (d *Directory) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	m := equalityFilter.FindStringSubmatch(req.Filter)
	if m == nil {
		return nil, ldap.NewError(ldap.ErrorFilterCompile, errors.New("unsupported filter "+req.Filter))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	res := &ldap.SearchResult{}

	for _, dn := range d.order {
		a := d.accounts[dn]
		if slices.Contains(a.attrs[m[1]], m[2]) {
			res.Entries = append(res.Entries, ldap.NewEntry(dn, a.attrs))
		}
	}

	return res, nil
}

// Close counts closed connections.
func (d *Directory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed++

	return nil
}

// Binds returns the DNs bound so far, in order.
func (d *Directory) Binds() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return slices.Clone(d.binds)
}

// Closed returns how many connections were closed.
func (d *Directory) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.closed
}
