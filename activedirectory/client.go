package activedirectory

import (
	"encoding/binary"
	"fmt"
	"log"
	"unicode/utf16"

	"github.com/go-ldap/ldap/v3"

	"adaudit/activedirectory/ldaphelpers"
	"adaudit/directory"
)

// Client talks to an Active Directory domain controller over LDAP and
// implements directory.Directory. All searches are paged subtree searches
// under BaseDn.
type Client struct {
	BaseDn               string
	DomainControllerFQDN string
	PageSize             uint32
	ldapConnection       *ldap.Conn
}

func NewClient(baseDn string, domainControllerFQDN string, pageSize uint32) *Client {
	if pageSize == 0 {
		pageSize = 1000
	}
	return &Client{
		BaseDn:               baseDn,
		DomainControllerFQDN: domainControllerFQDN,
		PageSize:             pageSize,
	}
}

// Connect to the Active Directory Domain Controller
func (c *Client) Connect(username, password string) error {
	bindString := fmt.Sprintf("ldap://%s:389", c.DomainControllerFQDN)
	conn, err := ldap.DialURL(bindString)
	if err != nil {
		return fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	// TODO: LDAPS, IWA/GSSAPI, etc
	if err := conn.Bind(username, password); err != nil {
		conn.Close()
		return fmt.Errorf("failed to bind to LDAP server: %w", err)
	}

	res, err := conn.WhoAmI(nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to call WhoAmI(): %w", err)
	}
	log.Printf("Authenticated to %s as %s", bindString, res.AuthzID)

	c.ldapConnection = conn
	return nil
}

func (c *Client) Close() {
	if c.ldapConnection != nil {
		c.ldapConnection.Close()
		c.ldapConnection = nil
	}
}

// Search performs a paged subtree search and converts each entry into a raw
// record. Attribute values stay uninterpreted strings; decoding is the audit
// engine's job.
func (c *Client) Search(filter string, attributes []string) ([]directory.Record, error) {
	if c.ldapConnection == nil {
		return nil, fmt.Errorf("not connected to %s", c.DomainControllerFQDN)
	}

	request := ldap.NewSearchRequest(
		c.BaseDn,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		filter,
		attributes,
		nil,
	)

	results, err := c.ldapConnection.SearchWithPaging(request, c.PageSize)
	if err != nil {
		return nil, fmt.Errorf("LDAP search failed: %w", err)
	}

	records := make([]directory.Record, 0, len(results.Entries))
	for _, entry := range results.Entries {
		records = append(records, entryToRecord(entry))
	}
	return records, nil
}

// SearchOne returns the first matching record, or (nil, nil) when nothing
// matches.
func (c *Client) SearchOne(filter string, attributes []string) (directory.Record, error) {
	records, err := c.Search(filter, attributes)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func entryToRecord(entry *ldap.Entry) directory.Record {
	record := make(directory.Record, len(entry.Attributes)+1)
	for _, attr := range entry.Attributes {
		record[attr.Name] = attr.Values
	}
	if !record.Has("distinguishedName") {
		record["distinguishedName"] = []string{entry.DN}
	}
	return record
}

// ResetPassword is the single write passthrough: it sets a new password for
// the named account via a unicodePwd replace. The account must exist, be
// enabled and not be locked out.
func (c *Client) ResetPassword(username, newPassword string) error {
	if c.ldapConnection == nil {
		return fmt.Errorf("not connected to %s", c.DomainControllerFQDN)
	}

	filter := ldaphelpers.And(
		ldaphelpers.Eq("objectClass", "user"),
		ldaphelpers.Eq("sAMAccountName", ldap.EscapeFilter(username)),
	).String()

	record, err := c.SearchOne(filter, []string{"distinguishedName", "userAccountControl", "lockoutTime"})
	if err != nil {
		return fmt.Errorf("failed to locate user %q: %w", username, err)
	}
	if record == nil {
		return fmt.Errorf("user %q not found", username)
	}

	if uac, ok := record.Int("userAccountControl"); ok && uac&0x2 != 0 {
		return fmt.Errorf("user %q account is disabled", username)
	}
	if lockout, ok := record.Int64("lockoutTime"); ok && lockout > 0 {
		return fmt.Errorf("user %q account is locked", username)
	}

	modify := ldap.NewModifyRequest(record.First("distinguishedName"), nil)
	modify.Replace("unicodePwd", []string{string(encodeUnicodePwd(newPassword))})

	if err := c.ldapConnection.Modify(modify); err != nil {
		return fmt.Errorf("failed to reset password for %q: %w", username, err)
	}
	return nil
}

// AD expects unicodePwd as a quoted password encoded UTF-16LE.
func encodeUnicodePwd(password string) []byte {
	encoded := utf16.Encode([]rune(`"` + password + `"`))
	out := make([]byte, len(encoded)*2)
	for i, r := range encoded {
		binary.LittleEndian.PutUint16(out[i*2:], r)
	}
	return out
}
