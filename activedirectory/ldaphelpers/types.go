package ldaphelpers

const (
	AllObjects        = "(objectClass=*)"
	AllGroupObjects   = "(objectClass=group)"
	AllUserObjects    = "(&(objectClass=user)(objectCategory=person))"
	AllTrustedDomains = "(objectClass=trustedDomain)"
	AllContainers     = "(objectClass=container)"
	AllDNSZones       = "(objectClass=dnsZone)"
	AllGPOContainers  = "(objectClass=groupPolicyContainer)"
	DomainRoot        = "(objectClass=domainDNS)"
)
