package hal

// Well-known link relations used across resource payloads.
const (
	RelSelf    = "self"
	RelFirst   = "first"
	RelPrev    = "prev"
	RelNext    = "next"
	RelLast    = "last"
	RelProfile = "profile"
	RelSearch  = "search"
)

// Link relates a resource to a target URI under a named relation.
// The relation is carried out of band: links render as {"href": ...}
// keyed by relation inside the _links object.
type Link struct {
	Rel  string `json:"-"`
	Href string `json:"href"`
}

// NewLink creates a link bound to the given relation.
func NewLink(rel, href string) Link {
	return Link{Rel: rel, Href: href}
}

// WithRel returns a copy of the link bound to a different relation.
func (l Link) WithRel(rel string) Link {
	return Link{Rel: rel, Href: l.Href}
}
