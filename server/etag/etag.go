// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package etag

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/server/types"
	"github.com/opencontainers/go-digest"
)

// ETag is a strong entity tag without its surrounding quotes.
type ETag string

// fingerprintLen bounds the hex length of content-derived tags.
const fingerprintLen = 16

// FromResource derives the entity tag of a resource. Versioned content
// is tagged by its version, anything else by a content fingerprint.
// A resource without content yields the zero tag.
func FromResource(res *hal.Resource) ETag {
	if res == nil || res.Content == nil {
		return ""
	}

	if versioned, ok := res.Content.(types.Versioned); ok {
		if version := versioned.Version(); version > 0 {
			return ETag(strconv.FormatInt(version, 10))
		}
	}

	return FromContent(res.Content)
}

// FromContent fingerprints arbitrary content through its canonical JSON
// form. Content that cannot be marshalled yields the zero tag.
func FromContent(content any) ETag {
	data, err := json.Marshal(content)
	if err != nil {
		return ""
	}

	return ETag(digest.FromBytes(data).Encoded()[:fingerprintLen])
}

// Parse extracts a strong entity tag from its quoted wire form.
func Parse(value string) (ETag, error) {
	value = strings.TrimSpace(value)

	if strings.HasPrefix(value, "W/") {
		return "", fmt.Errorf("%w: weak entity tags are not supported", types.ErrInvalidRequest)
	}

	if len(value) < 2 || !strings.HasPrefix(value, `"`) || !strings.HasSuffix(value, `"`) {
		return "", fmt.Errorf("%w: entity tag must be quoted", types.ErrInvalidRequest)
	}

	return ETag(value[1 : len(value)-1]), nil
}

// String returns the quoted wire form.
func (e ETag) String() string {
	return `"` + string(e) + `"`
}

// AddTo sets the ETag response header. The zero tag adds nothing.
func (e ETag) AddTo(header http.Header) {
	if e == "" {
		return
	}

	header.Set("ETag", e.String())
}

// MatchesHeader reports whether the tag matches a conditional header
// value, which may list several candidates. The wildcard form matches
// any existing tag. The zero tag matches nothing.
func (e ETag) MatchesHeader(value string) bool {
	if e == "" || value == "" {
		return false
	}

	for _, candidate := range strings.Split(value, ",") {
		candidate = strings.TrimSpace(candidate)

		if candidate == "*" {
			return true
		}

		parsed, err := Parse(candidate)
		if err != nil {
			continue
		}

		if parsed == e {
			return true
		}
	}

	return false
}

// IfNoneMatch evaluates the If-None-Match request header. It reports
// true when the client copy is still fresh and the representation
// should not be resent.
func (e ETag) IfNoneMatch(r *http.Request) bool {
	return e.MatchesHeader(r.Header.Get("If-None-Match"))
}

// IfMatch evaluates the If-Match request header. It reports false when
// the header is present and the stored tag lost the comparison.
func (e ETag) IfMatch(r *http.Request) bool {
	value := r.Header.Get("If-Match")
	if value == "" {
		return true
	}

	return e.MatchesHeader(value)
}
