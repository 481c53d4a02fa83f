package hal

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// MediaType is the content type for hypermedia resource payloads.
const MediaType = "application/hal+json"

// Resource is one converted object: its content plus hypermedia links.
// Content properties render at the top level of the JSON object, links
// render under _links keyed by relation.
type Resource struct {
	Content any
	Links   []Link
}

// NewResource creates a resource around the given content.
func NewResource(content any, links ...Link) *Resource {
	return &Resource{Content: content, Links: links}
}

// AddLink appends a link. Declaration order is preserved for rendering.
func (r *Resource) AddLink(link Link) {
	r.Links = append(r.Links, link)
}

// Link returns the first link registered under the given relation.
func (r *Resource) Link(rel string) (Link, bool) {
	if r == nil {
		return Link{}, false
	}

	for _, link := range r.Links {
		if link.Rel == rel {
			return link, true
		}
	}

	return Link{}, false
}

// MarshalJSON renders the content properties merged with the _links object.
// Content that does not serialize to a JSON object is kept under "value".
func (r *Resource) MarshalJSON() ([]byte, error) {
	body := make(map[string]any)

	if r.Content != nil {
		raw, err := json.Marshal(r.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal resource content: %w", err)
		}

		if len(raw) > 0 && raw[0] == '{' {
			if err := json.Unmarshal(raw, &body); err != nil {
				return nil, fmt.Errorf("failed to flatten resource content: %w", err)
			}
		} else {
			body["value"] = json.RawMessage(raw)
		}
	}

	if len(r.Links) > 0 {
		body["_links"] = linkObject(r.Links)
	}

	return json.Marshal(body)
}

// UnmarshalJSON splits a resource payload back into links and content.
// Content properties come back as a map.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("failed to unmarshal resource: %w", err)
	}

	if raw, ok := body["_links"]; ok {
		links, err := parseLinks(raw)
		if err != nil {
			return err
		}

		r.Links = links

		delete(body, "_links")
	}

	content := make(map[string]any, len(body))
	for key, raw := range body {
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("failed to unmarshal resource property %q: %w", key, err)
		}

		content[key] = value
	}

	r.Content = content

	return nil
}

// LoadFromReader reads and unmarshals a resource payload.
func (r *Resource) LoadFromReader(reader io.Reader) ([]byte, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	err = json.Unmarshal(data, r)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return data, nil
}

// linkObject groups links by relation. A relation that occurs once renders
// as a single object, repeated relations render as an array.
func linkObject(links []Link) map[string]any {
	out := make(map[string]any, len(links))

	for _, link := range links {
		switch existing := out[link.Rel].(type) {
		case nil:
			out[link.Rel] = link
		case Link:
			out[link.Rel] = []Link{existing, link}
		case []Link:
			out[link.Rel] = append(existing, link)
		}
	}

	return out
}

func parseLinks(raw json.RawMessage) ([]Link, error) {
	var byRel map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byRel); err != nil {
		return nil, fmt.Errorf("failed to unmarshal _links: %w", err)
	}

	rels := make([]string, 0, len(byRel))
	for rel := range byRel {
		rels = append(rels, rel)
	}

	sort.Strings(rels)

	var links []Link

	for _, rel := range rels {
		entry := byRel[rel]

		if len(entry) > 0 && entry[0] == '[' {
			var many []Link
			if err := json.Unmarshal(entry, &many); err != nil {
				return nil, fmt.Errorf("failed to unmarshal links for %q: %w", rel, err)
			}

			for _, link := range many {
				links = append(links, link.WithRel(rel))
			}

			continue
		}

		var one Link
		if err := json.Unmarshal(entry, &one); err != nil {
			return nil, fmt.Errorf("failed to unmarshal link for %q: %w", rel, err)
		}

		links = append(links, one.WithRel(rel))
	}

	return links, nil
}
