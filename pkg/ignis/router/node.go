package router

import "strings"

type segKind uint8

const (
	segStatic segKind = iota
	segParam
	segWildcard
)

type segment struct {
	kind segKind
	text []byte // literal bytes for segStatic, parameter name for segParam/segWildcard
}

// node is one trie node. Children are shared by prefix only at the segment
// level (no per-byte radix compression) — spec.md §4.2 describes matching
// purely in terms of whole path segments, so there is nothing to gain from
// splitting a segment's bytes across nodes the way a byte-level radix tree
// would.
//
// Ground: bolt/core/router.go's node, trimmed of the fields only its
// hybrid static-map/priority-reordering design needed (path, priority,
// label are folded into text + the indices string below).
type node struct {
	kind segKind
	text []byte // literal text (segStatic) or captured name (segParam/segWildcard)

	children []*node
	indices  string // first byte of each static child's text, same order as children

	paramChild *node
	wildChild  *node
	// slashChild is the distinct terminal reached when the registered
	// pattern ends with an explicit '/' after this segment — spec.md §4.2
	// treats a trailing slash as significant, so "/users" and "/users/" are
	// two independently matchable routes rather than aliases of one node.
	slashChild *node

	hasHandler bool
	handlerID  uint32
	paramNames [][]byte // names of every param/wildcard segment from root to here, in order
}

// findOrCreateStatic returns the static child matching text, creating one if
// absent. Ground: bolt's findOrCreateChild, minus the isParam/isWild/priority
// bookkeeping that lives on paramChild/wildChild here instead.
func (n *node) findOrCreateStatic(text []byte) *node {
	label := text[0]
	for i, c := range n.indices {
		if byte(c) == label && bytesEqual(n.children[i].text, text) {
			return n.children[i]
		}
	}
	child := &node{kind: segStatic, text: append([]byte(nil), text...)}
	n.children = append(n.children, child)
	n.indices += string(label)
	return child
}

// searchNode descends the trie segment-by-segment starting at byte offset
// start in path, recording captured params into m as it goes. It returns the
// deepest node reached that terminates the match, or nil.
//
// A '/' separates segments, but a '/' with nothing after it is not just a
// separator: spec.md §4.2 makes a trailing slash significant, so the two
// must be told apart. Reaching start == len(path) without having just
// consumed a '/' means the previous segment's node is the exact terminal
// (node.hasHandler); reaching it immediately after consuming one more '/'
// means the pattern matched here must have been registered with an explicit
// trailing slash (node.slashChild.hasHandler).
//
// Ground: bolt's searchNodeBytes, restructured to build paramNames-indexed
// Param pairs directly instead of a map, and to walk a single per-segment
// node (static/param/wildcard) rather than a combined children scan.
func searchNode(n *node, path []byte, start int, m *RouteMatch) *node {
	if start >= len(path) {
		if n.hasHandler {
			return n
		}
		// A wildcard child matches a zero-length remainder too, e.g.
		// "/files/*path" against "/files/" captures path="" (spec.md §4.2).
		if n.wildChild != nil && n.wildChild.hasHandler && m.ParamsLen < maxParams {
			m.Params[m.ParamsLen].Value = path[len(path):]
			m.ParamsLen++
			return n.wildChild
		}
		return nil
	}

	if path[start] == '/' {
		start++
	}

	if start == len(path) {
		// The '/' just consumed was a trailing slash, not a separator ahead
		// of another segment.
		if n.slashChild != nil && n.slashChild.hasHandler {
			return n.slashChild
		}
		if n.wildChild != nil && n.wildChild.hasHandler && m.ParamsLen < maxParams {
			m.Params[m.ParamsLen].Value = path[len(path):]
			m.ParamsLen++
			return n.wildChild
		}
		return nil
	}

	end := start
	for end < len(path) && path[end] != '/' {
		end++
	}
	seg := path[start:end]

	if len(seg) == 0 {
		// Adjacent slashes: treat as end of path for matching purposes.
		if n.hasHandler {
			return n
		}
		return nil
	}

	// Static children first.
	label := seg[0]
	for i, c := range n.indices {
		if byte(c) != label {
			continue
		}
		child := n.children[i]
		if bytesEqual(child.text, seg) {
			if res := searchNode(child, path, end, m); res != nil {
				return res
			}
		}
	}

	// Param child next.
	if n.paramChild != nil {
		if m.ParamsLen < maxParams {
			idx := m.ParamsLen
			m.Params[idx].Value = seg
			m.ParamsLen++
			if res := searchNode(n.paramChild, path, end, m); res != nil {
				return res
			}
			m.ParamsLen--
		}
	}

	// Wildcard last: captures the remainder of the path including interior
	// slashes, per spec.md §4.2.
	if n.wildChild != nil {
		if m.ParamsLen < maxParams {
			rest := path[start:]
			m.Params[m.ParamsLen].Value = rest
			m.ParamsLen++
			if n.wildChild.hasHandler {
				return n.wildChild
			}
			m.ParamsLen--
		}
	}

	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// compilePattern splits pattern into segments and validates the grammar in
// spec.md §4.2: no empty interior segments, ':'/'*' only at segment start,
// wildcard only as the final segment. It also reports whether pattern ends
// with an explicit '/' after its last segment — spec.md §4.2 makes that
// trailing slash significant, distinguishing "/users" from "/users/" rather
// than collapsing them to one route.
func compilePattern(pattern string) (segs []segment, trailingSlash bool, err error) {
	trimmed := strings.TrimPrefix(pattern, "/")
	if trimmed != "" && strings.HasSuffix(trimmed, "/") {
		trailingSlash = true
		trimmed = strings.TrimSuffix(trimmed, "/")
	}
	if trimmed == "" {
		return nil, trailingSlash, nil
	}
	parts := strings.Split(trimmed, "/")
	segs = make([]segment, 0, len(parts))

	for i, part := range parts {
		if part == "" {
			return nil, false, ErrInvalidPattern
		}
		if idx := strings.IndexByte(part[1:], ':'); idx != -1 {
			return nil, false, ErrInvalidPattern
		}
		if idx := strings.IndexByte(part[1:], '*'); idx != -1 {
			return nil, false, ErrInvalidPattern
		}

		switch part[0] {
		case ':':
			name := part[1:]
			if name == "" || strings.ContainsAny(name, "/:*") {
				return nil, false, ErrInvalidPattern
			}
			segs = append(segs, segment{kind: segParam, text: []byte(name)})
		case '*':
			if i != len(parts)-1 {
				return nil, false, ErrInvalidPattern
			}
			name := part[1:]
			if name == "" {
				name = "*"
			}
			segs = append(segs, segment{kind: segWildcard, text: []byte(name)})
		default:
			segs = append(segs, segment{kind: segStatic, text: []byte(part)})
		}
	}
	return segs, trailingSlash, nil
}

// normalizePattern ensures a leading slash, keying the Allow-header bucket.
// A trailing slash is left intact: it names a distinct route, not an alias.
func normalizePattern(pattern string) string {
	if strings.HasPrefix(pattern, "/") {
		return pattern
	}
	return "/" + pattern
}
