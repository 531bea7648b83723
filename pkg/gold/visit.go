package gold

// Hook inspects a pair of co-located nodes. Returning ok=true substitutes
// replacement for the right node at that position; replacement may be nil,
// which stands for JSON null.
type Hook func(left, right any) (replacement any, ok bool)

// Visit walks left and right in lockstep and returns a rewritten copy of right.
//
// pre runs before descending; a replacement from pre stops the descent into
// that subtree. Sequences are walked index by index up to the shorter length
// and mappings over the keys of left that are also present in right. Extra
// elements and keys of right are carried over untouched, so length and key
// mismatches only surface later in the textual diff. Any other pair is a leaf.
// post runs after the children have been rebuilt.
//
// right is never modified: containers on the visited path are copied and
// untouched subtrees are shared with the input.
func Visit(left, right any, pre, post Hook) any {
	if pre != nil {
		if replacement, ok := pre(left, right); ok {
			return replacement
		}
	}

	switch r := right.(type) {
	case []any:
		if l, ok := left.([]any); ok && r != nil {
			out := make([]any, len(r))
			copy(out, r)
			for i := 0; i < len(l) && i < len(r); i++ {
				out[i] = Visit(l[i], r[i], pre, post)
			}
			right = out
		}
	case map[string]any:
		if l, ok := left.(map[string]any); ok && r != nil {
			out := make(map[string]any, len(r))
			for k, v := range r {
				out[k] = v
			}
			for k, lv := range l {
				if rv, present := r[k]; present {
					out[k] = Visit(lv, rv, pre, post)
				}
			}
			right = out
		}
	}

	if post != nil {
		if replacement, ok := post(left, right); ok {
			return replacement
		}
	}
	return right
}
