// Package rewrite substitutes every framework internal name reachable from
// a translated class unit with its shim counterpart. The mapping
// table is fixed and explicit; names outside the mapped prefixes pass
// through unchanged, and applying the rewrite twice is a no-op (idempotence
// is a tested property, not just an aspiration).
package rewrite

import "github.com/johnsonlee/testpilot/internal/hostvm"

// ShimRoot is the package path prefix every mapped name rewrites under.
const ShimRoot = "testpilot/shim"

var fixedMappings = map[string]string{
	"android/app/Activity": ShimRoot + "/activity/Activity",
	"android/app/Application": ShimRoot + "/activity/Application",
	"android/view/View": ShimRoot + "/view/View",
	"android/view/ViewGroup": ShimRoot + "/view/ViewGroup",
	"android/widget/TextView": ShimRoot + "/widget/TextView",
	"android/widget/Button": ShimRoot + "/widget/Button",
	"android/widget/ImageView": ShimRoot + "/widget/ImageView",
	"android/widget/LinearLayout": ShimRoot + "/widget/LinearLayout",
	"android/widget/FrameLayout": ShimRoot + "/widget/FrameLayout",
	"androidx/fragment/app/Fragment": ShimRoot + "/app/Fragment",
	"androidx/appcompat/app/AppCompatActivity": ShimRoot + "/app/FragmentActivity",
	"androidx/recyclerview/widget/LinearLayoutManager": ShimRoot + "/widget/RecyclerView$LinearLayoutManager",
	"androidx/recyclerview/widget/RecyclerView": ShimRoot + "/widget/RecyclerView",
	"androidx/viewpager/widget/ViewPager": ShimRoot + "/widget/ViewPager",
}

var mappedPrefixes = []string{"android/", "androidx/", "android/support/"}

// MappedName returns the shim internal name for name, or name unchanged if
// it falls outside the mapped prefixes or carries no direct entry. Nested
// classes (separated by `$`) are resolved by mapping the outer name and
// reattaching the `$`-suffix, since the fixed table only lists outer names.
func MappedName(name string) string {
	if outer, suffix, ok := splitNested(name); ok {
		if mapped, found := fixedMappings[outer]; found {
			return mapped + "$" + suffix
		}
		if mapped, found := fixedMappings[name]; found {
			return mapped
		}
		if !hasMappedPrefix(name) {
			return name
		}
		return outer + "$" + suffix // no entry for this nested name: leave as-is under its own namespace
	}
	if mapped, ok := fixedMappings[name]; ok {
		return mapped
	}
	return name
}

func splitNested(name string) (outer, suffix string, ok bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == '$' {
			return name[:i], name[i+1:], true
		}
	}
	return name, "", false
}

func hasMappedPrefix(name string) bool {
	for _, p := range mappedPrefixes {
		if len(name) >= len(p) && name[:len(p)] == p {
			return true
		}
	}
	return false
}

// Class rewrites every reachable name in c in place and returns it:
// superclass, interfaces, field/method descriptors, and instruction
// operands that reference types/methods/fields by symbolic name.
func Class(c *hostvm.Class) *hostvm.Class {
	c.Name = MappedName(c.Name)
	c.SuperName = MappedName(c.SuperName)
	for i, iface := range c.Interfaces {
		c.Interfaces[i] = MappedName(iface)
	}
	for i := range c.Fields {
		c.Fields[i].Descriptor = rewriteDescriptor(c.Fields[i].Descriptor)
	}
	for mi := range c.Methods {
		m := &c.Methods[mi]
		m.Descriptor = rewriteDescriptor(m.Descriptor)
		for ii := range m.Code {
			if m.Code[ii].Ref != "" && m.Code[ii].Op != hostvm.OpPushConst {
				m.Code[ii].Ref = MappedName(m.Code[ii].Ref)
			}
		}
		for hi := range m.Handlers {
			m.Handlers[hi].TypeName = MappedName(m.Handlers[hi].TypeName)
		}
	}
	return c
}

// rewriteDescriptor rewrites every `L<name>;` reference-type occurrence
// within a method or field descriptor string.
func rewriteDescriptor(d string) string {
	out := make([]byte, 0, len(d))
	i := 0
	for i < len(d) {
		if d[i] == 'L' {
			end := i + 1
			for end < len(d) && d[end] != ';' {
				end++
			}
			if end < len(d) {
				mapped := MappedName(d[i+1 : end])
				out = append(out, 'L')
				out = append(out, mapped...)
				out = append(out, ';')
				i = end + 1
				continue
			}
		}
		out = append(out, d[i])
		i++
	}
	return string(out)
}
