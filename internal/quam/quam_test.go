package quam

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/squidquam/internal/inmemorystore"
	"github.com/vk/squidquam/internal/statestore"
)

type leaf struct {
	Base
	Annotated
	Label Value[string]  `json:"label"`
	Amp   Value[float64] `json:"amp" unit:"V" long_name:"Amplitude" description:"Drive amplitude"`
	Count int            `json:"count"`
}

func newLeaf() *leaf {
	return &leaf{Label: Ref[string]("#./name_from_parent")}
}

func (l *leaf) Property(name string) (any, bool, error) {
	switch name {
	case "name_from_parent":
		n, err := NameFromParent(l)
		return n, true, err
	case "double_amp":
		a, err := l.Amp.Get(l)
		return 2 * a, true, err
	}
	return nil, false, nil
}

func (l *leaf) ApplyToConfig(cfg Config) error {
	label, err := l.Label.Get(l)
	if err != nil {
		return err
	}
	cfg.Section("elements", label)["count"] = l.Count
	return nil
}

type node struct {
	Base
	Child  *leaf          `json:"child"`
	Items  *Dict[*leaf]   `json:"items"`
	List   *List[*leaf]   `json:"list"`
	Params *Dict[any]     `json:"params"`
	Scale  float64        `json:"scale"`
	Link   Value[*leaf]   `json:"link"`
	Hidden string         `json:"-"`
	Other  Value[float64] `json:"other"`
}

func newNode() *node {
	return &node{
		Items:  NewDict[*leaf](),
		List:   NewList[*leaf](),
		Params: NewDict[any](),
	}
}

func (n *node) Property(name string) (any, bool, error) {
	if name == "double_scale" {
		return n.Scale * 2, true, nil
	}
	return nil, false, nil
}

func init() {
	Register("test.leaf", func() Component { return newLeaf() })
	Register("test.node", func() Component { return newNode() })
}

// sampleTree builds:
//
//	root(scale=2)
//	├── child            amp -> #../scale
//	├── items/a          amp -> #/child/amp
//	├── items/alias      -> #./a
//	└── list/0           amp -> #../../double_scale
func sampleTree(t *testing.T) *node {
	t.Helper()
	root := newNode()
	root.Scale = 2

	root.Child = newLeaf()
	root.Child.Amp = Ref[float64]("#../scale")

	a := newLeaf()
	a.Amp = Ref[float64]("#/child/amp")
	root.Items.Set("a", a)
	root.Items.SetRef("alias", "#./a")

	l0 := newLeaf()
	l0.Amp = Ref[float64]("#../../double_scale")
	root.List.Append(l0)

	Adopt(root)
	return root
}

func TestResolve_RelativeAbsoluteAndProperty(t *testing.T) {
	root := sampleTree(t)

	amp, err := root.Child.Amp.Get(root.Child)
	require.NoError(t, err)
	assert.Equal(t, 2.0, amp)

	a, err := root.Items.Get("a")
	require.NoError(t, err)
	amp, err = a.Amp.Get(a)
	require.NoError(t, err)
	assert.Equal(t, 2.0, amp, "chained references resolve relative to their holders")

	l0, err := root.List.Get(0)
	require.NoError(t, err)
	amp, err = l0.Amp.Get(l0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, amp)
}

func TestResolve_IsLazy(t *testing.T) {
	root := sampleTree(t)
	a, err := root.Items.Get("a")
	require.NoError(t, err)

	root.Scale = 7
	amp, err := a.Amp.Get(a)
	require.NoError(t, err)
	assert.Equal(t, 7.0, amp)
}

func TestResolve_DictReferenceEntry(t *testing.T) {
	root := sampleTree(t)
	a, err := root.Items.Get("a")
	require.NoError(t, err)
	alias, err := root.Items.Get("alias")
	require.NoError(t, err)
	assert.Same(t, a, alias)

	label, err := a.Label.Get(a)
	require.NoError(t, err)
	assert.Equal(t, "a", label)

	label, err = root.Child.Label.Get(root.Child)
	require.NoError(t, err)
	assert.Equal(t, "child", label)
}

func TestResolve_ComponentReference(t *testing.T) {
	root := sampleTree(t)
	root.Link = Ref[*leaf]("#./items/a")

	got, err := root.Link.Get(root)
	require.NoError(t, err)
	want, _ := root.Items.Get("a")
	assert.Same(t, want, got)

	self, err := Resolve(root.Child, "#./")
	require.NoError(t, err)
	assert.Same(t, root.Child, self)

	top, err := Resolve(root.Child, "#/")
	require.NoError(t, err)
	assert.Same(t, root, top)
}

func TestResolve_Errors(t *testing.T) {
	root := sampleTree(t)

	testCases := []struct {
		name string
		ref  string
		want error
	}{
		{name: "missing attribute", ref: "#./missing", want: ErrUnresolvable},
		{name: "missing dict key", ref: "#/items/zzz", want: ErrUnresolvable},
		{name: "list index out of range", ref: "#/list/5", want: ErrUnresolvable},
		{name: "walk above root", ref: "#../../../scale", want: ErrNoParent},
		{name: "descend into scalar", ref: "#/scale/x", want: ErrUnresolvable},
		{name: "json ignored field", ref: "#/Hidden", want: ErrUnresolvable},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(root.Child, tc.ref)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			var rerr *ResolveError
			assert.ErrorAs(t, err, &rerr)
		})
	}
}

func TestResolve_Cycle(t *testing.T) {
	root := sampleTree(t)
	root.Child.Amp = Ref[float64]("#../other")
	root.Other = Ref[float64]("#./child/amp")

	_, err := root.Child.Amp.Get(root.Child)
	require.ErrorIs(t, err, ErrReferenceCycle)
}

func TestResolve_CycleThroughProperty(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(root *node) (Component, func() error)
	}{
		{
			name: "field refers to a property reading the field",
			setup: func(root *node) (Component, func() error) {
				root.Child.Amp = Ref[float64]("#./double_amp")
				return root.Child, func() error {
					_, err := root.Child.Amp.Get(root.Child)
					return err
				}
			},
		},
		{
			name: "property reached from another component",
			setup: func(root *node) (Component, func() error) {
				root.Child.Amp = Ref[float64]("#../other")
				root.Other = Ref[float64]("#./child/double_amp")
				return root, func() error {
					_, err := Resolve(root, "#./child/amp")
					return err
				}
			},
		},
		{
			name: "attribute read through Get",
			setup: func(root *node) (Component, func() error) {
				root.Child.Amp = Ref[float64]("#./double_amp")
				return root.Child, func() error {
					_, err := Get(root.Child, "double_amp")
					return err
				}
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := sampleTree(t)
			c, read := tc.setup(root)

			err := read()
			require.ErrorIs(t, err, ErrReferenceCycle)
			assert.Empty(t, c.base().resolving, "in-progress marks are cleared after a failed read")

			// Breaking the loop makes the same tree readable again.
			root.Child.Amp = Lit(1.5)
			root.Other.Clear()
			v, err := Get(root.Child, "double_amp")
			require.NoError(t, err)
			assert.Equal(t, 3.0, v)
		})
	}
}

func TestResolve_SameAttributeTwiceIsNotACycle(t *testing.T) {
	root := sampleTree(t)
	root.Params.SetRef("first", "#/child/amp")
	root.Params.SetRef("second", "#/child/amp")
	root.Other = Ref[float64]("#./child/amp")

	for _, key := range []string{"first", "second"} {
		v, err := root.Params.Get(key)
		require.NoError(t, err)
		assert.Equal(t, 2.0, v)
	}
	v, err := root.Other.Get(root)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}

func TestValue_UnsetAndLookup(t *testing.T) {
	root := sampleTree(t)

	_, err := root.Other.Get(root)
	require.ErrorIs(t, err, ErrNotSet)

	_, ok, err := root.Other.Lookup(root)
	require.NoError(t, err)
	assert.False(t, ok)

	root.Other.Set(1.5)
	v, ok, err := root.Other.Lookup(root)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	root.Other.Clear()
	assert.False(t, root.Other.IsSet())
}

func TestAs(t *testing.T) {
	i, err := As[int](float64(40))
	require.NoError(t, err)
	assert.Equal(t, 40, i)

	f, err := As[float64](3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	_, err = As[string](3)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = As[*leaf]((*leaf)(nil))
	assert.ErrorIs(t, err, ErrNotSet)
}

func TestNameFromParent(t *testing.T) {
	root := sampleTree(t)
	a, _ := root.Items.Get("a")
	l0, _ := root.List.Get(0)

	key, err := KeyFromParentDict(a)
	require.NoError(t, err)
	assert.Equal(t, "a", key)

	_, err = KeyFromParentDict(root.Child)
	assert.ErrorIs(t, err, ErrWrongParent)

	_, err = KeyFromParentDict(l0)
	assert.ErrorIs(t, err, ErrWrongParent)

	idx, err := IndexFromParentList(l0)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	_, err = IndexFromParentList(a)
	assert.ErrorIs(t, err, ErrWrongParent)

	name, err := NameFromParentComponent(root.Child)
	require.NoError(t, err)
	assert.Equal(t, "child", name)

	_, err = NameFromParentComponent(a)
	assert.ErrorIs(t, err, ErrWrongParent)

	for want, c := range map[string]Component{"a": a, "0": l0, "child": root.Child, "items": root.Items} {
		got, err := NameFromParent(c)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = NameFromParent(root)
	assert.ErrorIs(t, err, ErrNoParent)
}

func TestReferenceOf(t *testing.T) {
	root := sampleTree(t)
	a, _ := root.Items.Get("a")
	l0, _ := root.List.Get(0)

	ref, err := ReferenceOf(a, "amp")
	require.NoError(t, err)
	assert.Equal(t, "#/items/a/amp", ref)

	assert.Equal(t, "#/list/0", MustReferenceOf(l0))
	assert.Equal(t, "#/", MustReferenceOf(root))
	assert.Equal(t, "#/scale", MustReferenceOf(root, "scale"))

	// A reference built by ReferenceOf resolves back to the same thing.
	got, err := Resolve(root.Child, ref)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
}

func TestIterate_PreOrder(t *testing.T) {
	root := sampleTree(t)
	a, _ := root.Items.Get("a")
	l0, _ := root.List.Get(0)

	var visited []Component
	require.NoError(t, Iterate(root, func(c Component) error {
		visited = append(visited, c)
		return nil
	}))

	require.Len(t, visited, 4)
	assert.Same(t, root, visited[0])
	assert.Same(t, root.Child, visited[1])
	assert.Same(t, a, visited[2])
	assert.Same(t, l0, visited[3])
}

func TestDict_OrderAndDelete(t *testing.T) {
	d := NewDict[int]()
	d.Set("z", 1)
	d.Set("a", 2)
	d.Set("m", 3)
	d.Set("z", 4)
	assert.Equal(t, []string{"z", "a", "m"}, d.Keys())

	d.Delete("a")
	assert.Equal(t, []string{"z", "m"}, d.Keys())
	assert.False(t, d.Has("a"))
	assert.Equal(t, 2, d.Len())

	v, err := d.Get("z")
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	var nilDict *Dict[int]
	assert.Equal(t, 0, nilDict.Len())
	assert.False(t, nilDict.Has("x"))
}

func TestDict_DeleteDetachesComponent(t *testing.T) {
	root := sampleTree(t)
	a, _ := root.Items.Get("a")
	root.Items.Delete("a")
	assert.Nil(t, ParentOf(a))
}

func TestDict_OverwriteDetachesComponent(t *testing.T) {
	testCases := []struct {
		name      string
		overwrite func(d *Dict[*leaf], replacement *leaf)
	}{
		{name: "literal", overwrite: func(d *Dict[*leaf], r *leaf) { d.Set("a", r) }},
		{name: "reference", overwrite: func(d *Dict[*leaf], _ *leaf) { d.SetRef("a", "#/child") }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := sampleTree(t)
			old, err := root.Items.Get("a")
			require.NoError(t, err)
			replacement := newLeaf()

			tc.overwrite(root.Items, replacement)

			assert.Nil(t, ParentOf(old))
			assert.Equal(t, []string{"a", "alias"}, root.Items.Keys())
			_, err = KeyFromParentDict(old)
			assert.ErrorIs(t, err, ErrNoParent)
		})
	}
}

func TestDict_SetSameComponentKeepsParent(t *testing.T) {
	root := sampleTree(t)
	a, _ := root.Items.Get("a")
	root.Items.Set("a", a)
	assert.Same(t, root.Items, ParentOf(a))

	key, err := KeyFromParentDict(a)
	require.NoError(t, err)
	assert.Equal(t, "a", key)
}

func TestReferenceSyntaxLiterals_SurviveSaveAndLoad(t *testing.T) {
	root := sampleTree(t)
	root.Params.Set("amp", "#/child/amp")
	root.Child.Label.Set("#../items/a/name_from_parent")

	_, ref, ok := root.Params.Raw("amp")
	require.True(t, ok)
	assert.Equal(t, "#/child/amp", ref, "reference syntax is stored as a reference")
	assert.True(t, root.Child.Label.IsRef())
	assert.True(t, Lit("#./x").IsRef())
	assert.False(t, Lit("plain text").IsRef())

	before, err := root.Params.Get("amp")
	require.NoError(t, err)
	label, err := root.Child.Label.Get(root.Child)
	require.NoError(t, err)
	assert.Equal(t, "a", label)

	raw, err := json.Marshal(root)
	require.NoError(t, err)
	loaded := newNode()
	require.NoError(t, json.Unmarshal(raw, loaded))
	Adopt(loaded)

	after, err := loaded.Params.Get("amp")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	label, err = loaded.Child.Label.Get(loaded.Child)
	require.NoError(t, err)
	assert.Equal(t, "a", label)
}

func TestList_AppendReferenceSyntax(t *testing.T) {
	l := NewList[string]("plain", "#/somewhere")
	assert.Equal(t, 2, l.Len())

	v, err := l.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "plain", v)

	_, err = l.Get(1)
	assert.ErrorIs(t, err, ErrUnresolvable, "reference syntax is resolved, not returned verbatim")
}

func TestIndexFromParentList_AfterInsert(t *testing.T) {
	testCases := []struct {
		name   string
		at     int
		want   []string // labels by index after the insert
		wantAt int
	}{
		{name: "front", at: 0, want: []string{"new", "a", "b", "c"}, wantAt: 0},
		{name: "middle", at: 2, want: []string{"a", "b", "new", "c"}, wantAt: 2},
		{name: "end", at: 3, want: []string{"a", "b", "c", "new"}, wantAt: 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewList[*leaf]()
			byLabel := map[string]*leaf{}
			for _, label := range []string{"a", "b", "c"} {
				c := newLeaf()
				c.Label = Lit(label)
				byLabel[label] = c
				l.Append(c)
			}

			n := newLeaf()
			n.Label = Lit("new")
			byLabel["new"] = n
			require.NoError(t, l.Insert(tc.at, n))
			require.Equal(t, 4, l.Len())
			assert.Same(t, l, ParentOf(n))

			for want, label := range tc.want {
				idx, err := IndexFromParentList(byLabel[label])
				require.NoError(t, err)
				assert.Equal(t, want, idx, "index of %s", label)

				got, err := l.Get(want)
				require.NoError(t, err)
				assert.Same(t, byLabel[label], got)
			}

			idx, err := IndexFromParentList(n)
			require.NoError(t, err)
			assert.Equal(t, tc.wantAt, idx)
		})
	}
}

func TestList_InsertOutOfRange(t *testing.T) {
	l := NewList[int](1, 2)
	for _, i := range []int{-1, 3} {
		assert.ErrorIs(t, l.Insert(i, 9), ErrUnresolvable)
	}
	assert.Equal(t, 2, l.Len())
}

func TestKeyFromParentDict_AfterSiblingChanges(t *testing.T) {
	testCases := []struct {
		name   string
		change func(d *Dict[*leaf])
		want   []string
	}{
		{name: "sibling added", change: func(d *Dict[*leaf]) { d.Set("b", newLeaf()) }, want: []string{"a", "alias", "b"}},
		{name: "sibling removed", change: func(d *Dict[*leaf]) { d.Delete("alias") }, want: []string{"a"}},
		{name: "siblings added around a removal", change: func(d *Dict[*leaf]) {
			d.Set("z", newLeaf())
			d.Delete("alias")
			d.Set("b", newLeaf())
		}, want: []string{"a", "z", "b"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := sampleTree(t)
			a, _ := root.Items.Get("a")

			tc.change(root.Items)

			assert.Equal(t, tc.want, root.Items.Keys())
			key, err := KeyFromParentDict(a)
			require.NoError(t, err)
			assert.Equal(t, "a", key)

			for _, k := range tc.want {
				c, err := root.Items.Get(k)
				require.NoError(t, err)
				got, err := KeyFromParentDict(c)
				require.NoError(t, err)
				if k == "alias" {
					assert.Equal(t, "a", got, "the alias resolves to a")
					continue
				}
				assert.Equal(t, k, got)
			}
		})
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	root := sampleTree(t)
	root.Params.Set("length", 40)
	root.Params.SetRef("sigma", "#/child/amp")
	nested := newLeaf()
	nested.Count = 3
	root.Params.Set("nested", nested)

	raw, err := json.Marshal(root)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"amp":"#../scale"`)
	assert.Contains(t, string(raw), `"alias":"#./a"`)
	assert.Contains(t, string(raw), `"__class__":"test.leaf"`)
	assert.NotContains(t, string(raw), "Hidden")

	loaded := newNode()
	require.NoError(t, json.Unmarshal(raw, loaded))
	Adopt(loaded)

	assert.Equal(t, []string{"a", "alias"}, loaded.Items.Keys())
	assert.Equal(t, []string{"length", "sigma", "nested"}, loaded.Params.Keys())

	a, err := loaded.Items.Get("a")
	require.NoError(t, err)
	amp, err := a.Amp.Get(a)
	require.NoError(t, err)
	assert.Equal(t, 2.0, amp)

	sigma, err := loaded.Params.Get("sigma")
	require.NoError(t, err)
	assert.Equal(t, 2.0, sigma)

	n, err := loaded.Params.Get("nested")
	require.NoError(t, err)
	require.IsType(t, &leaf{}, n)
	assert.Equal(t, 3, n.(*leaf).Count)
	assert.Same(t, loaded.Params, ParentOf(n.(*leaf)))

	label, err := n.(*leaf).Label.Get(n.(*leaf))
	require.NoError(t, err)
	assert.Equal(t, "nested", label, "defaults from the registered constructor survive loading")
}

func TestSaveLoad_ContentMapping(t *testing.T) {
	ctx := context.Background()
	root := sampleTree(t)
	store := inmemorystore.New()

	mapping := ContentMapping{"items.json": "items", "list.json": "list"}
	require.NoError(t, Save(ctx, root, store, mapping, "params"))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"items.json", "list.json", DefaultStateFile}, names)

	state, err := store.Get(ctx, DefaultStateFile)
	require.NoError(t, err)
	assert.Contains(t, string(state), `"__class__": "test.node"`)
	assert.NotContains(t, string(state), `"items"`)
	assert.NotContains(t, string(state), `"params"`)

	loaded := newNode()
	require.NoError(t, Load(ctx, loaded, store))
	assert.Equal(t, 2.0, loaded.Scale)
	l0, err := loaded.List.Get(0)
	require.NoError(t, err)
	amp, err := l0.Amp.Get(l0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, amp)
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	err := Load(ctx, newNode(), inmemorystore.New())
	require.ErrorIs(t, err, statestore.ErrNotFound)

	store := inmemorystore.New()
	require.NoError(t, store.Put(ctx, "a.json", []byte(`{"scale": 1}`)))
	require.NoError(t, store.Put(ctx, "b.json", []byte(`{"scale": 2}`)))
	err = Load(ctx, newNode(), store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"scale"`)
}

func TestGenerateConfig(t *testing.T) {
	root := sampleTree(t)
	root.Child.Count = 5

	cfg, err := GenerateConfig(root)
	require.NoError(t, err)

	v, ok := cfg.Lookup("elements", "child", "count")
	require.True(t, ok)
	assert.Equal(t, 5, v)
	_, ok = cfg.Lookup("elements", "a")
	assert.True(t, ok)
	_, ok = cfg.Lookup("elements", "0")
	assert.True(t, ok)
	assert.Equal(t, ConfigVersion, cfg["version"])

	_, ok = cfg.Lookup("elements", "nope", "count")
	assert.False(t, ok)
}

func TestGenerateConfig_WrapsErrors(t *testing.T) {
	root := sampleTree(t)
	root.Child.Label = Ref[string]("#./missing")

	_, err := GenerateConfig(root)
	require.ErrorIs(t, err, ErrUnresolvable)
	assert.Contains(t, err.Error(), "/child")
}

func TestMetadata(t *testing.T) {
	root := sampleTree(t)

	md, ok := MetadataOf(root.Child, "amp")
	require.True(t, ok)
	assert.Equal(t, "V", md.Unit)
	assert.Equal(t, "Amplitude", md.LongName)
	assert.Nil(t, md.LastUpdated)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, SetMeasured(root.Child, "amp", 0.01, at))
	md, _ = MetadataOf(root.Child, "amp")
	require.NotNil(t, md.LastUpdated)
	assert.True(t, at.Equal(*md.LastUpdated))
	assert.Equal(t, "0.2 V ± 0.01 V", md.Format(0.2))

	require.Error(t, SetMeasured(root.Child, "nope", 0, at))
	require.Error(t, SetMeasured(root, "scale", 0, at))

	assert.Equal(t, []string{"amp"}, Parameters(root.Child))

	raw, err := json.Marshal(root.Child)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"metadata":{"amp":`)
}

func TestRegistry(t *testing.T) {
	c, err := New("test.leaf")
	require.NoError(t, err)
	assert.IsType(t, &leaf{}, c)
	assert.Equal(t, "test.leaf", ClassName(c))
	assert.Contains(t, Classes(), "test.node")

	_, err = New("does.not.exist")
	assert.ErrorIs(t, err, ErrUnknownClass)

	assert.Panics(t, func() { Register("test.leaf", func() Component { return newLeaf() }) })
}
