package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func samplePackage() *Package {
	widget := &Declaration{
		Kind: KindType, Name: "Widget", TypeKind: TypeStruct,
		Fields:  []*Declaration{{Kind: KindField, Name: "Size"}},
		Methods: []*Declaration{{Kind: KindMethod, Name: "Grow", Recv: "Widget"}},
		Funcs:   []*Declaration{{Kind: KindFunc, Name: "NewWidget"}},
	}
	return &Package{
		Name:       "widgets",
		ImportPath: "example.com/m/widgets",
		Consts:     []*Declaration{{Kind: KindConst, Name: "A", Names: []string{"A", "B"}}},
		Funcs:      []*Declaration{{Kind: KindFunc, Name: "Helper"}},
		Types:      []*Declaration{widget},
	}
}

func TestPackageLookup(t *testing.T) {
	p := samplePackage()

	d, page := p.Lookup("Widget")
	require.NotNil(t, d)
	require.Equal(t, "Widget", page)

	d, page = p.Lookup("NewWidget")
	require.Equal(t, "NewWidget", d.Name)
	require.Equal(t, "Widget", page, "constructors live on the type page")

	d, _ = p.Lookup("B")
	require.Equal(t, "A", d.Name, "value groups are found by any name")

	d, _ = p.Lookup("Missing")
	require.Nil(t, d)
}

func TestDeclarationMember(t *testing.T) {
	w := samplePackage().Type("Widget")
	w.Inherited = []Inherited{{Kind: KindMethod, Name: "Close", Origin: "io.Closer"}}

	k, ok := w.Member("Grow")
	require.True(t, ok)
	require.Equal(t, KindMethod, k)
	k, ok = w.Member("Size")
	require.True(t, ok)
	require.Equal(t, KindField, k)
	_, ok = w.Member("Close")
	require.True(t, ok)
	_, ok = w.Member("Nope")
	require.False(t, ok)
}

func TestWalkAndCount(t *testing.T) {
	m := &Module{Packages: []*Package{samplePackage()}}
	var names []string
	m.Packages[0].Walk(func(d *Declaration) { names = append(names, d.Name) })
	require.Equal(t, []string{"A", "Helper", "Widget", "Size", "NewWidget", "Grow"}, names)
	require.Equal(t, 6, m.Count())
	require.NotNil(t, m.Package("example.com/m/widgets"))
	require.Nil(t, m.Package("example.com/m/other"))
}

func TestRefKeyAndAnchor(t *testing.T) {
	require.Equal(t, "io.Reader", RefKey("io", "", "Reader"))
	require.Equal(t, "Widget.Grow", RefKey("", "Widget", "Grow"))
	require.Equal(t, "Grow", Anchor("", "Grow"))
	require.Equal(t, "Widget.Grow", Anchor("Widget", "Grow"))

	refs := []Reference{{Key: "a"}, {Key: "b", URL: "u"}}
	r, ok := FindRef(refs, "b")
	require.True(t, ok)
	require.Equal(t, "u", r.URL)
}

func TestIsExported(t *testing.T) {
	require.True(t, IsExported("Foo"))
	require.False(t, IsExported("foo"))
	require.False(t, IsExported(""))
}
