package atom

// Fragment is a tree fragment rendered to text by an external renderer.
type Fragment interface {
	RenderFragment() (string, error)
}

// FragmentParser rebuilds a fragment from its rendered text.
type FragmentParser interface {
	ParseFragment(text string) (any, error)
}

// FragmentParserFunc adapts a function to FragmentParser.
type FragmentParserFunc func(text string) (any, error)

// ParseFragment implements FragmentParser.
func (f FragmentParserFunc) ParseFragment(text string) (any, error) {
	return f(text)
}

// RawFragment is a fragment held as its rendered text.
type RawFragment string

// RenderFragment implements Fragment.
func (f RawFragment) RenderFragment() (string, error) {
	return string(f), nil
}

// RawParser parses every fragment into a RawFragment.
var RawParser FragmentParser = FragmentParserFunc(func(text string) (any, error) {
	return RawFragment(text), nil
})
