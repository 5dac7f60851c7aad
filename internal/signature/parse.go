package signature

import "fmt"

// stringIter is an Iterator driven purely by a slice of sibling element
// signatures, with no dependency on a live D-Bus library connection.
type stringIter struct {
	elems []string
	pos   int
}

// Parse builds an Iterator over the top-level elements of sig, a D-Bus
// type signature (e.g. "sia(ii)" has three top-level elements: s, i,
// a(ii)). It returns an error if sig is not well-formed.
func Parse(sig string) (Iterator, error) {
	elems, err := splitElements(sig)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, nil
	}
	return &stringIter{elems: elems}, nil
}

// splitElements breaks sig into its top-level single-type elements,
// treating array-of prefixes and struct/dict-entry brackets as part of
// one element rather than splitting inside them.
func splitElements(sig string) ([]string, error) {
	var elems []string
	i := 0
	for i < len(sig) {
		start := i
		end, err := elementEnd(sig, i)
		if err != nil {
			return nil, err
		}
		elems = append(elems, sig[start:end])
		i = end
	}
	return elems, nil
}

// elementEnd returns the index just past the single complete type
// element beginning at i.
func elementEnd(sig string, i int) (int, error) {
	if i >= len(sig) {
		return 0, fmt.Errorf("signature: unexpected end of signature")
	}
	switch sig[i] {
	case 'a':
		return elementEnd(sig, i+1)
	case '(':
		return matchBracket(sig, i, '(', ')')
	case '{':
		return matchBracket(sig, i, '{', '}')
	default:
		return i + 1, nil
	}
}

func matchBracket(sig string, i int, open, close byte) (int, error) {
	depth := 0
	for j := i; j < len(sig); j++ {
		switch sig[j] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return j + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("signature: unbalanced %q in %q", open, sig)
}

func (it *stringIter) current() string {
	if it.pos >= len(it.elems) {
		return ""
	}
	return it.elems[it.pos]
}

func (it *stringIter) CurrentType() TypeCode {
	elem := it.current()
	if elem == "" {
		return TypeInvalid
	}
	switch elem[0] {
	case '(':
		return TypeStruct
	case '{':
		return TypeDictEntry
	default:
		return TypeCode(elem[0])
	}
}

func (it *stringIter) IsBasic() bool {
	return IsBasic(it.CurrentType())
}

func (it *stringIter) IsFixed() bool {
	return IsBasicFixed(it.CurrentType())
}

func (it *stringIter) Recurse() Iterator {
	elem := it.current()
	switch it.CurrentType() {
	case TypeArray:
		sub, err := Parse(elem[1:])
		if err != nil {
			panic(err)
		}
		return sub
	case TypeStruct, TypeDictEntry:
		sub, err := Parse(elem[1 : len(elem)-1])
		if err != nil {
			panic(err)
		}
		return sub
	default:
		panic(fmt.Sprintf("signature: Recurse called on non-container type %q", it.CurrentType()))
	}
}

func (it *stringIter) Next() bool {
	it.pos++
	return it.pos < len(it.elems)
}

func (it *stringIter) SignatureString() string {
	return it.current()
}
