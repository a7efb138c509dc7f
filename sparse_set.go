package locus

// sparsePages maps entity indices to dense slots through lazily allocated
// pages. Entries store slot+1 so a zeroed page reads as absent.
type sparsePages struct {
	pageSize  int
	maxPages  int
	pages     [][]uint32
	allocated int
}

func newSparsePages(pageSize, maxPages int) sparsePages {
	return sparsePages{
		pageSize: pageSize,
		maxPages: maxPages,
	}
}

func (s *sparsePages) locate(index uint32) (page, offset int) {
	return int(index) / s.pageSize, int(index) % s.pageSize
}

// lookup returns the dense slot for index. Indices whose page was never
// allocated are reported absent.
func (s *sparsePages) lookup(index uint32) (uint32, bool) {
	page, offset := s.locate(index)
	if page >= len(s.pages) || s.pages[page] == nil {
		return 0, false
	}
	entry := s.pages[page][offset]
	if entry == 0 {
		return 0, false
	}
	return entry - 1, true
}

// ensure allocates the page holding index. Exceeding the page budget is fatal.
func (s *sparsePages) ensure(index uint32) {
	page, _ := s.locate(index)
	mustHold(page < s.maxPages, CapacityExhaustedError{Resource: "sparse page", Limit: s.maxPages})
	if page >= len(s.pages) {
		grown := make([][]uint32, page+1, max(page+1, 2*len(s.pages)))
		copy(grown, s.pages)
		s.pages = grown
	}
	if s.pages[page] == nil {
		s.pages[page] = make([]uint32, s.pageSize)
		s.allocated++
	}
}

func (s *sparsePages) set(index, slot uint32) {
	s.ensure(index)
	page, offset := s.locate(index)
	s.pages[page][offset] = slot + 1
}

func (s *sparsePages) clear(index uint32) {
	page, offset := s.locate(index)
	if page < len(s.pages) && s.pages[page] != nil {
		s.pages[page][offset] = 0
	}
}

// capacity is the number of entity indices the allocated pages can address.
func (s *sparsePages) capacity() int {
	return s.allocated * s.pageSize
}
