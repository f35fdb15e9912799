package ftl

import "fmt"

// translator owns the forward (L2P) and reverse (P2L) maps.
//
// Invariant: l2p[lba] == pca  <=>  p2l[pca.Index] == lba for every live pca.
// Pages not holding live data have p2l == InvalidLBA.
type translator struct {
	l2p           []PCA
	p2l           []LBA
	pagesPerBlock int
}

func newTranslator(logicalPages, physicalPages, pagesPerBlock int) *translator {
	t := &translator{
		l2p:           make([]PCA, logicalPages),
		p2l:           make([]LBA, physicalPages),
		pagesPerBlock: pagesPerBlock,
	}
	t.Reset()
	return t
}

// Reset unmaps every LBA and every physical page.
func (t *translator) Reset() {
	for i := range t.l2p {
		t.l2p[i] = InvalidPCA
	}
	for i := range t.p2l {
		t.p2l[i] = InvalidLBA
	}
}

// Translate splits a physical address into block and page.
func (t *translator) Translate(pca PCA) (block, page uint32) {
	return pca.Block(), pca.Page()
}

// LookupForward returns the physical page currently holding lba.
func (t *translator) LookupForward(lba LBA) (PCA, bool) {
	pca := t.l2p[lba]
	return pca, pca.Valid()
}

// LookupReverse returns the LBA stored in a physical page, if the page is live.
func (t *translator) LookupReverse(pca PCA) (LBA, bool) {
	lba := t.p2l[pca.Index(t.pagesPerBlock)]
	return lba, lba.Valid()
}

// Bind maps lba to pca in both directions.
func (t *translator) Bind(lba LBA, pca PCA) {
	t.l2p[lba] = pca
	t.p2l[pca.Index(t.pagesPerBlock)] = lba
}

// UnbindReverse marks a superseded physical page as dead. Forward entries are untouched.
func (t *translator) UnbindReverse(pca PCA) {
	t.p2l[pca.Index(t.pagesPerBlock)] = InvalidLBA
}

// InvalidateForward unmaps lba.
func (t *translator) InvalidateForward(lba LBA) {
	t.l2p[lba] = InvalidPCA
}

// Mapped returns the number of LBAs with a forward mapping.
func (t *translator) Mapped() int {
	n := 0
	for _, pca := range t.l2p {
		if pca.Valid() {
			n++
		}
	}
	return n
}

// CheckConsistency verifies the maps agree in both directions.
func (t *translator) CheckConsistency() error {
	for idx, lba := range t.p2l {
		if !lba.Valid() {
			continue
		}
		if int(lba) >= len(t.l2p) {
			return fmt.Errorf("reverse entry %d names out-of-range lba %d", idx, lba)
		}
		pca := t.l2p[lba]
		if !pca.Valid() || pca.Index(t.pagesPerBlock) != idx {
			return fmt.Errorf("reverse entry %d names lba %d whose forward entry is %s", idx, lba, pca)
		}
	}
	for lba, pca := range t.l2p {
		if !pca.Valid() {
			continue
		}
		idx := pca.Index(t.pagesPerBlock)
		if idx >= len(t.p2l) {
			return fmt.Errorf("lba %d maps to out-of-range pca %s", lba, pca)
		}
		if t.p2l[idx] != LBA(lba) {
			return fmt.Errorf("lba %d maps to %s whose reverse entry is %d", lba, pca, t.p2l[idx])
		}
	}
	return nil
}
