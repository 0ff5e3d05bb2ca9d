package engine

import (
	"container/list"

	"github.com/google/btree"
)

// sideBookItem is the single btree.Item implementation shared by both
// sides of the book. The teacher repository declares two near-identical
// types (PriceLevelItem for bids, PriceLevelItemAscending for asks); this
// generalizes them into one type that reads its comparison direction off
// the owning SideBook, per the "Dual Side Book shape" redesign note.
type sideBookItem struct {
	book  *SideBook
	level *PriceLevel
}

func (i *sideBookItem) Less(than btree.Item) bool {
	other := than.(*sideBookItem)
	if i.book.ascending {
		return i.level.Price < other.level.Price
	}
	return i.level.Price > other.level.Price
}

// SideBook is a price-sorted collection of PriceLevels for one side of the
// book. Bids are descending (best = highest price); asks are ascending
// (best = lowest price). Level lookup and best-price access are backed by
// github.com/google/btree, the teacher's own dependency for this purpose.
type SideBook struct {
	ascending bool
	tree      *btree.BTree
}

func newSideBook(ascending bool) *SideBook {
	return &SideBook{
		ascending: ascending,
		tree:      btree.New(32),
	}
}

func (b *SideBook) probe(price int64) *sideBookItem {
	return &sideBookItem{book: b, level: &PriceLevel{Price: price}}
}

// bestLevel returns the top-of-book level, or nil if the side is empty.
func (b *SideBook) bestLevel() *PriceLevel {
	item := b.tree.Min()
	if item == nil {
		return nil
	}
	return item.(*sideBookItem).level
}

// bestPrice returns the top-of-book price.
func (b *SideBook) bestPrice() (int64, bool) {
	level := b.bestLevel()
	if level == nil {
		return 0, false
	}
	return level.Price, true
}

// levelAt returns the level at price, or nil if none exists.
func (b *SideBook) levelAt(price int64) *PriceLevel {
	found := b.tree.Get(b.probe(price))
	if found == nil {
		return nil
	}
	return found.(*sideBookItem).level
}

// insert creates the level at order.LimitPrice on first use, then appends
// order to it, returning the element handle for the order index.
func (b *SideBook) insert(order *Order) (*PriceLevel, *list.Element) {
	level := b.levelAt(order.LimitPrice)
	if level == nil {
		level = newPriceLevel(order.LimitPrice)
		b.tree.ReplaceOrInsert(&sideBookItem{book: b, level: level})
	}
	elem := level.add(order)
	return level, elem
}

// deleteLevel removes an emptied level from the tree. Callers are
// responsible for having already emptied the level's order list.
func (b *SideBook) deleteLevel(price int64) {
	b.tree.Delete(b.probe(price))
}

// walkFromBest yields levels in priority order, stopping as soon as fn
// returns false.
func (b *SideBook) walkFromBest(fn func(level *PriceLevel) bool) {
	b.tree.Ascend(func(item btree.Item) bool {
		return fn(item.(*sideBookItem).level)
	})
}

func (b *SideBook) isEmpty() bool {
	return b.tree.Len() == 0
}
