package hash

import (
	"bytes"
	"log/slog"

	applog "github.com/ryogrid/pagestore/log"
	"github.com/ryogrid/pagestore/pagestoreerr"
	"github.com/ryogrid/pagestore/storage/buffer"
	"github.com/ryogrid/pagestore/storage/page"
	"github.com/ryogrid/pagestore/types"
)

// Index is a generic extendible hash index: Key->Value, backed entirely by
// pages pinned through a buffer.PoolManager.
type Index[K comparable, V any] struct {
	pool      *buffer.PoolManager
	dirPageID types.PageID
	keyCodec  KeyCodec[K]
	valCodec  ValueCodec[V]
	log       *slog.Logger
}

// CreateHash allocates a fresh directory page and two initial bucket pages
// with global_depth=1, local_depths[0]=local_depths[1]=1, per the
// bootstrapping contract.
func CreateHash[K comparable, V any](pool *buffer.PoolManager, logID uint32, kc KeyCodec[K], vc ValueCodec[V]) (*Index[K, V], types.PageID, error) {
	var dirID types.PageID
	err := pool.WithGuard(func(g *buffer.Guard) error {
		b0ID, _, err := g.NewPage()
		if err != nil {
			return err
		}
		b1ID, _, err := g.NewPage()
		if err != nil {
			return err
		}
		dID, _, err := g.NewPage()
		if err != nil {
			return err
		}

		dir := page.NewHashDirectory(dID, logID, b0ID, b1ID)
		emptyBucket := page.EncodeHashBucket(page.NewHashBucket(kc.Size(), vc.Size())).Bytes()
		if err := g.Update(b0ID, emptyBucket); err != nil {
			return err
		}
		if err := g.Update(b1ID, emptyBucket); err != nil {
			return err
		}
		if err := g.Update(dID, page.EncodeHashDirectory(dir).Bytes()); err != nil {
			return err
		}
		g.Unpin(b0ID)
		g.Unpin(b1ID)
		g.Unpin(dID)
		dirID = dID
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return OpenHash(pool, dirID, kc, vc), dirID, nil
}

// OpenHash wraps an existing directory page.
func OpenHash[K comparable, V any](pool *buffer.PoolManager, dirPageID types.PageID, kc KeyCodec[K], vc ValueCodec[V]) *Index[K, V] {
	return &Index[K, V]{
		pool:      pool,
		dirPageID: dirPageID,
		keyCodec:  kc,
		valCodec:  vc,
		log:       applog.Component("hash"),
	}
}

// Insert writes (k, v). On bucket overflow it splits (local or global) and
// rehashes, restarting the insert, recursing until the entry fits or a
// 10th split would be required (fatal, per §4.5.4).
func (idx *Index[K, V]) Insert(k K, v V) error {
	return idx.pool.WithGuard(func(g *buffer.Guard) error {
		for {
			dir, err := idx.loadDirectory(g)
			if err != nil {
				return err
			}

			h := idx.keyCodec.Hash(k)
			slot := dir.SlotIndex(h)
			bid := dir.BucketPageIDs[slot]

			bucket, err := idx.loadBucket(g, bid)
			if err != nil {
				g.Unpin(idx.dirPageID)
				return err
			}

			if !bucket.IsFull() {
				if _, err := bucket.Insert(idx.keyCodec.Encode(k), idx.valCodec.Encode(v)); err != nil {
					g.Unpin(bid)
					g.Unpin(idx.dirPageID)
					return err
				}
				if err := g.Update(bid, page.EncodeHashBucket(bucket).Bytes()); err != nil {
					g.Unpin(bid)
					g.Unpin(idx.dirPageID)
					return err
				}
				g.Unpin(bid)
				g.Unpin(idx.dirPageID)
				return nil
			}

			g.Unpin(bid)
			if err := idx.split(g, dir, slot, bid); err != nil {
				g.Unpin(idx.dirPageID)
				return err
			}
			g.Unpin(idx.dirPageID)
			// restart: split may not relieve pressure if every key in B
			// hashed into the same half.
		}
	})
}

// split performs one local or global split of the bucket at dir.BucketPageIDs[slot].
func (idx *Index[K, V]) split(g *buffer.Guard, dir *page.HashDirectory, slot int, oldBid types.PageID) error {
	L := dir.LocalDepths[slot] + 1

	newBid, _, err := g.NewPage()
	if err != nil {
		return err
	}

	if L > dir.GlobalDepth {
		if dir.GlobalDepth >= page.MaxGlobalDepth {
			g.Unpin(newBid)
			return pagestoreerr.ErrInvariantViolation
		}
		// Bump the splitting slot's local depth before doubling, so the
		// doubling loop propagates it to the buddy slot too — otherwise
		// the retained slot is left one local depth behind the one that
		// was actually split, and a later overflow of that bucket takes
		// the local-split branch on a bit that can't separate its keys.
		dir.LocalDepths[slot] = L
		oldG := dir.GlobalDepth
		dir.GlobalDepth = oldG + 1
		half := 1 << oldG
		for i := 0; i < half; i++ {
			dir.BucketPageIDs[i+half] = dir.BucketPageIDs[i]
			dir.LocalDepths[i+half] = dir.LocalDepths[i]
		}
		dir.BucketPageIDs[slot] = newBid
		idx.log.Debug("global split", "new_global_depth", dir.GlobalDepth, "slot", slot)
	} else {
		n := 1 << dir.GlobalDepth
		for i := 0; i < n; i++ {
			if dir.BucketPageIDs[i] != oldBid {
				continue
			}
			dir.LocalDepths[i] = L
			if (i>>(L-1))&1 == 0 {
				dir.BucketPageIDs[i] = newBid
			}
		}
		idx.log.Debug("local split", "local_depth", L, "slot", slot)
	}

	oldBucket, err := idx.loadBucket(g, oldBid)
	if err != nil {
		g.Unpin(newBid)
		return err
	}
	newBucket := page.NewHashBucket(idx.keyCodec.Size(), idx.valCodec.Size())

	for i := range oldBucket.Readable {
		if !oldBucket.Readable[i] {
			continue
		}
		// Hash the stored wire bytes directly rather than decoding them
		// back into a K first: Decode is not guaranteed lossless (e.g.
		// StringKey strips trailing padding), so decoding before hashing
		// can reproduce a different value than the one hashed at insert
		// time and misroute the entry.
		h := idx.keyCodec.HashBytes(oldBucket.Key(i))
		if (h>>(L-1))&1 == 0 {
			if _, err := newBucket.Insert(oldBucket.Key(i), oldBucket.Value(i)); err != nil {
				g.Unpin(oldBid)
				g.Unpin(newBid)
				return err
			}
			oldBucket.RemoveAt(i)
		}
	}

	if err := g.Update(oldBid, page.EncodeHashBucket(oldBucket).Bytes()); err != nil {
		g.Unpin(oldBid)
		g.Unpin(newBid)
		return err
	}
	g.Unpin(oldBid)

	if err := g.Update(newBid, page.EncodeHashBucket(newBucket).Bytes()); err != nil {
		g.Unpin(newBid)
		return err
	}
	g.Unpin(newBid)

	return g.Update(idx.dirPageID, page.EncodeHashDirectory(dir).Bytes())
}

// Lookup returns the value stored for k, if any.
func (idx *Index[K, V]) Lookup(k K) (V, bool, error) {
	var result V
	var found bool
	err := idx.pool.WithGuard(func(g *buffer.Guard) error {
		dir, err := idx.loadDirectory(g)
		if err != nil {
			return err
		}
		defer g.Unpin(idx.dirPageID)

		h := idx.keyCodec.Hash(k)
		slot := dir.SlotIndex(h)
		bid := dir.BucketPageIDs[slot]

		bucket, err := idx.loadBucket(g, bid)
		if err != nil {
			return err
		}
		defer g.Unpin(bid)

		keyBytes := idx.keyCodec.Encode(k)
		for i := range bucket.Readable {
			if bucket.Readable[i] && bytes.Equal(bucket.Key(i), keyBytes) {
				result = idx.valCodec.Decode(bucket.Value(i))
				found = true
				return nil
			}
		}
		return nil
	})
	return result, found, err
}

// Remove deletes k if present, returning the value it held.
func (idx *Index[K, V]) Remove(k K) (V, bool, error) {
	var result V
	var found bool
	err := idx.pool.WithGuard(func(g *buffer.Guard) error {
		dir, err := idx.loadDirectory(g)
		if err != nil {
			return err
		}
		defer g.Unpin(idx.dirPageID)

		h := idx.keyCodec.Hash(k)
		slot := dir.SlotIndex(h)
		bid := dir.BucketPageIDs[slot]

		bucket, err := idx.loadBucket(g, bid)
		if err != nil {
			return err
		}
		defer g.Unpin(bid)

		keyBytes := idx.keyCodec.Encode(k)
		for i := range bucket.Readable {
			if bucket.Readable[i] && bytes.Equal(bucket.Key(i), keyBytes) {
				result = idx.valCodec.Decode(bucket.Value(i))
				found = true
				bucket.RemoveAt(i)
				return g.Update(bid, page.EncodeHashBucket(bucket).Bytes())
			}
		}
		return nil
	})
	return result, found, err
}

func (idx *Index[K, V]) loadDirectory(g *buffer.Guard) (*page.HashDirectory, error) {
	rp, err := g.Fetch(idx.dirPageID)
	if err != nil {
		return nil, err
	}
	return page.DecodeHashDirectory(rp)
}

func (idx *Index[K, V]) loadBucket(g *buffer.Guard, bid types.PageID) (*page.HashBucket, error) {
	rp, err := g.Fetch(bid)
	if err != nil {
		return nil, err
	}
	return page.DecodeHashBucket(rp, idx.keyCodec.Size(), idx.valCodec.Size())
}
