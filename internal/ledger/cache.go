package ledger

import (
	"sort"

	gocache "github.com/patrickmn/go-cache"
)

// recordCache is the in-memory index of score records. Entries never expire;
// the cache is only ever replaced wholesale on load.
type recordCache struct {
	cacheInstance *gocache.Cache
}

func newRecordCache(records map[string]Record) *recordCache {
	items := make(map[string]gocache.Item, len(records))
	for handle, r := range records {
		items[handle] = gocache.Item{Object: r}
	}
	return &recordCache{cacheInstance: gocache.NewFrom(gocache.NoExpiration, 0, items)}
}

func (c *recordCache) get(handle string) Record {
	if v, ok := c.cacheInstance.Get(handle); ok {
		return v.(Record)
	}
	return Record{}
}

func (c *recordCache) put(handle string, r Record) {
	c.cacheInstance.Set(handle, r, gocache.NoExpiration)
}

func (c *recordCache) remove(handle string) {
	c.cacheInstance.Delete(handle)
}

// snapshot copies every record out of the cache.
func (c *recordCache) snapshot() map[string]Record {
	items := c.cacheInstance.Items()
	records := make(map[string]Record, len(items))
	for handle, item := range items {
		records[handle] = item.Object.(Record)
	}
	return records
}

// handles returns the handles with a record, sorted.
func (c *recordCache) handles() []string {
	items := c.cacheInstance.Items()
	handles := make([]string, 0, len(items))
	for handle := range items {
		handles = append(handles, handle)
	}
	sort.Strings(handles)
	return handles
}
